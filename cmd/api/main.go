package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sylvieyl/heartlog/backend/internal/companion"
	"github.com/sylvieyl/heartlog/backend/internal/config"
	"github.com/sylvieyl/heartlog/backend/internal/handler"
	aiservice "github.com/sylvieyl/heartlog/backend/internal/service/ai"
	authservice "github.com/sylvieyl/heartlog/backend/internal/service/auth"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
	journalservice "github.com/sylvieyl/heartlog/backend/internal/service/journal"
	"github.com/sylvieyl/heartlog/backend/internal/storage"
	"github.com/sylvieyl/heartlog/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Persistence: postgres when configured, in-memory otherwise.
	var (
		userStore  authservice.UserStore
		entryStore journalservice.EntryStore
	)
	if cfg.Database.Enabled() {
		db, err := store.Open(cfg.Database.DSN)
		if err != nil {
			log.Fatalf("failed to connect database: %v", err)
		}
		userStore = db
		entryStore = db
		log.Println("Postgres storage initialized successfully")
	} else {
		userStore = store.NewMemoryUserStore()
		entryStore = store.NewMemoryEntryStore()
		log.Println("数据库未配置，使用内存存储（仅适合开发环境）")
	}

	// Remote AI client: absent credentials means every gateway call takes
	// the local path silently.
	var remote aiservice.RemoteClient
	if cfg.AI.Enabled() {
		client, err := aiservice.NewArkClient(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize remote AI client: %v", err)
			log.Println("continuing with local companion engine only")
		} else {
			remote = client
			log.Println("Remote AI client initialized successfully")
		}
	} else {
		log.Println("Ark 凭证未配置，AI 网关将始终走本地回退")
	}

	profile := companion.DefaultProfile()
	engine := companion.NewEngine(nil)
	gateway := aiservice.NewGateway(remote, engine, profile)

	chatSvc := chatservice.NewService()
	journalSvc := journalservice.NewService(gateway, chatSvc, entryStore)
	authSvc := authservice.NewService(userStore, cfg.Auth)

	// Photo storage is optional; the journal handler degrades gracefully.
	var photos storage.PhotoStore
	if cfg.Storage.Enabled() {
		minioStore, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			log.Printf("warning: failed to initialize photo storage: %v", err)
		} else {
			photos = minioStore
			log.Println("Photo storage initialized successfully")
		}
	} else {
		log.Println("对象存储凭证未配置，跳过照片功能初始化")
	}

	router := handler.NewRouter(authSvc, chatSvc, journalSvc, gateway, photos, profile)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Heartlog backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
