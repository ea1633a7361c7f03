package handler

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sylvieyl/heartlog/backend/internal/companion"
	authhandler "github.com/sylvieyl/heartlog/backend/internal/handler/auth"
	chathandler "github.com/sylvieyl/heartlog/backend/internal/handler/chat"
	journalhandler "github.com/sylvieyl/heartlog/backend/internal/handler/journal"
	"github.com/sylvieyl/heartlog/backend/internal/handler/stream"
	"github.com/sylvieyl/heartlog/backend/internal/middleware"
	aiservice "github.com/sylvieyl/heartlog/backend/internal/service/ai"
	authservice "github.com/sylvieyl/heartlog/backend/internal/service/auth"
	chatservice "github.com/sylvieyl/heartlog/backend/internal/service/chat"
	journalservice "github.com/sylvieyl/heartlog/backend/internal/service/journal"
	"github.com/sylvieyl/heartlog/backend/internal/storage"
	"github.com/sylvieyl/heartlog/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(
	authSvc *authservice.Service,
	chatSvc *chatservice.Service,
	journalSvc *journalservice.Service,
	gateway *aiservice.Gateway,
	photos storage.PhotoStore,
	profile companion.Profile,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS)

	authHandler := authhandler.New(authSvc)
	chatHandler := chathandler.New(chatSvc, gateway, profile)
	wsHandler := chathandler.NewWebSocketHandler(chatHandler)
	journalHandler := journalhandler.New(journalSvc, photos)
	streamHandler := stream.New(gateway, chatSvc)

	r.Route("/api", func(api chi.Router) {
		authHandler.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(authSvc))

			chatHandler.RegisterRoutes(protected)
			journalHandler.RegisterRoutes(protected)
			wsHandler.RegisterWebSocketRoutes(protected)

			protected.Get("/stream/{sessionID}", func(w http.ResponseWriter, r *http.Request) {
				sessionID := chi.URLParam(r, "sessionID")
				userMessage := r.URL.Query().Get("message")
				if userMessage == "" {
					utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
					return
				}

				if err := streamHandler.HandleStreamRequest(r.Context(), w, sessionID, middleware.UserID(r.Context()), userMessage); err != nil {
					log.Printf("[stream] error handling request: %v", err)
				}
			})
		})
	})

	return r
}
