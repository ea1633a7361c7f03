package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/sylvieyl/heartlog/backend/internal/config"
	"github.com/sylvieyl/heartlog/backend/internal/service/auth"
	"github.com/sylvieyl/heartlog/backend/internal/store"
)

func newTestService() *auth.Service {
	cfg := config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
	return auth.NewService(store.NewMemoryUserStore(), cfg)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, token, err := svc.Register(ctx, "Mina@Example.com", "hunter2hunter2", "Mina")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if registered.Email != "mina@example.com" {
		t.Errorf("expected lowercased email, got %q", registered.Email)
	}
	if registered.PasswordHash == "hunter2hunter2" {
		t.Error("password must not be stored in plain text")
	}
	if token == "" {
		t.Fatal("expected a signed token on registration")
	}

	loggedIn, loginToken, err := svc.Login(ctx, "mina@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if loggedIn.ID != registered.ID {
		t.Errorf("expected the registered user, got %q", loggedIn.ID)
	}
	if loginToken == "" {
		t.Error("expected a signed token on login")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "a@b.com", "longenough", "A"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, _, err := svc.Register(ctx, "A@B.com", "alsolongenough", "A2"); err != auth.ErrEmailTaken {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc := newTestService()

	if _, _, err := svc.Register(context.Background(), "a@b.com", "short", "A"); err != auth.ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, _, err := svc.Register(ctx, "a@b.com", "longenough", "A"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, _, err := svc.Login(ctx, "a@b.com", "wrongwrong"); err != auth.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@b.com", "longenough"); err != auth.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, token, err := svc.Register(ctx, "a@b.com", "longenough", "A")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if userID != registered.ID {
		t.Errorf("expected subject %q, got %q", registered.ID, userID)
	}

	if _, err := svc.VerifyToken("not-a-token"); err != auth.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for garbage input, got %v", err)
	}

	// A token signed with a different secret must be rejected.
	other := auth.NewService(store.NewMemoryUserStore(), config.AuthConfig{JWTSecret: "other-secret", TokenTTL: time.Hour})
	if _, err := other.VerifyToken(token); err != auth.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken across secrets, got %v", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	expiring := auth.NewService(store.NewMemoryUserStore(), config.AuthConfig{JWTSecret: "test-secret", TokenTTL: -time.Minute})

	_, token, err := expiring.Register(context.Background(), "a@b.com", "longenough", "A")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := expiring.VerifyToken(token); err != auth.ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
