package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sylvieyl/heartlog/backend/internal/config"
	"github.com/sylvieyl/heartlog/backend/internal/model/user"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

const tokenIssuer = "heartlog"

// UserStore persists registered users.
type UserStore interface {
	Create(ctx context.Context, u user.User) error
	FindByEmail(ctx context.Context, email string) (user.User, bool, error)
	FindByID(ctx context.Context, id string) (user.User, bool, error)
}

// Service issues and verifies access tokens for journal owners.
type Service struct {
	store UserStore
	cfg   config.AuthConfig
}

// NewService wires the auth service.
func NewService(store UserStore, cfg config.AuthConfig) *Service {
	return &Service{store: store, cfg: cfg}
}

// Register creates a user and returns a signed access token.
func (s *Service) Register(ctx context.Context, email, password, displayName string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, "", fmt.Errorf("valid email is required")
	}
	if len(password) < 8 {
		return user.User{}, "", ErrWeakPassword
	}

	if _, exists, err := s.store.FindByEmail(ctx, email); err != nil {
		return user.User{}, "", err
	} else if exists {
		return user.User{}, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, "", fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return user.User{}, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// Login validates credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, exists, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return user.User{}, "", err
	}
	if !exists {
		return user.User{}, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return user.User{}, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(u)
	if err != nil {
		return user.User{}, "", err
	}
	return u, token, nil
}

// VerifyToken parses a bearer token and returns the owning user ID.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}

func (s *Service) issueToken(u user.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   u.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
