package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sylvieyl/heartlog/backend/pkg/utils"
)

type contextKey string

const userIDKey contextKey = "heartlog.userID"

// TokenVerifier validates a bearer token and returns the owning user ID.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// RequireAuth 校验 Bearer 令牌并把用户ID写入请求上下文。
// Websocket/SSE clients may pass the token via the access_token query
// parameter since EventSource cannot set headers.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			userID, err := verifier.VerifyToken(token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID extracts the authenticated user from the request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}
