package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"capellawish/internal/domain"
)

type contextKey string

const userContextKey contextKey = "authenticated_user"

// SessionAuth authenticates requests by resolving a bearer token to a user
// through the session store.
type SessionAuth struct {
	tokens domain.TokenRepository
	users  domain.UserRepository
	logger *slog.Logger
}

// NewSessionAuth creates a new session authentication middleware
func NewSessionAuth(tokens domain.TokenRepository, users domain.UserRepository, logger *slog.Logger) *SessionAuth {
	return &SessionAuth{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// BearerToken extracts the bearer token from a request, or ""
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

// Middleware returns the authentication middleware handler
func (a *SessionAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			a.logger.Debug("Request rejected - no bearer token",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - missing Authorization header", http.StatusUnauthorized)
			return
		}

		userID, err := a.tokens.GetSession(r.Context(), token)
		if err != nil {
			a.logger.Debug("Request rejected - invalid session",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)
			http.Error(w, "Unauthorized - invalid or expired session", http.StatusUnauthorized)
			return
		}

		user, err := a.users.GetByID(r.Context(), userID)
		if err != nil || !user.IsActive {
			http.Error(w, "Unauthorized - account unavailable", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser attaches an authenticated user to the context
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFrom returns the authenticated user attached to the context, or nil
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}
