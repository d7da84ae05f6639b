// Package middleware provides HTTP middleware for the API server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/eatrite/backend/internal/errors"
	"github.com/eatrite/backend/internal/httputil"
	"github.com/eatrite/backend/internal/logging"
	"github.com/eatrite/backend/internal/token"
)

type contextKey string

const (
	emailContextKey contextKey = "user_email"
	tokenContextKey contextKey = "bearer_token"
)

// AuthMiddleware validates bearer session tokens.
type AuthMiddleware struct {
	tokens   *token.Service
	logger   *logging.Logger
	optional map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Paths listed in
// optionalPaths pass through without a token; handlers there treat the user
// as anonymous.
func NewAuthMiddleware(tokens *token.Service, logger *logging.Logger, optionalPaths []string) *AuthMiddleware {
	optional := make(map[string]bool)
	for _, path := range optionalPaths {
		optional[path] = true
	}
	return &AuthMiddleware{tokens: tokens, logger: logger, optional: optional}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := BearerToken(r)
		if !ok {
			if m.optional[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			m.respondError(w, r, errors.Unauthorized("Missing Authorization header"))
			return
		}

		id, err := m.tokens.Verify(tokenString)
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
			m.respondError(w, r, err)
			return
		}

		ctx := logging.WithUserID(r.Context(), id.UserID)
		ctx = context.WithValue(ctx, emailContextKey, id.Email)
		ctx = context.WithValue(ctx, tokenContextKey, tokenString)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("authentication failed")
	httputil.WriteError(w, err)
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// GetUserEmail extracts the authenticated user's email from context.
func GetUserEmail(ctx context.Context) string {
	if v, ok := ctx.Value(emailContextKey).(string); ok {
		return v
	}
	return ""
}

// GetBearerToken extracts the raw bearer token from context.
func GetBearerToken(ctx context.Context) string {
	if v, ok := ctx.Value(tokenContextKey).(string); ok {
		return v
	}
	return ""
}

// RequireUserID ensures an authenticated user is present in context.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			httputil.WriteError(w, errors.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
