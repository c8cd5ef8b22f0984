// Package middleware provides HTTP middleware for the import service.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/proplist/importer/internal/config"
)

type ctxKey int

const callerKey ctxKey = iota

// AnonymousCaller is the identity attached when authentication is disabled.
const AnonymousCaller = "anonymous"

// CallerID returns the caller identity attached by Auth, or
// AnonymousCaller if none is present.
func CallerID(ctx context.Context) string {
	if id, ok := ctx.Value(callerKey).(string); ok && id != "" {
		return id
	}
	return AnonymousCaller
}

// WithCallerID returns a context carrying the given caller identity.
// Exposed for tests and internal callers that bypass the middleware.
func WithCallerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callerKey, id)
}

// Auth returns middleware that resolves the caller identity for each
// request. When cfg.Required is true it validates a Bearer JWT signed with
// the configured HMAC secret and uses the subject claim as the identity;
// otherwise every request passes through as AnonymousCaller.
func Auth(cfg *config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Required {
				next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), AnonymousCaller)))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, r, "authorization header is required")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				unauthorized(w, r, "invalid authorization header format")
				return
			}

			subject, err := validateToken(parts[1], cfg.JWTSecret)
			if err != nil {
				unauthorized(w, r, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), subject)))
		})
	}
}

// validateToken verifies an HS256 token and returns its subject claim.
func validateToken(token, secret string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", jwt.ErrTokenUnverifiable
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}
	return claims.Subject, nil
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	slog.Warn("auth: rejected request",
		"path", r.URL.Path,
		"method", r.Method,
		"remote_addr", r.RemoteAddr,
		"reason", msg,
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"success":false,"message":%q}`, msg)
}
