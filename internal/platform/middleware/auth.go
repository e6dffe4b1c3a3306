package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"roadguard/internal/transport/shared"
	dErrors "roadguard/pkg/domain-errors"
)

// TokenValidator validates bearer tokens presented on protected routes.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// TokenClaims are the claims the middleware expects from the validator.
type TokenClaims struct {
	Subject string
	Email   string
	Role    string
}

type contextKeyIdentity struct{}

// ContextKeyIdentity is exported for tests that need context.WithValue.
var ContextKeyIdentity = contextKeyIdentity{}

// Identity retrieves the authenticated identity from the context.
func Identity(ctx context.Context) (TokenClaims, bool) {
	claims, ok := ctx.Value(ContextKeyIdentity).(TokenClaims)
	return claims, ok
}

// WithIdentity injects an identity into the context.
func WithIdentity(ctx context.Context, claims TokenClaims) context.Context {
	return context.WithValue(ctx, ContextKeyIdentity, claims)
}

// RequireAuth rejects requests without a valid bearer token. A missing token
// and an invalid token yield the same outcome; only the log detail differs.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, *claims)))
		})
	}
}

// RequireRole gates a subtree on an exact role match. Must run after
// RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claims, ok := Identity(ctx)
			if !ok {
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "not authenticated"))
				return
			}
			if claims.Role != role {
				logger.WarnContext(ctx, "forbidden - role mismatch",
					"required", role,
					"actual", claims.Role,
					"request_id", GetRequestID(ctx),
				)
				shared.WriteError(w, dErrors.Newf(dErrors.CodeForbidden, "%s role required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
