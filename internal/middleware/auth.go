package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/planbook/planbook/internal/auth"
)

// TokenParser validates a bearer token and returns its claims.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RevocationChecker reports whether a token id has been revoked by logout.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Tokens TokenParser
	// Revocations is optional. When nil, logout cannot invalidate tokens
	// and every unexpired token is accepted.
	Revocations RevocationChecker
}

// Auth returns a middleware that authenticates requests with a bearer JWT
// and injects its claims into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fail := func(reason string) {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
			}

			raw := extractBearerToken(r)
			if raw == "" {
				fail("missing_token")
				return
			}

			claims, err := cfg.Tokens.Parse(raw)
			if err != nil {
				fail("invalid_token")
				return
			}

			if cfg.Revocations != nil {
				revoked, err := cfg.Revocations.IsTokenRevoked(r.Context(), claims.ID)
				switch {
				case err != nil:
					// Fail open
					cfg.Logger.Warn("revocation check failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				case revoked:
					fail("revoked_token")
					return
				}
			}

			setLogUserID(r.Context(), claims.UserID)
			ctx := auth.ContextWithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken returns the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// writeAuthError writes a 401 Unauthorized response.
// Every failure uses the same message.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="planbook"`)
	writeError(w, http.StatusUnauthorized, "authentication", "invalid or missing token")
}
