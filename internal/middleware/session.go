package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lucasccgomes/agendamentos-plataforma/internal/auth"
	"github.com/lucasccgomes/agendamentos-plataforma/internal/transport"
)

type sessionKey struct{}

// RequireSession guards a route with a Bearer access token. The parsed
// claims are stored on the request context for handlers that need the
// caller's identity.
func RequireSession(manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "auth not configured", nil)
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				transport.WriteError(w, http.StatusUnauthorized, "missing access token", nil)
				return
			}

			claims, err := manager.Parse(raw)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "invalid access token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionFromContext(ctx context.Context) *auth.Claims {
	if v := ctx.Value(sessionKey{}); v != nil {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
