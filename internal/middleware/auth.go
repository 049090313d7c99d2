package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/bookden/library-app/backend/internal/api"
	"github.com/bookden/library-app/backend/internal/auth"
	"github.com/bookden/library-app/backend/internal/models"
)

// TokenChecker reports whether a token ID has been revoked.
type TokenChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth validates the Bearer token, rejects revoked sessions and
// injects the caller's principal into the request context.
func RequireAuth(secret string, revoked TokenChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := auth.ParseFromRequest(r, secret)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "Not authenticated")
				return
			}

			gone, err := revoked.IsRevoked(r.Context(), p.TokenID)
			if err != nil {
				log.Printf("revocation check error: %v", err)
				api.Error(w, http.StatusInternalServerError, "Internal error")
				return
			}
			if gone {
				api.Error(w, http.StatusUnauthorized, "Session expired")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin allows only callers whose session carries the admin
// role. Must be mounted after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.FromContext(r.Context())
		if !ok {
			api.Error(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if p.Role != models.RoleAdmin {
			api.Error(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
