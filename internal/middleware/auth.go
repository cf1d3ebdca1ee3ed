package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ayush/card-tracker/backend/internal/auth"
	"github.com/ayush/card-tracker/backend/internal/httpx"
	"github.com/ayush/card-tracker/backend/internal/models"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(token string) (auth.Identity, error)
}

// RevocationChecker reports logged-out tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RequireAuth validates the Authorization bearer token, rejects revoked
// tokens and stores the caller identity in the request context.
func RequireAuth(tokens TokenValidator, revoked RevocationChecker, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				httpx.Message(w, http.StatusUnauthorized, "not authenticated")
				return
			}

			id, err := tokens.Validate(strings.TrimSpace(raw))
			if err != nil {
				httpx.Message(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			isRevoked, err := revoked.IsRevoked(r.Context(), id.TokenID)
			if err != nil {
				log.Warn("token revocation check failed", zap.Error(err))
				httpx.Message(w, http.StatusServiceUnavailable, "service unavailable")
				return
			}
			if isRevoked {
				httpx.Message(w, http.StatusUnauthorized, "token has been revoked")
				return
			}

			recordUser(r, id.UserID)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

func requireWhere(allowed func(models.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			if !ok {
				httpx.Message(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !allowed(id.Role) {
				httpx.Message(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits callers holding role. Admins always pass.
func RequireRole(role models.Role) func(http.Handler) http.Handler {
	return requireWhere(func(r models.Role) bool { return r == role || r == models.RoleAdmin })
}

// RequireAdmin admits admins only.
func RequireAdmin() func(http.Handler) http.Handler {
	return requireWhere(func(r models.Role) bool { return r == models.RoleAdmin })
}

// RequireOwner admits the owner role only.
func RequireOwner() func(http.Handler) http.Handler {
	return requireWhere(func(r models.Role) bool { return r == models.RoleOwner })
}
