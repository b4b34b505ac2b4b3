package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/taskmaster-cloud/tasksearch/internal/domain"
)

type identityKey struct{}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(domain.Identity)
	return ident, ok
}

// ContextWithIdentity attaches a caller identity; used by tests to bypass
// the middleware.
func ContextWithIdentity(ctx context.Context, ident domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// UserReader resolves a token's user id to its stored identity.
type UserReader interface {
	Get(ctx context.Context, id int64) (domain.User, error)
}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware validates Bearer tokens against the configured
// token-to-user mapping and attaches the resolved identity to the request
// context. With no tokens configured, every request is rejected except the
// exempt paths.
func BearerAuthMiddleware(tokens map[string]int64, users UserReader) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			userID, ok := tokens[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid token")
				return
			}

			u, err := users.Get(r.Context(), userID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "unknown user for token")
				return
			}

			ident := domain.Identity{UserID: u.ID, Username: u.Username, OrgID: u.OrgID}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), ident)))
		})
	}
}
