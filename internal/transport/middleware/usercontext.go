package middleware

import (
	"net/http"

	"github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/pkg/logger"
)

// UserContext enriches the request-scoped logger with the authenticated
// identity. Runs after the auth middleware; anonymous requests pass through
// untouched.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := internal.UserFromContext(r.Context())
		if !ok || user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", user.ID, "role", user.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
