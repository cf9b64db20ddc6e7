package middleware

import (
	"net/http"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/pkg/logger"
)

// UserContext tags the request logger with the authenticated user. It must
// run after the auth middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := internal.UserIDFromContext(r.Context())
		if userID == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
