package middleware

import (
	"net/http"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
)

// RequireAdmin rejects callers without the admin role. Use after
// AuthValidator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := policy.RequireAdmin(UserFromContext(r.Context())); err != nil {
			WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
