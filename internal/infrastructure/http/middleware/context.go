package middleware

import (
	"context"
	"net/http"

	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

type contextKey string

const userContextKey contextKey = "user"

// WithUser injects the authenticated user into the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated user, or nil.
func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

const clockContextKey contextKey = "clock"

// Clock stores clk in every request context; error envelopes stamp their
// timestamp from it.
func Clock(clk clock.Clock) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clockContextKey, clk)))
		})
	}
}

// ClockFromContext returns the request clock, or the real clock.
func ClockFromContext(ctx context.Context) clock.Clock {
	if clk, ok := ctx.Value(clockContextKey).(clock.Clock); ok && clk != nil {
		return clk
	}
	return clock.Real()
}
