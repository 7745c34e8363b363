package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// Authenticator resolves an access token to an active user.
type Authenticator interface {
	Execute(ctx context.Context, accessToken string) (*domain.User, error)
}

// AuthValidator requires a bearer access token and puts the user in the
// context (see UserFromContext).
type AuthValidator struct {
	authn Authenticator
}

func NewAuthValidator(authn Authenticator) *AuthValidator {
	return &AuthValidator{authn: authn}
}

func (m *AuthValidator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			WriteError(w, r, domerrors.Unauthenticated("not authenticated"))
			return
		}
		user, err := m.authn.Execute(r.Context(), strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			if domerrors.KindOf(err) == domerrors.KindUnauthenticated {
				w.Header().Set("WWW-Authenticate", "Bearer")
			}
			WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}
