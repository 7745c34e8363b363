package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// Authenticate resolves a bearer access token to the current user. The user
// is loaded on every call so role and status changes apply immediately.
type Authenticate struct {
	issuer ports.TokenIssuer
	users  ports.UserRepository
}

func NewAuthenticate(issuer ports.TokenIssuer, users ports.UserRepository) *Authenticate {
	return &Authenticate{issuer: issuer, users: users}
}

func (uc *Authenticate) Execute(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := uc.issuer.Decode(accessToken, domain.TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domerrors.ErrInvalidToken
	}
	user, err := uc.users.GetByID(ctx, domain.NewUserID(id))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domerrors.ErrInvalidToken
	}
	if !user.IsActive() {
		return nil, domerrors.ErrInactiveUser
	}
	return user, nil
}
