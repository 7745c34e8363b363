package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

type LoginInput struct {
	Email    string
	Password string
}

type LoginResult struct {
	TokenPair
	User *domain.User
}

type Login struct {
	tx       ports.TxManager
	users    ports.UserRepository
	hasher   ports.PasswordHasher
	sessions *Sessions
	lockout  ports.LoginLockoutStore // optional
}

func NewLogin(tx ports.TxManager, users ports.UserRepository, hasher ports.PasswordHasher, sessions *Sessions, lockout ports.LoginLockoutStore) *Login {
	return &Login{
		tx:       tx,
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		lockout:  lockout,
	}
}

func (uc *Login) Execute(ctx context.Context, input LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if uc.lockout != nil {
		if locked, retryAfter := uc.lockout.IsLocked(ctx, email); locked {
			return nil, domerrors.ErrAccountLocked.WithDetails(domerrors.Details{"retry_after": retryAfter})
		}
	}
	var result *LoginResult
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		user, err := uc.users.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if user == nil || !uc.hasher.Verify(input.Password, user.PasswordHash) {
			return domerrors.ErrInvalidCredentials
		}
		if !user.IsActive() {
			return domerrors.ErrInactiveUser
		}
		pair, err := uc.sessions.Issue(ctx, user.ID)
		if err != nil {
			return err
		}
		result = &LoginResult{TokenPair: *pair, User: user}
		return nil
	})
	if uc.lockout != nil {
		switch {
		case err == nil:
			uc.lockout.RecordSuccess(ctx, email)
		case errors.Is(err, domerrors.ErrInvalidCredentials):
			uc.lockout.RecordFailure(ctx, email)
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
