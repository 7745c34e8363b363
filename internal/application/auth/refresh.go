package auth

import (
	"context"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

type RefreshInput struct {
	RefreshToken string
}

type RefreshResult struct {
	TokenPair
	UserID domain.UserID
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued, so no refresh token works twice.
type Refresh struct {
	tx         ports.TxManager
	issuer     ports.TokenIssuer
	tokenStore ports.TokenStore
	users      ports.UserRepository
	sessions   *Sessions
	clock      clock.Clock
}

func NewRefresh(tx ports.TxManager, issuer ports.TokenIssuer, tokenStore ports.TokenStore, users ports.UserRepository, sessions *Sessions, clk clock.Clock) *Refresh {
	return &Refresh{
		tx:         tx,
		issuer:     issuer,
		tokenStore: tokenStore,
		users:      users,
		sessions:   sessions,
		clock:      clk,
	}
}

func (uc *Refresh) Execute(ctx context.Context, input RefreshInput) (*RefreshResult, error) {
	if input.RefreshToken == "" {
		return nil, domerrors.ErrInvalidToken
	}
	claims, err := uc.issuer.Decode(input.RefreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if claims.JTI == "" {
		return nil, domerrors.ErrInvalidToken
	}
	var result *RefreshResult
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		info, err := uc.tokenStore.GetRefreshToken(ctx, claims.JTI)
		if err != nil {
			return err
		}
		now := uc.clock.Now()
		switch {
		case info == nil:
			return domerrors.ErrTokenUnknown
		case info.Revoked:
			return domerrors.ErrTokenRevoked
		case info.Expired(now):
			return domerrors.ErrTokenExpired
		case info.UserID.String() != claims.Subject:
			return domerrors.ErrTokenSubject
		}
		user, err := uc.users.GetByID(ctx, info.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive() {
			return domerrors.ErrInactiveUser
		}
		// A concurrent refresh with the same token loses here.
		revoked, err := uc.tokenStore.RevokeRefreshToken(ctx, claims.JTI, now)
		if err != nil {
			return err
		}
		if !revoked {
			return domerrors.ErrTokenRevoked
		}
		pair, err := uc.sessions.Issue(ctx, info.UserID)
		if err != nil {
			return err
		}
		result = &RefreshResult{TokenPair: *pair, UserID: info.UserID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
