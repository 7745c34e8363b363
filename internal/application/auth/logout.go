package auth

import (
	"context"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

type LogoutInput struct {
	RefreshToken string
}

// Logout revokes a refresh token. Unknown, already revoked, or foreign
// tokens are ignored so repeated calls have no further effect.
type Logout struct {
	tx         ports.TxManager
	issuer     ports.TokenIssuer
	tokenStore ports.TokenStore
	clock      clock.Clock
}

func NewLogout(tx ports.TxManager, issuer ports.TokenIssuer, tokenStore ports.TokenStore, clk clock.Clock) *Logout {
	return &Logout{tx: tx, issuer: issuer, tokenStore: tokenStore, clock: clk}
}

func (uc *Logout) Execute(ctx context.Context, input LogoutInput) error {
	if input.RefreshToken == "" {
		return domerrors.ErrInvalidToken
	}
	claims, err := uc.issuer.Decode(input.RefreshToken, domain.TokenTypeRefresh)
	if err != nil {
		return err
	}
	if claims.JTI == "" {
		return domerrors.ErrInvalidToken
	}
	return uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		info, err := uc.tokenStore.GetRefreshToken(ctx, claims.JTI)
		if err != nil {
			return err
		}
		if info == nil || info.Revoked || info.UserID.String() != claims.Subject {
			return nil
		}
		_, err = uc.tokenStore.RevokeRefreshToken(ctx, claims.JTI, uc.clock.Now())
		return err
	})
}
