package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const (
	DefaultAccessTokenExpiry  = 30 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    int64 // access token lifetime in seconds
}

// Sessions issues access/refresh pairs and records each refresh token in
// the revocation ledger.
type Sessions struct {
	issuer     ports.TokenIssuer
	tokenStore ports.TokenStore
	clock      clock.Clock
	accessExp  time.Duration
	refreshExp time.Duration
}

func NewSessions(issuer ports.TokenIssuer, tokenStore ports.TokenStore, clk clock.Clock, accessExp, refreshExp time.Duration) *Sessions {
	if accessExp <= 0 {
		accessExp = DefaultAccessTokenExpiry
	}
	if refreshExp <= 0 {
		refreshExp = DefaultRefreshTokenExpiry
	}
	return &Sessions{
		issuer:     issuer,
		tokenStore: tokenStore,
		clock:      clk,
		accessExp:  accessExp,
		refreshExp: refreshExp,
	}
}

// Issue creates a new pair for userID and persists the refresh record unrevoked.
func (s *Sessions) Issue(ctx context.Context, userID domain.UserID) (*TokenPair, error) {
	subject := userID.String()
	accessToken, err := s.issuer.IssueAccessToken(subject, s.accessExp)
	if err != nil {
		return nil, err
	}
	jti := strings.ReplaceAll(uuid.NewString(), "-", "")
	refreshToken, err := s.issuer.IssueRefreshToken(subject, jti, s.refreshExp)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	if err := s.tokenStore.StoreRefreshToken(ctx, &domain.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: now.Add(s.refreshExp),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.accessExp / time.Second),
	}, nil
}
