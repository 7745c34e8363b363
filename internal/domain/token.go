package domain

import "time"

// TokenType distinguishes access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// RefreshToken is the server-side ledger entry for one refresh token
// issuance. It is consumed (revoked) exactly once, on refresh or logout.
type RefreshToken struct {
	JTI       string
	UserID    UserID
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Expired reports whether the token is past its expiry at now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// TokenClaims are the verified claims of a decoded token.
type TokenClaims struct {
	Subject   string
	Type      TokenType
	JTI       string
	ExpiresAt time.Time
}
