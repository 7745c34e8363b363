package ports

import (
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

// PasswordHasher hashes and verifies passwords (PBKDF2-HMAC-SHA256).
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify returns false for a malformed stored hash.
	Verify(password, hash string) bool
}

// TokenIssuer signs and verifies JWTs.
type TokenIssuer interface {
	IssueAccessToken(subject string, expiresIn time.Duration) (string, error)
	IssueRefreshToken(subject, jti string, expiresIn time.Duration) (string, error)
	// Decode verifies signature and expiry, and the type claim when expected
	// is non-empty.
	Decode(token string, expected domain.TokenType) (*domain.TokenClaims, error)
}
