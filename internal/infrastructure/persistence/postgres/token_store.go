package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

// TokenStore is the refresh-token revocation ledger.
type TokenStore struct{ store }

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{store{pool: pool}}
}

func (s *TokenStore) StoreRefreshToken(ctx context.Context, t *domain.RefreshToken) error {
	_, err := s.conn(ctx).Exec(ctx,
		`INSERT INTO refresh_tokens (jti, user_id, expires_at, revoked, created_at) VALUES ($1, $2, $3, FALSE, $4)`,
		t.JTI, t.UserID.UUID, t.ExpiresAt, t.CreatedAt)
	return mapError(err)
}

func (s *TokenStore) GetRefreshToken(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	var (
		t         domain.RefreshToken
		revokedAt pgtype.Timestamptz
	)
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT jti, user_id, expires_at, revoked, revoked_at, created_at FROM refresh_tokens WHERE jti = $1`, jti).
		Scan(&t.JTI, &t.UserID.UUID, &t.ExpiresAt, &t.Revoked, &revokedAt, &t.CreatedAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.RevokedAt = timeFrom(revokedAt)
	return &t, nil
}

// RevokeRefreshToken flips revoked only on an unrevoked row, so of two
// concurrent rotations of the same token exactly one succeeds.
func (s *TokenStore) RevokeRefreshToken(ctx context.Context, jti string, at time.Time) (bool, error) {
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE jti = $1 AND NOT revoked`, jti, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *TokenStore) PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.conn(ctx).Exec(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1 OR (revoked AND revoked_at < $1)`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ ports.TokenStore = (*TokenStore)(nil)
