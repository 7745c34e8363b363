package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

type TokenStore struct{ store }

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{store{db: db}}
}

func (s *TokenStore) StoreRefreshToken(ctx context.Context, t *domain.RefreshToken) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO refresh_tokens (jti, user_id, expires_at, revoked, created_at) VALUES (?, ?, ?, 0, ?)`,
		t.JTI, t.UserID.String(), stamp(t.ExpiresAt), stamp(t.CreatedAt))
	return mapError(err)
}

func (s *TokenStore) GetRefreshToken(ctx context.Context, jti string) (*domain.RefreshToken, error) {
	var (
		t                domain.RefreshToken
		expires, created string
		revokedAt        sql.NullString
	)
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT jti, user_id, expires_at, revoked, revoked_at, created_at FROM refresh_tokens WHERE jti = ?`, jti).
		Scan(&t.JTI, &t.UserID.UUID, &expires, &t.Revoked, &revokedAt, &created)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := stamps(expires, created, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if revokedAt.Valid {
		at, err := parseStamp(revokedAt.String)
		if err != nil {
			return nil, err
		}
		t.RevokedAt = &at
	}
	return &t, nil
}

func (s *TokenStore) RevokeRefreshToken(ctx context.Context, jti string, at time.Time) (bool, error) {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1, revoked_at = ? WHERE jti = ? AND revoked = 0`, stamp(at), jti)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (s *TokenStore) PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	c := stamp(cutoff)
	res, err := s.conn(ctx).ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ? OR (revoked = 1 AND revoked_at < ?)`, c, c)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ ports.TokenStore = (*TokenStore)(nil)
