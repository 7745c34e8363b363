package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const accountColumns = `id, code, name, type, created_at, updated_at`

type AccountRepository struct{ store }

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{store{pool: pool}}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID.UUID, a.Code, a.Name, a.Type, a.CreatedAt, a.UpdatedAt)
	return mapError(err)
}

func (r *AccountRepository) GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	var a domain.Account
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id.UUID).
		Scan(&a.ID.UUID, &a.Code, &a.Name, &a.Type, &a.CreatedAt, &a.UpdatedAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.Account
	for rows.Next() {
		var a domain.Account
		if err := rows.Scan(&a.ID.UUID, &a.Code, &a.Name, &a.Type, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &a)
	}
	return out, total, rows.Err()
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE accounts SET code = $2, name = $3, type = $4, updated_at = $5 WHERE id = $1`,
		a.ID.UUID, a.Code, a.Name, a.Type, a.UpdatedAt)
	return mapError(err)
}

func (r *AccountRepository) Delete(ctx context.Context, id domain.AccountID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id.UUID)
	return mapError(err)
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
