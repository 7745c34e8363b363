package sqlite

import (
	"context"
	"database/sql"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const accountColumns = `id, code, name, type, created_at, updated_at`

type AccountRepository struct{ store }

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{store{db: db}}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		a                domain.Account
		created, updated string
	)
	if err := row.Scan(&a.ID.UUID, &a.Code, &a.Name, &a.Type, &created, &updated); err != nil {
		return nil, err
	}
	if err := stamps(created, updated, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID.String(), a.Code, a.Name, a.Type, stamp(a.CreatedAt), stamp(a.UpdatedAt))
	return mapError(err)
}

func (r *AccountRepository) GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error) {
	a, err := scanAccount(r.conn(ctx).QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id.String()))
	if noRows(err) {
		return nil, nil
	}
	return a, err
}

func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, int, error) {
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT count(*) FROM accounts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE accounts SET code = ?, name = ?, type = ?, updated_at = ? WHERE id = ?`,
		a.Code, a.Name, a.Type, stamp(a.UpdatedAt), a.ID.String())
	return mapError(err)
}

func (r *AccountRepository) Delete(ctx context.Context, id domain.AccountID) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id.String())
	return mapError(err)
}

var _ ports.AccountRepository = (*AccountRepository)(nil)
