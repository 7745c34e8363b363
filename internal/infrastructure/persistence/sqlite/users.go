package sqlite

import (
	"context"
	"database/sql"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const userColumns = `id, code, name, email, role, status, password_hash, account_id, created_at, updated_at`

type UserRepository struct{ store }

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{store{db: db}}
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u                domain.User
		role, status     string
		account          sql.NullString
		created, updated string
	)
	if err := row.Scan(&u.ID.UUID, &u.Code, &u.Name, &u.Email, &role, &status, &u.PasswordHash, &account, &created, &updated); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	var err error
	if u.AccountID, err = accountFrom(account); err != nil {
		return nil, err
	}
	if err := stamps(created, updated, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID.String(), u.Code, u.Name, u.Email, string(u.Role), string(u.Status), u.PasswordHash,
		accountArg(u.AccountID), stamp(u.CreatedAt), stamp(u.UpdatedAt))
	return mapError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String()))
	if noRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if noRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE users SET code = ?, name = ?, email = ?, role = ?, status = ?, password_hash = ?, account_id = ?, updated_at = ?
		WHERE id = ?`,
		u.Code, u.Name, u.Email, string(u.Role), string(u.Status), u.PasswordHash,
		accountArg(u.AccountID), stamp(u.UpdatedAt), u.ID.String())
	return mapError(err)
}

func (r *UserRepository) Delete(ctx context.Context, id domain.UserID) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	return mapError(err)
}

type ProfileRepository struct{ store }

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{store{db: db}}
}

func (r *ProfileRepository) Get(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	var (
		p                domain.Profile
		created, updated string
	)
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT user_id, first_name, last_name, phone, country, time_zone, avatar_url, created_at, updated_at
		FROM profiles WHERE user_id = ?`, userID.String()).
		Scan(&p.UserID.UUID, &p.FirstName, &p.LastName, &p.Phone, &p.Country, &p.TimeZone, &p.AvatarURL, &created, &updated)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := stamps(created, updated, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, phone, country, time_zone, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			phone = excluded.phone,
			country = excluded.country,
			time_zone = excluded.time_zone,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`,
		p.UserID.String(), p.FirstName, p.LastName, p.Phone, p.Country, p.TimeZone, p.AvatarURL,
		stamp(p.CreatedAt), stamp(p.UpdatedAt))
	return mapError(err)
}

var (
	_ ports.UserRepository    = (*UserRepository)(nil)
	_ ports.ProfileRepository = (*ProfileRepository)(nil)
)
