package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const userColumns = `id, code, name, email, role, status, password_hash, account_id, created_at, updated_at`

type UserRepository struct{ store }

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{store{pool: pool}}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u       domain.User
		role    string
		status  string
		account pgtype.UUID
	)
	if err := row.Scan(&u.ID.UUID, &u.Code, &u.Name, &u.Email, &role, &status, &u.PasswordHash, &account, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Status = domain.UserStatus(status)
	u.AccountID = accountIDFrom(account)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID.UUID, u.Code, u.Name, u.Email, string(u.Role), string(u.Status), u.PasswordHash,
		accountIDParam(u.AccountID), u.CreatedAt, u.UpdatedAt)
	return mapError(err)
}

func (r *UserRepository) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.UUID))
	if noRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if noRows(err) {
		return nil, nil
	}
	return u, err
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, limit, offset)
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
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET code = $2, name = $3, email = $4, role = $5, status = $6,
			password_hash = $7, account_id = $8, updated_at = $9
		WHERE id = $1`,
		u.ID.UUID, u.Code, u.Name, u.Email, string(u.Role), string(u.Status), u.PasswordHash,
		accountIDParam(u.AccountID), u.UpdatedAt)
	return mapError(err)
}

func (r *UserRepository) Delete(ctx context.Context, id domain.UserID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id.UUID)
	return mapError(err)
}

// ProfileRepository stores the optional per-user profile.
type ProfileRepository struct{ store }

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{store{pool: pool}}
}

func (r *ProfileRepository) Get(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT user_id, first_name, last_name, phone, country, time_zone, avatar_url, created_at, updated_at
		FROM profiles WHERE user_id = $1`, userID.UUID).
		Scan(&p.UserID.UUID, &p.FirstName, &p.LastName, &p.Phone, &p.Country, &p.TimeZone, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if noRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *domain.Profile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO profiles (user_id, first_name, last_name, phone, country, time_zone, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			country = EXCLUDED.country,
			time_zone = EXCLUDED.time_zone,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at`,
		p.UserID.UUID, p.FirstName, p.LastName, p.Phone, p.Country, p.TimeZone, p.AvatarURL, p.CreatedAt, p.UpdatedAt)
	return mapError(err)
}

var (
	_ ports.UserRepository    = (*UserRepository)(nil)
	_ ports.ProfileRepository = (*ProfileRepository)(nil)
)
