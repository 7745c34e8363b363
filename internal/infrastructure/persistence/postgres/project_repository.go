package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const projectColumns = `p.id, p.code, p.name, p.description, p.client_name, p.is_active, p.account_id, p.created_at, p.updated_at`

// projectOrderColumns is the ordering allow-list; nothing else reaches SQL.
var projectOrderColumns = map[domain.ProjectOrder]string{
	domain.ProjectOrderCreatedAt: "p.created_at",
	domain.ProjectOrderUpdatedAt: "p.updated_at",
	domain.ProjectOrderName:      "p.name",
	domain.ProjectOrderCode:      "p.code",
}

type ProjectRepository struct{ store }

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{store{pool: pool}}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		p       domain.Project
		account pgtype.UUID
	)
	if err := row.Scan(&p.ID.UUID, &p.Code, &p.Name, &p.Description, &p.ClientName, &p.IsActive, &account, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.AccountID = accountIDFrom(account)
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO projects (id, code, name, description, client_name, is_active, account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID.UUID, p.Code, p.Name, p.Description, p.ClientName, p.IsActive, accountIDParam(p.AccountID), p.CreatedAt, p.UpdatedAt)
	return mapError(err)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, err := scanProject(r.conn(ctx).QueryRow(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = $1`, id.UUID))
	if noRows(err) {
		return nil, nil
	}
	return p, err
}

func (r *ProjectRepository) List(ctx context.Context, f ports.ProjectFilter) ([]*domain.Project, int, error) {
	var (
		where []string
		args  []any
	)
	from := `projects p`
	if f.MemberID != nil {
		args = append(args, f.MemberID.UUID)
		from += fmt.Sprintf(` JOIN project_members m ON m.project_id = p.id AND m.user_id = $%d`, len(args))
	}
	if f.AccountID != nil {
		args = append(args, f.AccountID.UUID)
		where = append(where, fmt.Sprintf(`p.account_id = $%d`, len(args)))
	}
	if f.IsActive != nil {
		args = append(args, *f.IsActive)
		where = append(where, fmt.Sprintf(`p.is_active = $%d`, len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM `+from+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := projectOrderColumns[f.OrderBy]
	if !ok {
		col = projectOrderColumns[domain.ProjectOrderCreatedAt]
	}
	dir := "ASC"
	if f.Descending {
		dir = "DESC"
	}
	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM %s%s ORDER BY %s %s, p.id LIMIT $%d OFFSET $%d`,
		projectColumns, from, cond, col, dir, len(args)-1, len(args))
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []*domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE projects SET code = $2, name = $3, description = $4, client_name = $5,
			is_active = $6, account_id = $7, updated_at = $8
		WHERE id = $1`,
		p.ID.UUID, p.Code, p.Name, p.Description, p.ClientName, p.IsActive, accountIDParam(p.AccountID), p.UpdatedAt)
	return mapError(err)
}

func (r *ProjectRepository) Delete(ctx context.Context, id domain.ProjectID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM projects WHERE id = $1`, id.UUID)
	return mapError(err)
}

// MembershipRepository stores project memberships.
type MembershipRepository struct{ store }

func NewMembershipRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{store{pool: pool}}
}

func (r *MembershipRepository) Add(ctx context.Context, m *domain.Membership) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO project_members (project_id, user_id, role_in_project, created_at) VALUES ($1, $2, $3, $4)`,
		m.ProjectID.UUID, m.UserID.UUID, m.RoleInProject, m.CreatedAt)
	return mapError(err)
}

func (r *MembershipRepository) Remove(ctx context.Context, projectID domain.ProjectID, userID domain.UserID) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID.UUID, userID.UUID)
	if err != nil {
		return false, mapError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MembershipRepository) Exists(ctx context.Context, projectID domain.ProjectID, userID domain.UserID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2)`,
		projectID.UUID, userID.UUID).Scan(&ok)
	return ok, err
}

func (r *MembershipRepository) ListMembers(ctx context.Context, projectID domain.ProjectID) ([]*domain.Member, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.id, u.code, u.name, u.email, m.role_in_project, m.created_at
		FROM project_members m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1
		ORDER BY m.created_at, u.id`, projectID.UUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID.UUID, &m.Code, &m.Name, &m.Email, &m.RoleInProject, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

var (
	_ ports.ProjectRepository    = (*ProjectRepository)(nil)
	_ ports.MembershipRepository = (*MembershipRepository)(nil)
)
