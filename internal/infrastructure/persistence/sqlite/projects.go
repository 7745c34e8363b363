package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const projectColumns = `p.id, p.code, p.name, p.description, p.client_name, p.is_active, p.account_id, p.created_at, p.updated_at`

var projectOrderColumns = map[domain.ProjectOrder]string{
	domain.ProjectOrderCreatedAt: "p.created_at",
	domain.ProjectOrderUpdatedAt: "p.updated_at",
	domain.ProjectOrderName:      "p.name",
	domain.ProjectOrderCode:      "p.code",
}

type ProjectRepository struct{ store }

func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{store{db: db}}
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p                domain.Project
		account          sql.NullString
		created, updated string
	)
	if err := row.Scan(&p.ID.UUID, &p.Code, &p.Name, &p.Description, &p.ClientName, &p.IsActive, &account, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if p.AccountID, err = accountFrom(account); err != nil {
		return nil, err
	}
	if err := stamps(created, updated, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		INSERT INTO projects (id, code, name, description, client_name, is_active, account_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(), p.Code, p.Name, p.Description, p.ClientName, p.IsActive, accountArg(p.AccountID),
		stamp(p.CreatedAt), stamp(p.UpdatedAt))
	return mapError(err)
}

func (r *ProjectRepository) GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	p, err := scanProject(r.conn(ctx).QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id.String()))
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
		from += ` JOIN project_members m ON m.project_id = p.id AND m.user_id = ?`
		args = append(args, f.MemberID.String())
	}
	if f.AccountID != nil {
		where = append(where, `p.account_id = ?`)
		args = append(args, f.AccountID.String())
	}
	if f.IsActive != nil {
		where = append(where, `p.is_active = ?`)
		args = append(args, *f.IsActive)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT count(*) FROM `+from+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := projectOrderColumns[f.OrderBy]
	if !ok {
		col = projectOrderColumns[domain.ProjectOrderCreatedAt]
	}
	dir := " ASC"
	if f.Descending {
		dir = " DESC"
	}
	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+projectColumns+` FROM `+from+cond+` ORDER BY `+col+dir+`, p.id LIMIT ? OFFSET ?`, args...)
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
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE projects SET code = ?, name = ?, description = ?, client_name = ?, is_active = ?, account_id = ?, updated_at = ?
		WHERE id = ?`,
		p.Code, p.Name, p.Description, p.ClientName, p.IsActive, accountArg(p.AccountID), stamp(p.UpdatedAt), p.ID.String())
	return mapError(err)
}

func (r *ProjectRepository) Delete(ctx context.Context, id domain.ProjectID) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id.String())
	return mapError(err)
}

type MembershipRepository struct{ store }

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{store{db: db}}
}

func (r *MembershipRepository) Add(ctx context.Context, m *domain.Membership) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO project_members (project_id, user_id, role_in_project, created_at) VALUES (?, ?, ?, ?)`,
		m.ProjectID.String(), m.UserID.String(), m.RoleInProject, stamp(m.CreatedAt))
	return mapError(err)
}

func (r *MembershipRepository) Remove(ctx context.Context, projectID domain.ProjectID, userID domain.UserID) (bool, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = ? AND user_id = ?`, projectID.String(), userID.String())
	if err != nil {
		return false, mapError(err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *MembershipRepository) Exists(ctx context.Context, projectID domain.ProjectID, userID domain.UserID) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM project_members WHERE project_id = ? AND user_id = ?)`,
		projectID.String(), userID.String()).Scan(&ok)
	return ok, err
}

func (r *MembershipRepository) ListMembers(ctx context.Context, projectID domain.ProjectID) ([]*domain.Member, error) {
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT u.id, u.code, u.name, u.email, m.role_in_project, m.created_at
		FROM project_members m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = ?
		ORDER BY m.created_at, u.id`, projectID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Member
	for rows.Next() {
		var (
			m       domain.Member
			created string
		)
		if err := rows.Scan(&m.UserID.UUID, &m.Code, &m.Name, &m.Email, &m.RoleInProject, &created); err != nil {
			return nil, err
		}
		if m.CreatedAt, err = parseStamp(created); err != nil {
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
