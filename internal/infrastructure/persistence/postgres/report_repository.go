package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

// reportableJoin restricts items to reportable headers dated within [$1, $2]
// and joins the owning user and booked project.
const reportableJoin = `
	FROM timesheet_items i
	JOIN timesheets t ON t.id = i.timesheet_id
	JOIN users u ON u.id = t.user_id
	JOIN projects p ON p.id = i.project_id
	WHERE t.status IN ('Draft', 'Submitted', 'Approved')
		AND i.date BETWEEN $1 AND $2`

type ReportRepository struct{ store }

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{store{pool: pool}}
}

func userParam(id *domain.UserID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return nullUUID(&id.UUID)
}

func (r *ReportRepository) HoursByUser(ctx context.Context, from, to time.Time, userID *domain.UserID) ([]domain.UserHours, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.id, u.name, SUM(i.hours)::float8 AS total`+reportableJoin+`
			AND ($3::uuid IS NULL OR t.user_id = $3)
		GROUP BY u.id, u.name
		ORDER BY total DESC, u.name`,
		from, to, userParam(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UserHours
	for rows.Next() {
		var h domain.UserHours
		if err := rows.Scan(&h.UserID.UUID, &h.Name, &h.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *ReportRepository) HoursByProject(ctx context.Context, projectID domain.ProjectID, from, to time.Time, userID *domain.UserID) ([]domain.ProjectHours, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.name, SUM(i.hours)::float8 AS total`+reportableJoin+`
			AND i.project_id = $3
			AND ($4::uuid IS NULL OR t.user_id = $4)
		GROUP BY p.id, p.name
		ORDER BY total DESC`,
		from, to, projectID.UUID, userParam(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.ProjectHours
	for rows.Next() {
		var h domain.ProjectHours
		if err := rows.Scan(&h.ProjectID.UUID, &h.ProjectName, &h.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *ReportRepository) UserProjects(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.UserProjectHours, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.user_id, p.id, p.name, SUM(i.hours)::float8 AS total`+reportableJoin+`
			AND t.user_id = $3
		GROUP BY t.user_id, p.id, p.name
		ORDER BY total DESC, p.name`,
		from, to, userID.UUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.UserProjectHours
	for rows.Next() {
		var h domain.UserProjectHours
		if err := rows.Scan(&h.UserID.UUID, &h.ProjectID.UUID, &h.ProjectName, &h.TotalHours); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *ReportRepository) HoursByStatus(ctx context.Context, from, to time.Time) ([]domain.StatusHours, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT t.status, SUM(i.hours)::float8 AS total`+reportableJoin+`
		GROUP BY t.status
		ORDER BY total DESC`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.StatusHours
	for rows.Next() {
		var (
			h      domain.StatusHours
			status string
		)
		if err := rows.Scan(&status, &h.TotalHours); err != nil {
			return nil, err
		}
		h.Status = domain.TimesheetStatus(status)
		out = append(out, h)
	}
	return out, rows.Err()
}

var _ ports.ReportRepository = (*ReportRepository)(nil)
