package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const reportableJoin = `
	FROM timesheet_items i
	JOIN timesheets t ON t.id = i.timesheet_id
	JOIN users u ON u.id = t.user_id
	JOIN projects p ON p.id = i.project_id
	WHERE t.status IN ('Draft', 'Submitted', 'Approved')
		AND i.date BETWEEN ? AND ?`

type ReportRepository struct{ store }

func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{store{db: db}}
}

func optionalUser(id *domain.UserID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func (r *ReportRepository) HoursByUser(ctx context.Context, from, to time.Time, userID *domain.UserID) ([]domain.UserHours, error) {
	u := optionalUser(userID)
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT u.id, u.name, SUM(i.hours) AS total`+reportableJoin+`
			AND (? IS NULL OR t.user_id = ?)
		GROUP BY u.id, u.name
		ORDER BY total DESC, u.name`,
		day(from), day(to), u, u)
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
	u := optionalUser(userID)
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT p.id, p.name, SUM(i.hours) AS total`+reportableJoin+`
			AND i.project_id = ?
			AND (? IS NULL OR t.user_id = ?)
		GROUP BY p.id, p.name
		ORDER BY total DESC`,
		day(from), day(to), projectID.String(), u, u)
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
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT t.user_id, p.id, p.name, SUM(i.hours) AS total`+reportableJoin+`
			AND t.user_id = ?
		GROUP BY t.user_id, p.id, p.name
		ORDER BY total DESC, p.name`,
		day(from), day(to), userID.String())
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
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT t.status, SUM(i.hours) AS total`+reportableJoin+`
		GROUP BY t.status
		ORDER BY total DESC`,
		day(from), day(to))
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
