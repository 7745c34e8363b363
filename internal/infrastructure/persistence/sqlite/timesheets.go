package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const timesheetColumns = `id, user_id, period_start, period_end, status, created_at, updated_at`

type TimesheetRepository struct{ store }

func NewTimesheetRepository(db *sql.DB) *TimesheetRepository {
	return &TimesheetRepository{store{db: db}}
}

func scanTimesheet(row rowScanner) (*domain.Timesheet, error) {
	var (
		t                domain.Timesheet
		start, end       string
		status           string
		created, updated string
	)
	if err := row.Scan(&t.ID.UUID, &t.UserID.UUID, &start, &end, &status, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if t.Period.Start, err = domain.ParseDate(start); err != nil {
		return nil, err
	}
	if t.Period.End, err = domain.ParseDate(end); err != nil {
		return nil, err
	}
	t.Status = domain.TimesheetStatus(status)
	if err := stamps(created, updated, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTimesheets(rows *sql.Rows) ([]*domain.Timesheet, error) {
	defer rows.Close()
	var out []*domain.Timesheet
	for rows.Next() {
		t, err := scanTimesheet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TimesheetRepository) Create(ctx context.Context, t *domain.Timesheet) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO timesheets (`+timesheetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.UserID.String(), day(t.Period.Start), day(t.Period.End), string(t.Status),
		stamp(t.CreatedAt), stamp(t.UpdatedAt))
	return mapError(err)
}

func (r *TimesheetRepository) GetByID(ctx context.Context, id domain.TimesheetID) (*domain.Timesheet, error) {
	t, err := scanTimesheet(r.conn(ctx).QueryRowContext(ctx, `SELECT `+timesheetColumns+` FROM timesheets WHERE id = ?`, id.String()))
	if noRows(err) {
		return nil, nil
	}
	return t, err
}

func (r *TimesheetRepository) List(ctx context.Context, f ports.TimesheetFilter) ([]*domain.Timesheet, int, error) {
	var (
		where []string
		args  []any
	)
	if f.UserID != nil {
		where = append(where, `user_id = ?`)
		args = append(args, f.UserID.String())
	}
	if f.Status != nil {
		where = append(where, `status = ?`)
		args = append(args, string(*f.Status))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	var total int
	if err := r.conn(ctx).QueryRowContext(ctx, `SELECT count(*) FROM timesheets`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+timesheetColumns+` FROM timesheets`+cond+` ORDER BY period_start DESC, created_at DESC, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectTimesheets(rows)
	return out, total, err
}

func (r *TimesheetRepository) Update(ctx context.Context, t *domain.Timesheet) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE timesheets SET period_start = ?, period_end = ?, status = ?, updated_at = ? WHERE id = ?`,
		day(t.Period.Start), day(t.Period.End), string(t.Status), stamp(t.UpdatedAt), t.ID.String())
	return mapError(err)
}

func (r *TimesheetRepository) Delete(ctx context.Context, id domain.TimesheetID) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM timesheets WHERE id = ?`, id.String())
	return mapError(err)
}

func (r *TimesheetRepository) FindOverlapping(ctx context.Context, userID domain.UserID, p domain.Period, exclude *domain.TimesheetID) ([]*domain.Timesheet, error) {
	var excluded any
	if exclude != nil {
		excluded = exclude.String()
	}
	rows, err := r.conn(ctx).QueryContext(ctx, `
		SELECT `+timesheetColumns+` FROM timesheets
		WHERE user_id = ? AND period_start <= ? AND period_end >= ? AND (? IS NULL OR id <> ?)
		ORDER BY period_start`,
		userID.String(), day(p.End), day(p.Start), excluded, excluded)
	if err != nil {
		return nil, err
	}
	return collectTimesheets(rows)
}

// LockOwner is a no-op: the single connection already serializes writers.
func (r *TimesheetRepository) LockOwner(context.Context, domain.UserID) error { return nil }

// LockTimesheet is a no-op for the same reason.
func (r *TimesheetRepository) LockTimesheet(context.Context, domain.TimesheetID) error { return nil }

type TimesheetItemRepository struct{ store }

func NewTimesheetItemRepository(db *sql.DB) *TimesheetItemRepository {
	return &TimesheetItemRepository{store{db: db}}
}

const itemColumns = `id, timesheet_id, project_id, date, description, hours, created_at, updated_at`

func scanItem(row rowScanner) (*domain.TimesheetItem, error) {
	var (
		it               domain.TimesheetItem
		date             string
		created, updated string
	)
	if err := row.Scan(&it.ID.UUID, &it.TimesheetID.UUID, &it.ProjectID.UUID, &date, &it.Description, &it.Hours, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if it.Date, err = domain.ParseDate(date); err != nil {
		return nil, err
	}
	if err := stamps(created, updated, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *TimesheetItemRepository) Create(ctx context.Context, it *domain.TimesheetItem) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`INSERT INTO timesheet_items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		it.ID.String(), it.TimesheetID.String(), it.ProjectID.String(), day(it.Date), it.Description, it.Hours,
		stamp(it.CreatedAt), stamp(it.UpdatedAt))
	return mapError(err)
}

func (r *TimesheetItemRepository) GetByID(ctx context.Context, timesheetID domain.TimesheetID, id domain.ItemID) (*domain.TimesheetItem, error) {
	it, err := scanItem(r.conn(ctx).QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM timesheet_items WHERE id = ? AND timesheet_id = ?`, id.String(), timesheetID.String()))
	if noRows(err) {
		return nil, nil
	}
	return it, err
}

func (r *TimesheetItemRepository) ListByTimesheet(ctx context.Context, timesheetID domain.TimesheetID) ([]*domain.TimesheetItem, error) {
	rows, err := r.conn(ctx).QueryContext(ctx,
		`SELECT `+itemColumns+` FROM timesheet_items WHERE timesheet_id = ? ORDER BY date, created_at, id`, timesheetID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.TimesheetItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *TimesheetItemRepository) Update(ctx context.Context, it *domain.TimesheetItem) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
		UPDATE timesheet_items SET project_id = ?, date = ?, description = ?, hours = ?, updated_at = ?
		WHERE id = ?`,
		it.ProjectID.String(), day(it.Date), it.Description, it.Hours, stamp(it.UpdatedAt), it.ID.String())
	return mapError(err)
}

func (r *TimesheetItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM timesheet_items WHERE id = ?`, id.String())
	return mapError(err)
}

func (r *TimesheetItemRepository) DailyTotal(ctx context.Context, timesheetID domain.TimesheetID, date time.Time, exclude *domain.ItemID) (float64, error) {
	var excluded any
	if exclude != nil {
		excluded = exclude.String()
	}
	var total float64
	err := r.conn(ctx).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(hours), 0.0) FROM timesheet_items
		WHERE timesheet_id = ? AND date = ? AND (? IS NULL OR id <> ?)`,
		timesheetID.String(), day(domain.Date(date)), excluded, excluded).Scan(&total)
	return total, err
}

var (
	_ ports.TimesheetRepository     = (*TimesheetRepository)(nil)
	_ ports.TimesheetItemRepository = (*TimesheetItemRepository)(nil)
)
