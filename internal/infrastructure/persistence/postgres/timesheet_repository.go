package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

const timesheetColumns = `id, user_id, period_start, period_end, status, created_at, updated_at`

type TimesheetRepository struct{ store }

func NewTimesheetRepository(pool *pgxpool.Pool) *TimesheetRepository {
	return &TimesheetRepository{store{pool: pool}}
}

func scanTimesheet(row pgx.Row) (*domain.Timesheet, error) {
	var (
		t      domain.Timesheet
		status string
	)
	if err := row.Scan(&t.ID.UUID, &t.UserID.UUID, &t.Period.Start, &t.Period.End, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Period = domain.NewPeriod(t.Period.Start, t.Period.End)
	t.Status = domain.TimesheetStatus(status)
	return &t, nil
}

func collectTimesheets(rows pgx.Rows) ([]*domain.Timesheet, error) {
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
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO timesheets (`+timesheetColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID.UUID, t.UserID.UUID, t.Period.Start, t.Period.End, string(t.Status), t.CreatedAt, t.UpdatedAt)
	return mapError(err)
}

func (r *TimesheetRepository) GetByID(ctx context.Context, id domain.TimesheetID) (*domain.Timesheet, error) {
	t, err := scanTimesheet(r.conn(ctx).QueryRow(ctx, `SELECT `+timesheetColumns+` FROM timesheets WHERE id = $1`, id.UUID))
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
		args = append(args, f.UserID.UUID)
		where = append(where, fmt.Sprintf(`user_id = $%d`, len(args)))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		where = append(where, fmt.Sprintf(`status = $%d`, len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM timesheets`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	args = append(args, f.Limit, f.Offset)
	rows, err := r.conn(ctx).Query(ctx, fmt.Sprintf(
		`SELECT %s FROM timesheets%s ORDER BY period_start DESC, created_at DESC, id LIMIT $%d OFFSET $%d`,
		timesheetColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	out, err := collectTimesheets(rows)
	return out, total, err
}

func (r *TimesheetRepository) Update(ctx context.Context, t *domain.Timesheet) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE timesheets SET period_start = $2, period_end = $3, status = $4, updated_at = $5 WHERE id = $1`,
		t.ID.UUID, t.Period.Start, t.Period.End, string(t.Status), t.UpdatedAt)
	return mapError(err)
}

func (r *TimesheetRepository) Delete(ctx context.Context, id domain.TimesheetID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM timesheets WHERE id = $1`, id.UUID)
	return mapError(err)
}

func (r *TimesheetRepository) FindOverlapping(ctx context.Context, userID domain.UserID, p domain.Period, exclude *domain.TimesheetID) ([]*domain.Timesheet, error) {
	var excluded pgtype.UUID
	if exclude != nil {
		excluded = nullUUID(&exclude.UUID)
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+timesheetColumns+` FROM timesheets
		WHERE user_id = $1 AND period_start <= $3 AND period_end >= $2
			AND ($4::uuid IS NULL OR id <> $4)
		ORDER BY period_start`,
		userID.UUID, p.Start, p.End, excluded)
	if err != nil {
		return nil, err
	}
	return collectTimesheets(rows)
}

func (r *TimesheetRepository) LockOwner(ctx context.Context, userID domain.UserID) error {
	return r.advisoryLock(ctx, "timesheets:owner:"+userID.String())
}

func (r *TimesheetRepository) LockTimesheet(ctx context.Context, id domain.TimesheetID) error {
	return r.advisoryLock(ctx, "timesheets:header:"+id.String())
}

// TimesheetItemRepository stores timesheet items.
type TimesheetItemRepository struct{ store }

func NewTimesheetItemRepository(pool *pgxpool.Pool) *TimesheetItemRepository {
	return &TimesheetItemRepository{store{pool: pool}}
}

const itemColumns = `id, timesheet_id, project_id, date, description, hours, created_at, updated_at`

func scanItem(row pgx.Row) (*domain.TimesheetItem, error) {
	var it domain.TimesheetItem
	if err := row.Scan(&it.ID.UUID, &it.TimesheetID.UUID, &it.ProjectID.UUID, &it.Date, &it.Description, &it.Hours, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.Date = asDate(it.Date)
	return &it, nil
}

func (r *TimesheetItemRepository) Create(ctx context.Context, it *domain.TimesheetItem) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO timesheet_items (`+itemColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		it.ID.UUID, it.TimesheetID.UUID, it.ProjectID.UUID, it.Date, it.Description, it.Hours, it.CreatedAt, it.UpdatedAt)
	return mapError(err)
}

func (r *TimesheetItemRepository) GetByID(ctx context.Context, timesheetID domain.TimesheetID, id domain.ItemID) (*domain.TimesheetItem, error) {
	it, err := scanItem(r.conn(ctx).QueryRow(ctx,
		`SELECT `+itemColumns+` FROM timesheet_items WHERE id = $1 AND timesheet_id = $2`, id.UUID, timesheetID.UUID))
	if noRows(err) {
		return nil, nil
	}
	return it, err
}

func (r *TimesheetItemRepository) ListByTimesheet(ctx context.Context, timesheetID domain.TimesheetID) ([]*domain.TimesheetItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemColumns+` FROM timesheet_items WHERE timesheet_id = $1 ORDER BY date, created_at, id`, timesheetID.UUID)
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
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE timesheet_items SET project_id = $2, date = $3, description = $4, hours = $5, updated_at = $6
		WHERE id = $1`,
		it.ID.UUID, it.ProjectID.UUID, it.Date, it.Description, it.Hours, it.UpdatedAt)
	return mapError(err)
}

func (r *TimesheetItemRepository) Delete(ctx context.Context, id domain.ItemID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM timesheet_items WHERE id = $1`, id.UUID)
	return mapError(err)
}

func (r *TimesheetItemRepository) DailyTotal(ctx context.Context, timesheetID domain.TimesheetID, date time.Time, exclude *domain.ItemID) (float64, error) {
	var excluded pgtype.UUID
	if exclude != nil {
		excluded = nullUUID(&exclude.UUID)
	}
	var total float64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(SUM(hours), 0)::float8 FROM timesheet_items
		WHERE timesheet_id = $1 AND date = $2 AND ($3::uuid IS NULL OR id <> $3)`,
		timesheetID.UUID, domain.Date(date), excluded).Scan(&total)
	return total, err
}

var (
	_ ports.TimesheetRepository     = (*TimesheetRepository)(nil)
	_ ports.TimesheetItemRepository = (*TimesheetItemRepository)(nil)
)
