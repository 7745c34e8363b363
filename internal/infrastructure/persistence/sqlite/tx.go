package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
)

type txKey struct{}

// TxManager runs units of work in a database/sql transaction carried on the
// context.
type TxManager struct {
	db *sql.DB
}

func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store is embedded by every repository.
type store struct {
	db *sql.DB
}

func (s store) conn(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// mapError turns constraint violations into domain errors. The driver only
// reports the violated key in the message text.
func mapError(err error) error {
	var se *sqlitedriver.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}
	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: "):
		key := msg[strings.Index(msg, "UNIQUE constraint failed: ")+len("UNIQUE constraint failed: "):]
		if i := strings.IndexAny(key, ", ("); i >= 0 {
			key = key[:i]
		}
		return persistence.Unique(key)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return persistence.Referenced("")
	case strings.Contains(msg, "CHECK constraint failed"):
		return domerrors.BusinessRule(nil, "value violates a check constraint")
	}
	return err
}

func noRows(err error) bool { return errors.Is(err, sql.ErrNoRows) }

// stampLayout is fixed width so stored timestamps sort as strings.
const stampLayout = "2006-01-02T15:04:05.000000000Z"

func stamp(t time.Time) string { return t.UTC().Format(stampLayout) }

func parseStamp(s string) (time.Time, error) { return time.ParseInLocation(stampLayout, s, time.UTC) }

func day(t time.Time) string { return t.Format(domain.DateLayout) }

// accountArg stores NULL for a missing account.
func accountArg(id *domain.AccountID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func accountFrom(v sql.NullString) (*domain.AccountID, error) {
	if !v.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(v.String)
	if err != nil {
		return nil, err
	}
	a := domain.NewAccountID(id)
	return &a, nil
}

// stamps parses created/updated pairs, which every table carries.
func stamps(created, updated string, dstCreated, dstUpdated *time.Time) error {
	var err error
	if *dstCreated, err = parseStamp(created); err != nil {
		return err
	}
	*dstUpdated, err = parseStamp(updated)
	return err
}

var _ ports.TxManager = (*TxManager)(nil)
