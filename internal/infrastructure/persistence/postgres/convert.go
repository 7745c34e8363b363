package postgres

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

func nullUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: [16]byte(*id), Valid: true}
}

func accountIDParam(id *domain.AccountID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return nullUUID(&id.UUID)
}

func accountIDFrom(v pgtype.UUID) *domain.AccountID {
	if !v.Valid {
		return nil
	}
	id := domain.NewAccountID(uuid.UUID(v.Bytes))
	return &id
}

func timeFrom(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time.UTC()
	return &t
}

// noRows reports a missing row, which repositories return as (nil, nil).
func noRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// asDate normalises a scanned DATE to UTC midnight.
func asDate(t time.Time) time.Time { return domain.Date(t) }
