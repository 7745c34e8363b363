// Package persistence holds what the postgres and sqlite stores share: the
// mapping from violated constraints to domain errors.
package persistence

import (
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// Unique maps a violated uniqueness key, written table.column, to a conflict.
func Unique(key string) error {
	switch key {
	case "accounts.code":
		return domerrors.Conflict(domerrors.Details{"account_id": "already exists"}, "account already exists")
	case "projects.code":
		return domerrors.Conflict(domerrors.Details{"code": "already exists"}, "project code already exists")
	case "users.email":
		return domerrors.Conflict(domerrors.Details{"email": "already exists"}, "email already registered")
	case "users.code":
		return domerrors.Conflict(domerrors.Details{"user_id": "already exists"}, "user id already exists")
	case "project_members.project_id", "project_members.user_id":
		return domerrors.ErrMembershipExists
	case "refresh_tokens.jti":
		return domerrors.Conflict(nil, "refresh token already recorded")
	}
	return domerrors.Conflict(nil, "resource already exists")
}

// Referenced maps a foreign-key violation to a conflict. table is the
// referencing table when the store reports it.
func Referenced(table string) error {
	switch table {
	case "projects":
		return domerrors.Conflict(domerrors.Details{"projects": "still assigned"}, "account still owns projects")
	case "timesheet_items":
		return domerrors.Conflict(domerrors.Details{"items": "time booked"}, "project has booked time")
	case "timesheets":
		return domerrors.Conflict(domerrors.Details{"timesheets": "still present"}, "user still has timesheets")
	}
	return domerrors.Conflict(nil, "resource is referenced by other records")
}

// Missing reports an insert or update that points at a row that is gone.
func Missing() error { return domerrors.NotFound("referenced record does not exist") }

// Overlap maps the timesheet period exclusion to the overlap conflict.
func Overlap() error { return domerrors.ErrPeriodOverlap }
