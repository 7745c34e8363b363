// Package directory manages accounts, projects and project memberships.
package directory

import domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"

const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// required returns a validation error naming every empty field.
func required(fields map[string]string) error {
	details := domerrors.Details{}
	for name, v := range fields {
		if v == "" {
			details[name] = "required"
		}
	}
	if len(details) == 0 {
		return nil
	}
	return domerrors.Validation(details, "missing required fields")
}
