package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/persistence"
)

// constraintKeys names the table.column behind each unique constraint.
var constraintKeys = map[string]string{
	"accounts_code_key":    "accounts.code",
	"projects_code_key":    "projects.code",
	"users_email_key":      "users.email",
	"users_code_key":       "users.code",
	"project_members_pkey": "project_members.project_id",
	"refresh_tokens_pkey":  "refresh_tokens.jti",
}

// mapError turns constraint violations into domain errors and passes
// anything else through.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		key, ok := constraintKeys[pgErr.ConstraintName]
		if !ok {
			key = pgErr.TableName + "." + strings.TrimSuffix(strings.TrimPrefix(pgErr.ConstraintName, pgErr.TableName+"_"), "_key")
		}
		return persistence.Unique(key)
	case "23503": // foreign_key_violation
		if strings.HasPrefix(pgErr.Message, "insert or update") {
			return persistence.Missing()
		}
		return persistence.Referenced(pgErr.TableName)
	case "23P01": // exclusion_violation
		return persistence.Overlap()
	case "23514": // check_violation
		return domerrors.BusinessRule(domerrors.Details{"constraint": pgErr.ConstraintName}, "value violates %s", pgErr.ConstraintName)
	case "22003": // numeric_value_out_of_range
		return domerrors.BusinessRule(domerrors.Details{"value": "out of range"}, "numeric value out of range")
	}
	return err
}
