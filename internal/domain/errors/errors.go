// Package errors defines the typed errors raised by the application layer.
// Handlers map an error's Kind to an HTTP status; nothing above the
// persistence layer inspects raw store errors.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBusinessRule
	KindConflict
	KindNotFound
	KindUnauthenticated
	KindForbidden
	KindLocked
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBusinessRule:
		return "business_rule"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindLocked:
		return "locked"
	default:
		return "internal"
	}
}

// Details carries field-level context for an error.
type Details map[string]any

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Details Details
}

func (e *Error) Error() string { return e.Message }

// Is matches errors of the same kind and message, so a sentinel still
// matches after WithDetails.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details Details) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

func newError(kind Kind, details Details, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg, Details: details}
}

// Validation reports malformed or missing input.
func Validation(details Details, format string, args ...any) *Error {
	return newError(KindValidation, details, format, args...)
}

// BusinessRule reports a well-formed request that breaks a rule.
func BusinessRule(details Details, format string, args ...any) *Error {
	return newError(KindBusinessRule, details, format, args...)
}

// Conflict reports a duplicate or a request against the wrong state.
func Conflict(details Details, format string, args ...any) *Error {
	return newError(KindConflict, details, format, args...)
}

// NotFound reports a missing referenced entity.
func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, nil, format, args...)
}

// Forbidden reports an authenticated caller without permission.
func Forbidden(format string, args ...any) *Error {
	return newError(KindForbidden, nil, format, args...)
}

// Unauthenticated reports missing or invalid credentials.
func Unauthenticated(format string, args ...any) *Error {
	return newError(KindUnauthenticated, nil, format, args...)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Sentinel errors for handlers and tests to match with errors.Is.
var (
	ErrInvalidCredentials = Unauthenticated("incorrect email or password")
	ErrInvalidToken       = Unauthenticated("could not validate credentials")
	ErrTokenExpired       = Unauthenticated("token expired")
	ErrWrongTokenType     = Unauthenticated("invalid token type")
	ErrTokenRevoked       = Unauthenticated("refresh token revoked")
	ErrTokenUnknown       = Unauthenticated("refresh token not recognized")
	ErrTokenSubject       = Unauthenticated("refresh token does not belong to this user")
	ErrInactiveUser       = Unauthenticated("user is inactive")
	ErrAccountLocked      = newError(KindLocked, nil, "too many failed login attempts")

	ErrAdminRequired   = Forbidden("admin privileges required")
	ErrForbidden       = Forbidden("not enough permissions")
	ErrNotOwner        = Forbidden("only the timesheet owner can submit it")
	ErrNoProjectAccess = Forbidden("you are not a member of this project")

	ErrUserNotFound      = NotFound("user not found")
	ErrAccountNotFound   = NotFound("account not found")
	ErrProjectNotFound   = NotFound("project not found")
	ErrMemberNotFound    = NotFound("membership not found")
	ErrProfileNotFound   = NotFound("profile not found")
	ErrTimesheetNotFound = NotFound("timesheet not found")
	ErrItemNotFound      = NotFound("timesheet item not found")
	ErrNoReportData      = NotFound("no hours found for the given range")

	ErrInvalidPeriod      = BusinessRule(nil, "period_start must be on or before period_end")
	ErrStatusImmutable    = BusinessRule(nil, "status cannot be changed here; use submit, approve or reject")
	ErrDateOutsidePeriod  = BusinessRule(nil, "item date must be within the timesheet period")
	ErrInvalidHours       = BusinessRule(nil, "hours must be greater than 0 and at most 24")
	ErrDailyHoursExceeded = BusinessRule(nil, "total hours for the day exceed 24")

	ErrPeriodOverlap     = Conflict(nil, "timesheet period overlaps an existing timesheet")
	ErrNotEditable       = Conflict(nil, "timesheet can only be modified while in Draft")
	ErrInvalidTransition = Conflict(nil, "timesheet status does not allow this action")
	ErrMembershipExists  = Conflict(nil, "user is already a member of this project")
)
