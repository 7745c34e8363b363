package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// TimesheetID is a value object for timesheet header identity.
type TimesheetID struct{ uuid.UUID }

// NewTimesheetID creates a new TimesheetID from uuid.
func NewTimesheetID(id uuid.UUID) TimesheetID { return TimesheetID{UUID: id} }

// String returns the canonical string form.
func (t TimesheetID) String() string { return t.UUID.String() }

// ItemID is a value object for timesheet item identity.
type ItemID struct{ uuid.UUID }

// NewItemID creates a new ItemID from uuid.
func NewItemID(id uuid.UUID) ItemID { return ItemID{UUID: id} }

// String returns the canonical string form.
func (i ItemID) String() string { return i.UUID.String() }

// DateLayout is the wire and storage layout of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// Date truncates t to its calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Period is an inclusive range of calendar dates.
type Period struct {
	Start time.Time
	End   time.Time
}

// NewPeriod builds a Period from two dates, dropping any time of day.
func NewPeriod(start, end time.Time) Period {
	return Period{Start: Date(start), End: Date(end)}
}

// Valid reports whether Start is on or before End.
func (p Period) Valid() bool { return !p.Start.After(p.End) }

// Overlaps reports whether the two inclusive ranges share at least one day.
func (p Period) Overlaps(o Period) bool {
	return !p.Start.After(o.End) && !p.End.Before(o.Start)
}

// Contains reports whether d falls within the period, inclusive.
func (p Period) Contains(d time.Time) bool {
	d = Date(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// TimesheetStatus is the state of a timesheet header.
type TimesheetStatus string

const (
	StatusDraft     TimesheetStatus = "Draft"
	StatusSubmitted TimesheetStatus = "Submitted"
	StatusApproved  TimesheetStatus = "Approved"
	StatusRejected  TimesheetStatus = "Rejected"
)

// ReportableStatuses are the statuses whose hours count in reports, in
// summary order.
var ReportableStatuses = []TimesheetStatus{StatusDraft, StatusSubmitted, StatusApproved}

// ParseTimesheetStatus returns the TimesheetStatus named by s.
func ParseTimesheetStatus(s string) (TimesheetStatus, bool) {
	switch TimesheetStatus(s) {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return TimesheetStatus(s), true
	}
	return "", false
}

// Editable reports whether the header and its items may be changed.
func (s TimesheetStatus) Editable() bool { return s == StatusDraft }

// Terminal reports whether no further transition is possible.
func (s TimesheetStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Transition is a named status change.
type Transition string

const (
	TransitionSubmit  Transition = "submit"
	TransitionApprove Transition = "approve"
	TransitionReject  Transition = "reject"
)

// From returns the status a transition must start from.
func (t Transition) From() TimesheetStatus {
	switch t {
	case TransitionSubmit:
		return StatusDraft
	case TransitionApprove, TransitionReject:
		return StatusSubmitted
	}
	return ""
}

// Apply returns the status reached by applying t to s, or false when the
// transition is not allowed from s.
func (s TimesheetStatus) Apply(t Transition) (TimesheetStatus, bool) {
	switch {
	case s == StatusDraft && t == TransitionSubmit:
		return StatusSubmitted, true
	case s == StatusSubmitted && t == TransitionApprove:
		return StatusApproved, true
	case s == StatusSubmitted && t == TransitionReject:
		return StatusRejected, true
	}
	return s, false
}

// Timesheet is a user's time report header for one period.
type Timesheet struct {
	ID        TimesheetID
	UserID    UserID
	Period    Period
	Status    TimesheetStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OwnedBy reports whether the header belongs to userID.
func (t *Timesheet) OwnedBy(userID UserID) bool { return t.UserID == userID }

// TimesheetItem is a single dated time entry against a project.
type TimesheetItem struct {
	ID          ItemID
	TimesheetID TimesheetID
	ProjectID   ProjectID
	Date        time.Time
	Description string
	Hours       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MaxDailyHours caps the hours of one item and the sum for one date.
const MaxDailyHours = 24.0

// QuantizeHours rounds h to hundredths, the stored precision. Values far
// outside the valid range are returned unchanged so ValidHours rejects them.
func QuantizeHours(h float64) float64 {
	if math.IsNaN(h) || h <= 0 || h > 2*MaxDailyHours {
		return h
	}
	return math.Round(h*100) / 100
}

// ValidHours reports whether 0 < h <= MaxDailyHours and h is not zero at
// hundredths precision.
func ValidHours(h float64) bool {
	if math.IsNaN(h) || h <= 0 || h > MaxDailyHours {
		return false
	}
	return hundredths(h) > 0
}

// ExceedsDailyCap reports whether adding h to an existing daily total goes
// over MaxDailyHours. Hours are compared in hundredths, the stored precision.
func ExceedsDailyCap(existing, h float64) bool {
	if math.IsNaN(existing) || math.IsNaN(h) || existing+h > MaxDailyHours+1 {
		return true
	}
	return hundredths(existing)+hundredths(h) > hundredths(MaxDailyHours)
}

// hundredths must only see values already bounded to a small range.
func hundredths(h float64) int64 { return int64(math.Round(h * 100)) }
