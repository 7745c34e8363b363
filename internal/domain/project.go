package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectID is a value object for project identity.
type ProjectID struct{ uuid.UUID }

// NewProjectID creates a new ProjectID from uuid.
func NewProjectID(id uuid.UUID) ProjectID { return ProjectID{UUID: id} }

// String returns the canonical string form.
func (p ProjectID) String() string { return p.UUID.String() }

// Project is a unit of billable work, optionally owned by an account.
type Project struct {
	ID          ProjectID
	Code        string
	Name        string
	Description string
	ClientName  string
	IsActive    bool
	AccountID   *AccountID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectOrder is a column projects can be listed by.
type ProjectOrder string

const (
	ProjectOrderCreatedAt ProjectOrder = "created_at"
	ProjectOrderUpdatedAt ProjectOrder = "updated_at"
	ProjectOrderName      ProjectOrder = "name"
	ProjectOrderCode      ProjectOrder = "code"
)

// ParseProjectOrdering reads an ordering expression such as "-created_at".
// A leading "-" selects descending order. Unknown columns fall back to
// created_at with the requested direction; an empty expression means
// newest first.
func ParseProjectOrdering(s string) (ProjectOrder, bool) {
	if s == "" {
		return ProjectOrderCreatedAt, true
	}
	desc := false
	if s[0] == '-' {
		desc = true
		s = s[1:]
	}
	switch ProjectOrder(s) {
	case ProjectOrderCreatedAt, ProjectOrderUpdatedAt, ProjectOrderName, ProjectOrderCode:
		return ProjectOrder(s), desc
	}
	return ProjectOrderCreatedAt, desc
}
