package domain

import "time"

// Membership assigns a user to a project. (UserID, ProjectID) is unique.
type Membership struct {
	UserID        UserID
	ProjectID     ProjectID
	RoleInProject string
	CreatedAt     time.Time
}

// Member is a membership joined with the member's user record.
type Member struct {
	UserID        UserID
	Code          string
	Name          string
	Email         string
	RoleInProject string
	CreatedAt     time.Time
}
