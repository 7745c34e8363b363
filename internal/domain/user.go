package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// Role is the global role of a user. The set is closed: admin or user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole returns the Role named by s.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// IsAdmin reports whether the role grants administrative access.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleUser:
		return false
	default:
		return false
	}
}

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

// ParseUserStatus returns the UserStatus named by s.
func ParseUserStatus(s string) (UserStatus, bool) {
	switch UserStatus(s) {
	case UserActive:
		return UserActive, true
	case UserInactive:
		return UserInactive, true
	}
	return "", false
}

// User is a principal that can authenticate and record time.
type User struct {
	ID           UserID
	Code         string // external user_id, unique
	Name         string
	Email        string
	Role         Role
	Status       UserStatus
	PasswordHash string
	AccountID    *AccountID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u != nil && u.Role.IsAdmin() }

func (u *User) IsActive() bool { return u != nil && u.Status == UserActive }
