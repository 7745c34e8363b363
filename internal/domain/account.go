package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountID is a value object for account identity.
type AccountID struct{ uuid.UUID }

// NewAccountID creates a new AccountID from uuid.
func NewAccountID(id uuid.UUID) AccountID { return AccountID{UUID: id} }

// String returns the canonical string form.
func (a AccountID) String() string { return a.UUID.String() }

// Account is a business entity that groups projects.
type Account struct {
	ID        AccountID
	Code      string // external account_id, unique
	Name      string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
