package ports

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
)

// Repositories return (nil, nil) from single-row lookups when the row does
// not exist. Store-level uniqueness and reference violations come back as
// domain conflict errors.

// TxManager runs fn inside a transaction bound to the returned context.
// Nested calls join the outer transaction. Any error rolls back.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository defines persistence for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id domain.AccountID) (*domain.Account, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, int, error)
	Update(ctx context.Context, account *domain.Account) error
	Delete(ctx context.Context, id domain.AccountID) error
}

// ProjectFilter selects a page of projects.
type ProjectFilter struct {
	MemberID   *domain.UserID // only projects this user belongs to
	AccountID  *domain.AccountID
	IsActive   *bool
	OrderBy    domain.ProjectOrder
	Descending bool
	Limit      int
	Offset     int
}

// ProjectRepository defines persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id domain.ProjectID) (*domain.Project, error)
	// List returns the page and the total number of matching rows.
	List(ctx context.Context, filter ProjectFilter) ([]*domain.Project, int, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id domain.ProjectID) error
}

// MembershipRepository defines persistence for project memberships.
type MembershipRepository interface {
	Add(ctx context.Context, m *domain.Membership) error
	// Remove reports whether a membership was deleted.
	Remove(ctx context.Context, projectID domain.ProjectID, userID domain.UserID) (bool, error)
	Exists(ctx context.Context, projectID domain.ProjectID, userID domain.UserID) (bool, error)
	ListMembers(ctx context.Context, projectID domain.ProjectID) ([]*domain.Member, error)
}

// UserRepository defines persistence for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, limit, offset int) ([]*domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id domain.UserID) error
}

// ProfileRepository defines persistence for user profiles.
type ProfileRepository interface {
	Get(ctx context.Context, userID domain.UserID) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}

// TokenStore is the refresh-token revocation ledger.
type TokenStore interface {
	StoreRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	GetRefreshToken(ctx context.Context, jti string) (*domain.RefreshToken, error)
	// RevokeRefreshToken marks an unrevoked token revoked and reports
	// whether this call did so.
	RevokeRefreshToken(ctx context.Context, jti string, at time.Time) (bool, error)
	// PruneRefreshTokens deletes tokens that expired, or were revoked, before cutoff.
	PruneRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// TimesheetFilter selects a page of timesheet headers.
type TimesheetFilter struct {
	UserID *domain.UserID
	Status *domain.TimesheetStatus
	Limit  int
	Offset int
}

// TimesheetRepository defines persistence for timesheet headers.
type TimesheetRepository interface {
	Create(ctx context.Context, ts *domain.Timesheet) error
	GetByID(ctx context.Context, id domain.TimesheetID) (*domain.Timesheet, error)
	List(ctx context.Context, filter TimesheetFilter) ([]*domain.Timesheet, int, error)
	Update(ctx context.Context, ts *domain.Timesheet) error
	// Delete removes the header and its items.
	Delete(ctx context.Context, id domain.TimesheetID) error
	// FindOverlapping returns the owner's headers whose period overlaps p,
	// excluding the header named by exclude.
	FindOverlapping(ctx context.Context, userID domain.UserID, p domain.Period, exclude *domain.TimesheetID) ([]*domain.Timesheet, error)
	// LockOwner serializes header writes for one user until the transaction ends.
	LockOwner(ctx context.Context, userID domain.UserID) error
	// LockTimesheet serializes item writes for one header until the transaction ends.
	LockTimesheet(ctx context.Context, id domain.TimesheetID) error
}

// TimesheetItemRepository defines persistence for timesheet items.
type TimesheetItemRepository interface {
	Create(ctx context.Context, item *domain.TimesheetItem) error
	GetByID(ctx context.Context, timesheetID domain.TimesheetID, id domain.ItemID) (*domain.TimesheetItem, error)
	ListByTimesheet(ctx context.Context, timesheetID domain.TimesheetID) ([]*domain.TimesheetItem, error)
	Update(ctx context.Context, item *domain.TimesheetItem) error
	Delete(ctx context.Context, id domain.ItemID) error
	// DailyTotal sums the hours booked on date in a header, excluding one item.
	DailyTotal(ctx context.Context, timesheetID domain.TimesheetID, date time.Time, exclude *domain.ItemID) (float64, error)
}

// ReportRepository runs grouped sums over items of reportable headers
// (Draft, Submitted, Approved) dated within [from, to]. Rows are ordered by
// total hours, largest first.
type ReportRepository interface {
	HoursByUser(ctx context.Context, from, to time.Time, userID *domain.UserID) ([]domain.UserHours, error)
	HoursByProject(ctx context.Context, projectID domain.ProjectID, from, to time.Time, userID *domain.UserID) ([]domain.ProjectHours, error)
	UserProjects(ctx context.Context, userID domain.UserID, from, to time.Time) ([]domain.UserProjectHours, error)
	HoursByStatus(ctx context.Context, from, to time.Time) ([]domain.StatusHours, error)
}
