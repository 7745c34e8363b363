// Package policy holds the authorization rules shared by the application
// services. Every check returns nil or a Forbidden error.
package policy

import (
	"context"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// RequireRole fails unless the caller holds one of roles.
func RequireRole(caller *domain.User, roles ...domain.Role) error {
	if caller == nil {
		return domerrors.ErrInvalidToken
	}
	for _, r := range roles {
		if caller.Role == r {
			return nil
		}
	}
	return domerrors.ErrForbidden
}

// RequireAdmin fails unless the caller is an admin.
func RequireAdmin(caller *domain.User) error {
	if caller == nil {
		return domerrors.ErrInvalidToken
	}
	if !caller.IsAdmin() {
		return domerrors.ErrAdminRequired
	}
	return nil
}

// RequireSelfOrAdmin fails unless the caller is userID or an admin.
func RequireSelfOrAdmin(caller *domain.User, userID domain.UserID) error {
	if caller == nil {
		return domerrors.ErrInvalidToken
	}
	if caller.IsAdmin() || caller.ID == userID {
		return nil
	}
	return domerrors.ErrForbidden
}

// CanAccessTimesheet allows admins and the header owner.
func CanAccessTimesheet(caller *domain.User, ts *domain.Timesheet) error {
	return RequireSelfOrAdmin(caller, ts.UserID)
}

// CanSubmit allows only the owner; admins cannot submit on a user's behalf.
func CanSubmit(caller *domain.User, ts *domain.Timesheet) error {
	if caller == nil {
		return domerrors.ErrInvalidToken
	}
	if !ts.OwnedBy(caller.ID) {
		return domerrors.ErrNotOwner
	}
	return nil
}

// CanReview allows only admins to approve or reject.
func CanReview(caller *domain.User) error {
	return RequireAdmin(caller)
}

// Policy carries the lookups needed for membership-scoped checks.
type Policy struct {
	members ports.MembershipRepository
}

func New(members ports.MembershipRepository) *Policy {
	return &Policy{members: members}
}

// CanAccessProject allows admins and members of the project.
func (p *Policy) CanAccessProject(ctx context.Context, caller *domain.User, projectID domain.ProjectID) error {
	if caller == nil {
		return domerrors.ErrInvalidToken
	}
	if caller.IsAdmin() {
		return nil
	}
	ok, err := p.members.Exists(ctx, projectID, caller.ID)
	if err != nil {
		return err
	}
	if !ok {
		return domerrors.ErrNoProjectAccess
	}
	return nil
}
