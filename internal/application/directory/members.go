package directory

import (
	"context"
	"strings"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// Members manages the project roster.
type Members struct {
	tx       ports.TxManager
	projects ports.ProjectRepository
	users    ports.UserRepository
	members  ports.MembershipRepository
	policy   *policy.Policy
	clock    clock.Clock
}

func NewMembers(tx ports.TxManager, projects ports.ProjectRepository, users ports.UserRepository, members ports.MembershipRepository, pol *policy.Policy, clk clock.Clock) *Members {
	return &Members{tx: tx, projects: projects, users: users, members: members, policy: pol, clock: clk}
}

// Add assigns userID to projectID. Admin only.
func (s *Members) Add(ctx context.Context, caller *domain.User, projectID domain.ProjectID, userID domain.UserID, roleInProject string) (*domain.Membership, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	m := &domain.Membership{
		UserID:        userID,
		ProjectID:     projectID,
		RoleInProject: strings.TrimSpace(roleInProject),
		CreatedAt:     s.clock.Now(),
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireProject(ctx, projectID); err != nil {
			return err
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return domerrors.ErrUserNotFound
		}
		exists, err := s.members.Exists(ctx, projectID, userID)
		if err != nil {
			return err
		}
		if exists {
			return domerrors.ErrMembershipExists.WithDetails(domerrors.Details{"user_id": userID.String()})
		}
		return s.members.Add(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Remove unassigns userID from projectID. Admin only. A missing pair is a
// not-found error.
func (s *Members) Remove(ctx context.Context, caller *domain.User, projectID domain.ProjectID, userID domain.UserID) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireProject(ctx, projectID); err != nil {
			return err
		}
		removed, err := s.members.Remove(ctx, projectID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return domerrors.ErrMemberNotFound
		}
		return nil
	})
}

// List returns the roster. Admins and members may read it.
func (s *Members) List(ctx context.Context, caller *domain.User, projectID domain.ProjectID) ([]*domain.Member, error) {
	var members []*domain.Member
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.requireProject(ctx, projectID); err != nil {
			return err
		}
		if err := s.policy.CanAccessProject(ctx, caller, projectID); err != nil {
			return err
		}
		var err error
		members, err = s.members.ListMembers(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Members) requireProject(ctx context.Context, id domain.ProjectID) error {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return domerrors.ErrProjectNotFound
	}
	return nil
}
