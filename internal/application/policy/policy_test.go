package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

type stubMembers struct {
	pairs map[[2]uuid.UUID]bool
}

func (s *stubMembers) Add(context.Context, *domain.Membership) error { return nil }
func (s *stubMembers) Remove(context.Context, domain.ProjectID, domain.UserID) (bool, error) {
	return false, nil
}
func (s *stubMembers) Exists(_ context.Context, p domain.ProjectID, u domain.UserID) (bool, error) {
	return s.pairs[[2]uuid.UUID{p.UUID, u.UUID}], nil
}
func (s *stubMembers) ListMembers(context.Context, domain.ProjectID) ([]*domain.Member, error) {
	return nil, nil
}

func newUser(role domain.Role) *domain.User {
	return &domain.User{ID: domain.NewUserID(uuid.New()), Role: role, Status: domain.UserActive}
}

func TestRequireRole(t *testing.T) {
	admin, user := newUser(domain.RoleAdmin), newUser(domain.RoleUser)
	if err := RequireRole(admin, domain.RoleAdmin); err != nil {
		t.Errorf("admin rejected: %v", err)
	}
	if err := RequireRole(user, domain.RoleAdmin); !errors.Is(err, domerrors.ErrForbidden) {
		t.Errorf("user accepted as admin: %v", err)
	}
	if err := RequireRole(user, domain.RoleAdmin, domain.RoleUser); err != nil {
		t.Errorf("user rejected from user route: %v", err)
	}
	if err := RequireRole(nil, domain.RoleUser); domerrors.KindOf(err) != domerrors.KindUnauthenticated {
		t.Errorf("nil caller should be unauthenticated, got %v", err)
	}
}

func TestTimesheetRules(t *testing.T) {
	admin, owner, other := newUser(domain.RoleAdmin), newUser(domain.RoleUser), newUser(domain.RoleUser)
	ts := &domain.Timesheet{ID: domain.NewTimesheetID(uuid.New()), UserID: owner.ID, Status: domain.StatusDraft}

	if err := CanAccessTimesheet(owner, ts); err != nil {
		t.Errorf("owner read denied: %v", err)
	}
	if err := CanAccessTimesheet(admin, ts); err != nil {
		t.Errorf("admin read denied: %v", err)
	}
	if err := CanAccessTimesheet(other, ts); domerrors.KindOf(err) != domerrors.KindForbidden {
		t.Errorf("other user read allowed: %v", err)
	}
	if err := CanSubmit(owner, ts); err != nil {
		t.Errorf("owner submit denied: %v", err)
	}
	if err := CanSubmit(admin, ts); !errors.Is(err, domerrors.ErrNotOwner) {
		t.Errorf("admin submit should be denied, got %v", err)
	}
	if err := CanReview(owner); !errors.Is(err, domerrors.ErrAdminRequired) {
		t.Errorf("owner review should be denied, got %v", err)
	}
	if err := CanReview(admin); err != nil {
		t.Errorf("admin review denied: %v", err)
	}
}

func TestCanAccessProject(t *testing.T) {
	admin, member, outsider := newUser(domain.RoleAdmin), newUser(domain.RoleUser), newUser(domain.RoleUser)
	project := domain.NewProjectID(uuid.New())
	p := New(&stubMembers{pairs: map[[2]uuid.UUID]bool{{project.UUID, member.ID.UUID}: true}})
	ctx := context.Background()

	if err := p.CanAccessProject(ctx, admin, project); err != nil {
		t.Errorf("admin denied: %v", err)
	}
	if err := p.CanAccessProject(ctx, member, project); err != nil {
		t.Errorf("member denied: %v", err)
	}
	if err := p.CanAccessProject(ctx, outsider, project); !errors.Is(err, domerrors.ErrNoProjectAccess) {
		t.Errorf("outsider allowed: %v", err)
	}
}
