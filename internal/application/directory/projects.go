package directory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

type ProjectInput struct {
	Code        string
	Name        string
	Description string
	ClientName  string
	IsActive    *bool // defaults to true
	AccountID   *domain.AccountID
}

type ProjectPatch struct {
	Code        *string
	Name        *string
	Description *string
	ClientName  *string
	IsActive    *bool
	AccountID   *domain.AccountID
}

// ProjectQuery selects a page of projects. Ordering is a column name from
// created_at, updated_at, name, code with an optional leading "-".
type ProjectQuery struct {
	Ordering  string
	Limit     int
	Offset    int
	AccountID *domain.AccountID
	IsActive  *bool
}

type ProjectPage struct {
	Results []*domain.Project
	Total   int
	Limit   int
	Offset  int
}

// Projects manages projects. Admins see and change everything; other users
// only see the projects they are members of.
type Projects struct {
	tx       ports.TxManager
	projects ports.ProjectRepository
	accounts ports.AccountRepository
	policy   *policy.Policy
	clock    clock.Clock
}

func NewProjects(tx ports.TxManager, projects ports.ProjectRepository, accounts ports.AccountRepository, pol *policy.Policy, clk clock.Clock) *Projects {
	return &Projects{tx: tx, projects: projects, accounts: accounts, policy: pol, clock: clk}
}

func (s *Projects) List(ctx context.Context, caller *domain.User, q ProjectQuery) (*ProjectPage, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	limit, offset := normalizePage(q.Limit, q.Offset)
	order, desc := domain.ParseProjectOrdering(q.Ordering)
	filter := ports.ProjectFilter{
		AccountID:  q.AccountID,
		IsActive:   q.IsActive,
		OrderBy:    order,
		Descending: desc,
		Limit:      limit,
		Offset:     offset,
	}
	if !caller.IsAdmin() {
		filter.MemberID = &caller.ID
	}
	page := &ProjectPage{Limit: limit, Offset: offset}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		page.Results, page.Total, err = s.projects.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// ListForAccount lists an account's projects. Admin only.
func (s *Projects) ListForAccount(ctx context.Context, caller *domain.User, accountID domain.AccountID, q ProjectQuery) (*ProjectPage, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.requireAccount(ctx, accountID)
	}); err != nil {
		return nil, err
	}
	q.AccountID = &accountID
	return s.List(ctx, caller, q)
}

func (s *Projects) Get(ctx context.Context, caller *domain.User, id domain.ProjectID) (*domain.Project, error) {
	var project *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if project, err = s.load(ctx, id); err != nil {
			return err
		}
		return s.policy.CanAccessProject(ctx, caller, id)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// GetForAccount returns a project only if it belongs to accountID.
func (s *Projects) GetForAccount(ctx context.Context, caller *domain.User, accountID domain.AccountID, id domain.ProjectID) (*domain.Project, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var project *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		project, err = s.loadScoped(ctx, accountID, id)
		return err
	})
	return project, err
}

func (s *Projects) Create(ctx context.Context, caller *domain.User, in ProjectInput) (*domain.Project, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if err := required(map[string]string{"code": in.Code, "name": in.Name}); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	project := &domain.Project{
		ID:          domain.NewProjectID(uuid.New()),
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		ClientName:  in.ClientName,
		IsActive:    true,
		AccountID:   in.AccountID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		project.IsActive = *in.IsActive
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if project.AccountID != nil {
			if err := s.requireAccount(ctx, *project.AccountID); err != nil {
				return err
			}
		}
		return s.projects.Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CreateForAccount creates a project owned by accountID.
func (s *Projects) CreateForAccount(ctx context.Context, caller *domain.User, accountID domain.AccountID, in ProjectInput) (*domain.Project, error) {
	in.AccountID = &accountID
	return s.Create(ctx, caller, in)
}

func (s *Projects) Update(ctx context.Context, caller *domain.User, id domain.ProjectID, patch ProjectPatch) (*domain.Project, error) {
	return s.update(ctx, caller, nil, id, patch)
}

// UpdateForAccount updates a project only if it belongs to accountID.
func (s *Projects) UpdateForAccount(ctx context.Context, caller *domain.User, accountID domain.AccountID, id domain.ProjectID, patch ProjectPatch) (*domain.Project, error) {
	return s.update(ctx, caller, &accountID, id, patch)
}

func (s *Projects) update(ctx context.Context, caller *domain.User, accountID *domain.AccountID, id domain.ProjectID, patch ProjectPatch) (*domain.Project, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	var project *domain.Project
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if accountID != nil {
			project, err = s.loadScoped(ctx, *accountID, id)
		} else {
			project, err = s.load(ctx, id)
		}
		if err != nil {
			return err
		}
		if patch.Code != nil {
			if code := strings.TrimSpace(*patch.Code); code != "" {
				project.Code = code
			}
		}
		if patch.Name != nil {
			if name := strings.TrimSpace(*patch.Name); name != "" {
				project.Name = name
			}
		}
		if patch.Description != nil {
			project.Description = *patch.Description
		}
		if patch.ClientName != nil {
			project.ClientName = *patch.ClientName
		}
		if patch.IsActive != nil {
			project.IsActive = *patch.IsActive
		}
		if patch.AccountID != nil {
			if err := s.requireAccount(ctx, *patch.AccountID); err != nil {
				return err
			}
			project.AccountID = patch.AccountID
		}
		project.UpdatedAt = s.clock.Now()
		return s.projects.Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// Delete removes a project and its memberships. Projects with booked time
// are kept and a conflict is returned.
func (s *Projects) Delete(ctx context.Context, caller *domain.User, id domain.ProjectID) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.load(ctx, id); err != nil {
			return err
		}
		return s.projects.Delete(ctx, id)
	})
}

// DeleteForAccount deletes a project only if it belongs to accountID.
func (s *Projects) DeleteForAccount(ctx context.Context, caller *domain.User, accountID domain.AccountID, id domain.ProjectID) error {
	if err := policy.RequireAdmin(caller); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadScoped(ctx, accountID, id); err != nil {
			return err
		}
		return s.projects.Delete(ctx, id)
	})
}

func (s *Projects) load(ctx context.Context, id domain.ProjectID) (*domain.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, domerrors.ErrProjectNotFound
	}
	return project, nil
}

func (s *Projects) loadScoped(ctx context.Context, accountID domain.AccountID, id domain.ProjectID) (*domain.Project, error) {
	if err := s.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.AccountID == nil || *project.AccountID != accountID {
		return nil, domerrors.ErrProjectNotFound
	}
	return project, nil
}

func (s *Projects) requireAccount(ctx context.Context, id domain.AccountID) error {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account == nil {
		return domerrors.ErrAccountNotFound
	}
	return nil
}
