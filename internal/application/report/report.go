// Package report aggregates reportable hours. Rejected timesheets never
// count, and an empty aggregation is reported as not found.
package report

import (
	"context"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// Range is an inclusive date window.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return domerrors.Validation(domerrors.Details{"from": "required", "to": "required"}, "from and to are required")
	}
	if r.From.After(r.To) {
		return domerrors.BusinessRule(domerrors.Details{
			"from": r.From.Format(domain.DateLayout),
			"to":   r.To.Format(domain.DateLayout),
		}, "from must be on or before to")
	}
	return nil
}

type Service struct {
	tx       ports.TxManager
	reports  ports.ReportRepository
	users    ports.UserRepository
	projects ports.ProjectRepository
	policy   *policy.Policy
}

func NewService(tx ports.TxManager, reports ports.ReportRepository, users ports.UserRepository, projects ports.ProjectRepository, pol *policy.Policy) *Service {
	return &Service{tx: tx, reports: reports, users: users, projects: projects, policy: pol}
}

// UserHours totals hours per user. Non-admins get their own row; userID
// narrows an admin's report to one user and is admin-only for anyone else.
func (s *Service) UserHours(ctx context.Context, caller *domain.User, r Range, userID *domain.UserID) ([]domain.UserHours, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	if userID != nil {
		if err := policy.RequireSelfOrAdmin(caller, *userID); err != nil {
			return nil, err
		}
	} else if !caller.IsAdmin() {
		userID = &caller.ID
	}
	var rows []domain.UserHours
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.reports.HoursByUser(ctx, domain.Date(r.From), domain.Date(r.To), userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domerrors.ErrNoReportData
	}
	return rows, nil
}

// ProjectHours totals hours on one project. Members see only their own hours.
func (s *Service) ProjectHours(ctx context.Context, caller *domain.User, projectID domain.ProjectID, r Range) ([]domain.ProjectHours, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	var rows []domain.ProjectHours
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		project, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		if project == nil {
			return domerrors.ErrProjectNotFound
		}
		if err := s.policy.CanAccessProject(ctx, caller, projectID); err != nil {
			return err
		}
		var userID *domain.UserID
		if !caller.IsAdmin() {
			userID = &caller.ID
		}
		rows, err = s.reports.HoursByProject(ctx, projectID, domain.Date(r.From), domain.Date(r.To), userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domerrors.ErrNoReportData
	}
	return rows, nil
}

// UserProjects breaks one user's hours down by project.
func (s *Service) UserProjects(ctx context.Context, caller *domain.User, userID domain.UserID, r Range) ([]domain.UserProjectHours, error) {
	if err := policy.RequireSelfOrAdmin(caller, userID); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	var rows []domain.UserProjectHours
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return domerrors.ErrUserNotFound
		}
		rows, err = s.reports.UserProjects(ctx, userID, domain.Date(r.From), domain.Date(r.To))
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domerrors.ErrNoReportData
	}
	return rows, nil
}

// Summary totals hours per reportable status in the fixed order Draft,
// Submitted, Approved. Statuses with no hours are reported as zero.
func (s *Service) Summary(ctx context.Context, caller *domain.User, r Range) ([]domain.StatusHours, error) {
	if err := policy.RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	var rows []domain.StatusHours
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		rows, err = s.reports.HoursByStatus(ctx, domain.Date(r.From), domain.Date(r.To))
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domerrors.ErrNoReportData
	}
	byStatus := make(map[domain.TimesheetStatus]float64, len(rows))
	for _, row := range rows {
		byStatus[row.Status] += row.TotalHours
	}
	out := make([]domain.StatusHours, 0, len(domain.ReportableStatuses))
	for _, st := range domain.ReportableStatuses {
		out = append(out, domain.StatusHours{Status: st, TotalHours: byStatus[st]})
	}
	return out, nil
}
