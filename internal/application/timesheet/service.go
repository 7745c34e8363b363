// Package timesheet is the timesheet lifecycle engine: header CRUD, the
// Draft -> Submitted -> Approved/Rejected state machine, and item rules.
//
// Every mutation runs in one transaction and validates fully before it
// writes. Header writes lock the owner so overlap checks cannot race; item
// writes lock the header so daily totals cannot race.
package timesheet

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/policy"
	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

const (
	DefaultListLimit = 25
	MaxListLimit     = 100
)

type CreateInput struct {
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// UpdateInput changes the period. Status is accepted only so that an attempt
// to set it can be refused; transitions have dedicated operations.
type UpdateInput struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
	Status      *string
}

type ListQuery struct {
	UserID *domain.UserID // admin-only filter; non-admins always see their own
	Status *domain.TimesheetStatus
	Limit  int
	Offset int
}

type Page struct {
	Results []*domain.Timesheet
	Total   int
	Limit   int
	Offset  int
}

// ActionResult is returned by submit, approve and reject.
type ActionResult struct {
	Success   bool
	Message   string
	Timesheet *domain.Timesheet
}

type Service struct {
	tx         ports.TxManager
	timesheets ports.TimesheetRepository
	items      ports.TimesheetItemRepository
	projects   ports.ProjectRepository
	policy     *policy.Policy
	events     ports.TaskEnqueuer
	clock      clock.Clock
	log        zerolog.Logger
}

func NewService(
	tx ports.TxManager,
	timesheets ports.TimesheetRepository,
	items ports.TimesheetItemRepository,
	projects ports.ProjectRepository,
	pol *policy.Policy,
	events ports.TaskEnqueuer,
	clk clock.Clock,
	log zerolog.Logger,
) *Service {
	return &Service{
		tx:         tx,
		timesheets: timesheets,
		items:      items,
		projects:   projects,
		policy:     pol,
		events:     events,
		clock:      clk,
		log:        log,
	}
}

// Create opens a Draft timesheet for the caller.
func (s *Service) Create(ctx context.Context, caller *domain.User, in CreateInput) (*domain.Timesheet, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	period := domain.NewPeriod(in.PeriodStart, in.PeriodEnd)
	if !period.Valid() {
		return nil, domerrors.ErrInvalidPeriod.WithDetails(periodDetails(period))
	}
	now := s.clock.Now()
	ts := &domain.Timesheet{
		ID:        domain.NewTimesheetID(uuid.New()),
		UserID:    caller.ID,
		Period:    period,
		Status:    domain.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.timesheets.LockOwner(ctx, ts.UserID); err != nil {
			return err
		}
		if err := s.checkOverlap(ctx, ts.UserID, period, nil); err != nil {
			return err
		}
		return s.timesheets.Create(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

func (s *Service) Get(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*domain.Timesheet, error) {
	var ts *domain.Timesheet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ts, err = s.loadVisible(ctx, caller, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// List returns all timesheets to admins and the caller's own to everyone else,
// most recent period first.
func (s *Service) List(ctx context.Context, caller *domain.User, q ListQuery) (*Page, error) {
	if caller == nil {
		return nil, domerrors.ErrInvalidToken
	}
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	filter := ports.TimesheetFilter{UserID: q.UserID, Status: q.Status, Limit: q.Limit, Offset: q.Offset}
	if !caller.IsAdmin() {
		filter.UserID = &caller.ID
	}
	page := &Page{Limit: q.Limit, Offset: q.Offset}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		page.Results, page.Total, err = s.timesheets.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Update changes a Draft timesheet's period. The new period must stay
// ordered, must not overlap the owner's other timesheets, and must still
// contain every item already booked.
func (s *Service) Update(ctx context.Context, caller *domain.User, id domain.TimesheetID, in UpdateInput) (*domain.Timesheet, error) {
	var ts *domain.Timesheet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if in.Status != nil {
			// Visibility is settled first so a stranger still sees 404 or 403.
			if _, err := s.loadVisible(ctx, caller, id); err != nil {
				return err
			}
			return domerrors.ErrStatusImmutable.WithDetails(domerrors.Details{"status": "use the submit, approve or reject actions"})
		}
		var err error
		if ts, err = s.loadForWrite(ctx, caller, id); err != nil {
			return err
		}
		period := ts.Period
		if in.PeriodStart != nil {
			period.Start = domain.Date(*in.PeriodStart)
		}
		if in.PeriodEnd != nil {
			period.End = domain.Date(*in.PeriodEnd)
		}
		if !period.Valid() {
			return domerrors.ErrInvalidPeriod.WithDetails(periodDetails(period))
		}
		if period != ts.Period {
			if err := s.timesheets.LockOwner(ctx, ts.UserID); err != nil {
				return err
			}
			if err := s.checkOverlap(ctx, ts.UserID, period, &ts.ID); err != nil {
				return err
			}
			if err := s.checkItemsWithin(ctx, ts.ID, period); err != nil {
				return err
			}
			ts.Period = period
		}
		ts.UpdatedAt = s.clock.Now()
		return s.timesheets.Update(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	return ts, nil
}

// Delete removes a Draft timesheet and its items.
func (s *Service) Delete(ctx context.Context, caller *domain.User, id domain.TimesheetID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadForWrite(ctx, caller, id); err != nil {
			return err
		}
		return s.timesheets.Delete(ctx, id)
	})
}

func (s *Service) Submit(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*ActionResult, error) {
	return s.transition(ctx, caller, id, domain.TransitionSubmit)
}

func (s *Service) Approve(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*ActionResult, error) {
	return s.transition(ctx, caller, id, domain.TransitionApprove)
}

func (s *Service) Reject(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*ActionResult, error) {
	return s.transition(ctx, caller, id, domain.TransitionReject)
}

// transition checks, in order: visibility (403), the action's caller rule
// (403), then the current status (409).
func (s *Service) transition(ctx context.Context, caller *domain.User, id domain.TimesheetID, t domain.Transition) (*ActionResult, error) {
	var ts *domain.Timesheet
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.timesheets.LockTimesheet(ctx, id); err != nil {
			return err
		}
		var err error
		if ts, err = s.loadVisible(ctx, caller, id); err != nil {
			return err
		}
		if t == domain.TransitionSubmit {
			err = policy.CanSubmit(caller, ts)
		} else {
			err = policy.CanReview(caller)
		}
		if err != nil {
			return err
		}
		next, ok := ts.Status.Apply(t)
		if !ok {
			return domerrors.ErrInvalidTransition.WithDetails(domerrors.Details{
				"action":          string(t),
				"status":          string(ts.Status),
				"required_status": string(t.From()),
			})
		}
		ts.Status = next
		ts.UpdatedAt = s.clock.Now()
		return s.timesheets.Update(ctx, ts)
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, caller, ts, t)
	return &ActionResult{
		Success:   true,
		Message:   "timesheet " + strings.ToLower(string(ts.Status)),
		Timesheet: ts,
	}, nil
}

// publish enqueues a lifecycle notification after commit. Delivery problems
// never undo a committed transition.
func (s *Service) publish(ctx context.Context, caller *domain.User, ts *domain.Timesheet, t domain.Transition) {
	if s.events == nil {
		return
	}
	event := ports.TimesheetEvent{
		Event:       eventName(t),
		TimesheetID: ts.ID.String(),
		OwnerID:     ts.UserID.String(),
		ActorID:     caller.ID.String(),
		Status:      string(ts.Status),
		PeriodStart: ts.Period.Start.Format(domain.DateLayout),
		PeriodEnd:   ts.Period.End.Format(domain.DateLayout),
		OccurredAt:  ts.UpdatedAt,
	}
	if err := s.events.EnqueueTimesheetEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("timesheet_id", event.TimesheetID).Str("event", event.Event).Msg("enqueue timesheet event failed")
	}
}

func eventName(t domain.Transition) string {
	switch t {
	case domain.TransitionSubmit:
		return "timesheet.submitted"
	case domain.TransitionApprove:
		return "timesheet.approved"
	case domain.TransitionReject:
		return "timesheet.rejected"
	}
	return "timesheet." + string(t)
}

// loadVisible returns the header if it exists (404) and the caller may see it (403).
func (s *Service) loadVisible(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*domain.Timesheet, error) {
	ts, err := s.timesheets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, domerrors.ErrTimesheetNotFound
	}
	if err := policy.CanAccessTimesheet(caller, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

// loadForWrite locks the header, then requires visibility and Draft status.
func (s *Service) loadForWrite(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*domain.Timesheet, error) {
	if err := s.timesheets.LockTimesheet(ctx, id); err != nil {
		return nil, err
	}
	ts, err := s.loadVisible(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !ts.Status.Editable() {
		return nil, domerrors.ErrNotEditable.WithDetails(domerrors.Details{"status": string(ts.Status)})
	}
	return ts, nil
}

func (s *Service) checkOverlap(ctx context.Context, userID domain.UserID, period domain.Period, exclude *domain.TimesheetID) error {
	found, err := s.timesheets.FindOverlapping(ctx, userID, period, exclude)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return nil
	}
	details := periodDetails(period)
	details["conflicting_timesheet_id"] = found[0].ID.String()
	details["conflicting_period_start"] = found[0].Period.Start.Format(domain.DateLayout)
	details["conflicting_period_end"] = found[0].Period.End.Format(domain.DateLayout)
	return domerrors.ErrPeriodOverlap.WithDetails(details)
}

func (s *Service) checkItemsWithin(ctx context.Context, id domain.TimesheetID, period domain.Period) error {
	items, err := s.items.ListByTimesheet(ctx, id)
	if err != nil {
		return err
	}
	var outside []string
	for _, it := range items {
		if !period.Contains(it.Date) {
			outside = append(outside, it.Date.Format(domain.DateLayout))
		}
	}
	if len(outside) == 0 {
		return nil
	}
	details := periodDetails(period)
	details["item_dates"] = outside
	return domerrors.ErrDateOutsidePeriod.WithDetails(details)
}

func periodDetails(p domain.Period) domerrors.Details {
	return domerrors.Details{
		"period_start": p.Start.Format(domain.DateLayout),
		"period_end":   p.End.Format(domain.DateLayout),
	}
}
