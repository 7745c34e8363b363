package timesheet

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

type ItemInput struct {
	ProjectID   domain.ProjectID
	Date        time.Time
	Description string
	Hours       float64
}

type ItemPatch struct {
	ProjectID   *domain.ProjectID
	Date        *time.Time
	Description *string
	Hours       *float64
}

func (s *Service) ListItems(ctx context.Context, caller *domain.User, timesheetID domain.TimesheetID) ([]*domain.TimesheetItem, error) {
	var items []*domain.TimesheetItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadVisible(ctx, caller, timesheetID); err != nil {
			return err
		}
		var err error
		items, err = s.items.ListByTimesheet(ctx, timesheetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Service) GetItem(ctx context.Context, caller *domain.User, timesheetID domain.TimesheetID, id domain.ItemID) (*domain.TimesheetItem, error) {
	var item *domain.TimesheetItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadVisible(ctx, caller, timesheetID); err != nil {
			return err
		}
		var err error
		item, err = s.loadItem(ctx, timesheetID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem books hours on a Draft timesheet.
func (s *Service) CreateItem(ctx context.Context, caller *domain.User, timesheetID domain.TimesheetID, in ItemInput) (*domain.TimesheetItem, error) {
	now := s.clock.Now()
	item := &domain.TimesheetItem{
		ID:          domain.NewItemID(uuid.New()),
		TimesheetID: timesheetID,
		ProjectID:   in.ProjectID,
		Date:        domain.Date(in.Date),
		Description: strings.TrimSpace(in.Description),
		Hours:       domain.QuantizeHours(in.Hours),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ts, err := s.loadForWrite(ctx, caller, timesheetID)
		if err != nil {
			return err
		}
		if err := s.validateItem(ctx, caller, ts, item, nil); err != nil {
			return err
		}
		return s.items.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) UpdateItem(ctx context.Context, caller *domain.User, timesheetID domain.TimesheetID, id domain.ItemID, in ItemPatch) (*domain.TimesheetItem, error) {
	var item *domain.TimesheetItem
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		ts, err := s.loadForWrite(ctx, caller, timesheetID)
		if err != nil {
			return err
		}
		if item, err = s.loadItem(ctx, timesheetID, id); err != nil {
			return err
		}
		if in.ProjectID != nil {
			item.ProjectID = *in.ProjectID
		}
		if in.Date != nil {
			item.Date = domain.Date(*in.Date)
		}
		if in.Description != nil {
			item.Description = strings.TrimSpace(*in.Description)
		}
		if in.Hours != nil {
			item.Hours = domain.QuantizeHours(*in.Hours)
		}
		if err := s.validateItem(ctx, caller, ts, item, &item.ID); err != nil {
			return err
		}
		item.UpdatedAt = s.clock.Now()
		return s.items.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteItem(ctx context.Context, caller *domain.User, timesheetID domain.TimesheetID, id domain.ItemID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadForWrite(ctx, caller, timesheetID); err != nil {
			return err
		}
		if _, err := s.loadItem(ctx, timesheetID, id); err != nil {
			return err
		}
		return s.items.Delete(ctx, id)
	})
}

func (s *Service) loadItem(ctx context.Context, timesheetID domain.TimesheetID, id domain.ItemID) (*domain.TimesheetItem, error) {
	item, err := s.items.GetByID(ctx, timesheetID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domerrors.ErrItemNotFound
	}
	return item, nil
}

// validateItem runs every item rule against the locked header: project exists
// and is visible to the caller, date within the period, hours in (0, 24], and
// the day's total including this item at most 24.
func (s *Service) validateItem(ctx context.Context, caller *domain.User, ts *domain.Timesheet, item *domain.TimesheetItem, exclude *domain.ItemID) error {
	project, err := s.projects.GetByID(ctx, item.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return domerrors.ErrProjectNotFound
	}
	if err := s.policy.CanAccessProject(ctx, caller, item.ProjectID); err != nil {
		return err
	}
	date := item.Date.Format(domain.DateLayout)
	if !ts.Period.Contains(item.Date) {
		details := periodDetails(ts.Period)
		details["date"] = date
		return domerrors.ErrDateOutsidePeriod.WithDetails(details)
	}
	if !domain.ValidHours(item.Hours) {
		return domerrors.ErrInvalidHours.WithDetails(domerrors.Details{
			"hours":     item.Hours,
			"max_hours": domain.MaxDailyHours,
		})
	}
	total, err := s.items.DailyTotal(ctx, ts.ID, item.Date, exclude)
	if err != nil {
		return err
	}
	if domain.ExceedsDailyCap(total, item.Hours) {
		return domerrors.ErrDailyHoursExceeded.WithDetails(domerrors.Details{
			"date":            date,
			"hours":           item.Hours,
			"existing_hours":  total,
			"max_daily_hours": domain.MaxDailyHours,
		})
	}
	return nil
}
