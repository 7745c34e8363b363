package ports

import (
	"context"
	"time"
)

// TimesheetEvent describes a committed timesheet status change.
type TimesheetEvent struct {
	Event       string    `json:"event"` // timesheet.submitted, timesheet.approved, timesheet.rejected
	TimesheetID string    `json:"timesheet_id"`
	OwnerID     string    `json:"owner_id"`
	ActorID     string    `json:"actor_id"`
	Status      string    `json:"status"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// TaskEnqueuer enqueues async tasks (lifecycle notifications, maintenance).
type TaskEnqueuer interface {
	EnqueueTimesheetEvent(ctx context.Context, event TimesheetEvent) error
	EnqueuePruneTokens(ctx context.Context) error
}
