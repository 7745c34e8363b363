package queue

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
)

// NoopEnqueuer is used when Redis is not configured. Events are logged at
// debug level and dropped.
type NoopEnqueuer struct {
	log zerolog.Logger
}

func NewNoopEnqueuer(log zerolog.Logger) *NoopEnqueuer {
	return &NoopEnqueuer{log: log}
}

func (q *NoopEnqueuer) EnqueueTimesheetEvent(_ context.Context, event ports.TimesheetEvent) error {
	q.log.Debug().Str("timesheet_id", event.TimesheetID).Str("event", event.Event).Msg("timesheet event dropped (no queue)")
	return nil
}

func (q *NoopEnqueuer) EnqueuePruneTokens(context.Context) error {
	return nil
}

var _ ports.TaskEnqueuer = (*NoopEnqueuer)(nil)
