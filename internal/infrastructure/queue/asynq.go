package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
)

const (
	TypeTimesheetStatusChanged = "timesheet:status_changed"
	TypePruneRefreshTokens     = "maintenance:prune_refresh_tokens"
)

type TaskEnqueuer struct {
	client *asynq.Client
	log    zerolog.Logger
}

func NewAsynqEnqueuer(redisOpt asynq.RedisConnOpt, log zerolog.Logger) *TaskEnqueuer {
	return &TaskEnqueuer{client: asynq.NewClient(redisOpt), log: log}
}

func (q *TaskEnqueuer) Close() error {
	return q.client.Close()
}

// NewTimesheetEventTask builds the notification task for a status change.
func NewTimesheetEventTask(event ports.TimesheetEvent) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTimesheetStatusChanged, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

func (q *TaskEnqueuer) EnqueueTimesheetEvent(ctx context.Context, event ports.TimesheetEvent) error {
	task, err := NewTimesheetEventTask(event)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Str("timesheet_id", event.TimesheetID).Str("event", event.Event).Msg("enqueue timesheet event failed")
		return err
	}
	return nil
}

// EnqueuePruneTokens queues a one-off ledger prune. Unique keeps repeated
// requests within an hour down to one task.
func (q *TaskEnqueuer) EnqueuePruneTokens(ctx context.Context) error {
	task := asynq.NewTask(TypePruneRefreshTokens, nil, asynq.Unique(time.Hour))
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Warn().Err(err).Msg("enqueue token prune failed")
		return err
	}
	return nil
}

var _ ports.TaskEnqueuer = (*TaskEnqueuer)(nil)
