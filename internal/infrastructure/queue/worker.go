package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
)

// Pruner deletes stale refresh-token records and reports how many.
type Pruner func(ctx context.Context) (int64, error)

// Handlers processes task payloads. It is separate from the asynq server so
// it can be exercised without Redis.
type Handlers struct {
	webhook ports.WebhookEmitter
	prune   Pruner
	log     zerolog.Logger
}

func NewHandlers(webhook ports.WebhookEmitter, prune Pruner, log zerolog.Logger) *Handlers {
	return &Handlers{webhook: webhook, prune: prune, log: log}
}

// Register attaches every handler to mux.
func (h *Handlers) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeTimesheetStatusChanged, h.HandleTimesheetEvent)
	mux.HandleFunc(TypePruneRefreshTokens, h.HandlePruneTokens)
}

// HandleTimesheetEvent logs the change and delivers it to the webhook. A
// malformed payload is dropped rather than retried.
func (h *Handlers) HandleTimesheetEvent(ctx context.Context, t *asynq.Task) error {
	var ev ports.TimesheetEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		h.log.Error().Err(err).Msg("timesheet event payload invalid")
		return fmt.Errorf("decode timesheet event: %v: %w", err, asynq.SkipRetry)
	}
	h.log.Info().
		Str("event", ev.Event).
		Str("timesheet_id", ev.TimesheetID).
		Str("owner_id", ev.OwnerID).
		Str("actor_id", ev.ActorID).
		Str("status", ev.Status).
		Msg("timesheet status changed")
	if h.webhook == nil {
		return nil
	}
	if err := h.webhook.Emit(ctx, ev); err != nil {
		h.log.Warn().Err(err).Str("timesheet_id", ev.TimesheetID).Msg("webhook delivery failed")
		return err
	}
	return nil
}

func (h *Handlers) HandlePruneTokens(ctx context.Context, _ *asynq.Task) error {
	if h.prune == nil {
		return nil
	}
	n, err := h.prune(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("prune refresh tokens failed")
		return err
	}
	h.log.Info().Int64("pruned", n).Msg("pruned refresh tokens")
	return nil
}

// Worker runs the asynq server.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log zerolog.Logger
}

// NewWorker creates an asynq server with the handlers registered. Call Run to start.
func NewWorker(redisOpt asynq.RedisConnOpt, concurrency int, h *Handlers, log zerolog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		LogLevel:    asynq.InfoLevel,
		Queues:      map[string]int{"default": 1},
	})
	mux := asynq.NewServeMux()
	h.Register(mux)
	return &Worker{srv: srv, mux: mux, log: log}
}

// Run blocks until shutdown.
func (w *Worker) Run() error {
	return w.srv.Run(w.mux)
}

// Start runs the server in the background.
func (w *Worker) Start() error {
	return w.srv.Start(w.mux)
}

// Shutdown stops the worker.
func (w *Worker) Shutdown() {
	w.srv.Shutdown()
}
