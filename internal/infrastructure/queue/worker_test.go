package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
)

type recordingEmitter struct {
	events []ports.TimesheetEvent
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, ev ports.TimesheetEvent) error {
	r.events = append(r.events, ev)
	return r.err
}

func TestHandleTimesheetEvent(t *testing.T) {
	em := &recordingEmitter{}
	h := NewHandlers(em, nil, zerolog.Nop())
	ev := ports.TimesheetEvent{
		Event:       "timesheet.approved",
		TimesheetID: "ts-1",
		OwnerID:     "owner",
		ActorID:     "admin",
		Status:      "Approved",
		PeriodStart: "2024-01-01",
		PeriodEnd:   "2024-01-07",
		OccurredAt:  time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC),
	}
	task, err := NewTimesheetEventTask(ev)
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeTimesheetStatusChanged {
		t.Fatalf("task type = %s", task.Type())
	}
	if err := h.HandleTimesheetEvent(context.Background(), task); err != nil {
		t.Fatal(err)
	}
	if len(em.events) != 1 {
		t.Fatalf("emitted %d events", len(em.events))
	}
	if got := em.events[0]; got != ev {
		t.Errorf("emitted %+v, want %+v", got, ev)
	}
}

func TestHandleTimesheetEventErrors(t *testing.T) {
	em := &recordingEmitter{err: errors.New("endpoint down")}
	h := NewHandlers(em, nil, zerolog.Nop())

	task, _ := NewTimesheetEventTask(ports.TimesheetEvent{Event: "timesheet.submitted"})
	if err := h.HandleTimesheetEvent(context.Background(), task); err == nil {
		t.Error("delivery failure should be retried")
	}

	bad := asynq.NewTask(TypeTimesheetStatusChanged, []byte("{"))
	if err := h.HandleTimesheetEvent(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Errorf("malformed payload should skip retry, got %v", err)
	}
}

func TestHandlePruneTokens(t *testing.T) {
	calls := 0
	h := NewHandlers(nil, func(context.Context) (int64, error) {
		calls++
		return 3, nil
	}, zerolog.Nop())
	if err := h.HandlePruneTokens(context.Background(), asynq.NewTask(TypePruneRefreshTokens, nil)); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("pruner called %d times", calls)
	}
}
