package webhook

import (
	"context"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
)

// NoopEmitter discards events when WEBHOOK_URL is not set.
type NoopEmitter struct{}

func NewNoopEmitter() *NoopEmitter {
	return &NoopEmitter{}
}

func (e *NoopEmitter) Emit(context.Context, ports.TimesheetEvent) error {
	return nil
}

var _ ports.WebhookEmitter = (*NoopEmitter)(nil)
