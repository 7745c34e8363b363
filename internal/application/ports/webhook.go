package ports

import "context"

// WebhookEmitter delivers committed timesheet events to an external endpoint.
type WebhookEmitter interface {
	Emit(ctx context.Context, event TimesheetEvent) error
}
