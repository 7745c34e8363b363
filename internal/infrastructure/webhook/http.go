package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

const (
	EventHeader    = "X-Timesheets-Event"
	DeliveryHeader = "X-Timesheets-Delivery"
)

// Delivery is the JSON body posted for every event. ID is unique per
// attempt so receivers can log retries separately.
type Delivery struct {
	ID     string               `json:"id"`
	Event  string               `json:"event"`
	SentAt time.Time            `json:"sent_at"`
	Data   ports.TimesheetEvent `json:"data"`
}

// HTTPEmitter posts deliveries to a single URL.
type HTTPEmitter struct {
	client  *http.Client
	clock   clock.Clock
	url     string
	headers http.Header
}

type HTTPEmitterOption func(*HTTPEmitter)

// WithClient replaces the default client (10s timeout).
func WithClient(c *http.Client) HTTPEmitterOption {
	return func(e *HTTPEmitter) { e.client = c }
}

// WithHeader adds a header to every request, e.g. Authorization.
func WithHeader(key, value string) HTTPEmitterOption {
	return func(e *HTTPEmitter) { e.headers.Set(key, value) }
}

func WithClock(clk clock.Clock) HTTPEmitterOption {
	return func(e *HTTPEmitter) { e.clock = clk }
}

func NewHTTPEmitter(url string, opts ...HTTPEmitterOption) *HTTPEmitter {
	e := &HTTPEmitter{
		client:  &http.Client{Timeout: 10 * time.Second},
		clock:   clock.Real(),
		url:     url,
		headers: http.Header{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit posts ev. A non-2xx answer is an error so the queue retries the task.
func (e *HTTPEmitter) Emit(ctx context.Context, ev ports.TimesheetEvent) error {
	d := Delivery{ID: uuid.NewString(), Event: ev.Event, SentAt: e.clock.Now(), Data: ev}
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	for k, v := range e.headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, d.Event)
	req.Header.Set(DeliveryHeader, d.ID)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver %s: %w", d.Event, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Status: resp.StatusCode}
	}
	return nil
}

// StatusError reports a non-2xx answer from the endpoint.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook endpoint returned status %d", e.Status)
}

var _ ports.WebhookEmitter = (*HTTPEmitter)(nil)
