package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
)

func TestHTTPEmitterPostsDelivery(t *testing.T) {
	var (
		got     Delivery
		headers http.Header
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sent := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	e := NewHTTPEmitter(srv.URL, WithHeader("Authorization", "Bearer hook-secret"), WithClock(clock.Fake(sent)))
	ev := ports.TimesheetEvent{Event: "timesheet.submitted", TimesheetID: "ts1", ActorID: "u1", Status: "Submitted"}
	if err := e.Emit(context.Background(), ev); err != nil {
		t.Fatal(err)
	}
	if got.Event != "timesheet.submitted" || got.Data.TimesheetID != "ts1" || !got.SentAt.Equal(sent) || got.ID == "" {
		t.Errorf("received %+v", got)
	}
	if headers.Get("Authorization") != "Bearer hook-secret" || headers.Get(EventHeader) != "timesheet.submitted" {
		t.Errorf("headers = %v", headers)
	}
	if headers.Get(DeliveryHeader) != got.ID {
		t.Errorf("delivery header %q, body id %q", headers.Get(DeliveryHeader), got.ID)
	}
	if headers.Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", headers.Get("Content-Type"))
	}
}

func TestHTTPEmitterNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewHTTPEmitter(srv.URL).Emit(context.Background(), ports.TimesheetEvent{Event: "x"})
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadGateway {
		t.Fatalf("want StatusError 502, got %v", err)
	}
}
