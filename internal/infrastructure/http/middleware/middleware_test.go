package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind domerrors.Kind
		want int
	}{
		{domerrors.KindValidation, http.StatusUnprocessableEntity},
		{domerrors.KindBusinessRule, http.StatusBadRequest},
		{domerrors.KindConflict, http.StatusConflict},
		{domerrors.KindNotFound, http.StatusNotFound},
		{domerrors.KindUnauthenticated, http.StatusUnauthorized},
		{domerrors.KindForbidden, http.StatusForbidden},
		{domerrors.KindLocked, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.kind); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteError(t *testing.T) {
	t.Run("domain error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/timesheets", nil)
		WriteError(rec, req, domerrors.BusinessRule(domerrors.Details{"hours": 30.0}, "too many hours"))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d", rec.Code)
		}
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatal(err)
		}
		if env.Code != 400 || env.Message != "too many hours" || env.Path != "/timesheets" || env.Details["hours"] != 30.0 {
			t.Errorf("envelope = %+v", env)
		}
		if env.Timestamp == "" {
			t.Error("missing timestamp")
		}
	})

	t.Run("unclassified error hides message", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: connection refused"))
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d", rec.Code)
		}
		var env ErrorEnvelope
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
		if env.Message != "internal server error" {
			t.Errorf("message = %q", env.Message)
		}
	})

	t.Run("locked sets Retry-After", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodPost, "/auth/login", nil),
			domerrors.ErrAccountLocked.WithDetails(domerrors.Details{"retry_after": 42}))
		if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "42" {
			t.Errorf("status = %d, Retry-After = %q", rec.Code, rec.Header().Get("Retry-After"))
		}
	})
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestRecovererRepanicsOnAbort(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestEnvelopeTimestampFollowsClock(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	clk := clock.Fake(fixed)

	errs := Clock(clk)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, domerrors.NotFound("timesheet"))
	}))
	panics := Clock(clk)(Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	for name, h := range map[string]http.Handler{"error": errs, "panic": panics} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/timesheets/1", nil))
		var env ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if env.Timestamp != fixed.Format(time.RFC3339) {
			t.Errorf("%s: timestamp = %q, want %q", name, env.Timestamp, fixed.Format(time.RFC3339))
		}
	}
}

type stubAuthn struct {
	user *domain.User
	err  error
}

func (s stubAuthn) Execute(context.Context, string) (*domain.User, error) { return s.user, s.err }

func TestAuthValidator(t *testing.T) {
	admin := &domain.User{Role: domain.RoleAdmin, Status: domain.UserActive}
	member := &domain.User{Role: domain.RoleUser, Status: domain.UserActive}

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			t.Error("user missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name   string
		authn  stubAuthn
		header string
		admin  bool
		want   int
	}{
		{"no header", stubAuthn{user: admin}, "", false, http.StatusUnauthorized},
		{"basic scheme", stubAuthn{user: admin}, "Basic abc", false, http.StatusUnauthorized},
		{"invalid token", stubAuthn{err: domerrors.ErrInvalidToken}, "Bearer x", false, http.StatusUnauthorized},
		{"valid token", stubAuthn{user: member}, "Bearer x", false, http.StatusOK},
		{"admin route as member", stubAuthn{user: member}, "Bearer x", true, http.StatusForbidden},
		{"admin route as admin", stubAuthn{user: admin}, "Bearer x", true, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var next http.Handler = ok
			if tt.admin {
				next = RequireAdmin(next)
			}
			h := NewAuthValidator(tt.authn).Handler(next)
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing WWW-Authenticate")
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := CORS([]string{"https://app.example.com"}, nil, nil)(next)

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/timesheets", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
			t.Errorf("allow-origin = %q", rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("other origin gets no grant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/timesheets", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Errorf("status = %d, allow-origin = %q", rec.Code, rec.Header().Get("Access-Control-Allow-Origin"))
		}
	})

	t.Run("disabled without origins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://app.example.com")
		req.Header.Set("Access-Control-Request-Method", "GET")
		rec := httptest.NewRecorder()
		CORS(nil, nil, nil)(next).ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}

func TestUserRateLimiter(t *testing.T) {
	limit, err := NewUserRateLimiter("1-M")
	if err != nil {
		t.Fatal(err)
	}
	h := limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	user := &domain.User{ID: domain.NewUserID(uuid.New())}

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/timesheets", nil)
		req = req.WithContext(WithUser(req.Context(), user))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if got := do(); got != http.StatusOK {
		t.Fatalf("first request = %d", got)
	}
	if got := do(); got != http.StatusTooManyRequests {
		t.Fatalf("second request = %d", got)
	}
}
