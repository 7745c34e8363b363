package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	Details   domerrors.Details `json:"details"`
	Timestamp string            `json:"timestamp"`
	Path      string            `json:"path"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domerrors.Kind) int {
	switch kind {
	case domerrors.KindValidation:
		return http.StatusUnprocessableEntity
	case domerrors.KindBusinessRule:
		return http.StatusBadRequest
	case domerrors.KindConflict:
		return http.StatusConflict
	case domerrors.KindNotFound:
		return http.StatusNotFound
	case domerrors.KindUnauthenticated:
		return http.StatusUnauthorized
	case domerrors.KindForbidden:
		return http.StatusForbidden
	case domerrors.KindLocked:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as an envelope. Unclassified errors are logged and
// reported as a bare 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := domerrors.As(err)
	if !ok {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("unhandled error")
		writeEnvelope(w, r, http.StatusInternalServerError, "internal server error", nil)
		return
	}
	status := StatusFor(e.Kind)
	if status == http.StatusTooManyRequests {
		if secs, ok := e.Details["retry_after"].(int); ok && secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
	}
	writeEnvelope(w, r, status, e.Message, e.Details)
}

// WriteStatus writes an envelope for a failure that has no domain error,
// such as an unknown route.
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeEnvelope(w, r, status, message, nil)
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, message string, details domerrors.Details) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Code:      status,
		Message:   message,
		Details:   details,
		Timestamp: ClockFromContext(r.Context()).Now().UTC().Format(time.RFC3339),
		Path:      r.URL.Path,
	})
}
