package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// writeErr sends err in the uniform error envelope.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// PageResponse is the shape of paginated lists.
type PageResponse[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
	Offset  int `json:"offset"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}
