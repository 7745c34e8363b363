package handlers

import (
	"net/http"

	"github.com/amirhosseinghanipour/timesheets/internal/application/report"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// ReportsHandler serves the hour aggregations under /reports.
type ReportsHandler struct {
	reports *report.Service
}

func NewReportsHandler(svc *report.Service) *ReportsHandler {
	return &ReportsHandler{reports: svc}
}

type UserHoursResponse struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	TotalHours float64 `json:"total_hours"`
}

type ProjectHoursResponse struct {
	ProjectID   string  `json:"project_id"`
	ProjectName string  `json:"project_name"`
	TotalHours  float64 `json:"total_hours"`
}

type UserProjectHoursResponse struct {
	UserID      string  `json:"user_id"`
	ProjectID   string  `json:"project_id"`
	ProjectName string  `json:"project_name"`
	TotalHours  float64 `json:"total_hours"`
}

type StatusHoursResponse struct {
	Status     string  `json:"status"`
	TotalHours float64 `json:"total_hours"`
}

func reportRange(r *http.Request) (report.Range, error) {
	from, to, err := dateRange(r)
	return report.Range{From: from, To: to}, err
}

func (h *ReportsHandler) UserHours(w http.ResponseWriter, r *http.Request) {
	rng, err := reportRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var userID *domain.UserID
	if s := r.URL.Query().Get("user_id"); s != "" {
		id, err := parseUUIDField("user_id", s)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		uid := domain.NewUserID(id)
		userID = &uid
	}
	rows, err := h.reports.UserHours(r.Context(), middleware.UserFromContext(r.Context()), rng, userID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := make([]UserHoursResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, UserHoursResponse{UserID: row.UserID.String(), Name: row.Name, TotalHours: row.TotalHours})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportsHandler) ProjectHours(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rng, err := reportRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rows, err := h.reports.ProjectHours(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id), rng)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := make([]ProjectHoursResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ProjectHoursResponse{ProjectID: row.ProjectID.String(), ProjectName: row.ProjectName, TotalHours: row.TotalHours})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ReportsHandler) UserProjects(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rng, err := reportRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rows, err := h.reports.UserProjects(r.Context(), middleware.UserFromContext(r.Context()), domain.NewUserID(id), rng)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := make([]UserProjectHoursResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, UserProjectHoursResponse{
			UserID:      row.UserID.String(),
			ProjectID:   row.ProjectID.String(),
			ProjectName: row.ProjectName,
			TotalHours:  row.TotalHours,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Summary totals hours per status. Admin only.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	rng, err := reportRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	rows, err := h.reports.Summary(r.Context(), middleware.UserFromContext(r.Context()), rng)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	out := make([]StatusHoursResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, StatusHoursResponse{Status: string(row.Status), TotalHours: row.TotalHours})
	}
	writeJSON(w, http.StatusOK, out)
}
