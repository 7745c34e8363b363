package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/timesheet"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// TimesheetsHandler handles timesheet headers, their transitions and items.
type TimesheetsHandler struct {
	timesheets *timesheet.Service
	log        zerolog.Logger
}

func NewTimesheetsHandler(svc *timesheet.Service, log zerolog.Logger) *TimesheetsHandler {
	return &TimesheetsHandler{timesheets: svc, log: log}
}

type TimesheetResponse struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func timesheetResponse(t *domain.Timesheet) TimesheetResponse {
	return TimesheetResponse{
		ID:          t.ID.String(),
		UserID:      t.UserID.String(),
		PeriodStart: formatDate(t.Period.Start),
		PeriodEnd:   formatDate(t.Period.End),
		Status:      string(t.Status),
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

// ActionResponse is the uniform result of submit, approve and reject.
type ActionResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Timesheet TimesheetResponse `json:"timesheet"`
}

type ItemResponse struct {
	ID          string  `json:"id"`
	TimesheetID string  `json:"timesheet_id"`
	ProjectID   string  `json:"project_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Hours       float64 `json:"hours"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func itemResponse(it *domain.TimesheetItem) ItemResponse {
	return ItemResponse{
		ID:          it.ID.String(),
		TimesheetID: it.TimesheetID.String(),
		ProjectID:   it.ProjectID.String(),
		Date:        formatDate(it.Date),
		Description: it.Description,
		Hours:       it.Hours,
		CreatedAt:   formatTime(it.CreatedAt),
		UpdatedAt:   formatTime(it.UpdatedAt),
	}
}

func timesheetIDParam(r *http.Request) (domain.TimesheetID, error) {
	id, err := uuidParam(r, "id")
	return domain.NewTimesheetID(id), err
}

// List returns the caller's timesheets, or everyone's for admins.
func (h *TimesheetsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	q := timesheet.ListQuery{Limit: limit, Offset: offset}
	if s := r.URL.Query().Get("status"); s != "" {
		status, ok := domain.ParseTimesheetStatus(s)
		if !ok {
			writeErr(w, r, domerrors.Validation(domerrors.Details{"status": "must be one of Draft Submitted Approved Rejected"}, "invalid query parameter"))
			return
		}
		q.Status = &status
	}
	if s := r.URL.Query().Get("user_id"); s != "" {
		id, err := parseUUIDField("user_id", s)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		userID := domain.NewUserID(id)
		q.UserID = &userID
	}
	page, err := h.timesheets.List(r.Context(), middleware.UserFromContext(r.Context()), q)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	results := make([]TimesheetResponse, 0, len(page.Results))
	for _, t := range page.Results {
		results = append(results, timesheetResponse(t))
	}
	writeJSON(w, http.StatusOK, PageResponse[TimesheetResponse]{Results: results, Total: page.Total, Limit: page.Limit, Offset: page.Offset})
}

func (h *TimesheetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PeriodStart string `json:"period_start" validate:"required,datetime=2006-01-02"`
		PeriodEnd   string `json:"period_end" validate:"required,datetime=2006-01-02"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	start, err := parseDateField("period_start", body.PeriodStart)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	end, err := parseDateField("period_end", body.PeriodEnd)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ts, err := h.timesheets.Create(r.Context(), middleware.UserFromContext(r.Context()), timesheet.CreateInput{PeriodStart: start, PeriodEnd: end})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, timesheetResponse(ts))
}

func (h *TimesheetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := timesheetIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	ts, err := h.timesheets.Get(r.Context(), middleware.UserFromContext(r.Context()), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timesheetResponse(ts))
}

// Update changes the period of a Draft header. A status field is accepted
// only so it can be refused with a pointer to the transition routes.
func (h *TimesheetsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := timesheetIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		PeriodStart *string `json:"period_start" validate:"omitempty,datetime=2006-01-02"`
		PeriodEnd   *string `json:"period_end" validate:"omitempty,datetime=2006-01-02"`
		Status      *string `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	in := timesheet.UpdateInput{Status: body.Status}
	if in.PeriodStart, err = optionalDate("period_start", body.PeriodStart); err != nil {
		writeErr(w, r, err)
		return
	}
	if in.PeriodEnd, err = optionalDate("period_end", body.PeriodEnd); err != nil {
		writeErr(w, r, err)
		return
	}
	ts, err := h.timesheets.Update(r.Context(), middleware.UserFromContext(r.Context()), id, in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timesheetResponse(ts))
}

func (h *TimesheetsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := timesheetIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.timesheets.Delete(r.Context(), middleware.UserFromContext(r.Context()), id); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TimesheetsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TransitionSubmit, h.timesheets.Submit)
}

func (h *TimesheetsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TransitionApprove, h.timesheets.Approve)
}

func (h *TimesheetsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, domain.TransitionReject, h.timesheets.Reject)
}

type transitionFunc func(ctx context.Context, caller *domain.User, id domain.TimesheetID) (*timesheet.ActionResult, error)

func (h *TimesheetsHandler) transition(w http.ResponseWriter, r *http.Request, t domain.Transition, apply transitionFunc) {
	id, err := timesheetIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	caller := middleware.UserFromContext(r.Context())
	event := "timesheet." + string(t)
	result, err := apply(r.Context(), caller, id)
	if err != nil {
		AuditLog(h.log, r, event, caller.ID.String(), id.String(), false, err.Error())
		middleware.RecordTransition(string(t), false)
		writeErr(w, r, err)
		return
	}
	AuditLog(h.log, r, event, caller.ID.String(), id.String(), true, "")
	middleware.RecordTransition(string(t), true)
	writeJSON(w, http.StatusOK, ActionResponse{
		Success:   result.Success,
		Message:   result.Message,
		Timesheet: timesheetResponse(result.Timesheet),
	})
}

func (h *TimesheetsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, err := timesheetIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	items, err := h.timesheets.ListItems(r.Context(), middleware.UserFromContext(r.Context()), id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	results := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		results = append(results, itemResponse(it))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "total": len(results)})
}

func (h *TimesheetsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	id, err := timesheetIDParam(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		ProjectID   string   `json:"project_id" validate:"required,uuid"`
		Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
		Description string   `json:"description" validate:"max=2000"`
		Hours       *float64 `json:"hours" validate:"required"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	projectID, err := parseUUIDField("project_id", body.ProjectID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	date, err := parseDateField("date", body.Date)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	item, err := h.timesheets.CreateItem(r.Context(), middleware.UserFromContext(r.Context()), id, timesheet.ItemInput{
		ProjectID:   domain.NewProjectID(projectID),
		Date:        date,
		Description: body.Description,
		Hours:       *body.Hours,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse(item))
}

func (h *TimesheetsHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, itemID, err := itemParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	item, err := h.timesheets.GetItem(r.Context(), middleware.UserFromContext(r.Context()), id, itemID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(item))
}

func (h *TimesheetsHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, itemID, err := itemParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		ProjectID   *string  `json:"project_id" validate:"omitempty,uuid"`
		Date        *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Description *string  `json:"description" validate:"omitempty,max=2000"`
		Hours       *float64 `json:"hours"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	patch := timesheet.ItemPatch{Description: body.Description, Hours: body.Hours}
	if body.ProjectID != nil {
		pid, err := parseUUIDField("project_id", *body.ProjectID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		projectID := domain.NewProjectID(pid)
		patch.ProjectID = &projectID
	}
	if patch.Date, err = optionalDate("date", body.Date); err != nil {
		writeErr(w, r, err)
		return
	}
	item, err := h.timesheets.UpdateItem(r.Context(), middleware.UserFromContext(r.Context()), id, itemID, patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemResponse(item))
}

func (h *TimesheetsHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, itemID, err := itemParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.timesheets.DeleteItem(r.Context(), middleware.UserFromContext(r.Context()), id, itemID); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func itemParams(r *http.Request) (domain.TimesheetID, domain.ItemID, error) {
	id, err := timesheetIDParam(r)
	if err != nil {
		return id, domain.ItemID{}, err
	}
	itemID, err := uuidParam(r, "item_id")
	return id, domain.NewItemID(itemID), err
}

func optionalDate(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	d, err := parseDateField(field, *s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
