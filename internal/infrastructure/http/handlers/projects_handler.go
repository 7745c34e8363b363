package handlers

import (
	"net/http"
	"strconv"

	"github.com/amirhosseinghanipour/timesheets/internal/application/directory"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// ProjectsHandler handles /projects and project membership.
type ProjectsHandler struct {
	projects *directory.Projects
	members  *directory.Members
}

func NewProjectsHandler(projects *directory.Projects, members *directory.Members) *ProjectsHandler {
	return &ProjectsHandler{projects: projects, members: members}
}

type ProjectResponse struct {
	ID          string  `json:"id"`
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ClientName  string  `json:"client_name"`
	IsActive    bool    `json:"is_active"`
	AccountID   *string `json:"account_id"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func projectResponse(p *domain.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		Code:        p.Code,
		Name:        p.Name,
		Description: p.Description,
		ClientName:  p.ClientName,
		IsActive:    p.IsActive,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	}
	if p.AccountID != nil {
		s := p.AccountID.String()
		resp.AccountID = &s
	}
	return resp
}

func projectPage(page *directory.ProjectPage) PageResponse[ProjectResponse] {
	results := make([]ProjectResponse, 0, len(page.Results))
	for _, p := range page.Results {
		results = append(results, projectResponse(p))
	}
	return PageResponse[ProjectResponse]{Results: results, Total: page.Total, Limit: page.Limit, Offset: page.Offset}
}

// MemberResponse is one entry of a project roster.
type MemberResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	RoleInProject string `json:"role_in_project"`
}

// projectQuery reads ordering, pagination and the optional filters.
func projectQuery(r *http.Request) (directory.ProjectQuery, error) {
	limit, offset, err := pageParams(r)
	if err != nil {
		return directory.ProjectQuery{}, err
	}
	q := directory.ProjectQuery{
		Ordering: r.URL.Query().Get("ordering"),
		Limit:    limit,
		Offset:   offset,
	}
	if s := r.URL.Query().Get("account_id"); s != "" {
		id, err := parseUUIDField("account_id", s)
		if err != nil {
			return q, err
		}
		accountID := domain.NewAccountID(id)
		q.AccountID = &accountID
	}
	if s := r.URL.Query().Get("is_active"); s != "" {
		active, err := strconv.ParseBool(s)
		if err != nil {
			return q, domerrors.Validation(domerrors.Details{"is_active": "must be a boolean"}, "invalid query parameter")
		}
		q.IsActive = &active
	}
	return q, nil
}

func decodeProjectInput(r *http.Request) (directory.ProjectInput, error) {
	var body struct {
		Code        string  `json:"code" validate:"required,max=64"`
		Name        string  `json:"name" validate:"required,max=255"`
		Description string  `json:"description" validate:"max=2000"`
		ClientName  string  `json:"client_name" validate:"max=255"`
		IsActive    *bool   `json:"is_active"`
		AccountID   *string `json:"account_id" validate:"omitempty,uuid"`
	}
	if err := decode(r, &body); err != nil {
		return directory.ProjectInput{}, err
	}
	in := directory.ProjectInput{
		Code:        body.Code,
		Name:        body.Name,
		Description: body.Description,
		ClientName:  body.ClientName,
		IsActive:    body.IsActive,
	}
	if body.AccountID != nil {
		id, err := parseUUIDField("account_id", *body.AccountID)
		if err != nil {
			return in, err
		}
		accountID := domain.NewAccountID(id)
		in.AccountID = &accountID
	}
	return in, nil
}

func decodeProjectPatch(r *http.Request) (directory.ProjectPatch, error) {
	var body struct {
		Code        *string `json:"code" validate:"omitempty,max=64"`
		Name        *string `json:"name" validate:"omitempty,max=255"`
		Description *string `json:"description" validate:"omitempty,max=2000"`
		ClientName  *string `json:"client_name" validate:"omitempty,max=255"`
		IsActive    *bool   `json:"is_active"`
		AccountID   *string `json:"account_id" validate:"omitempty,uuid"`
	}
	if err := decode(r, &body); err != nil {
		return directory.ProjectPatch{}, err
	}
	patch := directory.ProjectPatch{
		Code:        body.Code,
		Name:        body.Name,
		Description: body.Description,
		ClientName:  body.ClientName,
		IsActive:    body.IsActive,
	}
	if body.AccountID != nil {
		id, err := parseUUIDField("account_id", *body.AccountID)
		if err != nil {
			return patch, err
		}
		accountID := domain.NewAccountID(id)
		patch.AccountID = &accountID
	}
	return patch, nil
}

// List returns every project to admins and the caller's projects otherwise.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	q, err := projectQuery(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	page, err := h.projects.List(r.Context(), middleware.UserFromContext(r.Context()), q)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectPage(page))
}

func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProjectInput(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	project, err := h.projects.Create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectResponse(project))
}

func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	project, err := h.projects.Get(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(project))
}

func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	patch, err := decodeProjectPatch(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	project, err := h.projects.Update(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id), patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(project))
}

func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.projects.Delete(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id)); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectsHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	members, err := h.members.List(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	results := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		results = append(results, MemberResponse{
			ID:            m.UserID.String(),
			UserID:        m.Code,
			Name:          m.Name,
			Email:         m.Email,
			RoleInProject: m.RoleInProject,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results, "total": len(results)})
}

func (h *ProjectsHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		UserID        string `json:"user_id" validate:"required,uuid"`
		RoleInProject string `json:"role_in_project" validate:"max=64"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	userID, err := parseUUIDField("user_id", body.UserID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	m, err := h.members.Add(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id), domain.NewUserID(userID), body.RoleInProject)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"project_id":      m.ProjectID.String(),
		"user_id":         m.UserID.String(),
		"role_in_project": m.RoleInProject,
		"created_at":      formatTime(m.CreatedAt),
	})
}

func (h *ProjectsHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.members.Remove(r.Context(), middleware.UserFromContext(r.Context()), domain.NewProjectID(id), domain.NewUserID(userID)); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
