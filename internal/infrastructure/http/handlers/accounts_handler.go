package handlers

import (
	"net/http"

	"github.com/amirhosseinghanipour/timesheets/internal/application/directory"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// AccountsHandler handles /accounts and the account-scoped project routes.
// Every route is admin only.
type AccountsHandler struct {
	accounts *directory.Accounts
	projects *directory.Projects
}

func NewAccountsHandler(accounts *directory.Accounts, projects *directory.Projects) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, projects: projects}
}

type AccountResponse struct {
	ID        string `json:"id"`
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func accountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID.String(),
		AccountID: a.Code,
		Name:      a.Name,
		Type:      a.Type,
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
	}
}

func (h *AccountsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	list, total, err := h.accounts.List(r.Context(), middleware.UserFromContext(r.Context()), limit, offset)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	results := make([]AccountResponse, 0, len(list))
	for _, a := range list {
		results = append(results, accountResponse(a))
	}
	writeJSON(w, http.StatusOK, PageResponse[AccountResponse]{Results: results, Total: total, Limit: clampLimit(limit), Offset: offset})
}

func (h *AccountsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccountID string `json:"account_id" validate:"required,max=64"`
		Name      string `json:"name" validate:"required,max=255"`
		Type      string `json:"type" validate:"max=64"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	account, err := h.accounts.Create(r.Context(), middleware.UserFromContext(r.Context()), directory.AccountInput{
		Code: body.AccountID,
		Name: body.Name,
		Type: body.Type,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, accountResponse(account))
}

func (h *AccountsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	account, err := h.accounts.Get(r.Context(), middleware.UserFromContext(r.Context()), domain.NewAccountID(id))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (h *AccountsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		AccountID *string `json:"account_id" validate:"omitempty,max=64"`
		Name      *string `json:"name" validate:"omitempty,max=255"`
		Type      *string `json:"type" validate:"omitempty,max=64"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	account, err := h.accounts.Update(r.Context(), middleware.UserFromContext(r.Context()), domain.NewAccountID(id), directory.AccountPatch{
		Code: body.AccountID,
		Name: body.Name,
		Type: body.Type,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accountResponse(account))
}

func (h *AccountsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.accounts.Delete(r.Context(), middleware.UserFromContext(r.Context()), domain.NewAccountID(id)); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AccountsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	q, err := projectQuery(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	page, err := h.projects.ListForAccount(r.Context(), middleware.UserFromContext(r.Context()), domain.NewAccountID(accountID), q)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectPage(page))
}

func (h *AccountsHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	in, err := decodeProjectInput(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	project, err := h.projects.CreateForAccount(r.Context(), middleware.UserFromContext(r.Context()), domain.NewAccountID(accountID), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, projectResponse(project))
}

func (h *AccountsHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	accountID, projectID, err := accountProjectParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	project, err := h.projects.GetForAccount(r.Context(), middleware.UserFromContext(r.Context()), accountID, projectID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(project))
}

func (h *AccountsHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	accountID, projectID, err := accountProjectParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	patch, err := decodeProjectPatch(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	project, err := h.projects.UpdateForAccount(r.Context(), middleware.UserFromContext(r.Context()), accountID, projectID, patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectResponse(project))
}

func (h *AccountsHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	accountID, projectID, err := accountProjectParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.projects.DeleteForAccount(r.Context(), middleware.UserFromContext(r.Context()), accountID, projectID); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func accountProjectParams(r *http.Request) (domain.AccountID, domain.ProjectID, error) {
	accountID, err := uuidParam(r, "id")
	if err != nil {
		return domain.AccountID{}, domain.ProjectID{}, err
	}
	projectID, err := uuidParam(r, "project_id")
	if err != nil {
		return domain.AccountID{}, domain.ProjectID{}, err
	}
	return domain.NewAccountID(accountID), domain.NewProjectID(projectID), nil
}
