package handlers

import (
	"net/http"

	"github.com/amirhosseinghanipour/timesheets/internal/application/users"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// UsersHandler handles /users (admin only).
type UsersHandler struct {
	users *users.Service
}

func NewUsersHandler(svc *users.Service) *UsersHandler {
	return &UsersHandler{users: svc}
}

// UserResponse is the JSON shape of a user (no password hash).
type UserResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	Status    string  `json:"status"`
	AccountID *string `json:"account_id"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func userResponse(u *domain.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID.String(),
		UserID:    u.Code,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		Status:    string(u.Status),
		CreatedAt: formatTime(u.CreatedAt),
		UpdatedAt: formatTime(u.UpdatedAt),
	}
	if u.AccountID != nil {
		s := u.AccountID.String()
		resp.AccountID = &s
	}
	return resp
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := pageParams(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	list, total, err := h.users.List(r.Context(), middleware.UserFromContext(r.Context()), limit, offset)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	results := make([]UserResponse, 0, len(list))
	for _, u := range list {
		results = append(results, userResponse(u))
	}
	writeJSON(w, http.StatusOK, PageResponse[UserResponse]{Results: results, Total: total, Limit: clampLimit(limit), Offset: offset})
}

func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID    string  `json:"user_id" validate:"required,max=64"`
		Name      string  `json:"name" validate:"max=255"`
		Email     string  `json:"email" validate:"required,email,max=254"`
		Password  string  `json:"password" validate:"required,min=8,max=128"`
		Role      string  `json:"role" validate:"required,oneof=admin user"`
		Status    string  `json:"status" validate:"omitempty,oneof=active inactive"`
		AccountID *string `json:"account_id" validate:"omitempty,uuid"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	in := users.CreateInput{
		Code:     body.UserID,
		Name:     body.Name,
		Email:    SanitizeEmail(body.Email),
		Password: body.Password,
		Role:     domain.Role(body.Role),
		Status:   domain.UserStatus(body.Status),
	}
	if body.AccountID != nil {
		id, err := parseUUIDField("account_id", *body.AccountID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		accountID := domain.NewAccountID(id)
		in.AccountID = &accountID
	}
	user, err := h.users.Create(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse(user))
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	user, err := h.users.Get(r.Context(), middleware.UserFromContext(r.Context()), domain.NewUserID(id))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		UserID    *string `json:"user_id" validate:"omitempty,min=1,max=64"`
		Name      *string `json:"name" validate:"omitempty,max=255"`
		Email     *string `json:"email" validate:"omitempty,email,max=254"`
		Password  *string `json:"password" validate:"omitempty,min=8,max=128"`
		Role      *string `json:"role" validate:"omitempty,oneof=admin user"`
		Status    *string `json:"status" validate:"omitempty,oneof=active inactive"`
		AccountID *string `json:"account_id" validate:"omitempty,uuid"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	in := users.UpdateInput{
		Code:     body.UserID,
		Name:     body.Name,
		Password: body.Password,
	}
	if body.Email != nil {
		email := SanitizeEmail(*body.Email)
		in.Email = &email
	}
	if body.Role != nil {
		role := domain.Role(*body.Role)
		in.Role = &role
	}
	if body.Status != nil {
		status := domain.UserStatus(*body.Status)
		in.Status = &status
	}
	if body.AccountID != nil {
		aid, err := parseUUIDField("account_id", *body.AccountID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		accountID := domain.NewAccountID(aid)
		in.AccountID = &accountID
	}
	user, err := h.users.Update(r.Context(), middleware.UserFromContext(r.Context()), domain.NewUserID(id), in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse(user))
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.users.Delete(r.Context(), middleware.UserFromContext(r.Context()), domain.NewUserID(id)); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clampLimit mirrors the services' default and maximum page size.
func clampLimit(limit int) int {
	if limit <= 0 {
		return users.DefaultListLimit
	}
	if limit > users.MaxListLimit {
		return users.MaxListLimit
	}
	return limit
}
