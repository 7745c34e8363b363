package handlers

import (
	"net/http"
	"strings"

	"github.com/amirhosseinghanipour/timesheets/internal/application/users"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profiles *users.Profiles
}

func NewProfileHandler(profiles *users.Profiles) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type ProfileResponse struct {
	UserID    string `json:"user_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
	TimeZone  string `json:"time_zone"`
	AvatarURL string `json:"avatar_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func profileResponse(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:    p.UserID.String(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Phone:     p.Phone,
		Country:   p.Country,
		TimeZone:  p.TimeZone,
		AvatarURL: p.AvatarURL,
		CreatedAt: formatTime(p.CreatedAt),
		UpdatedAt: formatTime(p.UpdatedAt),
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), middleware.UserFromContext(r.Context()))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(profile))
}

// Update serves both PUT and PATCH; only supplied fields change.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FirstName *string `json:"first_name" validate:"omitempty,max=100"`
		LastName  *string `json:"last_name" validate:"omitempty,max=100"`
		Phone     *string `json:"phone" validate:"omitempty,e164"`
		Country   *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
		TimeZone  *string `json:"time_zone" validate:"omitempty,timezone"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=2048"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	upperPtr(body.Country)
	if err := check(&body); err != nil {
		writeErr(w, r, err)
		return
	}
	profile, err := h.profiles.Update(r.Context(), middleware.UserFromContext(r.Context()), users.ProfilePatch{
		FirstName: body.FirstName,
		LastName:  body.LastName,
		Phone:     body.Phone,
		Country:   body.Country,
		TimeZone:  body.TimeZone,
		AvatarURL: body.AvatarURL,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse(profile))
}

func upperPtr(s *string) {
	if s != nil {
		*s = strings.ToUpper(strings.TrimSpace(*s))
	}
}
