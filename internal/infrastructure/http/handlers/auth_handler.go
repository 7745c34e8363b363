package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/amirhosseinghanipour/timesheets/internal/application/auth"
	"github.com/amirhosseinghanipour/timesheets/internal/infrastructure/http/middleware"
)

type AuthHandler struct {
	login   *auth.Login
	refresh *auth.Refresh
	logout  *auth.Logout
	log     zerolog.Logger
}

func NewAuthHandler(login *auth.Login, refresh *auth.Refresh, logout *auth.Logout, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		login:   login,
		refresh: refresh,
		logout:  logout,
		log:     log,
	}
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func tokenResponse(p auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	result, err := h.login.Execute(r.Context(), auth.LoginInput{
		Email:    SanitizeEmail(body.Email),
		Password: body.Password,
	})
	if err != nil {
		AuditLog(h.log, r, "auth.login", "", SanitizeEmail(body.Email), false, err.Error())
		middleware.RecordAuthAttempt("login", false)
		writeErr(w, r, err)
		return
	}
	AuditLog(h.log, r, "auth.login", result.User.ID.String(), result.User.Email, true, "")
	middleware.RecordAuthAttempt("login", true)
	writeJSON(w, http.StatusOK, tokenResponse(result.TokenPair))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required,max=2048"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	result, err := h.refresh.Execute(r.Context(), auth.RefreshInput{RefreshToken: body.RefreshToken})
	if err != nil {
		AuditLog(h.log, r, "auth.refresh", "", "", false, err.Error())
		middleware.RecordAuthAttempt("refresh", false)
		writeErr(w, r, err)
		return
	}
	AuditLog(h.log, r, "auth.refresh", result.UserID.String(), "", true, "")
	middleware.RecordAuthAttempt("refresh", true)
	writeJSON(w, http.StatusOK, tokenResponse(result.TokenPair))
}

// Logout revokes the refresh token. Repeating it is harmless.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token" validate:"required,max=2048"`
	}
	if err := decode(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := h.logout.Execute(r.Context(), auth.LogoutInput{RefreshToken: body.RefreshToken}); err != nil {
		AuditLog(h.log, r, "auth.logout", "", "", false, err.Error())
		middleware.RecordAuthAttempt("logout", false)
		writeErr(w, r, err)
		return
	}
	AuditLog(h.log, r, "auth.logout", "", "", true, "")
	middleware.RecordAuthAttempt("logout", true)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the caller. Requires AuthValidator middleware.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userResponse(middleware.UserFromContext(r.Context())))
}
