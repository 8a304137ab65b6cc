package httpapi

import (
	"errors"
	"net/http"
	"time"

	"thisisme.app/internal/audit"
	"thisisme.app/internal/auth"
	"thisisme.app/internal/obs"
)

type registerRequest struct {
	Email        string `json:"email"`
	DisplayName  string `json:"display_name"`
	Password     string `json:"password"`
	ConsentGiven bool   `json:"consent_given"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type passwordVerifyRequest struct {
	Password string `json:"password"`
}

type accountPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	AccountKind string `json:"account_kind"`
	PassportID  string `json:"passport_id,omitempty"`
}

type sessionResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
	User         accountPayload `json:"user"`
}

func sessionPayload(s *auth.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.ExpiresAt,
		User: accountPayload{
			ID:          s.SubjectID,
			Email:       s.Email,
			DisplayName: s.DisplayName,
			Role:        auth.ExternalLabel(s.Role),
			AccountKind: string(s.AccountKind),
			PassportID:  s.PassportID,
		},
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal, session, err := a.auth.Register(r.Context(), auth.Profile{
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}, req.Password, req.ConsentGiven)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.user.registered", map[string]any{
		"user_id": principal.ID,
		"email":   principal.Email,
	})
	writeJSON(w, http.StatusCreated, sessionPayload(session))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		obs.CountAuthAttempt("login", "failed")
		// The attempted identifier is logged; whether it exists is not.
		_ = audit.LogEvent(r.Context(), "auth.login.failed", map[string]any{
			"email": req.Email,
		})
		handleAuthError(w, r, err)
		return
	}

	obs.CountAuthAttempt("login", "ok")
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id": session.SubjectID,
	})
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		obs.CountAuthAttempt("refresh", "failed")
		handleAuthError(w, r, err)
		return
	}

	obs.CountAuthAttempt("refresh", "ok")
	_ = audit.LogEvent(r.Context(), "auth.refresh", map[string]any{
		"user_id": session.SubjectID,
	})
	writeJSON(w, http.StatusOK, sessionPayload(session))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.auth.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.auth.LogoutAll(r.Context(), subjectID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.logout_all", map[string]any{
		"user_id": subjectID,
	})
	w.WriteHeader(http.StatusNoContent)
}

// handlePasswordVerify re-checks the caller's password before destructive
// actions like account deletion.
func (a *API) handlePasswordVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req passwordVerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.CheckPassword(r.Context(), subjectID, req.Password); err != nil {
		handleAuthError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, accountPayload{
		ID:          principal.ID,
		Email:       principal.Email,
		DisplayName: principal.DisplayName,
		Role:        auth.ExternalLabel(principal.Role),
		AccountKind: string(principal.AccountKind),
		PassportID:  principal.PassportID,
	})
}

func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpired),
		errors.Is(err, auth.ErrRevoked):
		writeError(w, r, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
