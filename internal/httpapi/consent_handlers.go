package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"thisisme.app/internal/audit"
	"thisisme.app/internal/auth"
	"thisisme.app/internal/consent"
)

type grantConsentRequest struct {
	Type string `json:"type"`
}

type consentPayload struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	LawfulBasis string     `json:"lawful_basis"`
	GrantedAt   time.Time  `json:"granted_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at,omitempty"`
	Active      bool       `json:"active"`
}

func consentToPayload(rec *consent.Record) consentPayload {
	return consentPayload{
		ID:          rec.ID,
		Type:        string(rec.Type),
		LawfulBasis: string(rec.Basis),
		GrantedAt:   rec.GrantedAt,
		WithdrawnAt: rec.WithdrawnAt,
		Active:      rec.Active(),
	}
}

func (a *API) handleConsentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listConsents(w, r)
	case http.MethodPost:
		a.grantConsent(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleConsentResource(w http.ResponseWriter, r *http.Request) {
	rawType := strings.TrimPrefix(r.URL.Path, "/v1/consents/")
	rawType = strings.TrimSuffix(rawType, "/")
	if rawType == "" || strings.Contains(rawType, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	ctype := consent.Type(strings.ToUpper(rawType))

	switch r.Method {
	case http.MethodGet:
		a.consentStatus(w, r, ctype)
	case http.MethodDelete:
		a.withdrawConsent(w, r, ctype)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) listConsents(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	records, err := a.consents.History(r.Context(), subjectID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	items := make([]consentPayload, 0, len(records))
	for _, rec := range records {
		items = append(items, consentToPayload(rec))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) grantConsent(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req grantConsentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := a.consents.Grant(r.Context(), subjectID, consent.Type(strings.ToUpper(strings.TrimSpace(req.Type))))
	if err != nil {
		handleConsentError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "consent.granted", map[string]any{
		"consent_type": string(rec.Type),
		"lawful_basis": string(rec.Basis),
	})
	writeJSON(w, http.StatusCreated, consentToPayload(rec))
}

func (a *API) consentStatus(w http.ResponseWriter, r *http.Request, ctype consent.Type) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	active, err := a.consents.Status(r.Context(), subjectID, ctype)
	if err != nil {
		handleConsentError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":   string(ctype),
		"active": active,
	})
}

func (a *API) withdrawConsent(w http.ResponseWriter, r *http.Request, ctype consent.Type) {
	subjectID, ok := auth.SubjectIDFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.consents.Withdraw(r.Context(), subjectID, ctype); err != nil {
		handleConsentError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "consent.withdrawn", map[string]any{
		"consent_type": string(ctype),
	})
	w.WriteHeader(http.StatusNoContent)
}

func handleConsentError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, consent.ErrUnknownType):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, consent.ErrNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
