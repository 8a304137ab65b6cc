package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"thisisme.app/internal/auth"
	"thisisme.app/internal/consent"
	"thisisme.app/internal/obs"
)

// ReadyProbe reports whether the backing database is reachable. A nil DB
// (memory-backed run) is always ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// API is the HTTP layer over the auth and consent services.
type API struct {
	mux        *http.ServeMux
	auth       *auth.Service
	consents   *consent.Service
	readyProbe ReadyProbe
	version    string
}

func New(authSvc *auth.Service, consentSvc *consent.Service, rp ReadyProbe, version string) *API {
	a := &API{
		mux:        http.NewServeMux(),
		auth:       authSvc,
		consents:   consentSvc,
		readyProbe: rp,
		version:    version,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// credential flows
	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/logout_all", a.handleLogoutAll)
	a.mux.HandleFunc("/v1/auth/password/verify", a.handlePasswordVerify)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)

	// consent ledger
	a.mux.HandleFunc("/v1/consents", a.handleConsentsCollection)
	a.mux.HandleFunc("/v1/consents/", a.handleConsentResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Handler returns the fully wrapped http.Handler for the server. Ordering
// matters: RequestID must run before anything that logs or writes errors,
// and authentication runs innermost so every rejection is still logged.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	h = RateLimit(h, 20, 10)
	h = LoggingJSON(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "thisisme-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "thisisme-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}
