package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"thisisme.app/internal/auth"
	"thisisme.app/internal/consent"
)

type testAPI struct {
	api      *API
	handler  http.Handler
	auth     *auth.Service
	consents *consent.Service
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	codec, err := auth.NewTokenCodec([]byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	consentSvc := consent.NewService(consent.NewMemoryStore())
	authSvc := auth.NewService(auth.NewMemoryUserStore(), auth.NewMemoryRegistry(), codec,
		auth.WithConsentRecorder(consentSvc))
	api := New(authSvc, consentSvc, ReadyProbe{}, "test")
	return &testAPI{
		api:      api,
		handler:  api.Handler(),
		auth:     authSvc,
		consents: consentSvc,
	}
}

// registerAccount creates an account through the service directly and
// returns a live session for authenticated requests.
func (ta *testAPI) registerAccount(t *testing.T, email string) *auth.Session {
	t.Helper()
	_, session, err := ta.auth.Register(context.Background(), auth.Profile{
		Email:       email,
		DisplayName: "Test Parent",
	}, "correct horse", true)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	return session
}

func (ta *testAPI) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/healthz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "ok" {
		t.Fatalf("status field = %v", body["status"])
	}
	if body["service"] != "thisisme-api" {
		t.Fatalf("service field = %v", body["service"])
	}
}

func TestReadyzWithoutDB(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/readyz", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestInfo(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/v1/info", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["version"] != "test" {
		t.Fatalf("version = %v", body["version"])
	}
	if _, err := time.Parse(time.RFC3339, body["time"].(string)); err != nil {
		t.Fatalf("time field: %v", err)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/nope", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/healthz", "", nil)
	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected X-Request-Id header")
	}
}
