package httpapi

import (
	"net/http"
	"testing"
)

func TestRegisterEndpoint(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email":         "parent@example.test",
		"display_name":  "Alex Parent",
		"password":      "correct horse",
		"consent_given": true,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatal("expected token pair")
	}
	user, ok := body["user"].(map[string]any)
	if !ok {
		t.Fatalf("missing user payload: %v", body)
	}
	if user["role"] != "OWNER" {
		t.Fatalf("role = %v", user["role"])
	}
	if user["email"] != "parent@example.test" {
		t.Fatalf("email = %v", user["email"])
	}
}

func TestRegisterWithoutConsent(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email":         "parent@example.test",
		"display_name":  "Alex Parent",
		"password":      "correct horse",
		"consent_given": false,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	ta := newTestAPI(t)
	ta.registerAccount(t, "parent@example.test")
	rr := ta.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email":         "parent@example.test",
		"display_name":  "Other",
		"password":      "pw",
		"consent_given": true,
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	ta := newTestAPI(t)
	ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    "parent@example.test",
		"password": "correct horse",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = ta.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    "parent@example.test",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rr.Code)
	}

	// Unknown account looks identical to a wrong password.
	rr = ta.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    "nobody@example.test",
		"password": "correct horse",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d", rr.Code)
	}
}

func TestRefreshEndpointRotates(t *testing.T) {
	ta := newTestAPI(t)
	session := ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": session.RefreshToken,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["refresh_token"] == session.RefreshToken {
		t.Fatal("refresh must rotate the token")
	}

	// Replaying the consumed token is rejected.
	rr = ta.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": session.RefreshToken,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d", rr.Code)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	ta := newTestAPI(t)
	session := ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodPost, "/v1/auth/logout", "", map[string]any{
		"refresh_token": session.RefreshToken,
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = ta.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": session.RefreshToken,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d", rr.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	ta := newTestAPI(t)
	session := ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodGet, "/v1/auth/me", session.AccessToken, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	body := decodeBody(t, rr)
	if body["email"] != "parent@example.test" {
		t.Fatalf("email = %v", body["email"])
	}

	rr = ta.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", rr.Code)
	}
}

func TestPasswordVerifyEndpoint(t *testing.T) {
	ta := newTestAPI(t)
	session := ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodPost, "/v1/auth/password/verify", session.AccessToken, map[string]any{
		"password": "correct horse",
	})
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}

	rr = ta.do(t, http.MethodPost, "/v1/auth/password/verify", session.AccessToken, map[string]any{
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rr.Code)
	}
}

func TestLogoutAllEndpoint(t *testing.T) {
	ta := newTestAPI(t)
	session := ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodPost, "/v1/auth/logout_all", session.AccessToken, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = ta.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": session.RefreshToken,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout_all status = %d", rr.Code)
	}
}

func TestAccessTokenRejectedAsRefresh(t *testing.T) {
	ta := newTestAPI(t)
	session := ta.registerAccount(t, "parent@example.test")

	rr := ta.do(t, http.MethodPost, "/v1/auth/refresh", "", map[string]any{
		"refresh_token": session.AccessToken,
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ta := newTestAPI(t)
	rr := ta.do(t, http.MethodGet, "/v1/auth/login", "", nil)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("Allow") == "" {
		t.Fatal("expected Allow header")
	}
}
