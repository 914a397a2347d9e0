package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

func TestSignupAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, http.MethodPost, "/api/auth/signup/", "", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Str0ngPass!",
		"role":     "musician",
	})
	if status != http.StatusCreated {
		t.Fatalf("signup expected 201, got %d: %s", status, raw)
	}

	// Duplicate username comes back as a field-scoped error map.
	status, raw = env.do(t, http.MethodPost, "/api/auth/signup/", "", map[string]any{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Str0ngPass!",
		"role":     "musician",
	})
	if status != http.StatusBadRequest {
		t.Fatalf("duplicate signup expected 400, got %d: %s", status, raw)
	}
	fields := decodeBody[map[string]string](t, raw)
	if fields["username"] == "" {
		t.Fatalf("expected username field error, got %v", fields)
	}

	status, raw = env.do(t, http.MethodPost, "/api/auth/login/", "", map[string]string{
		"username": "alice",
		"password": "Str0ngPass!",
	})
	if status != http.StatusOK {
		t.Fatalf("login expected 200, got %d: %s", status, raw)
	}
	tokens := decodeBody[tokenResponse](t, raw)
	if tokens.Access == "" || tokens.Refresh == "" {
		t.Fatalf("login returned empty tokens: %s", raw)
	}
	if tokens.User.Username != "alice" {
		t.Fatalf("login returned wrong user: %+v", tokens.User)
	}

	status, raw = env.do(t, http.MethodGet, "/api/auth/profile/", tokens.Access, nil)
	if status != http.StatusOK {
		t.Fatalf("profile expected 200, got %d: %s", status, raw)
	}
}

func TestLoginSetsAuthCookiesAndCookieAuthWorks(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")

	body, _ := json.Marshal(map[string]string{"username": "alice", "password": "Str0ngPass!"})
	resp, err := http.Post(env.srv.URL+"/api/auth/login/", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.StatusCode)
	}

	var access *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == accessCookie {
			access = c
		}
	}
	if access == nil || access.Value == "" {
		t.Fatalf("login did not set %s cookie", accessCookie)
	}
	if !access.HttpOnly {
		t.Fatalf("access cookie must be HttpOnly")
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/auth/profile/", nil)
	req.AddCookie(access)
	profileResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("profile via cookie: %v", err)
	}
	profileResp.Body.Close()
	if profileResp.StatusCode != http.StatusOK {
		t.Fatalf("cookie auth expected 200, got %d", profileResp.StatusCode)
	}
}

func TestAuthenticatedRouteRejectsMissingAndBadTokens(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/fetch-feed/", "", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("missing token expected 401, got %d", status)
	}
	status, _ = env.do(t, http.MethodGet, "/api/fetch-feed/", "not-a-token", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad token expected 401, got %d", status)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")

	status, raw := env.do(t, http.MethodPost, "/api/auth/login/", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	if status != http.StatusUnauthorized {
		t.Fatalf("wrong password expected 401, got %d: %s", status, raw)
	}
	body := decodeBody[map[string]string](t, raw)
	if body["error"] != "Invalid credentials" {
		t.Fatalf("unexpected error body: %s", raw)
	}
}

func TestGoogleLoginSignalsNeedsSignup(t *testing.T) {
	env := newTestEnv(t)

	status, raw := env.do(t, http.MethodPost, "/api/auth/google/", "", map[string]string{
		"email": "nobody@example.com",
	})
	if status != http.StatusAccepted {
		t.Fatalf("unknown google email expected 202, got %d: %s", status, raw)
	}
	body := decodeBody[map[string]string](t, raw)
	if body["status"] != "needs_signup" {
		t.Fatalf("unexpected body: %s", raw)
	}

	env.signUpMusician(t, "alice")
	status, raw = env.do(t, http.MethodPost, "/api/auth/google/", "", map[string]string{
		"email": "alice@example.com",
	})
	if status != http.StatusOK {
		t.Fatalf("known google email expected 200, got %d: %s", status, raw)
	}
}

func TestLogoutInvalidatesAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")
	token := env.loginToken(t, "alice")

	status, raw := env.do(t, http.MethodPost, "/api/auth/logout/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("logout expected 200, got %d: %s", status, raw)
	}
	status, _ = env.do(t, http.MethodGet, "/api/auth/profile/", token, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("revoked token expected 401, got %d", status)
	}
}

func TestForgotPasswordAlwaysSaysSent(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")

	for _, email := range []string{"alice@example.com", "stranger@example.com"} {
		status, raw := env.do(t, http.MethodPost, "/api/auth/forgot-password/", "", map[string]string{"email": email})
		if status != http.StatusOK {
			t.Fatalf("forgot-password(%s) expected 200, got %d: %s", email, status, raw)
		}
		body := decodeBody[map[string]string](t, raw)
		if body["message"] != "If the email is registered, a reset link has been sent." {
			t.Fatalf("unexpected message: %s", raw)
		}
	}
	if got := len(env.mailer.Sent()); got != 1 {
		t.Fatalf("expected exactly one reset email, got %d", got)
	}
}
