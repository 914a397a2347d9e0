package server

import (
	"net/http"
	"testing"
)

func TestFollowToggleStatuses(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")
	bob := env.signUpMusician(t, "bob")
	token := env.loginToken(t, "alice")

	status, raw := env.do(t, http.MethodPost, "/api/follow/"+bob.ID+"/", token, nil)
	if status != http.StatusCreated {
		t.Fatalf("first follow expected 201, got %d: %s", status, raw)
	}
	body := decodeBody[map[string]string](t, raw)
	if body["message"] != "Followed" {
		t.Fatalf("unexpected message: %s", raw)
	}

	status, raw = env.do(t, http.MethodPost, "/api/follow/"+bob.ID+"/", token, nil)
	if status != http.StatusOK {
		t.Fatalf("repeat follow expected 200, got %d: %s", status, raw)
	}
	body = decodeBody[map[string]string](t, raw)
	if body["message"] != "Already following" {
		t.Fatalf("unexpected message: %s", raw)
	}

	status, _ = env.do(t, http.MethodDelete, "/api/follow/"+bob.ID+"/", token, nil)
	if status != http.StatusNoContent {
		t.Fatalf("unfollow expected 204, got %d", status)
	}
	status, raw = env.do(t, http.MethodDelete, "/api/follow/"+bob.ID+"/", token, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("unfollow when not following expected 400, got %d: %s", status, raw)
	}
}

func TestFollowUnknownUserIs404(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")
	token := env.loginToken(t, "alice")

	status, raw := env.do(t, http.MethodPost, "/api/follow/ghost/", token, nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", status, raw)
	}
}

func TestBlockedProfileIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUpMusician(t, "alice")
	bob := env.signUpMusician(t, "bob")
	aliceToken := env.loginToken(t, "alice")
	bobToken := env.loginToken(t, "bob")

	status, raw := env.do(t, http.MethodPost, "/api/block/"+bob.ID+"/", aliceToken, nil)
	if status != http.StatusCreated {
		t.Fatalf("block expected 201, got %d: %s", status, raw)
	}

	// The blocked user can no longer view the blocker's profile.
	status, raw = env.do(t, http.MethodGet, "/api/musician/"+alice.ID+"/", bobToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("blocked viewer expected 403, got %d: %s", status, raw)
	}
	// Anonymous readers are unaffected.
	status, raw = env.do(t, http.MethodGet, "/api/musician/"+alice.ID+"/", "", nil)
	if status != http.StatusOK {
		t.Fatalf("anonymous viewer expected 200, got %d: %s", status, raw)
	}
}

func TestBlockListIsPrivate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUpMusician(t, "alice")
	env.signUpMusician(t, "bob")
	bobToken := env.loginToken(t, "bob")

	status, raw := env.do(t, http.MethodGet, "/api/block-list/"+alice.ID+"/", bobToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("foreign block list expected 403, got %d: %s", status, raw)
	}
}

func TestFollowerCountsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.signUpMusician(t, "alice")
	env.signUpMusician(t, "bob")
	bobToken := env.loginToken(t, "bob")

	if _, raw := env.do(t, http.MethodPost, "/api/follow/"+alice.ID+"/", bobToken, nil); len(raw) == 0 {
		t.Fatal("follow failed")
	}

	status, raw := env.do(t, http.MethodGet, "/follower/"+alice.ID+"/", "", nil)
	if status != http.StatusOK {
		t.Fatalf("follower counts expected 200, got %d: %s", status, raw)
	}
	counts := decodeBody[map[string]int](t, raw)
	if counts["followers"] != 1 || counts["following"] != 0 {
		t.Fatalf("unexpected counts: %s", raw)
	}
}
