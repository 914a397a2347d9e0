package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"savvynote/internal/ratelimit"
)

func TestCredentialEndpointsAreRateLimited(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter, err := ratelimit.NewFixedWindowLimiter(client, "test:ratelimit", 3, time.Minute)
	if err != nil {
		t.Fatalf("NewFixedWindowLimiter: %v", err)
	}
	env := newTestEnv(t, func(o *envOptions) { o.limiter = limiter })
	env.signUpMusician(t, "alice")

	creds := map[string]string{"username": "alice", "password": "wrong"}
	for i := 0; i < 3; i++ {
		status, _ := env.do(t, http.MethodPost, "/api/auth/login/", "", creds)
		if status != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401, got %d", i+1, status)
		}
	}
	status, raw := env.do(t, http.MethodPost, "/api/auth/login/", "", creds)
	if status != http.StatusTooManyRequests {
		t.Fatalf("fourth attempt expected 429, got %d: %s", status, raw)
	}
	body := decodeBody[map[string]string](t, raw)
	if body["error"] != "Too many requests, try again later." {
		t.Fatalf("unexpected body: %s", raw)
	}

	// Unlimited endpoints are unaffected.
	status, _ = env.do(t, http.MethodGet, "/api/jobs/", "", nil)
	if status != http.StatusOK {
		t.Fatalf("jobs list expected 200, got %d", status)
	}
}
