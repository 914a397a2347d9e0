package store

import (
	"testing"
	"time"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func TestJWTSessionRoundTrip(t *testing.T) {
	s, err := NewJWTSessionStore(testJWTSecret, time.Minute, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil || !ok {
		t.Fatalf("resolve session: ok=%v err=%v", ok, err)
	}
	if userID != "user-1" {
		t.Fatalf("unexpected user id: %q", userID)
	}
}

func TestJWTSessionRejectsShortSecret(t *testing.T) {
	if _, err := NewJWTSessionStore("short", time.Minute, nil); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestJWTSessionDeleteRevokes(t *testing.T) {
	s, err := NewJWTSessionStore(testJWTSecret, time.Minute, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, _, err := s.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected revoked token to fail")
	}
}

func TestJWTSessionUserCutoff(t *testing.T) {
	s, err := NewJWTSessionStore(testJWTSecret, 10*time.Minute, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	issuedAt := time.Now().UTC().Add(-2 * time.Minute)
	s.now = func() time.Time { return issuedAt }
	old, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}

	s.now = time.Now
	if err := s.RevokeUserSessions("user-1", time.Now().UTC().Add(-time.Minute)); err != nil {
		t.Fatalf("revoke user sessions: %v", err)
	}
	if _, _, err := s.GetUserIDByToken(old); err == nil {
		t.Fatalf("expected pre-cutoff token to fail")
	}

	fresh, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("fresh session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(fresh); err != nil || !ok {
		t.Fatalf("fresh session should survive cutoff: ok=%v err=%v", ok, err)
	}
}

func TestJWTSessionExpiry(t *testing.T) {
	s, err := NewJWTSessionStore(testJWTSecret, time.Minute, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, _, err := s.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}
