package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Str0ng!pw")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "Str0ng!pw" {
		t.Fatalf("hash should not equal plaintext")
	}
	if !CheckPassword("Str0ng!pw", hash) {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword("wrong-password", hash) {
		t.Fatalf("expected mismatch to fail")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		ok       bool
	}{
		{"valid", "Str0ng!pw", true},
		{"too short", "S0r!t", false},
		{"no upper", "str0ng!pw", false},
		{"no lower", "STR0NG!PW", false},
		{"no digit", "Strong!pw", false},
		{"no special", "Str0ngpwd", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePassword(tc.password)
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrWeakPassword) {
				t.Fatalf("expected ErrWeakPassword, got %v", err)
			}
		})
	}
}

func TestResetTokenRoundTrip(t *testing.T) {
	issuer := NewResetTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "$2a$10$somestoredbcrypthashvalue")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := issuer.Verify(token, "user-1", "$2a$10$somestoredbcrypthashvalue"); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestResetTokenRejectsWrongUser(t *testing.T) {
	issuer := NewResetTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "hash-a")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := issuer.Verify(token, "user-2", "hash-a"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected invalid token for wrong user, got %v", err)
	}
}

func TestResetTokenInvalidAfterPasswordChange(t *testing.T) {
	issuer := NewResetTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue("user-1", "old-credential-hash")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if err := issuer.Verify(token, "user-1", "new-credential-hash"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected token bound to old hash to fail, got %v", err)
	}
}

func TestResetTokenExpiry(t *testing.T) {
	issuer := NewResetTokenIssuer("test-secret", time.Minute)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	token, err := issuer.Issue("user-1", "hash")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if err := issuer.Verify(token, "user-1", "hash"); !errors.Is(err, ErrInvalidResetToken) {
		t.Fatalf("expected expired token, got %v", err)
	}
}
