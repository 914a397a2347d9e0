package app

import (
	"errors"
	"testing"
	"time"

	"savvynote/pkg/auth"
	"savvynote/pkg/domain"
)

func TestSignUpDuplicateUsernameFieldError(t *testing.T) {
	a, _ := newTestApp(t)
	mustSignUpMusician(t, a, "alice")

	_, err := a.SignUp(SignUpParams{
		Username: "alice",
		Email:    "other@example.com",
		Password: "Str0ngPass!",
		Role:     domain.RoleMusician,
	})
	fields, ok := AsFieldErrors(err)
	if !ok {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if fields["username"] != "A user with that username already exists." {
		t.Fatalf("unexpected username error: %q", fields["username"])
	}
}

func TestSignUpWeakPassword(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.SignUp(SignUpParams{
		Username: "bob",
		Email:    "bob@example.com",
		Password: "weak",
		Role:     domain.RoleMusician,
	})
	fields, ok := AsFieldErrors(err)
	if !ok || fields["password"] == "" {
		t.Fatalf("expected password field error, got %v", err)
	}
}

func TestSignUpPhoneValidation(t *testing.T) {
	a, _ := newTestApp(t)

	for i, phone := range []string{"+1 123-456-7890", "(123) 456-7890", "1234567890", "123.456.7890"} {
		_, err := a.SignUp(SignUpParams{
			Username: "user" + string(rune('a'+i)),
			Email:    "user" + string(rune('a'+i)) + "@example.com",
			Password: "Str0ngPass!",
			Role:     domain.RoleMusician,
			Phone:    phone,
		})
		if err != nil {
			t.Fatalf("phone %q should be accepted: %v", phone, err)
		}
	}

	for _, phone := range []string{"not-a-phone-number", "12345", "123-456-78901"} {
		_, err := a.SignUp(SignUpParams{
			Username: "reject",
			Email:    "reject@example.com",
			Password: "Str0ngPass!",
			Role:     domain.RoleMusician,
			Phone:    phone,
		})
		fields, ok := AsFieldErrors(err)
		if !ok || fields["phone"] == "" {
			t.Fatalf("phone %q should be rejected with a field error, got %v", phone, err)
		}
	}
}

func TestSignUpMusicianWithInstruments(t *testing.T) {
	a, deps := newTestApp(t)
	inst, err := a.CreateInstrument("Guitar", "string")
	if err != nil {
		t.Fatalf("CreateInstrument: %v", err)
	}
	genre, err := a.CreateGenre("Jazz")
	if err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}
	user, err := a.SignUp(SignUpParams{
		Username:    "carol",
		Email:       "carol@example.com",
		Password:    "Str0ngPass!",
		Role:        domain.RoleMusician,
		StageName:   "C-Note",
		Instruments: []SignUpInstrument{{ID: inst.ID, YearsPlayed: 4}},
		GenreIDs:    []string{genre.ID},
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	musician, found, err := deps.store.GetMusicianByUserID(user.ID)
	if err != nil || !found {
		t.Fatalf("musician profile missing: %v", err)
	}
	if len(musician.Instruments) != 1 || musician.Instruments[0].YearsPlayed != 4 {
		t.Fatalf("unexpected instruments: %+v", musician.Instruments)
	}
}

func TestSignUpUnknownInstrumentRejected(t *testing.T) {
	a, _ := newTestApp(t)
	_, err := a.SignUp(SignUpParams{
		Username:    "dave",
		Email:       "dave@example.com",
		Password:    "Str0ngPass!",
		Role:        domain.RoleMusician,
		Instruments: []SignUpInstrument{{ID: "missing", YearsPlayed: 1}},
	})
	fields, ok := AsFieldErrors(err)
	if !ok || fields["instruments"] != "Instrument not found." {
		t.Fatalf("expected instrument error, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	a, _ := newTestApp(t)
	mustSignUpMusician(t, a, "alice")

	if _, _, _, err := a.Login("alice", "WrongPass1!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, _, err := a.Login("nobody", "Str0ngPass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestLoginAndTokenRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)
	created := mustSignUpMusician(t, a, "alice")

	user, access, refresh, err := a.Login("alice", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != created.ID || access == "" || refresh == "" {
		t.Fatalf("unexpected login result: %+v", user)
	}
	resolved, ok := a.UserFromToken(access)
	if !ok || resolved.ID != created.ID {
		t.Fatalf("UserFromToken failed: %+v ok=%v", resolved, ok)
	}
}

func TestRefreshRotationAndReplay(t *testing.T) {
	a, _ := newTestApp(t)
	mustSignUpMusician(t, a, "alice")
	_, _, refresh, err := a.Login("alice", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	_, _, rotated, err := a.Refresh(refresh)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	// presenting the consumed token is a replay and revokes the family
	if _, _, _, err := a.Refresh(refresh); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected replay rejection, got %v", err)
	}
	if _, _, _, err := a.Refresh(rotated); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected family revocation, got %v", err)
	}
}

func TestLogoutInvalidatesTokens(t *testing.T) {
	a, _ := newTestApp(t)
	mustSignUpMusician(t, a, "alice")
	_, access, refresh, err := a.Login("alice", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := a.Logout(access, refresh); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := a.UserFromToken(access); ok {
		t.Fatal("access token still valid after logout")
	}
	if _, _, _, err := a.Refresh(refresh); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected revoked refresh token, got %v", err)
	}
}

func TestGoogleLoginBranches(t *testing.T) {
	a, _ := newTestApp(t)
	mustSignUpMusician(t, a, "alice")

	if _, _, _, err := a.GoogleLogin("new@example.com"); !errors.Is(err, ErrNeedsSignup) {
		t.Fatalf("expected ErrNeedsSignup, got %v", err)
	}
	user, access, _, err := a.GoogleLogin("alice@example.com")
	if err != nil {
		t.Fatalf("GoogleLogin: %v", err)
	}
	if user.Username != "alice" || access == "" {
		t.Fatalf("unexpected google login result: %+v", user)
	}
}

func TestForgotPasswordMissDelaysWithoutEmail(t *testing.T) {
	a, deps := newTestApp(t)
	mustSignUpMusician(t, a, "alice")

	if err := a.ForgotPassword("unknown@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if len(deps.slept) != 1 || deps.slept[0] != 3*time.Second {
		t.Fatalf("expected a 3s delay on miss, got %v", deps.slept)
	}
	if got := len(deps.mailer.Sent()); got != 0 {
		t.Fatalf("expected no email on miss, got %d", got)
	}
}

func TestForgotPasswordSendsResetLink(t *testing.T) {
	a, deps := newTestApp(t)
	mustSignUpMusician(t, a, "alice")

	if err := a.ForgotPassword("alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	sent := deps.mailer.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected one email, got %d", len(sent))
	}
	if sent[0].To != "alice@example.com" {
		t.Fatalf("unexpected recipient: %s", sent[0].To)
	}
	if len(deps.slept) != 0 {
		t.Fatalf("hit path should not sleep, got %v", deps.slept)
	}
}

func TestResetPasswordRoundTrip(t *testing.T) {
	a, _ := newTestApp(t)
	user := mustSignUpMusician(t, a, "alice")

	stored, _, err := a.store.GetUserByID(user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	token, err := a.resetTokens.Issue(user.ID, stored.PasswordHash)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := a.ResetPassword(user.ID, token, "N3wPassword!", "N3wPassword!"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, _, _, err := a.Login("alice", "Str0ngPass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password still accepted")
	}
	if _, _, _, err := a.Login("alice", "N3wPassword!"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
	// the token was bound to the old hash, so it is single-use
	if err := a.ResetPassword(user.ID, token, "An0therPass!", "An0therPass!"); !errors.Is(err, auth.ErrInvalidResetToken) {
		t.Fatalf("expected spent token rejection, got %v", err)
	}
}

func TestResetPasswordMismatch(t *testing.T) {
	a, _ := newTestApp(t)
	user := mustSignUpMusician(t, a, "alice")
	if err := a.ResetPassword(user.ID, "token", "N3wPassword!", "Different1!"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
	if err := a.ResetPassword(user.ID, "", "N3wPassword!", "N3wPassword!"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	a, _ := newTestApp(t)
	user := mustSignUpMusician(t, a, "alice")
	_, access, _, err := a.Login("alice", "Str0ngPass!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := a.ChangePassword(user.ID, "WrongPass1!", "N3wPassword!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected wrong current password rejection, got %v", err)
	}
	if err := a.ChangePassword(user.ID, "Str0ngPass!", "N3wPassword!"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, ok := a.UserFromToken(access); ok {
		t.Fatal("old session still valid after password change")
	}
	if _, _, _, err := a.Login("alice", "N3wPassword!"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
