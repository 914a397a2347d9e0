package app

import (
	"testing"

	"savvynote/pkg/domain"
)

func strPtr(s string) *string { return &s }

func TestGetMusicianProfileResolvesNames(t *testing.T) {
	a, _ := newTestApp(t)
	inst, err := a.CreateInstrument("Drums", "percussion")
	if err != nil {
		t.Fatalf("CreateInstrument: %v", err)
	}
	genre, err := a.CreateGenre("Rock")
	if err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}
	user, err := a.SignUp(SignUpParams{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "Str0ngPass!",
		Role:        domain.RoleMusician,
		StageName:   "Sticks",
		Instruments: []SignUpInstrument{{ID: inst.ID, YearsPlayed: 7}},
		GenreIDs:    []string{genre.ID},
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	profile, err := a.GetMusicianProfile("", user.ID)
	if err != nil {
		t.Fatalf("GetMusicianProfile: %v", err)
	}
	if profile.StageName != "Sticks" {
		t.Fatalf("unexpected stage name: %q", profile.StageName)
	}
	if len(profile.Instruments) != 1 || profile.Instruments[0].Instrument != "Drums" || profile.Instruments[0].YearsPlayed != 7 {
		t.Fatalf("unexpected instruments: %+v", profile.Instruments)
	}
	if len(profile.Genres) != 1 || profile.Genres[0] != "Rock" {
		t.Fatalf("unexpected genres: %+v", profile.Genres)
	}
}

func TestPatchMusicianProfileOwnerOnly(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")

	if _, err := a.PatchMusicianProfile(bob.ID, alice.ID, MusicianPatch{StageName: strPtr("X")}); !IsForbidden(err) {
		t.Fatalf("expected owner-only rejection, got %v", err)
	}
}

func TestPatchMusicianUniquenessExcludesSelf(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	mustSignUpMusician(t, a, "bob")

	// re-submitting your own username is not a conflict
	profile, err := a.PatchMusicianProfile(alice.ID, alice.ID, MusicianPatch{Username: strPtr("alice")})
	if err != nil {
		t.Fatalf("PatchMusicianProfile: %v", err)
	}
	if profile.Username != "alice" {
		t.Fatalf("unexpected username: %q", profile.Username)
	}

	_, err = a.PatchMusicianProfile(alice.ID, alice.ID, MusicianPatch{Username: strPtr("bob")})
	fields, ok := AsFieldErrors(err)
	if !ok || fields["username"] != "A user with that username already exists." {
		t.Fatalf("expected username conflict, got %v", err)
	}
}

func TestPatchMusicianPhoneValidation(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")

	_, err := a.PatchMusicianProfile(alice.ID, alice.ID, MusicianPatch{Phone: strPtr("not-a-phone-number")})
	fields, ok := AsFieldErrors(err)
	if !ok || fields["phone"] == "" {
		t.Fatalf("expected phone field error, got %v", err)
	}

	profile, err := a.PatchMusicianProfile(alice.ID, alice.ID, MusicianPatch{Phone: strPtr("(123) 456-7890")})
	if err != nil {
		t.Fatalf("PatchMusicianProfile: %v", err)
	}
	if profile.Phone != "(123) 456-7890" {
		t.Fatalf("unexpected phone: %q", profile.Phone)
	}
}

func TestPatchMusicianReplacesAssociations(t *testing.T) {
	a, _ := newTestApp(t)
	guitar, _ := a.CreateInstrument("Guitar", "string")
	bass, err := a.CreateInstrument("Bass", "string")
	if err != nil {
		t.Fatalf("CreateInstrument: %v", err)
	}
	user, err := a.SignUp(SignUpParams{
		Username:    "alice",
		Email:       "alice@example.com",
		Password:    "Str0ngPass!",
		Role:        domain.RoleMusician,
		Instruments: []SignUpInstrument{{ID: guitar.ID, YearsPlayed: 3}},
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	instruments := []SignUpInstrument{{ID: bass.ID, YearsPlayed: 1}}
	profile, err := a.PatchMusicianProfile(user.ID, user.ID, MusicianPatch{Instruments: &instruments})
	if err != nil {
		t.Fatalf("PatchMusicianProfile: %v", err)
	}
	if len(profile.Instruments) != 1 || profile.Instruments[0].Instrument != "Bass" {
		t.Fatalf("association set not replaced: %+v", profile.Instruments)
	}
}

func TestPatchBusinessProfile(t *testing.T) {
	a, _ := newTestApp(t)
	owner := mustSignUpBusiness(t, a, "venue")

	profile, err := a.PatchBusinessProfile(owner.ID, owner.ID, BusinessPatch{
		BusinessName: strPtr("The Blue Room"),
		Industry:     strPtr("nightlife"),
	})
	if err != nil {
		t.Fatalf("PatchBusinessProfile: %v", err)
	}
	if profile.BusinessName != "The Blue Room" || profile.Industry != "nightlife" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	_, err = a.PatchBusinessProfile(owner.ID, owner.ID, BusinessPatch{BusinessName: strPtr("  ")})
	if _, ok := AsFieldErrors(err); !ok {
		t.Fatalf("expected blank-name rejection, got %v", err)
	}
}

func TestProfileNotFoundPerEntity(t *testing.T) {
	a, _ := newTestApp(t)
	biz := mustSignUpBusiness(t, a, "venue")

	if _, err := a.GetMusicianProfile("", "missing"); !IsNotFound(err) {
		t.Fatalf("expected user 404, got %v", err)
	}
	// the user exists but has no musician profile
	if _, err := a.GetMusicianProfile("", biz.ID); !IsNotFound(err) {
		t.Fatalf("expected musician-profile 404, got %v", err)
	}
}
