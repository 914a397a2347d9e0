package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

func validListingParams() ListingParams {
	return ListingParams{
		EventTitle:    "Friday Jazz Night",
		Venue:         "Blue Room",
		GigType:       domain.GigOneTime,
		PaymentType:   domain.PaymentFixed,
		PaymentAmount: 250,
	}
}

func pdfUpload(t *testing.T) *UploadFile {
	t.Helper()
	body := "%PDF-1.4\nfake resume body"
	return &UploadFile{
		Reader:      strings.NewReader(body),
		Size:        int64(len(body)),
		ContentType: "application/pdf",
	}
}

func mustCreateListing(t *testing.T, a *App, ownerID string) domain.JobListing {
	t.Helper()
	listing, err := a.CreateListing(ownerID, validListingParams())
	if err != nil {
		t.Fatalf("CreateListing: %v", err)
	}
	return listing
}

func mustApply(t *testing.T, a *App, applicantID, listingID string) domain.JobApplication {
	t.Helper()
	application, err := a.SubmitApplication(context.Background(), applicantID, listingID,
		ApplicationParams{FirstName: "Alice", LastName: "A"}, pdfUpload(t))
	if err != nil {
		t.Fatalf("SubmitApplication: %v", err)
	}
	return application
}

func TestCreateListingBusinessOnly(t *testing.T) {
	a, _ := newTestApp(t)
	musician := mustSignUpMusician(t, a, "alice")
	owner := mustSignUpBusiness(t, a, "venue")

	if _, err := a.CreateListing(musician.ID, validListingParams()); !IsForbidden(err) {
		t.Fatalf("expected business-only rejection, got %v", err)
	}
	listing := mustCreateListing(t, a, owner.ID)
	got, err := a.Listing(listing.ID)
	if err != nil || got.EventTitle != "Friday Jazz Night" {
		t.Fatalf("Listing: %+v err=%v", got, err)
	}
	listings, total, err := a.Listings(store.Page{})
	if err != nil || total != 1 || len(listings) != 1 {
		t.Fatalf("Listings: total=%d err=%v", total, err)
	}
}

func TestCreateListingValidation(t *testing.T) {
	a, _ := newTestApp(t)
	owner := mustSignUpBusiness(t, a, "venue")

	params := validListingParams()
	params.EventTitle = ""
	params.GigType = "sometimes"
	_, err := a.CreateListing(owner.ID, params)
	fields, ok := AsFieldErrors(err)
	if !ok || fields["event_title"] == "" || fields["gig_type"] == "" {
		t.Fatalf("expected field errors, got %v", err)
	}
}

func TestSubmitApplicationPhoneValidation(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	owner := mustSignUpBusiness(t, a, "venue")
	listing := mustCreateListing(t, a, owner.ID)

	_, err := a.SubmitApplication(context.Background(), alice.ID, listing.ID,
		ApplicationParams{FirstName: "Alice", LastName: "A", Phone: "not-a-phone-number"}, pdfUpload(t))
	fields, ok := AsFieldErrors(err)
	if !ok || fields["phone"] == "" {
		t.Fatalf("expected phone field error, got %v", err)
	}

	application, err := a.SubmitApplication(context.Background(), alice.ID, listing.ID,
		ApplicationParams{FirstName: "Alice", LastName: "A", Phone: "+1 123-456-7890"}, pdfUpload(t))
	if err != nil {
		t.Fatalf("SubmitApplication: %v", err)
	}
	if application.Phone != "+1 123-456-7890" {
		t.Fatalf("unexpected phone: %q", application.Phone)
	}
}

func TestSubmitApplicationRequiresPDF(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	owner := mustSignUpBusiness(t, a, "venue")
	listing := mustCreateListing(t, a, owner.ID)

	if _, err := a.SubmitApplication(context.Background(), alice.ID, listing.ID, ApplicationParams{}, nil); !errors.Is(err, ErrResumeRequired) {
		t.Fatalf("expected ErrResumeRequired, got %v", err)
	}

	notPDF := &UploadFile{Reader: strings.NewReader("plain text"), Size: 10, ContentType: "text/plain"}
	if _, err := a.SubmitApplication(context.Background(), alice.ID, listing.ID, ApplicationParams{}, notPDF); !errors.Is(err, ErrResumeNotPDF) {
		t.Fatalf("expected content-type rejection, got %v", err)
	}

	// declared PDF but wrong magic bytes
	fakePDF := &UploadFile{Reader: strings.NewReader("not a pdf"), Size: 9, ContentType: "application/pdf"}
	if _, err := a.SubmitApplication(context.Background(), alice.ID, listing.ID, ApplicationParams{}, fakePDF); !errors.Is(err, ErrResumeNotPDF) {
		t.Fatalf("expected magic-byte rejection, got %v", err)
	}

	application := mustApply(t, a, alice.ID, listing.ID)
	if application.Status != domain.ApplicationInProgress {
		t.Fatalf("expected In-Progress status, got %s", application.Status)
	}
	if len(application.FileKeys) != 1 || !strings.HasPrefix(application.FileKeys[0], "document/") {
		t.Fatalf("resume not stored under document bucket: %v", application.FileKeys)
	}
}

func TestSubmitExperiencesTransitions(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")
	owner := mustSignUpBusiness(t, a, "venue")
	listing := mustCreateListing(t, a, owner.ID)
	application := mustApply(t, a, alice.ID, listing.ID)

	entries := []ExperienceParams{{
		JobTitle:    "Lead Guitarist",
		CompanyName: "The Strays",
		StartDate:   "2021-01",
		EndDate:     "2023-06",
	}}
	if err := a.SubmitExperiences(bob.ID, application.ID, entries); !IsForbidden(err) {
		t.Fatalf("expected ownership rejection, got %v", err)
	}
	if err := a.SubmitExperiences(alice.ID, application.ID, entries); err != nil {
		t.Fatalf("SubmitExperiences: %v", err)
	}
	got, err := a.Application(context.Background(), alice.ID, application.ID)
	if err != nil {
		t.Fatalf("Application: %v", err)
	}
	if got.Status != domain.ApplicationSubmitted || len(got.Experiences) != 1 {
		t.Fatalf("unexpected application state: %+v", got.JobApplication)
	}
	// a second submission would be In-Progress -> Submitted from Submitted
	if err := a.SubmitExperiences(alice.ID, application.ID, entries); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected transition rejection, got %v", err)
	}
}

func TestPatchApplicationStatusFSM(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	owner := mustSignUpBusiness(t, a, "venue")
	listing := mustCreateListing(t, a, owner.ID)
	application := mustApply(t, a, alice.ID, listing.ID)

	// skipping Submitted is not allowed
	if _, err := a.PatchApplicationStatus(owner.ID, application.ID, domain.ApplicationAccepted); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected FSM rejection, got %v", err)
	}
	if _, err := a.PatchApplicationStatus(owner.ID, application.ID, "Shortlisted"); err == nil {
		t.Fatal("expected unknown-status rejection")
	}
	if _, err := a.PatchApplicationStatus(owner.ID, application.ID, domain.ApplicationSubmitted); err != nil {
		t.Fatalf("In-Progress -> Submitted: %v", err)
	}
	updated, err := a.PatchApplicationStatus(owner.ID, application.ID, domain.ApplicationAccepted)
	if err != nil {
		t.Fatalf("Submitted -> Accepted: %v", err)
	}
	if updated.Status != domain.ApplicationAccepted {
		t.Fatalf("unexpected status: %s", updated.Status)
	}
	// terminal states reject further changes
	if _, err := a.PatchApplicationStatus(owner.ID, application.ID, domain.ApplicationRejected); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected terminal-state rejection, got %v", err)
	}
}

func TestApplicationAccess(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	stranger := mustSignUpMusician(t, a, "stranger")
	owner := mustSignUpBusiness(t, a, "venue")
	otherBiz := mustSignUpBusiness(t, a, "rival")
	listing := mustCreateListing(t, a, owner.ID)
	application := mustApply(t, a, alice.ID, listing.ID)

	if _, err := a.Application(context.Background(), stranger.ID, application.ID); !IsForbidden(err) {
		t.Fatalf("expected stranger rejection, got %v", err)
	}
	if _, err := a.Application(context.Background(), owner.ID, application.ID); err != nil {
		t.Fatalf("listing owner access: %v", err)
	}
	if _, _, err := a.ApplicationsByListing(context.Background(), otherBiz.ID, listing.ID, store.Page{}); !IsForbidden(err) {
		t.Fatalf("expected rival-business rejection, got %v", err)
	}
	views, total, err := a.ApplicationsByListing(context.Background(), owner.ID, listing.ID, store.Page{})
	if err != nil || total != 1 || len(views[0].ResumeURLs) != 1 {
		t.Fatalf("ApplicationsByListing: total=%d err=%v", total, err)
	}
	mine, total, err := a.ApplicationsByUser(context.Background(), alice.ID, store.Page{})
	if err != nil || total != 1 || mine[0].ID != application.ID {
		t.Fatalf("ApplicationsByUser: total=%d err=%v", total, err)
	}
}

func TestDecisionEmails(t *testing.T) {
	a, deps := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	owner := mustSignUpBusiness(t, a, "venue")
	listing := mustCreateListing(t, a, owner.ID)
	application := mustApply(t, a, alice.ID, listing.ID)

	if err := a.SendAcceptanceEmail(application.ID); err != nil {
		t.Fatalf("SendAcceptanceEmail: %v", err)
	}
	if err := a.SendRejectionEmail(application.ID); err != nil {
		t.Fatalf("SendRejectionEmail: %v", err)
	}
	sent := deps.mailer.Sent()
	if len(sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sent))
	}
	if sent[0].To != "alice@example.com" {
		t.Fatalf("unexpected recipient: %s", sent[0].To)
	}
	if !strings.Contains(sent[0].Body, listing.EventTitle) {
		t.Fatalf("email body missing listing title: %q", sent[0].Body)
	}
	if err := a.SendAcceptanceEmail("missing"); !IsNotFound(err) {
		t.Fatalf("expected application 404, got %v", err)
	}
}

func TestParseResumeValidation(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")

	if _, err := a.ParseResume(context.Background(), ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	key, err := a.objects.Upload(context.Background(), alice.ID, strings.NewReader("plain"), 5, "text/plain")
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := a.ParseResume(context.Background(), key); !errors.Is(err, ErrResumeNotPDF) {
		t.Fatalf("expected ErrResumeNotPDF, got %v", err)
	}
}
