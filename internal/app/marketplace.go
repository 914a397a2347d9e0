package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"savvynote/internal/resume"
	"savvynote/internal/util"
	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

// ListingParams carries the fields of a new job listing.
type ListingParams struct {
	EventTitle       string
	Venue            string
	GigType          domain.GigType
	EventDescription string
	PaymentType      domain.PaymentType
	PaymentAmount    float64
	StartDate        string
	EndDate          string
	StartTime        string
	EndTime          string
	RecurringPattern string
	ExperienceLevel  string
	InstrumentIDs    []string
	GenreIDs         []string
}

// CreateListing posts a gig on behalf of a business account. The listing and
// its instrument/genre joins are written in one transaction.
func (a *App) CreateListing(userID string, params ListingParams) (domain.JobListing, error) {
	business, found, err := a.store.GetBusinessByUserID(userID)
	if err != nil {
		return domain.JobListing{}, fmt.Errorf("fetch business: %w", err)
	}
	if !found {
		return domain.JobListing{}, forbidden(ErrBusinessOnly.Error())
	}

	fieldErrs := FieldErrors{}
	if strings.TrimSpace(params.EventTitle) == "" {
		fieldErrs["event_title"] = "This field is required."
	}
	if strings.TrimSpace(params.Venue) == "" {
		fieldErrs["venue"] = "This field is required."
	}
	switch params.GigType {
	case domain.GigOneTime, domain.GigRecurring, domain.GigLongTerm:
	default:
		fieldErrs["gig_type"] = "Must be oneTime, recurring, or longTerm."
	}
	switch params.PaymentType {
	case domain.PaymentFixed, domain.PaymentHourly:
	default:
		fieldErrs["payment_type"] = "Must be Fixed amount or Hourly rate."
	}
	if params.PaymentAmount < 0 {
		fieldErrs["payment_amount"] = "Must be non-negative."
	}
	if len(fieldErrs) > 0 {
		return domain.JobListing{}, fieldErrs
	}

	for _, id := range params.InstrumentIDs {
		if _, found, err := a.store.GetInstrument(id); err != nil {
			return domain.JobListing{}, fmt.Errorf("check instrument: %w", err)
		} else if !found {
			return domain.JobListing{}, FieldErrors{"instruments": "Instrument not found."}
		}
	}
	for _, id := range params.GenreIDs {
		if _, found, err := a.store.GetGenre(id); err != nil {
			return domain.JobListing{}, fmt.Errorf("check genre: %w", err)
		} else if !found {
			return domain.JobListing{}, FieldErrors{"genres": "Genre not found."}
		}
	}

	listing := domain.JobListing{
		ID:               util.NewID(),
		BusinessID:       business.ID,
		EventTitle:       strings.TrimSpace(params.EventTitle),
		Venue:            strings.TrimSpace(params.Venue),
		GigType:          params.GigType,
		EventDescription: params.EventDescription,
		PaymentType:      params.PaymentType,
		PaymentAmount:    params.PaymentAmount,
		StartDate:        params.StartDate,
		EndDate:          params.EndDate,
		StartTime:        params.StartTime,
		EndTime:          params.EndTime,
		RecurringPattern: params.RecurringPattern,
		ExperienceLevel:  params.ExperienceLevel,
		InstrumentIDs:    params.InstrumentIDs,
		GenreIDs:         params.GenreIDs,
		CreatedAt:        a.now().UTC(),
	}
	if err := a.store.CreateListing(listing); err != nil {
		return domain.JobListing{}, fmt.Errorf("create listing: %w", err)
	}
	return listing, nil
}

// Listings returns the browsable gig feed, newest first.
func (a *App) Listings(page store.Page) ([]domain.JobListing, int, error) {
	return a.store.ListListings(page)
}

// Listing returns one listing by id.
func (a *App) Listing(id string) (domain.JobListing, error) {
	listing, found, err := a.store.GetListing(id)
	if err != nil {
		return domain.JobListing{}, fmt.Errorf("fetch listing: %w", err)
	}
	if !found {
		return domain.JobListing{}, notFound("Job listing not found.")
	}
	return listing, nil
}

// ApplicationParams carries the applicant-supplied contact fields.
type ApplicationParams struct {
	FirstName string
	LastName  string
	Phone     string
	AltEmail  string
}

// ApplicationView decorates an application with presigned resume URLs.
type ApplicationView struct {
	domain.JobApplication
	ResumeURLs []string `json:"resume_urls,omitempty"`
}

// SubmitApplication opens an In-Progress application against a listing. The
// resume is mandatory and must be a real PDF; anything else is rejected
// before touching storage.
func (a *App) SubmitApplication(ctx context.Context, applicantID, listingID string, params ApplicationParams, resumeFile *UploadFile) (domain.JobApplication, error) {
	if _, found, err := a.store.GetListing(listingID); err != nil {
		return domain.JobApplication{}, fmt.Errorf("fetch listing: %w", err)
	} else if !found {
		return domain.JobApplication{}, notFound("Job listing not found.")
	}
	params.Phone = strings.TrimSpace(params.Phone)
	if params.Phone != "" && !validPhone(params.Phone) {
		return domain.JobApplication{}, FieldErrors{"phone": invalidPhoneMessage}
	}
	if resumeFile == nil {
		return domain.JobApplication{}, ErrResumeRequired
	}
	if resumeFile.ContentType != "application/pdf" {
		return domain.JobApplication{}, ErrResumeNotPDF
	}
	data, err := io.ReadAll(resumeFile.Reader)
	if err != nil {
		return domain.JobApplication{}, fmt.Errorf("read resume: %w", err)
	}
	if !resume.IsPDF(data) {
		return domain.JobApplication{}, ErrResumeNotPDF
	}
	key, err := a.objects.Upload(ctx, applicantID, bytes.NewReader(data), int64(len(data)), "application/pdf")
	if err != nil {
		return domain.JobApplication{}, fmt.Errorf("upload resume: %w", err)
	}
	application := domain.JobApplication{
		ID:          util.NewID(),
		ApplicantID: applicantID,
		ListingID:   listingID,
		FirstName:   strings.TrimSpace(params.FirstName),
		LastName:    strings.TrimSpace(params.LastName),
		Phone:       params.Phone,
		AltEmail:    strings.TrimSpace(strings.ToLower(params.AltEmail)),
		FileKeys:    []string{key},
		Status:      domain.ApplicationInProgress,
		CreatedAt:   a.now().UTC(),
	}
	if err := a.store.CreateApplication(application); err != nil {
		return domain.JobApplication{}, fmt.Errorf("create application: %w", err)
	}
	return application, nil
}

// ExperienceParams is one prior-work entry supplied by the applicant.
type ExperienceParams struct {
	JobTitle    string
	CompanyName string
	StartDate   string
	EndDate     string
	Description string
}

// SubmitExperiences attaches the applicant's work history and moves the
// application from In-Progress to Submitted in one transaction.
func (a *App) SubmitExperiences(requesterID, applicationID string, entries []ExperienceParams) error {
	application, found, err := a.store.GetApplication(applicationID)
	if err != nil {
		return fmt.Errorf("fetch application: %w", err)
	}
	if !found {
		return notFound("Job application not found.")
	}
	if application.ApplicantID != requesterID {
		return forbidden("You can only submit your own application.")
	}
	if !application.Status.CanTransition(domain.ApplicationSubmitted) {
		return ErrInvalidStatusTransition
	}
	experiences := make([]domain.Experience, 0, len(entries))
	for _, entry := range entries {
		experiences = append(experiences, domain.Experience{
			ID:            util.NewID(),
			ApplicationID: applicationID,
			JobTitle:      entry.JobTitle,
			CompanyName:   entry.CompanyName,
			StartDate:     entry.StartDate,
			EndDate:       entry.EndDate,
			Description:   entry.Description,
		})
	}
	if err := a.store.SubmitExperiences(applicationID, experiences); err != nil {
		return fmt.Errorf("submit experiences: %w", err)
	}
	return nil
}

// PatchApplicationStatus moves an application along the
// In-Progress -> Submitted -> Accepted/Rejected state machine. Only the
// applicant or the listing's business owner may change the status.
func (a *App) PatchApplicationStatus(requesterID, applicationID string, next domain.ApplicationStatus) (domain.JobApplication, error) {
	switch next {
	case domain.ApplicationInProgress, domain.ApplicationSubmitted,
		domain.ApplicationAccepted, domain.ApplicationRejected:
	default:
		return domain.JobApplication{}, FieldErrors{"status": "Unknown application status."}
	}
	application, found, err := a.store.GetApplication(applicationID)
	if err != nil {
		return domain.JobApplication{}, fmt.Errorf("fetch application: %w", err)
	}
	if !found {
		return domain.JobApplication{}, notFound("Job application not found.")
	}
	if err := a.requireApplicationAccess(requesterID, application); err != nil {
		return domain.JobApplication{}, err
	}
	if !application.Status.CanTransition(next) {
		return domain.JobApplication{}, ErrInvalidStatusTransition
	}
	if err := a.store.UpdateApplicationStatus(applicationID, next); err != nil {
		return domain.JobApplication{}, fmt.Errorf("update status: %w", err)
	}
	application.Status = next
	return application, nil
}

// Application returns one application with presigned resume URLs.
func (a *App) Application(ctx context.Context, requesterID, applicationID string) (ApplicationView, error) {
	application, found, err := a.store.GetApplication(applicationID)
	if err != nil {
		return ApplicationView{}, fmt.Errorf("fetch application: %w", err)
	}
	if !found {
		return ApplicationView{}, notFound("Job application not found.")
	}
	if err := a.requireApplicationAccess(requesterID, application); err != nil {
		return ApplicationView{}, err
	}
	return a.presentApplication(ctx, application)
}

// ApplicationsByListing lists the applications against a listing for its
// business owner.
func (a *App) ApplicationsByListing(ctx context.Context, requesterID, listingID string, page store.Page) ([]ApplicationView, int, error) {
	listing, found, err := a.store.GetListing(listingID)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch listing: %w", err)
	}
	if !found {
		return nil, 0, notFound("Job listing not found.")
	}
	business, found, err := a.store.GetBusinessByUserID(requesterID)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch business: %w", err)
	}
	if !found || business.ID != listing.BusinessID {
		return nil, 0, forbidden("You can only view applications to your own listings.")
	}
	applications, total, err := a.store.ListApplicationsByListing(listingID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	views, err := a.presentApplications(ctx, applications)
	return views, total, err
}

// ApplicationsByUser lists the requester's own applications.
func (a *App) ApplicationsByUser(ctx context.Context, userID string, page store.Page) ([]ApplicationView, int, error) {
	applications, total, err := a.store.ListApplicationsByApplicant(userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	views, err := a.presentApplications(ctx, applications)
	return views, total, err
}

// SendAcceptanceEmail notifies the applicant that their application was
// accepted.
func (a *App) SendAcceptanceEmail(applicationID string) error {
	return a.sendDecisionEmail(applicationID,
		"Your SavvyNote application was accepted!",
		"Congratulations! Your application for %q has been accepted.\r\n"+
			"The business will reach out with next steps.\r\n")
}

// SendRejectionEmail notifies the applicant that their application was
// rejected.
func (a *App) SendRejectionEmail(applicationID string) error {
	return a.sendDecisionEmail(applicationID,
		"An update on your SavvyNote application",
		"Thank you for applying for %q. Unfortunately the business has\r\n"+
			"decided to move forward with other candidates.\r\n")
}

func (a *App) sendDecisionEmail(applicationID, subject, bodyFormat string) error {
	application, found, err := a.store.GetApplication(applicationID)
	if err != nil {
		return fmt.Errorf("fetch application: %w", err)
	}
	if !found {
		return notFound("Application not found.")
	}
	listing, found, err := a.store.GetListing(application.ListingID)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	if !found {
		return notFound("Job listing not found.")
	}
	to := application.AltEmail
	if to == "" {
		applicant, found, err := a.store.GetUserByID(application.ApplicantID)
		if err != nil {
			return fmt.Errorf("fetch applicant: %w", err)
		}
		if !found {
			return notFound("User not found")
		}
		to = applicant.Email
	}
	body := fmt.Sprintf("Hi %s,\r\n\r\n", application.FirstName) +
		fmt.Sprintf(bodyFormat, listing.EventTitle)
	if err := a.mailer.Send(to, subject, body); err != nil {
		return fmt.Errorf("send decision email: %w", err)
	}
	return nil
}

// ParseResume fetches an uploaded PDF by storage key and extracts candidate
// experience entries for application autofill.
func (a *App) ParseResume(ctx context.Context, key string) ([]domain.Experience, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrMissingFields
	}
	rc, err := a.objects.Get(ctx, key)
	if err != nil {
		return nil, notFound("Resume not found.")
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read resume: %w", err)
	}
	if !resume.IsPDF(data) {
		return nil, ErrResumeNotPDF
	}
	text, err := resume.ExtractText(data)
	if err != nil {
		return nil, fmt.Errorf("extract resume text: %w", err)
	}
	return resume.ParseExperiences(text), nil
}

func (a *App) requireApplicationAccess(requesterID string, application domain.JobApplication) error {
	if application.ApplicantID == requesterID {
		return nil
	}
	listing, found, err := a.store.GetListing(application.ListingID)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}
	if found {
		business, ownerFound, err := a.store.GetBusinessByUserID(requesterID)
		if err != nil {
			return fmt.Errorf("fetch business: %w", err)
		}
		if ownerFound && business.ID == listing.BusinessID {
			return nil
		}
	}
	return forbidden("You cannot access this application.")
}

func (a *App) presentApplications(ctx context.Context, applications []domain.JobApplication) ([]ApplicationView, error) {
	views := make([]ApplicationView, 0, len(applications))
	for _, application := range applications {
		view, err := a.presentApplication(ctx, application)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (a *App) presentApplication(ctx context.Context, application domain.JobApplication) (ApplicationView, error) {
	urls, err := a.presignAll(ctx, application.FileKeys)
	if err != nil {
		return ApplicationView{}, err
	}
	return ApplicationView{JobApplication: application, ResumeURLs: urls}, nil
}
