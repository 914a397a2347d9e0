package server

import (
	"net/http"

	"savvynote/internal/app"
	"savvynote/pkg/domain"
)

type createListingRequest struct {
	EventTitle       string   `json:"event_title"`
	Venue            string   `json:"venue"`
	GigType          string   `json:"gig_type"`
	EventDescription string   `json:"event_description"`
	PaymentType      string   `json:"payment_type"`
	PaymentAmount    float64  `json:"payment_amount"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	StartTime        string   `json:"start_time"`
	EndTime          string   `json:"end_time"`
	RecurringPattern string   `json:"recurring_pattern"`
	ExperienceLevel  string   `json:"experience_level"`
	Instruments      []string `json:"instruments"`
	Genres           []string `json:"genres"`
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req createListingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	listing, err := s.app.CreateListing(user.ID, app.ListingParams{
		EventTitle:       req.EventTitle,
		Venue:            req.Venue,
		GigType:          domain.GigType(req.GigType),
		EventDescription: req.EventDescription,
		PaymentType:      domain.PaymentType(req.PaymentType),
		PaymentAmount:    req.PaymentAmount,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		RecurringPattern: req.RecurringPattern,
		ExperienceLevel:  req.ExperienceLevel,
		InstrumentIDs:    req.Instruments,
		GenreIDs:         req.Genres,
	})
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":    "Job listing created successfully.",
		"listing_id": listing.ID,
	})
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	listings, total, err := s.app.Listings(pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, listings)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listing, err := s.app.Listing(r.PathValue("listing_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request, user domain.User) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	var resumeFile *app.UploadFile
	if headers := r.MultipartForm.File["resume"]; len(headers) > 0 {
		files, closeAll, err := openUploads(headers[:1])
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		defer closeAll()
		resumeFile = &files[0]
	}
	params := app.ApplicationParams{
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Phone:     r.FormValue("phone"),
		AltEmail:  r.FormValue("alt_email"),
	}
	application, err := s.app.SubmitApplication(r.Context(), user.ID, r.FormValue("listing_id"), params, resumeFile)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message":        "Application started.",
		"application_id": application.ID,
	})
}

type experienceRequest struct {
	JobTitle    string `json:"job_title"`
	CompanyName string `json:"company_name"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

type submitExperiencesRequest struct {
	Experiences []experienceRequest `json:"experiences"`
}

func (s *Server) handleSubmitExperiences(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req submitExperiencesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entries := make([]app.ExperienceParams, 0, len(req.Experiences))
	for _, e := range req.Experiences {
		entries = append(entries, app.ExperienceParams{
			JobTitle:    e.JobTitle,
			CompanyName: e.CompanyName,
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			Description: e.Description,
		})
	}
	if err := s.app.SubmitExperiences(user.ID, r.PathValue("app_id"), entries); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Application submitted.")
}

type patchApplicationRequest struct {
	Status string `json:"status"`
}

func (s *Server) handlePatchApplication(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req patchApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	application, err := s.app.PatchApplicationStatus(user.ID, r.PathValue("app_id"), domain.ApplicationStatus(req.Status))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (s *Server) handleApplicationsByListing(w http.ResponseWriter, r *http.Request, user domain.User) {
	applications, total, err := s.app.ApplicationsByListing(r.Context(), user.ID, r.PathValue("listing_id"), pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, applications)
}

func (s *Server) handleApplicationsByUser(w http.ResponseWriter, r *http.Request, user domain.User) {
	applications, total, err := s.app.ApplicationsByUser(r.Context(), user.ID, pageFromQuery(r))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writePage(w, total, applications)
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request, user domain.User) {
	application, err := s.app.Application(r.Context(), user.ID, r.PathValue("app_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

type decisionEmailRequest struct {
	ApplicationID string `json:"application_id"`
}

func (s *Server) handleSendAcceptanceEmail(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req decisionEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.SendAcceptanceEmail(req.ApplicationID); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Acceptance email sent.")
}

func (s *Server) handleSendRejectEmail(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req decisionEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.SendRejectionEmail(req.ApplicationID); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Rejection email sent.")
}

type parseResumeRequest struct {
	Key string `json:"s3_key"`
}

func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req parseResumeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	experiences, err := s.app.ParseResume(r.Context(), req.Key)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experiences": experiences})
}
