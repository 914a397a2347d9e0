package server

import (
	"net/http"

	"savvynote/internal/app"
	"savvynote/pkg/domain"
)

func (s *Server) handleGetMusician(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if viewer, ok := s.authorize(r); ok {
		viewerID = viewer.ID
	}
	profile, err := s.app.GetMusicianProfile(viewerID, r.PathValue("user_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type musicianPatchRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	StageName   *string `json:"stage_name"`
	YearsPlayed *int    `json:"years_played"`
	HomeStudio  *bool   `json:"home_studio"`
	Instruments *[]struct {
		ID          string `json:"id"`
		YearsPlayed int    `json:"years_played"`
	} `json:"instruments"`
	Genres *[]struct {
		ID string `json:"id"`
	} `json:"genres"`
}

func (s *Server) handlePatchMusician(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req musicianPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	patch := app.MusicianPatch{
		Username:    req.Username,
		Email:       req.Email,
		Phone:       req.Phone,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		StageName:   req.StageName,
		YearsPlayed: req.YearsPlayed,
		HomeStudio:  req.HomeStudio,
	}
	if req.Instruments != nil {
		instruments := make([]app.SignUpInstrument, 0, len(*req.Instruments))
		for _, in := range *req.Instruments {
			instruments = append(instruments, app.SignUpInstrument{ID: in.ID, YearsPlayed: in.YearsPlayed})
		}
		patch.Instruments = &instruments
	}
	if req.Genres != nil {
		genreIDs := make([]string, 0, len(*req.Genres))
		for _, g := range *req.Genres {
			genreIDs = append(genreIDs, g.ID)
		}
		patch.GenreIDs = &genreIDs
	}
	profile, err := s.app.PatchMusicianProfile(user.ID, r.PathValue("user_id"), patch)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if viewer, ok := s.authorize(r); ok {
		viewerID = viewer.ID
	}
	profile, err := s.app.GetBusinessProfile(viewerID, r.PathValue("user_id"))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type businessPatchRequest struct {
	Username     *string `json:"username"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	BusinessName *string `json:"business_name"`
	Industry     *string `json:"industry"`
}

func (s *Server) handlePatchBusiness(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req businessPatchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	profile, err := s.app.PatchBusinessProfile(user.ID, r.PathValue("user_id"), app.BusinessPatch{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		BusinessName: req.BusinessName,
		Industry:     req.Industry,
	})
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleListInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := s.app.Instruments()
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, instruments)
}

type createInstrumentRequest struct {
	Instrument string `json:"instrument"`
	ClassName  string `json:"class_name"`
}

func (s *Server) handleCreateInstrument(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req createInstrumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inst, err := s.app.CreateInstrument(req.Instrument, req.ClassName)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Instrument created successfully",
		"id":      inst.ID,
	})
}

func (s *Server) handleListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.app.Genres()
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

type createGenreRequest struct {
	Genre string `json:"genre"`
}

func (s *Server) handleCreateGenre(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var req createGenreRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	genre, err := s.app.CreateGenre(req.Genre)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "Genre created successfully",
		"id":      genre.ID,
	})
}

func (s *Server) handleListMusicians(w http.ResponseWriter, r *http.Request) {
	musicians, err := s.app.Musicians()
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, musicians)
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	businesses, err := s.app.Businesses()
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, businesses)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.app.Users()
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
