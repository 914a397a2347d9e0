package server

import (
	"errors"
	"net/http"

	"savvynote/internal/app"
	"savvynote/pkg/domain"
)

type signupRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`

	StageName   string `json:"stage_name"`
	YearsPlayed int    `json:"years_played"`
	HomeStudio  bool   `json:"home_studio"`
	Instruments []struct {
		ID          string `json:"id"`
		YearsPlayed int    `json:"years_played"`
	} `json:"instruments"`
	Genres []struct {
		ID string `json:"id"`
	} `json:"genres"`

	BusinessName string `json:"business_name"`
	Industry     string `json:"industry"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	params := app.SignUpParams{
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Password:     req.Password,
		Role:         domain.UserRole(req.Role),
		StageName:    req.StageName,
		YearsPlayed:  req.YearsPlayed,
		HomeStudio:   req.HomeStudio,
		BusinessName: req.BusinessName,
		Industry:     req.Industry,
	}
	for _, in := range req.Instruments {
		params.Instruments = append(params.Instruments, app.SignUpInstrument{
			ID:          in.ID,
			YearsPlayed: in.YearsPlayed,
		})
	}
	for _, g := range req.Genres {
		params.GenreIDs = append(params.GenreIDs, g.ID)
	}
	user, err := s.app.SignUp(params)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User created successfully",
		"id":      user.ID,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	User    domain.User `json:"user"`
	Access  string      `json:"access"`
	Refresh string      `json:"refresh"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, access, refresh, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	s.setAuthCookies(w, access, refresh)
	writeJSON(w, http.StatusOK, tokenResponse{User: user, Access: access, Refresh: refresh})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	token := refreshTokenFromRequest(r, req.Refresh)
	user, access, refresh, err := s.app.Refresh(token)
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	s.setAuthCookies(w, access, refresh)
	writeJSON(w, http.StatusOK, tokenResponse{User: user, Access: access, Refresh: refresh})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	access, _ := requestToken(r)
	refresh := refreshTokenFromRequest(r, req.Refresh)
	if err := s.app.Logout(access, refresh); err != nil {
		respondAppError(w, r, err)
		return
	}
	s.clearAuthCookies(w)
	writeMessage(w, http.StatusOK, "Logged out.")
}

type googleLoginRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	user, access, refresh, err := s.app.GoogleLogin(req.Email)
	if errors.Is(err, app.ErrNeedsSignup) {
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "needs_signup"})
		return
	}
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	s.setAuthCookies(w, access, refresh)
	writeJSON(w, http.StatusOK, tokenResponse{User: user, Access: access, Refresh: refresh})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req googleLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.ForgotPassword(req.Email); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "If the email is registered, a reset link has been sent.")
}

type resetPasswordRequest struct {
	UserID          string `json:"uid"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.ResetPassword(req.UserID, req.Token, req.Password, req.ConfirmPassword); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Successfully reset the password!")
}

func (s *Server) handleAuthProfile(w http.ResponseWriter, _ *http.Request, user domain.User) {
	writeJSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.app.ChangePassword(user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password changed successfully.")
}
