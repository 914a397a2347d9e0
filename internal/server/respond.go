package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"savvynote/internal/app"
	"savvynote/internal/payments"
	"savvynote/pkg/auth"
	"savvynote/pkg/store"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// respondAppError maps application errors onto HTTP statuses. Anything
// unrecognized is an internal error and logged rather than leaked.
func respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := app.AsFieldErrors(err); ok {
		writeJSON(w, http.StatusBadRequest, fields)
		return
	}
	if app.IsNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if app.IsForbidden(err) {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	switch {
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrInvalidRefreshToken),
		errors.Is(err, app.ErrRefreshTokenRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidResetToken),
		errors.Is(err, app.ErrMissingFields),
		errors.Is(err, app.ErrPasswordMismatch),
		errors.Is(err, app.ErrSelfFollow),
		errors.Is(err, app.ErrSelfBlock),
		errors.Is(err, app.ErrNotFollowing),
		errors.Is(err, app.ErrNotBlocking),
		errors.Is(err, app.ErrNotLiked),
		errors.Is(err, app.ErrAlreadyHidden),
		errors.Is(err, app.ErrNotHidden),
		errors.Is(err, app.ErrAlreadyReported),
		errors.Is(err, app.ErrResumeRequired),
		errors.Is(err, app.ErrResumeNotPDF),
		errors.Is(err, app.ErrInvalidStatusTransition),
		errors.Is(err, app.ErrTooManyFiles),
		errors.Is(err, app.ErrCaptionTooLong),
		errors.Is(err, app.ErrMessageTooLong),
		errors.Is(err, app.ErrMessageRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, payments.ErrInvalidSignature):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// pageFromQuery reads ?page= and ?page_size= parameters. Sizes are capped;
// out-of-range values fall back to defaults.
func pageFromQuery(r *http.Request) store.Page {
	page := store.Page{}
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page.Number = n
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && size > 0 && size <= 100 {
		page.Size = size
	}
	return page
}

type pagedResponse struct {
	Count   int `json:"count"`
	Results any `json:"results"`
}

func writePage(w http.ResponseWriter, total int, results any) {
	writeJSON(w, http.StatusOK, pagedResponse{Count: total, Results: results})
}

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

// requestToken returns the bearer token, preferring the Authorization header
// over the session cookie.
func requestToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token != "" {
			return token, true
		}
	}
	if c, err := r.Cookie(accessCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func refreshTokenFromRequest(r *http.Request, body string) string {
	if body != "" {
		return body
	}
	if c, err := r.Cookie(refreshCookie); err == nil {
		return c.Value
	}
	return ""
}

func (s *Server) setAuthCookies(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    access,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refresh,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
