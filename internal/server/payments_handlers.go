package server

import (
	"io"
	"net/http"

	"savvynote/pkg/domain"
)

type subscriptionSessionRequest struct {
	Plan string `json:"plan"`
}

func (s *Server) handleCreateSubscriptionSession(w http.ResponseWriter, r *http.Request, user domain.User) {
	var req subscriptionSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	url, err := s.app.CreateSubscriptionSession(r.Context(), user.ID, domain.SubscriptionPlan(req.Plan))
	if err != nil {
		respondAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}
	if err := s.app.HandleWebhook(payload, r.Header.Get("Stripe-Signature")); err != nil {
		respondAppError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "ok")
}
