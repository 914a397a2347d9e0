package server

import (
	"bytes"
	"fmt"
	"net/http"
	"testing"
	"time"

	"savvynote/internal/payments"
	"savvynote/pkg/domain"
)

func postWebhook(t *testing.T, env *testEnv, payload []byte, signature string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/stripe/webhook/", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post webhook: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func checkoutCompletedPayload(sessionID, businessID, plan string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": %q,
			"customer": "cus_1",
			"subscription": "sub_1",
			"metadata": {"business_id": %q, "plan": %q}
		}}
	}`, sessionID, businessID, plan))
}

func TestCreateSubscriptionSessionEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.signUpMusician(t, "alice")
	env.signUpBusiness(t, "venue")
	aliceToken := env.loginToken(t, "alice")
	venueToken := env.loginToken(t, "venue")

	status, _ := env.do(t, http.MethodPost, "/api/stripe/create-subscription-session/", aliceToken, map[string]string{"plan": "monthly"})
	if status != http.StatusForbidden {
		t.Fatalf("musician expected 403, got %d", status)
	}

	status, raw := env.do(t, http.MethodPost, "/api/stripe/create-subscription-session/", venueToken, map[string]string{"plan": "monthly"})
	if status != http.StatusOK {
		t.Fatalf("business expected 200, got %d: %s", status, raw)
	}
	body := decodeBody[map[string]string](t, raw)
	if body["url"] != "https://pay.example/cs_test" {
		t.Fatalf("unexpected checkout url: %s", raw)
	}
}

func TestStripeWebhookSignatureAndIdempotency(t *testing.T) {
	env := newTestEnv(t)
	venue := env.signUpBusiness(t, "venue")
	business, found, err := env.store.GetBusinessByUserID(venue.ID)
	if err != nil || !found {
		t.Fatalf("business profile missing: %v", err)
	}
	payload := checkoutCompletedPayload("cs_1", business.ID, "monthly")

	if status := postWebhook(t, env, payload, "t=1,v1=deadbeef"); status != http.StatusBadRequest {
		t.Fatalf("bad signature expected 400, got %d", status)
	}
	if status := postWebhook(t, env, payload, ""); status != http.StatusBadRequest {
		t.Fatalf("missing signature expected 400, got %d", status)
	}

	signature := payments.SignPayload(payload, "whsec_test", time.Now())
	if status := postWebhook(t, env, payload, signature); status != http.StatusOK {
		t.Fatalf("valid signature expected 200, got %d", status)
	}
	sub, found, err := env.app.SubscriptionForBusinessUser(venue.ID)
	if err != nil || !found {
		t.Fatalf("subscription not stored: %v", err)
	}
	if sub.Plan != domain.PlanMonthly {
		t.Fatalf("unexpected plan %q", sub.Plan)
	}

	// Redelivery of the same checkout session is a no-op.
	if status := postWebhook(t, env, payload, payments.SignPayload(payload, "whsec_test", time.Now())); status != http.StatusOK {
		t.Fatalf("redelivery expected 200, got %d", status)
	}
	again, _, err := env.app.SubscriptionForBusinessUser(venue.ID)
	if err != nil {
		t.Fatalf("fetch subscription: %v", err)
	}
	if again.ID != sub.ID {
		t.Fatalf("redelivery created a new subscription: %q vs %q", again.ID, sub.ID)
	}
}
