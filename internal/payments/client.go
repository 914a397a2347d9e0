package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// CheckoutSession mirrors the payment provider's checkout session object.
type CheckoutSession struct {
	ID             string            `json:"id"`
	URL            string            `json:"url"`
	CustomerID     string            `json:"customer"`
	SubscriptionID string            `json:"subscription"`
	Metadata       map[string]string `json:"metadata"`
}

// CheckoutParams configures a new checkout session.
type CheckoutParams struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutClient starts checkout sessions with the payment provider.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error)
}

// Event is a signed webhook delivery.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// EventCheckoutCompleted is the only event type acted on.
const EventCheckoutCompleted = "checkout.session.completed"

// ParseEvent decodes a webhook payload.
func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode webhook event: %w", err)
	}
	return ev, nil
}

// StripeClient calls the provider's REST API.
type StripeClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewStripeClient(baseURL, secretKey string) *StripeClient {
	return &StripeClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateCheckoutSession opens a subscription-mode checkout session.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return CheckoutSession{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return CheckoutSession{}, fmt.Errorf("create checkout session: status %d: %s", resp.StatusCode, body)
	}
	var session CheckoutSession
	if err := json.Unmarshal(body, &session); err != nil {
		return CheckoutSession{}, fmt.Errorf("decode checkout session: %w", err)
	}
	return session, nil
}

// FakeCheckoutClient returns canned sessions for tests.
type FakeCheckoutClient struct {
	Session CheckoutSession
	Err     error
	Last    CheckoutParams
}

func (f *FakeCheckoutClient) CreateCheckoutSession(_ context.Context, params CheckoutParams) (CheckoutSession, error) {
	f.Last = params
	if f.Err != nil {
		return CheckoutSession{}, f.Err
	}
	return f.Session, nil
}
