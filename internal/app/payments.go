package app

import (
	"context"
	"fmt"

	"savvynote/internal/payments"
	"savvynote/internal/util"
	"savvynote/pkg/domain"
)

// CreateSubscriptionSession opens a provider checkout session for a
// subscription plan and returns the redirect URL.
func (a *App) CreateSubscriptionSession(ctx context.Context, userID string, plan domain.SubscriptionPlan) (string, error) {
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return "", fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return "", notFound("User not found")
	}
	business, found, err := a.store.GetBusinessByUserID(userID)
	if err != nil {
		return "", fmt.Errorf("fetch business: %w", err)
	}
	if !found {
		return "", forbidden(ErrBusinessOnly.Error())
	}

	var priceID string
	switch plan {
	case domain.PlanMonthly:
		priceID = a.monthlyPriceID
	case domain.PlanAnnual:
		priceID = a.annualPriceID
	default:
		return "", FieldErrors{"plan": ErrUnknownPlan.Error()}
	}

	session, err := a.checkout.CreateCheckoutSession(ctx, payments.CheckoutParams{
		PriceID:       priceID,
		CustomerEmail: user.Email,
		SuccessURL:    a.frontendURL + "/subscription/success",
		CancelURL:     a.frontendURL + "/subscription/cancel",
		Metadata: map[string]string{
			"business_id": business.ID,
			"plan":        string(plan),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

// HandleWebhook verifies the provider signature and applies the event.
// Completed checkouts upsert the subscription keyed by session id, so
// redeliveries of the same session are no-ops.
func (a *App) HandleWebhook(payload []byte, signatureHeader string) error {
	if err := payments.VerifySignature(payload, signatureHeader, a.webhookSecret, payments.DefaultTolerance, a.now()); err != nil {
		return err
	}
	event, err := payments.ParseEvent(payload)
	if err != nil {
		return err
	}
	if event.Type != payments.EventCheckoutCompleted {
		return nil
	}
	session := event.Data.Object
	businessID := session.Metadata["business_id"]
	if businessID == "" || session.ID == "" {
		return fmt.Errorf("checkout session missing business metadata")
	}
	plan := domain.SubscriptionPlan(session.Metadata["plan"])
	switch plan {
	case domain.PlanMonthly, domain.PlanAnnual:
	default:
		plan = domain.PlanNone
	}
	sub := domain.Subscription{
		ID:                   util.NewID(),
		BusinessID:           businessID,
		StripeCustomerID:     session.CustomerID,
		StripeSubscriptionID: session.SubscriptionID,
		CheckoutSessionID:    session.ID,
		Plan:                 plan,
		CreatedAt:            a.now().UTC(),
	}
	if _, err := a.store.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// SubscriptionForBusinessUser returns the active subscription of the
// requester's business, if any.
func (a *App) SubscriptionForBusinessUser(userID string) (domain.Subscription, bool, error) {
	business, found, err := a.store.GetBusinessByUserID(userID)
	if err != nil {
		return domain.Subscription{}, false, fmt.Errorf("fetch business: %w", err)
	}
	if !found {
		return domain.Subscription{}, false, forbidden(ErrBusinessOnly.Error())
	}
	return a.store.GetSubscriptionByBusiness(business.ID)
}
