package app

import (
	"testing"
	"time"

	"savvynote/internal/mail"
	"savvynote/internal/payments"
	"savvynote/pkg/domain"
	"savvynote/pkg/storage"
	"savvynote/pkg/store"
)

const testSecret = "test-secret-key-0123456789abcdef-extra"

type testDeps struct {
	store    *store.MemoryStore
	objects  *storage.MemoryObjectStore
	mailer   *mail.Recorder
	checkout *payments.FakeCheckoutClient
	slept    []time.Duration
}

func newTestApp(t *testing.T) (*App, *testDeps) {
	t.Helper()
	deps := &testDeps{
		store:    store.NewMemoryStore(),
		objects:  storage.NewMemoryObjectStore(),
		mailer:   mail.NewRecorder(),
		checkout: &payments.FakeCheckoutClient{},
	}
	sessions, err := store.NewJWTSessionStore(testSecret, 15*time.Minute, store.NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("NewJWTSessionStore: %v", err)
	}
	a, err := New(Config{
		JWTSecret:      testSecret,
		FrontendURL:    "https://app.savvynote.test",
		MonthlyPriceID: "price_monthly",
		AnnualPriceID:  "price_annual",
		WebhookSecret:  "whsec_test",
		Store:          deps.store,
		Sessions:       sessions,
		RefreshTokens:  store.NewMemoryRefreshTokenStore(),
		Objects:        deps.objects,
		Mailer:         deps.mailer,
		Checkout:       deps.checkout,
		Sleep:          func(d time.Duration) { deps.slept = append(deps.slept, d) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, deps
}

func mustSignUpMusician(t *testing.T, a *App, username string) domain.User {
	t.Helper()
	user, err := a.SignUp(SignUpParams{
		Username: username,
		Email:    username + "@example.com",
		Password: "Str0ngPass!",
		Role:     domain.RoleMusician,
	})
	if err != nil {
		t.Fatalf("SignUp(%s): %v", username, err)
	}
	return user
}

func mustSignUpBusiness(t *testing.T, a *App, username string) domain.User {
	t.Helper()
	user, err := a.SignUp(SignUpParams{
		Username:     username,
		Email:        username + "@example.com",
		Password:     "Str0ngPass!",
		Role:         domain.RoleBusiness,
		BusinessName: username + " LLC",
	})
	if err != nil {
		t.Fatalf("SignUp(%s): %v", username, err)
	}
	return user
}
