package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"savvynote/internal/mail"
	"savvynote/internal/payments"
	"savvynote/pkg/auth"
	"savvynote/pkg/storage"
	"savvynote/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Redis       *redis.Client

	JWTSecret  string
	SessionTTL time.Duration
	RefreshTTL time.Duration

	FrontendURL string

	MonthlyPriceID string
	AnnualPriceID  string
	WebhookSecret  string

	// Injection points; nil values fall back to the production wiring above.
	Store         store.Store
	Sessions      store.SessionStore
	RefreshTokens store.RefreshTokenStore
	Objects       storage.ObjectStore
	Mailer        mail.Mailer
	Checkout      payments.CheckoutClient

	Sleep func(time.Duration)
	Now   func() time.Time
}

// App is the core application service wiring storage, auth, media,
// messaging, marketplace and billing logic together.
type App struct {
	store         store.Store
	sessions      store.SessionStore
	refreshTokens store.RefreshTokenStore
	objects       storage.ObjectStore
	mailer        mail.Mailer
	checkout      payments.CheckoutClient
	resetTokens   *auth.ResetTokenIssuer

	refreshTTL     time.Duration
	frontendURL    string
	monthlyPriceID string
	annualPriceID  string
	webhookSecret  string

	sleep func(time.Duration)
	now   func() time.Time
}

// New constructs the application with database storage and session management.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			return nil, fmt.Errorf("jwtSecret is required")
		}
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis client is required for jwt session strategy")
		}
		revoker := store.NewRedisTokenRevoker(cfg.Redis)
		jwtStore, err := store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL, revoker)
		if err != nil {
			return nil, fmt.Errorf("init jwt session store: %w", err)
		}
		sessionStore = jwtStore
	}

	refreshStore := cfg.RefreshTokens
	if refreshStore == nil {
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis client is required for refresh token strategy")
		}
		refreshStore = store.NewRedisRefreshTokenStore(cfg.Redis)
	}

	objects := cfg.Objects
	if objects == nil {
		objects = storage.NewMemoryObjectStore()
	}

	mailer := cfg.Mailer
	if mailer == nil {
		mailer = mail.NewRecorder()
	}

	checkout := cfg.Checkout
	if checkout == nil {
		checkout = &payments.FakeCheckoutClient{}
	}

	return &App{
		store:          dataStore,
		sessions:       sessionStore,
		refreshTokens:  refreshStore,
		objects:        objects,
		mailer:         mailer,
		checkout:       checkout,
		resetTokens:    auth.NewResetTokenIssuer(cfg.JWTSecret, time.Hour),
		refreshTTL:     cfg.RefreshTTL,
		frontendURL:    strings.TrimRight(cfg.FrontendURL, "/"),
		monthlyPriceID: cfg.MonthlyPriceID,
		annualPriceID:  cfg.AnnualPriceID,
		webhookSecret:  cfg.WebhookSecret,
		sleep:          cfg.Sleep,
		now:            cfg.Now,
	}, nil
}
