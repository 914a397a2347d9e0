package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML, with environment
// overrides for secrets and deploy-specific values.
type FileConfig struct {
	Port          string `yaml:"port"`
	DatabaseURL   string `yaml:"databaseURL"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	LogLevel      string `yaml:"logLevel"`
	FrontendURL   string `yaml:"frontendURL"`

	JWTSecret  string `yaml:"jwtSecret"`
	SessionTTL string `yaml:"sessionTTL"`
	RefreshTTL string `yaml:"refreshTTL"`

	TrustedProxies []string `yaml:"trustedProxies"`

	AuthRateLimitPerMinute int `yaml:"authRateLimitPerMinute"`

	MinioEndpoint       string `yaml:"minioEndpoint"`
	MinioAccessKey      string `yaml:"minioAccessKey"`
	MinioSecretKey      string `yaml:"minioSecretKey"`
	MinioUseSSL         bool   `yaml:"minioUseSSL"`
	MinioImageBucket    string `yaml:"minioImageBucket"`
	MinioVideoBucket    string `yaml:"minioVideoBucket"`
	MinioDocumentBucket string `yaml:"minioDocumentBucket"`

	SMTPHost string `yaml:"smtpHost"`
	SMTPPort int    `yaml:"smtpPort"`
	SMTPUser string `yaml:"smtpUser"`
	SMTPPass string `yaml:"smtpPass"`
	MailFrom string `yaml:"mailFrom"`

	StripeAPIURL        string `yaml:"stripeApiUrl"`
	StripeSecretKey     string `yaml:"stripeSecretKey"`
	StripeWebhookSecret string `yaml:"stripeWebhookSecret"`
	StripeMonthlyPrice  string `yaml:"stripeMonthlyPrice"`
	StripeAnnualPrice   string `yaml:"stripeAnnualPrice"`

	GoogleClientID string `yaml:"googleClientId"`
}

// Load reads config from path (defaults to config.yaml) and applies
// environment overrides.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisAddr, "REDIS_ADDR")
	overrideString(&cfg.RedisPassword, "REDIS_PASSWORD")
	overrideString(&cfg.FrontendURL, "FRONTEND_URL")
	overrideString(&cfg.JWTSecret, "JWT_SECRET")
	overrideString(&cfg.SessionTTL, "SESSION_TTL")
	overrideString(&cfg.RefreshTTL, "REFRESH_TTL")
	overrideString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	overrideString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	overrideString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	overrideString(&cfg.SMTPHost, "SMTP_HOST")
	overrideString(&cfg.SMTPUser, "SMTP_USER")
	overrideString(&cfg.SMTPPass, "SMTP_PASS")
	overrideString(&cfg.MailFrom, "MAIL_FROM")
	overrideString(&cfg.StripeAPIURL, "STRIPE_API_URL")
	overrideString(&cfg.StripeSecretKey, "STRIPE_SECRET_KEY")
	overrideString(&cfg.StripeWebhookSecret, "STRIPE_WEBHOOK_SECRET")
	overrideString(&cfg.StripeMonthlyPrice, "STRIPE_MONTHLY_PRICE")
	overrideString(&cfg.StripeAnnualPrice, "STRIPE_ANNUAL_PRICE")
	overrideString(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SMTPPort = n
		}
	}
	if v := os.Getenv("AUTH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AuthRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func overrideString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set DATABASE_URL)")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return errors.New("config: redisAddr is required for sessions and rate limiting")
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("config: jwtSecret must be at least 32 bytes (set JWT_SECRET)")
	}
	if cfg.AuthRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

// ParseTTL parses an optional duration string, with fallback when empty.
func ParseTTL(raw string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl duration %q: %w", raw, err)
	}
	return dur, nil
}
