package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"savvynote/internal/app"
	"savvynote/internal/chat"
	"savvynote/internal/config"
	"savvynote/internal/mail"
	"savvynote/internal/payments"
	"savvynote/internal/ratelimit"
	"savvynote/internal/server"
	"savvynote/internal/util"
	"savvynote/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	sessionTTL, err := config.ParseTTL(cfg.SessionTTL, 15*time.Minute)
	if err != nil {
		log.Fatalf("failed to parse session TTL: %v", err)
	}
	refreshTTL, err := config.ParseTTL(cfg.RefreshTTL, 7*24*time.Hour)
	if err != nil {
		log.Fatalf("failed to parse refresh TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	objects, err := storage.NewMinioStore(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		storage.Buckets{
			Image:    cfg.MinioImageBucket,
			Video:    cfg.MinioVideoBucket,
			Document: cfg.MinioDocumentBucket,
		},
		cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}

	var mailer mail.Mailer = mail.NewRecorder()
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		slog.Warn("smtp not configured, outgoing mail is recorded in memory only")
	}

	appCore, err := app.New(app.Config{
		DatabaseURL:    cfg.DatabaseURL,
		Redis:          redisClient,
		JWTSecret:      cfg.JWTSecret,
		SessionTTL:     sessionTTL,
		RefreshTTL:     refreshTTL,
		FrontendURL:    cfg.FrontendURL,
		MonthlyPriceID: cfg.StripeMonthlyPrice,
		AnnualPriceID:  cfg.StripeAnnualPrice,
		WebhookSecret:  cfg.StripeWebhookSecret,
		Objects:        objects,
		Mailer:         mailer,
		Checkout:       payments.NewStripeClient(cfg.StripeAPIURL, cfg.StripeSecretKey),
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.AuthRateLimitPerMinute > 0 {
		limiter, err = ratelimit.NewFixedWindowLimiter(redisClient, "savvynote:auth", cfg.AuthRateLimitPerMinute, time.Minute)
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub()

	httpServer := server.New(server.Config{
		App:            appCore,
		Hub:            hub,
		AuthLimiter:    limiter,
		TrustedProxies: proxies,
		FrontendURL:    cfg.FrontendURL,
		SecureCookies:  strings.HasPrefix(cfg.FrontendURL, "https://"),
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server error", "err", err)
	}
}
