package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/homefix/homeservices-backend/api/controllers"
	"github.com/homefix/homeservices-backend/api/routes"
	"github.com/homefix/homeservices-backend/internal/auth"
	"github.com/homefix/homeservices-backend/internal/bookings"
	"github.com/homefix/homeservices-backend/internal/catalog"
	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/internal/otp"
	"github.com/homefix/homeservices-backend/internal/payments"
	"github.com/homefix/homeservices-backend/internal/providers"
	"github.com/homefix/homeservices-backend/internal/ratings"
	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/internal/verification"
	stripewebhook "github.com/homefix/homeservices-backend/internal/webhooks/stripe"
	"github.com/homefix/homeservices-backend/pkg/auth/session"
	"github.com/homefix/homeservices-backend/pkg/config"
	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/instance"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/metrics"
	"github.com/homefix/homeservices-backend/pkg/migrate"
	"github.com/homefix/homeservices-backend/pkg/outbox"
	"github.com/homefix/homeservices-backend/pkg/pubsub"
	"github.com/homefix/homeservices-backend/pkg/redis"
	pkgstripe "github.com/homefix/homeservices-backend/pkg/stripe"
	"github.com/homefix/homeservices-backend/pkg/tracing"
)

const (
	shutdownTimeout = 15 * time.Second
	webhookGuardTTL = 7 * 24 * time.Hour
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, "api", cfg.App.Env, logg)
	if err != nil {
		logg.Error(ctx, "failed to init tracing", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logg.Error(context.Background(), "error flushing traces", err)
		}
	}()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.NewDomainMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	providerRepo := providers.NewRepository(gormDB)

	otpService, err := otp.NewService(otp.ServiceParams{
		Repo:    otp.NewRepository(gormDB),
		Sender:  buildOTPSender(cfg, logg),
		TTL:     cfg.OTP.TTL,
		Logger:  logg,
		Metrics: domainMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create otp service", err)
		os.Exit(1)
	}

	verificationService, err := verification.NewService(verification.ServiceParams{
		DB:     dbClient,
		Users:  userRepo,
		OTP:    otpService,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create verification service", err)
		os.Exit(1)
	}

	pushers := []notifications.Pusher{notifications.NewRedisPusher(redisClient)}
	if cfg.PubSub.Enabled() {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		pushers = append(pushers, notifications.NewPubSubPusher(pubsubClient.NotificationPublisher()))
	}

	notificationRepo := notifications.NewRepository(gormDB)
	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:    notificationRepo,
		Pushers: pushers,
		Logger:  logg,
		Metrics: domainMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create notification dispatcher", err)
		os.Exit(1)
	}
	outboxRepo := outbox.NewRepository(gormDB)
	queue := notifications.NewQueue(outbox.NewService(outboxRepo, logg), logg)
	drainer := notifications.NewDrainer(dispatcher, outboxRepo, logg)

	notificationService, err := notifications.NewService(notificationRepo)
	if err != nil {
		logg.Error(ctx, "failed to create notification service", err)
		os.Exit(1)
	}

	bookingService, err := bookings.NewService(bookings.ServiceParams{
		DB:      dbClient,
		Repo:    bookings.NewRepository(gormDB),
		Ratings: ratings.NewAggregator(),
		Queue:   queue,
		Drainer: drainer,
		Logger:  logg,
		Metrics: domainMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create booking service", err)
		os.Exit(1)
	}

	var (
		paymentService payments.Service
		stripeWebhook  controllers.StripeWebhookService
		stripeSigner   controllers.StripeSigner
		webhookGuard   controllers.StripeWebhookGuard
	)
	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Warn(logg.WithField(ctx, "error", err.Error()), "stripe not configured, payment routes disabled")
	} else {
		paymentService, err = payments.NewService(payments.ServiceParams{
			DB:      dbClient,
			Repo:    payments.NewRepository(gormDB),
			Gateway: payments.NewStripeGateway(stripeClient),
			Queue:   queue,
			Drainer: drainer,
			Logger:  logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create payment service", err)
			os.Exit(1)
		}
		webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
			Payments: paymentService,
			Logger:   logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook service", err)
			os.Exit(1)
		}
		guard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookGuardTTL, "stripe-webhook")
		if err != nil {
			logg.Error(ctx, "failed to create stripe webhook guard", err)
			os.Exit(1)
		}
		stripeWebhook, stripeSigner, webhookGuard = webhookService, stripeClient, guard
	}

	providerService, err := providers.NewService(providerRepo)
	if err != nil {
		logg.Error(ctx, "failed to create provider service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(gormDB)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		DB:             dbClient,
		Users:          userRepo,
		Providers:      providerRepo,
		OTP:            otpService,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create register service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Idempotency:   redisClient,
			Sessions:      sessionManager,
			Gatherer:      registry,
			HTTPMetrics:   httpMetrics,
			Auth:          authService,
			Register:      registerService,
			OTP:           otpService,
			Verification:  verificationService,
			Bookings:      bookingService,
			Notifications: notificationService,
			Feed:          notifications.NewRedisFeed(redisClient),
			Payments:      paymentService,
			Catalog:       catalogService,
			Providers:     providerService,
			Users:         userRepo,
			UserProfiles:  userRepo,
			StripeWebhook: stripeWebhook,
			StripeSigner:  stripeSigner,
			WebhookGuard:  webhookGuard,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown failed", err)
		}
	}
}

// buildOTPSender picks SMS delivery and adds email when SMTP is configured.
func buildOTPSender(cfg *config.Config, logg *logger.Logger) otp.Sender {
	var sms otp.Sender = otp.NewLogSender(logg)
	if cfg.OTP.UseTwilio() {
		twilioSender, err := otp.NewTwilioSender(cfg.Twilio)
		if err != nil {
			logg.Error(context.Background(), "failed to configure twilio, falling back to log sender", err)
		} else {
			sms = twilioSender
		}
	}
	if !cfg.SMTP.Enabled() {
		return sms
	}
	return otp.NewMultiSender(sms, otp.NewEmailSender(cfg.SMTP))
}
