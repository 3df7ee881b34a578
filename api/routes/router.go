package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/homefix/homeservices-backend/api/controllers"
	"github.com/homefix/homeservices-backend/api/middleware"
	"github.com/homefix/homeservices-backend/internal/auth"
	"github.com/homefix/homeservices-backend/internal/bookings"
	"github.com/homefix/homeservices-backend/internal/catalog"
	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/internal/otp"
	"github.com/homefix/homeservices-backend/internal/payments"
	"github.com/homefix/homeservices-backend/internal/providers"
	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/internal/verification"
	"github.com/homefix/homeservices-backend/pkg/auth/session"
	"github.com/homefix/homeservices-backend/pkg/config"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/metrics"
	"github.com/homefix/homeservices-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, uuid.UUID, string) (string, string, error)
	Revoke(context.Context, string) error
}

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileUpdater interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate, at time.Time) (*models.User, error)
}

// Params carries every dependency the HTTP surface needs. Nil services
// answer with an internal error rather than panicking.
type Params struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Idempotency redis.IdempotencyStore
	Sessions    sessionManager
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Auth          auth.Service
	Register      auth.RegisterService
	OTP           otp.Service
	Verification  verification.Service
	Bookings      bookings.Service
	Notifications notifications.Service
	Feed          notifications.Feed
	Payments      payments.Service
	Catalog       catalog.Service
	Providers     providers.Service
	Users         userFinder
	UserProfiles  profileUpdater

	StripeWebhook controllers.StripeWebhookService
	StripeSigner  controllers.StripeSigner
	WebhookGuard  controllers.StripeWebhookGuard
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(p.HTTPMetrics),
	)

	gatherer := p.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    p.DB,
			"redis": p.Redis,
		}))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/services", controllers.ListServices(p.Catalog, logg))
		r.Get("/services/categories", controllers.ListCategories(p.Catalog, logg))
		r.Get("/providers", controllers.SearchProviders(p.Providers, logg))
		r.Get("/providers/{providerID}", controllers.ProviderDetail(p.Providers, logg))
	})

	r.Post("/api/v1/webhooks/stripe", controllers.StripeWebhook(p.StripeWebhook, p.StripeSigner, p.WebhookGuard, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(p.Idempotency, logg)).Post("/register", controllers.AuthRegister(p.Register, logg))
		r.Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(p.Sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Sessions, cfg.JWT, logg))
		r.Post("/otp/send", controllers.SendOTP(p.Verification, logg))
		r.Post("/otp/verify", controllers.VerifyOTP(p.OTP, logg))
		r.Post("/verify-phone", controllers.VerifyPhone(p.Verification, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(p.Idempotency, logg))

		r.Route("/verification/aadhaar", func(r chi.Router) {
			r.Post("/", controllers.RequestAadhaarVerification(p.Verification, logg))
			r.Post("/confirm", controllers.ConfirmAadhaarVerification(p.Verification, logg))
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", controllers.CreateBooking(p.Bookings, logg))
			r.Get("/", controllers.ListBookings(p.Bookings, logg))
			r.Get("/{bookingID}", controllers.GetBooking(p.Bookings, logg))
			r.Put("/{bookingID}/status", controllers.UpdateBookingStatus(p.Bookings, logg))
			r.Post("/{bookingID}/review", controllers.ReviewBooking(p.Bookings, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(p.Notifications, logg))
			r.Get("/stream", controllers.NotificationStream(p.Feed, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(p.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(p.Notifications, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/intents", controllers.CreatePaymentIntent(p.Payments, logg))
			r.Post("/confirm", controllers.ConfirmPayment(p.Payments, logg))
			r.Get("/history", controllers.PaymentHistory(p.Payments, logg))
		})

		r.Get("/users/me", controllers.UsersMe(p.Users, p.Providers, logg))
		r.Put("/users/profile", controllers.UpdateProfile(p.UserProfiles, logg))
		r.With(middleware.RequireRole(enums.UserRoleServiceProvider, logg)).
			Patch("/providers/me/availability", controllers.UpdateAvailability(p.Providers, logg))
	})

	return otelhttp.NewHandler(r, "homesvc-api",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/metrics" && req.URL.Path != "/health/live"
		}),
	)
}
