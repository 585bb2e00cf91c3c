package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Its-SuperNova/duchess-backend-sub004/api/controllers"
	"github.com/Its-SuperNova/duchess-backend-sub004/api/middleware"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/checkout"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/delivery"
	"github.com/Its-SuperNova/duchess-backend-sub004/internal/settlement"
	razorpaywebhook "github.com/Its-SuperNova/duchess-backend-sub004/internal/webhooks/razorpay"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/config"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/db"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/enums"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/logger"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/razorpay"
	"github.com/Its-SuperNova/duchess-backend-sub004/pkg/redis"
)

// Deps carries everything the HTTP surface needs. cmd/api builds one after
// wiring the pipeline.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Gateway     *razorpay.Client
	Sessions    *checkout.SessionStore
	Validator   *checkout.Validator
	Coordinator *settlement.Coordinator
	Webhooks    *razorpaywebhook.Processor
	RuleCache   *delivery.RuleCache
	Registry    *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// webhook path stays outside auth and idempotency; the HMAC is the auth
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", controllers.RazorpayWebhook(deps.Webhooks, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout/validate", controllers.ValidateCheckout(deps.Validator, deps.Sessions, logg))

		r.With(middleware.Idempotency(deps.Redis, logg)).
			Post("/orders", controllers.CreateOrder(deps.Gateway, deps.Sessions, deps.Coordinator, logg))

		r.Post("/payments/verify", controllers.VerifyPayment(deps.Coordinator, deps.Gateway.SigningSecret(), logg))
		r.Get("/payments/status", controllers.PaymentStatus(deps.Coordinator, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(
				middleware.Auth(cfg.JWT, logg),
				middleware.RequireRole(enums.UserRoleAdmin, logg),
			)
			r.Post("/delivery-rules/invalidate", controllers.InvalidateDeliveryRules(deps.RuleCache, logg))
		})
	})

	return r
}
