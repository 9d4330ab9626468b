package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/muraqqa/storefront/api/controllers"
	"github.com/muraqqa/storefront/api/middleware"
	"github.com/muraqqa/storefront/internal/cart"
	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/internal/orders"
	"github.com/muraqqa/storefront/internal/payments"
	"github.com/muraqqa/storefront/pkg/config"
	"github.com/muraqqa/storefront/pkg/enums"
	"github.com/muraqqa/storefront/pkg/logger"
	pkgredis "github.com/muraqqa/storefront/pkg/redis"
)

// Deps are the services mounted by the router. Redis backed middleware is
// skipped when Idempotency or RateLimiter is nil.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	Pingers     map[string]controllers.Pinger
	Catalog     catalog.Provider
	Carts       cart.Service
	Checkout    controllers.SessionRegistry
	Orders      orders.Service
	Payments    payments.Service
	Idempotency pkgredis.IdempotencyStore
	RateLimiter middleware.RateLimiterStore
	Metrics     prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/payments/config", controllers.PaymentsConfig(deps.Payments))
	})

	checkoutLimit := middleware.RateLimit(middleware.CheckoutRateLimitPolicy(cfg.RateLimit), deps.RateLimiter, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/artworks", controllers.CatalogList(deps.Catalog, logg))
			r.Get("/facets", controllers.CatalogFacets(deps.Catalog, logg))
		})

		// Checkout resolves identity itself so anonymous shoppers get the
		// sign-in redirect from the proceed step.
		r.Route("/checkout/sessions", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))
			r.Post("/", controllers.CheckoutBegin(deps.Checkout, logg))
			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", controllers.CheckoutSnapshot(deps.Checkout, logg))
				r.Post("/proceed", controllers.CheckoutProceed(deps.Checkout, logg))
				r.Put("/shipping", controllers.CheckoutUpdateShipping(deps.Checkout, logg))
				r.Get("/shipping-rates", controllers.CheckoutShippingRates(deps.Checkout, logg))
				r.With(checkoutLimit).Post("/submit", controllers.CheckoutSubmit(deps.Checkout, logg))
				r.With(checkoutLimit).Post("/payment-intent", controllers.CheckoutPaymentIntent(deps.Checkout, logg))
				r.With(checkoutLimit).Post("/confirm", controllers.CheckoutConfirm(deps.Checkout, logg))
				r.Post("/back", controllers.CheckoutBack(deps.Checkout, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, cfg.App.LoginURL, logg))
			r.Use(middleware.Idempotency(deps.Idempotency, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.Carts, logg))
				r.Delete("/", controllers.CartClear(deps.Carts, logg))
				r.Post("/lines", controllers.CartAddLine(deps.Carts, logg))
				r.Patch("/lines/{productId}", controllers.CartSetQuantity(deps.Carts, logg))
				r.Delete("/lines/{productId}", controllers.CartRemoveLine(deps.Carts, logg))
			})
			r.Get("/orders/{orderId}", controllers.OrderDetail(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, cfg.App.LoginURL, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))
		r.Patch("/orders/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
	})

	return r
}
