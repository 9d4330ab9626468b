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
	"go.uber.org/multierr"

	"github.com/muraqqa/storefront/api/controllers"
	"github.com/muraqqa/storefront/api/middleware"
	"github.com/muraqqa/storefront/api/routes"
	"github.com/muraqqa/storefront/internal/cart"
	"github.com/muraqqa/storefront/internal/catalog"
	"github.com/muraqqa/storefront/internal/checkout"
	"github.com/muraqqa/storefront/internal/cron"
	"github.com/muraqqa/storefront/internal/orders"
	"github.com/muraqqa/storefront/internal/payments"
	"github.com/muraqqa/storefront/internal/shipping"
	"github.com/muraqqa/storefront/pkg/config"
	"github.com/muraqqa/storefront/pkg/db"
	"github.com/muraqqa/storefront/pkg/instance"
	"github.com/muraqqa/storefront/pkg/logger"
	"github.com/muraqqa/storefront/pkg/metrics"
	"github.com/muraqqa/storefront/pkg/migrate"
	"github.com/muraqqa/storefront/pkg/redis"
	pkgstripe "github.com/muraqqa/storefront/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

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

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	deps := routes.Deps{
		Config:  cfg,
		Logger:  logg,
		Pingers: map[string]controllers.Pinger{"db": dbClient},
	}

	// Redis is optional; without it the facet cache, idempotency and rate
	// limiting are skipped.
	var facetStore catalog.CacheStore
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, redisErr := redis.New(ctx, cfg.Redis, logg)
		if redisErr != nil {
			return redisErr
		}
		defer func() { err = multierr.Append(err, redisClient.Close()) }()
		facetStore = redisClient
		deps.Pingers["redis"] = redisClient
		deps.Idempotency = redisClient
		deps.RateLimiter = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Metrics = registry

	catalogRepo := catalog.NewRepository(dbClient.DB())
	deps.Catalog, err = catalog.NewService(catalog.ServiceParams{
		Repo:      catalogRepo,
		Cache:     facetStore,
		CacheTTL:  cfg.Catalog.FacetCacheTTL,
		PageLimit: cfg.Catalog.PageLimit,
		Metrics:   metrics.NewCatalogMetrics(registry),
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	deps.Carts, err = cart.NewService(cart.NewRepository(dbClient.DB()), dbClient, catalogRepo)
	if err != nil {
		return err
	}

	deps.Orders, err = orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, logg)
	if err != nil {
		return err
	}

	if cfg.FeatureFlags.PaymentsEnabled && cfg.Stripe.Enabled() {
		stripeClient, stripeErr := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
		if stripeErr != nil {
			return stripeErr
		}
		deps.Payments = payments.NewService(payments.NewStripeIntentClient(stripeClient), stripeClient.PublicKey(), logg)
	} else {
		logg.Warn(ctx, "card payments disabled; only bank transfer checkout is available")
	}

	quoter, err := shipping.NewTableQuoter(cfg.Shipping, cfg.Checkout.HomeCountry)
	if err != nil {
		return err
	}
	rules, err := checkout.NewRules(cfg.Checkout)
	if err != nil {
		return err
	}
	checkoutDeps := checkout.Deps{
		Auth:     middleware.CheckoutAuth(cfg.App.LoginURL),
		Carts:    deps.Carts,
		Orders:   deps.Orders,
		Shipping: quoter,
		Rules:    rules,
		Currency: cfg.Checkout.Currency,
		Metrics:  metrics.NewCheckoutMetrics(registry),
		Logger:   logg,
	}
	if deps.Payments != nil {
		checkoutDeps.Payments = deps.Payments
	}
	sessions, err := checkout.NewRegistry(checkoutDeps, cfg.Checkout.SessionTTL)
	if err != nil {
		return err
	}
	deps.Checkout = sessions

	sweeper, err := newSessionSweeper(cfg, logg, sessions)
	if err != nil {
		return err
	}
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "checkout session sweeper stopped", err)
		}
	}()

	addr := ":" + cfg.App.Port
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serveCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(serveCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newSessionSweeper(cfg *config.Config, logg *logger.Logger, sessions *checkout.Registry) (*cron.Service, error) {
	job, err := cron.NewCheckoutSessionsJob(logg, sessions)
	if err != nil {
		return nil, err
	}
	jobs, err := cron.NewRegistry(job)
	if err != nil {
		return nil, err
	}
	interval := cfg.Checkout.SessionTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     &cron.LocalLock{},
		Interval: interval,
	})
}
