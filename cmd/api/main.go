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

	"github.com/angelmondragon/suuq-marketplace/api/controllers"
	"github.com/angelmondragon/suuq-marketplace/api/routes"
	"github.com/angelmondragon/suuq-marketplace/internal/cart"
	"github.com/angelmondragon/suuq-marketplace/internal/catalog"
	"github.com/angelmondragon/suuq-marketplace/internal/checkout"
	"github.com/angelmondragon/suuq-marketplace/internal/orders"
	"github.com/angelmondragon/suuq-marketplace/internal/pricing"
	"github.com/angelmondragon/suuq-marketplace/pkg/blob"
	"github.com/angelmondragon/suuq-marketplace/pkg/config"
	"github.com/angelmondragon/suuq-marketplace/pkg/db"
	"github.com/angelmondragon/suuq-marketplace/pkg/logger"
	"github.com/angelmondragon/suuq-marketplace/pkg/metrics"
	"github.com/angelmondragon/suuq-marketplace/pkg/migrate"
	"github.com/angelmondragon/suuq-marketplace/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

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
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
	}()

	checks := map[string]controllers.Pinger{}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		closers = append(closers, redisClient.Close)
		checks["redis"] = redisClient
	}

	var store blob.Store
	switch cfg.Storage.Backend {
	case config.BlobBackendSQL:
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return err
		}
		closers = append(closers, dbClient.Close)
		checks["db"] = dbClient

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		store = blob.NewSQLStore(dbClient.DB(), dbClient)
	case config.BlobBackendRedis:
		store = blob.NewRedisStore(redisClient, cfg.Storage.BlobTTL)
	default:
		logg.Warn(ctx, "using in-memory blob store; data is lost on restart")
		store = blob.NewMemoryStore()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	marketplaceMetrics := metrics.NewMarketplaceMetrics(registry)

	deps, err := buildServices(cfg, logg, store, marketplaceMetrics)
	if err != nil {
		return err
	}
	deps.Gatherer = registry
	deps.Checks = checks
	if redisClient != nil {
		deps.Idempotency = redisClient
		deps.RateLimiter = redisClient
	}

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"backend": cfg.Storage.Backend,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
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

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(cfg *config.Config, logg *logger.Logger, store blob.Store, m *metrics.MarketplaceMetrics) (routes.Dependencies, error) {
	locker := blob.NewLocker()
	policy := pricing.PolicyFromConfig(cfg.Pricing)

	catalogRepo, err := catalog.NewRepository(store, locker)
	if err != nil {
		return routes.Dependencies{}, err
	}
	catalogSvc, err := catalog.NewService(catalog.ServiceParams{Repo: catalogRepo})
	if err != nil {
		return routes.Dependencies{}, err
	}

	cartSvc, err := cart.NewService(cart.ServiceParams{
		Store:   store,
		Locker:  locker,
		Catalog: catalogSvc,
		Policy:  policy,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	checkoutSvc, err := checkout.NewService(checkout.ServiceParams{
		Store:   store,
		Locker:  locker,
		Policy:  policy,
		Logger:  logg,
		Metrics: m,
		Delay:   cfg.Checkout.PlacementDelay,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	ordersRepo, err := orders.NewRepository(store, locker)
	if err != nil {
		return routes.Dependencies{}, err
	}
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:    ordersRepo,
		Logger:  logg,
		Metrics: m,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Catalog:  catalogSvc,
		Cart:     cartSvc,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
	}, nil
}
