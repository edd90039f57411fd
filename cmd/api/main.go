package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/cron"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payment"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
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
		logg.Error(context.Background(), "api stopped with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return fmt.Errorf("bootstrap redis: %w", err)
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Warn(ctx, "redis not configured; idempotency and payment rate limits disabled")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storefrontMetrics := metrics.NewStorefrontMetrics(reg)

	var (
		slots     cart.SlotStorage
		gormSlots *cart.GormSlotStorage
	)
	if redisClient != nil && cfg.FeatureFlags.RedisCartStorage {
		redisSlots, err := cart.NewRedisSlotStorage(redisClient, cfg.Cart.SlotTTL)
		if err != nil {
			return fmt.Errorf("redis cart storage: %w", err)
		}
		slots = redisSlots
	} else {
		gormSlots = cart.NewGormSlotStorage(dbClient.DB())
		slots = gormSlots
	}

	carts, err := cart.NewManager(slots, cfg.Cart, logg, storefrontMetrics)
	if err != nil {
		return fmt.Errorf("cart manager: %w", err)
	}
	engine, err := pricing.NewEngineFromConfig(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("pricing engine: %w", err)
	}
	simulator, err := payment.NewSimulatorFromConfig(cfg.Payment)
	if err != nil {
		return fmt.Errorf("payment simulator: %w", err)
	}
	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return fmt.Errorf("orders service: %w", err)
	}
	checkoutSessions, err := checkout.NewRegistry(checkout.Dependencies{
		Carts: checkout.CartProviderFunc(func(ctx context.Context, sessionID string) (checkout.CartStore, error) {
			return carts.Get(ctx, sessionID)
		}),
		Payments: simulator,
		Orders:   ordersService,
		Policy:   engine.Checkout(),
		Logger:   logg,
		Metrics:  storefrontMetrics,
	}, cfg.Checkout.SessionTTL)
	if err != nil {
		return fmt.Errorf("checkout registry: %w", err)
	}
	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		return fmt.Errorf("catalog service: %w", err)
	}
	wishlistService, err := wishlist.NewService(wishlist.ServiceParams{
		Backend: wishlist.NewRepository(dbClient.DB()),
		Catalog: catalogService,
		Logger:  logg,
	})
	if err != nil {
		return fmt.Errorf("wishlist service: %w", err)
	}

	janitor, err := buildJanitor(cfg, logg, storefrontMetrics, redisClient, checkoutSessions, carts, gormSlots)
	if err != nil {
		return fmt.Errorf("janitor: %w", err)
	}
	go func() {
		if err := janitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "janitor stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			carts,
			catalogService,
			engine,
			checkoutSessions,
			wishlistService,
			ordersService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// buildJanitor registers the housekeeping jobs. Table retention only applies
// when slots live in the database, and runs on one instance at a time when
// redis is available to hold the lock.
func buildJanitor(
	cfg *config.Config,
	logg *logger.Logger,
	recorder *metrics.StorefrontMetrics,
	redisClient *redis.Client,
	sessions *checkout.Registry,
	carts *cart.Manager,
	gormSlots *cart.GormSlotStorage,
) (*cron.Service, error) {
	sweep, err := cron.NewCheckoutSweepJob(logg, sessions)
	if err != nil {
		return nil, err
	}
	eviction, err := cron.NewCartEvictionJob(logg, carts, cfg.Cart.IdleEviction)
	if err != nil {
		return nil, err
	}
	registry, err := cron.NewRegistry(sweep, eviction)
	if err != nil {
		return nil, err
	}

	if gormSlots != nil {
		retention, err := cron.NewCartSlotRetentionJob(logg, gormSlots, cfg.Cart.SlotTTL)
		if err != nil {
			return nil, err
		}
		if retention != nil && redisClient != nil {
			lock, err := cron.NewJobLock(redisClient, cfg.App.Env, retention, cfg.Checkout.SweepInterval)
			if err != nil {
				return nil, err
			}
			retention = cron.Exclusive(retention, lock)
		}
		if err := registry.Register(retention); err != nil {
			return nil, err
		}
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Metrics:  recorder,
		Interval: cfg.Checkout.SweepInterval,
	})
}
