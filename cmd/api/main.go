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
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/crownleather-backend/api/routes"
	"github.com/angelmondragon/crownleather-backend/internal/cart"
	"github.com/angelmondragon/crownleather-backend/internal/catalog"
	"github.com/angelmondragon/crownleather-backend/internal/checkout"
	"github.com/angelmondragon/crownleather-backend/internal/identity"
	"github.com/angelmondragon/crownleather-backend/internal/orders"
	"github.com/angelmondragon/crownleather-backend/internal/payments"
	"github.com/angelmondragon/crownleather-backend/pkg/auth/session"
	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/db"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/metrics"
	"github.com/angelmondragon/crownleather-backend/pkg/migrate"
	"github.com/angelmondragon/crownleather-backend/pkg/outbox"
	"github.com/angelmondragon/crownleather-backend/pkg/redis"
	"github.com/angelmondragon/crownleather-backend/pkg/security"
	"github.com/angelmondragon/crownleather-backend/pkg/square"
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

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	if err := catalog.SeedStorefront(ctx, catalogRepo, logg); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	identities := identity.NewGormStore(dbClient.DB())
	hasher := security.NewHasher(cfg.Password)
	if err := identity.EnsureAdmin(ctx, identities, hasher, cfg.Admin, logg); err != nil {
		return err
	}
	gate, err := identity.NewGate(identity.GateParams{
		Store:     identities,
		Hasher:    hasher,
		Sessions:  sessions,
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	if err != nil {
		return err
	}

	catalogSvc, err := catalog.NewService(catalogRepo, dbClient, logg)
	if err != nil {
		return err
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		return err
	}
	cartSvc, err := cart.NewService(cartStore, catalogSvc, logg)
	if err != nil {
		return err
	}

	gateway, err := newGateway(ctx, cfg, logg)
	if err != nil {
		return err
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repo:   orders.NewRepository(dbClient.DB()),
		Tx:     dbClient,
		Outbox: outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Config: cfg.Orders,
		Logger: logg,
	})
	if err != nil {
		return err
	}

	var guard checkout.Guard = checkout.NewMemoryGuard()
	if cfg.Checkout.LockBackend == config.LockBackendRedis {
		if guard, err = checkout.NewRedisGuard(redisClient, cfg.Checkout.LockTTL()); err != nil {
			return err
		}
	}

	orchestrator, err := checkout.NewOrchestrator(checkout.Params{
		Carts:   cartSvc,
		Orders:  ordersSvc,
		Gateway: gateway,
		Tx:      dbClient,
		Guard:   guard,
		Metrics: metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
		Config:  cfg.Checkout,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Sessions: sessions,
			Gate:     gate,
			Catalog:  catalogSvc,
			Cart:     cartSvc,
			Checkout: orchestrator,
			Orders:   ordersSvc,
		}),
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":              cfg.App.Env,
		"addr":             addr,
		"payments":         cfg.Payments.Provider,
		"checkout_lock":    cfg.Checkout.LockBackend,
		"strict_lifecycle": cfg.Orders.StrictTransitions,
	})
	logg.Info(logCtx, "starting api server")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logg.Info(logCtx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newGateway(ctx context.Context, cfg *config.Config, logg *logger.Logger) (payments.Gateway, error) {
	if cfg.Payments.Provider != config.PaymentsProviderSquare {
		return payments.NewSimulatedGateway(cfg.Payments.SimulatedDelay, cfg.Payments.SimulatedSuccessRate, nil), nil
	}
	client, err := square.NewClient(ctx, cfg.Square, logg)
	if err != nil {
		return nil, err
	}
	return payments.NewSquareGateway(client)
}
