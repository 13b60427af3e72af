package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bucketcart/storefront-gateway/api/controllers"
	"github.com/bucketcart/storefront-gateway/api/routes"
	"github.com/bucketcart/storefront-gateway/internal/addresses"
	"github.com/bucketcart/storefront-gateway/internal/auth"
	cartsvc "github.com/bucketcart/storefront-gateway/internal/cart"
	"github.com/bucketcart/storefront-gateway/internal/catalog"
	checkoutsvc "github.com/bucketcart/storefront-gateway/internal/checkout"
	"github.com/bucketcart/storefront-gateway/internal/coupons"
	"github.com/bucketcart/storefront-gateway/internal/favorites"
	"github.com/bucketcart/storefront-gateway/internal/jobs"
	"github.com/bucketcart/storefront-gateway/internal/notifications"
	"github.com/bucketcart/storefront-gateway/internal/orders"
	"github.com/bucketcart/storefront-gateway/internal/pricing"
	"github.com/bucketcart/storefront-gateway/pkg/auth/session"
	"github.com/bucketcart/storefront-gateway/pkg/backend"
	"github.com/bucketcart/storefront-gateway/pkg/config"
	"github.com/bucketcart/storefront-gateway/pkg/localstate"
	"github.com/bucketcart/storefront-gateway/pkg/logger"
	"github.com/bucketcart/storefront-gateway/pkg/metrics"
	"github.com/bucketcart/storefront-gateway/pkg/redis"
	"github.com/bucketcart/storefront-gateway/pkg/square"
)

const (
	lockKeyFormat   = "bc:gateway:maintenance:%s"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	state, err := localstate.Open(cfg.State)
	if err != nil {
		logg.Error(context.Background(), "failed to open state store", err)
		os.Exit(1)
	}
	defer func() {
		if err := state.Close(); err != nil {
			logg.Error(context.Background(), "error closing state store", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	backendClient, err := backend.New(cfg.Backend, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build backend client", err)
		os.Exit(1)
	}

	var squareClient *square.Client
	if cfg.Square.Enabled() {
		squareClient, err = square.NewClient(context.Background(), cfg.Square, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to build square client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "square not configured, hosted checkout disabled")
	}

	sessions, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	calc, err := pricing.NewCalculator(cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing calculator", err)
		os.Exit(1)
	}

	notifier := notifications.NewService(logg)

	cartService, err := cartsvc.NewService(state, calc)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(backendClient, notifier)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	estimator, err := orders.NewEstimator(state, cfg.Orders.ProgressWindow)
	if err != nil {
		logg.Error(context.Background(), "failed to create progress estimator", err)
		os.Exit(1)
	}

	orderService, err := orders.NewService(backendClient, estimator, notifier, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(backendClient, sessions, cfg.JWT, cfg.Backend.LoginTimeout, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	favoriteService, err := favorites.NewService(state)
	if err != nil {
		logg.Error(context.Background(), "failed to create favorites service", err)
		os.Exit(1)
	}

	addressService, err := addresses.NewService(backendClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create address service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(backendClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	checkoutParams := checkoutsvc.Params{
		Orders:        backendClient,
		Carts:         cartService,
		Coupons:       couponService,
		Calculator:    calc,
		Notifier:      notifier,
		ReturnURLBase: cfg.Square.ReturnURLBase,
		Logger:        logg,
	}
	if squareClient != nil {
		checkoutParams.Payments = squareClient
	}
	checkoutService, err := checkoutsvc.NewService(checkoutParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var feed *orders.Poller
	if cfg.Backend.ServiceToken != "" {
		poller, err := orders.NewPoller(orders.PollerOptions{
			Lister:       backendClient,
			ServiceToken: cfg.Backend.ServiceToken,
			Interval:     cfg.Orders.PollInterval,
			Notifier:     notifier,
			Metrics:      metrics.NewPollerMetrics(registry),
			Logger:       logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create order poller", err)
			os.Exit(1)
		}
		poller.Start(ctx)
		defer poller.Stop()
		feed = poller
	} else {
		logg.Warn(ctx, "no backend service token, order feed disabled")
	}

	lock, err := jobs.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(ctx, "failed to create maintenance lock", err)
		os.Exit(1)
	}

	cleanupJob, err := jobs.NewProgressCleanupJob(logg, estimator, cfg.Orders.ProgressRetention)
	if err != nil {
		logg.Error(ctx, "failed to create progress cleanup job", err)
		os.Exit(1)
	}

	maintenance, err := jobs.NewService(jobs.ServiceParams{
		Logger:   logg,
		Registry: jobs.NewRegistry(cleanupJob),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(registry),
		Interval: cfg.Orders.CleanupInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create maintenance service", err)
		os.Exit(1)
	}
	go func() {
		if err := maintenance.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "maintenance service stopped unexpectedly", err)
		}
	}()

	deps := routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Redis:         redisClient,
		Backend:       backendClient,
		Sessions:      sessions,
		Gatherer:      registry,
		Auth:          authService,
		Cart:          cartService,
		Catalog:       catalogService,
		Coupons:       couponService,
		Checkout:      checkoutService,
		Orders:        orderService,
		Favorites:     favoriteService,
		Addresses:     addressService,
		Notifications: notifier,
		ReadyChecks: map[string]controllers.Pinger{
			"state": state,
			"redis": redisClient,
		},
	}
	// Leave Feed as a nil interface when the poller is disabled.
	if feed != nil {
		deps.Feed = feed
	}
	handler := routes.NewRouter(deps)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting storefront gateway")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(runCtx, "gateway shutting down gracefully")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "gateway stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
