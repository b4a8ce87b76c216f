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
	"golang.org/x/sync/errgroup"

	"github.com/PrathameshGBhat/foodapp-Backend/api/routes"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/cart"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/menu"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/notifications"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/orders"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/restaurants"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/locks"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/migrate"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/redis"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/upstream"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
	orderLockScope  = "order"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	var closers []func() error
	shutdown := func() {
		var err error
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
		if err != nil {
			logg.Error(context.Background(), "error closing dependencies", err)
		}
	}
	fail := func(msg string, err error) {
		logg.Error(context.Background(), msg, err)
		shutdown()
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		fail("failed to bootstrap database", err)
	}
	closers = append(closers, dbClient.Close)

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		fail("failed to run dev migrations", err)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		fail("failed to bootstrap redis", err)
	}
	closers = append(closers, redisClient.Close)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	upstreamMetrics := metrics.NewUpstreamMetrics(reg)

	menuClient, err := menu.NewClient(cfg.Upstreams, upstream.WithMetrics(upstreamMetrics))
	if err != nil {
		fail("failed to create menu client", err)
	}
	restaurantClient, err := restaurants.NewClient(cfg.Upstreams, upstream.WithMetrics(upstreamMetrics))
	if err != nil {
		fail("failed to create restaurant client", err)
	}

	cartRepo := cart.NewRepository(dbClient.DB())
	cartService, err := cart.NewService(cartRepo, dbClient, menuClient, logg)
	if err != nil {
		fail("failed to create cart service", err)
	}

	orderLocker, err := locks.NewRedisLocker(redisClient, orderLockScope, cfg.Locks)
	if err != nil {
		fail("failed to create order locker", err)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		Repo:    orders.NewRepository(dbClient.DB()),
		Carts:   cartRepo,
		Tx:      dbClient,
		Outbox:  outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		Locker:  orderLocker,
		Metrics: metrics.NewLifecycleMetrics(reg),
		Logger:  logg,
	})
	if err != nil {
		fail("failed to create orders service", err)
	}

	notifier, err := notifications.NewRedisNotifier(redisClient, cfg.Notifications.ChannelPrefix)
	if err != nil {
		fail("failed to create vendor notifier", err)
	}
	fanout, err := notifications.NewService(notifications.ServiceParams{
		Restaurants:   restaurantClient,
		Notifier:      notifier,
		Metrics:       metrics.NewFanoutMetrics(reg),
		Logger:        logg,
		LookupTimeout: cfg.Notifications.LookupTimeout,
		PushTimeout:   cfg.Notifications.PushTimeout,
	})
	if err != nil {
		fail("failed to create notification service", err)
	}
	streamer, err := notifications.NewStreamer(redisClient, cfg.Notifications.ChannelPrefix, 0)
	if err != nil {
		fail("failed to create notification streamer", err)
	}
	defer shutdown()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, reg, cartService, ordersService, fanout, streamer),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		stop()
		fail("api server stopped unexpectedly", err)
	}

	logg.Info(ctx, "api server shut down gracefully")
}
