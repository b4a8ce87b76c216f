package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/kafka"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/migrate"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/registry"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/pubsub"
)

const serviceName = "outbox-publisher"

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

	cfg.Service.Kind = serviceName

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	closers := []func() error{dbClient.Close}
	shutdown := func() {
		var err error
		for i := len(closers) - 1; i >= 0; i-- {
			err = multierr.Append(err, closers[i]())
		}
		if err != nil {
			logg.Error(context.Background(), "error closing dependencies", err)
		}
	}

	var (
		pub           publisher
		transportPing func(context.Context) error
	)
	if cfg.Eventing.UsesKafka() {
		writer, err := kafka.NewWriter(cfg.Kafka)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap kafka writer", err)
			shutdown()
			os.Exit(1)
		}
		closers = append(closers, writer.Close)
		pub, transportPing = writer, writer.Ping
	} else {
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, nil, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			shutdown()
			os.Exit(1)
		}
		closers = append(closers, pubsubClient.Close)
		pub, transportPing = pubsub.NewTopicPublisher(pubsubClient), pubsubClient.Ping
	}
	defer shutdown()

	eventRegistry, err := registry.NewEventRegistry(cfg.Eventing)
	if err != nil {
		logg.Error(context.Background(), "failed to build event registry", err)
		shutdown()
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Publisher:     pub,
		TransportPing: transportPing,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Metrics:       metrics.NewOutboxMetrics(reg),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		shutdown()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceName,
		"transport":   cfg.Eventing.Transport,
		"topics":      eventRegistry.Topics(),
	})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.App.MetricsPort,
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() { _ = metricsServer.Shutdown(context.Background()) }()

	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		_ = metricsServer.Shutdown(context.Background())
		shutdown()
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}
