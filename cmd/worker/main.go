package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/notifications"
	"github.com/PrathameshGBhat/foodapp-Backend/internal/restaurants"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/kafka"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/idempotency"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/pubsub"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/redis"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/upstream"
)

const serviceName = "worker"

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	fanoutMetrics := metrics.NewFanoutMetrics(reg)

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		fail("failed to bootstrap redis", err)
	}
	closers = append(closers, redisClient.Close)

	restaurantClient, err := restaurants.NewClient(cfg.Upstreams, upstream.WithMetrics(metrics.NewUpstreamMetrics(reg)))
	if err != nil {
		fail("failed to create restaurant client", err)
	}

	notifier, err := notifications.NewRedisNotifier(redisClient, cfg.Notifications.ChannelPrefix)
	if err != nil {
		fail("failed to create vendor notifier", err)
	}

	fanout, err := notifications.NewService(notifications.ServiceParams{
		Restaurants:   restaurantClient,
		Notifier:      notifier,
		Metrics:       fanoutMetrics,
		Logger:        logg,
		LookupTimeout: cfg.Notifications.LookupTimeout,
		PushTimeout:   cfg.Notifications.PushTimeout,
	})
	if err != nil {
		fail("failed to create notification service", err)
	}

	var dedupe *idempotency.Manager
	if cfg.FeatureFlags.IdempotentFanout {
		dedupe, err = idempotency.NewManager(redisClient, notifications.ConsumerName, cfg.Eventing.IdempotencyTTL)
		if err != nil {
			fail("failed to create idempotency manager", err)
		}
	}

	processor, err := notifications.NewProcessor(fanout, dedupe, fanoutMetrics, logg)
	if err != nil {
		fail("failed to create notification processor", err)
	}

	var (
		runner        consumer
		transportPing func(context.Context) error
	)
	if cfg.Eventing.UsesKafka() {
		reader, err := kafka.NewReader(cfg.Kafka, cfg.Eventing.OrderPlacedTopic, cfg.Eventing.ConsumerGroup)
		if err != nil {
			fail("failed to create kafka reader", err)
		}
		closers = append(closers, reader.Close)
		kc, err := notifications.NewKafkaConsumer(reader, processor, fanoutMetrics, logg, cfg.Eventing.MaxRedeliveries)
		if err != nil {
			fail("failed to create kafka consumer", err)
		}
		brokers := cfg.Kafka.Brokers
		runner = kc
		transportPing = func(ctx context.Context) error { return kafka.Ping(ctx, brokers) }
	} else {
		subscription := cfg.PubSub.NotificationSubscription
		pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, []string{subscription}, logg)
		if err != nil {
			fail("failed to bootstrap pubsub", err)
		}
		closers = append(closers, pubsubClient.Close)
		pc, err := notifications.NewPubSubConsumer(pubsubClient.Subscription(subscription), processor)
		if err != nil {
			fail("failed to create pubsub consumer", err)
		}
		runner = pc
		transportPing = pubsubClient.Ping
	}
	defer shutdown()

	service, err := NewService(ServiceParams{
		Config:         cfg,
		Logger:         logg,
		Redis:          redisClient,
		TransportPing:  transportPing,
		Consumer:       runner,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	if err != nil {
		fail("failed to create worker service", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": serviceName,
		"transport":   cfg.Eventing.Transport,
		"consumer":    notifications.ConsumerName,
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		stop()
		fail("worker stopped unexpectedly", err)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
