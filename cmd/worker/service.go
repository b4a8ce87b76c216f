package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
)

const metricsShutdownTimeout = 5 * time.Second

type pinger interface {
	Ping(context.Context) error
}

// consumer is implemented by notifications.PubSubConsumer and notifications.KafkaConsumer.
type consumer interface {
	Run(ctx context.Context) error
}

type ServiceParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	Redis         pinger
	TransportPing func(context.Context) error
	Consumer      consumer
	// MetricsHandler is served on App.MetricsPort when set.
	MetricsHandler http.Handler
}

type Service struct {
	cfg            *config.Config
	logg           *logger.Logger
	redis          pinger
	transportPing  func(context.Context) error
	consumer       consumer
	metricsHandler http.Handler
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.Consumer == nil {
		return nil, errors.New("notification consumer is required")
	}

	return &Service{
		cfg:            params.Config,
		logg:           params.Logger,
		redis:          params.Redis,
		transportPing:  params.TransportPing,
		consumer:       params.Consumer,
		metricsHandler: params.MetricsHandler,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if s.transportPing != nil {
		if err := pingDependency(ctx, s.logg, s.cfg.Eventing.Transport, s.transportPing); err != nil {
			return err
		}
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

// Run blocks until ctx ends or the consumer stops. A consumer that returns
// while ctx is still live is treated as a failure.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.consumer.Run(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(gctx, "consumer stopped unexpectedly", err)
			return err
		}
		if ctx.Err() == nil {
			return errors.New("consumer stopped before shutdown")
		}
		return nil
	})

	if s.metricsHandler != nil {
		server := &http.Server{
			Addr:    ":" + s.cfg.App.MetricsPort,
			Handler: s.metricsHandler,
		}
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	}
	return err
}
