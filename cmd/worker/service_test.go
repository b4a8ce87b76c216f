package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
)

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeConsumer struct {
	run func(ctx context.Context) error
}

func (f *fakeConsumer) Run(ctx context.Context) error { return f.run(ctx) }

func newTestService(t *testing.T, redisErr error, c consumer) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:   &config.Config{Eventing: config.EventingConfig{Transport: config.TransportPubSub}},
		Logger:   logger.New(logger.Options{ServiceName: "worker-test", Output: io.Discard}),
		Redis:    fakePinger{err: redisErr},
		Consumer: c,
	})
	require.NoError(t, err)
	return svc
}

func TestRunFailsFastWhenRedisUnavailable(t *testing.T) {
	called := false
	svc := newTestService(t, errors.New("connection refused"), &fakeConsumer{run: func(context.Context) error {
		called = true
		return nil
	}})

	err := svc.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
	assert.False(t, called)
}

func TestRunReturnsConsumerError(t *testing.T) {
	svc := newTestService(t, nil, &fakeConsumer{run: func(context.Context) error {
		return errors.New("subscription deleted")
	}})

	err := svc.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscription deleted")
}

func TestRunTreatsEarlyConsumerExitAsFailure(t *testing.T) {
	svc := newTestService(t, nil, &fakeConsumer{run: func(context.Context) error { return nil }})

	err := svc.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer stopped before shutdown")
}

func TestRunStopsOnCancel(t *testing.T) {
	svc := newTestService(t, nil, &fakeConsumer{run: func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := svc.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Config: &config.Config{},
		Logger: logger.New(logger.Options{Output: io.Discard}),
		Redis:  fakePinger{},
	})
	require.Error(t, err)
}
