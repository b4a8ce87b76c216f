package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/restaurants"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
)

const (
	defaultLookupTimeout = 3 * time.Second
	defaultPushTimeout   = 2 * time.Second
)

// ServiceParams wires the fan-out handler.
type ServiceParams struct {
	Restaurants   restaurants.Lookup
	Notifier      VendorNotifier
	Metrics       *metrics.FanoutMetrics
	Logger        *logger.Logger
	LookupTimeout time.Duration
	PushTimeout   time.Duration
}

// Service enriches order-placed events with vendor ownership and pushes them
// to the vendor channel. It keeps no per-event state, so it is safe to call
// concurrently.
type Service struct {
	restaurants   restaurants.Lookup
	notifier      VendorNotifier
	metrics       *metrics.FanoutMetrics
	logg          *logger.Logger
	lookupTimeout time.Duration
	pushTimeout   time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Restaurants == nil:
		return nil, fmt.Errorf("restaurant lookup required")
	case params.Notifier == nil:
		return nil, fmt.Errorf("vendor notifier required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	svc := &Service{
		restaurants:   params.Restaurants,
		notifier:      params.Notifier,
		metrics:       params.Metrics,
		logg:          params.Logger,
		lookupTimeout: params.LookupTimeout,
		pushTimeout:   params.PushTimeout,
	}
	if svc.lookupTimeout <= 0 {
		svc.lookupTimeout = defaultLookupTimeout
	}
	if svc.pushTimeout <= 0 {
		svc.pushTimeout = defaultPushTimeout
	}
	return svc, nil
}

// HandleOrderPlaced returns nil when the event should be acknowledged,
// including events it drops, and a retryable error when redelivery may help.
func (s *Service) HandleOrderPlaced(ctx context.Context, event payloads.OrderPlacedEvent) error {
	start := time.Now()
	ctx = s.logg.WithOrderID(ctx, event.OrderID)

	if event.RestaurantID == nil || *event.RestaurantID <= 0 {
		s.logg.Warn(ctx, "order placed event missing restaurantId, dropping")
		s.metrics.Observe(metrics.ResultDroppedInvalid, time.Since(start))
		return nil
	}
	restaurantID := *event.RestaurantID
	ctx = s.logg.WithField(ctx, "restaurant_id", restaurantID)

	lookupCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	restaurant, err := s.restaurants.GetRestaurant(lookupCtx, restaurantID)
	cancel()
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || !pkgerrors.Retryable(err) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "restaurant not resolvable, dropping")
			s.metrics.Observe(metrics.ResultDroppedNoVendor, time.Since(start))
			return nil
		}
		s.metrics.Observe(metrics.ResultRetry, time.Since(start))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restaurant lookup failed")
	}
	if restaurant == nil || restaurant.VendorID == nil || *restaurant.VendorID <= 0 {
		s.logg.Warn(ctx, "restaurant has no vendor, dropping")
		s.metrics.Observe(metrics.ResultDroppedNoVendor, time.Since(start))
		return nil
	}

	vendorID := *restaurant.VendorID
	ctx = s.logg.WithVendorID(ctx, vendorID)
	notification := buildNotification(vendorID, restaurantID, event)

	pushCtx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	err = s.notifier.Notify(pushCtx, notification)
	timedOut := pushCtx.Err() != nil
	cancel()
	if err != nil {
		if timedOut || errors.Is(err, context.DeadlineExceeded) {
			s.metrics.Observe(metrics.ResultRetry, time.Since(start))
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "vendor push timed out")
		}
		s.logg.Error(ctx, "vendor push failed", err)
		s.metrics.Observe(metrics.ResultPushFailed, time.Since(start))
		return nil
	}

	s.logg.Info(s.logg.WithField(ctx, "item_count", notification.ItemCount), "vendor notified of new order")
	s.metrics.Observe(metrics.ResultPushed, time.Since(start))
	return nil
}
