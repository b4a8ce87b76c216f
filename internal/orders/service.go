package orders

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/internal/cart"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/locks"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const manualTransition = "MANUAL"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns order creation and the payment-driven lifecycle.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	GetOrder(ctx context.Context, orderID int64) (*OrderDTO, error)
	ListOrders(ctx context.Context) ([]OrderDTO, error)
	ApplyPaymentOutcome(ctx context.Context, orderID int64, outcome string) (*OrderDTO, error)
	AdvanceFromPlacedToConfirmed(ctx context.Context, orderID int64) (*OrderDTO, error)
	DeleteOrder(ctx context.Context, orderID int64) error
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo    Repository
	Carts   cart.CartRepository
	Tx      txRunner
	Outbox  outboxPublisher
	Locker  locks.Locker
	Metrics *metrics.LifecycleMetrics
	Logger  *logger.Logger
}

type service struct {
	repo    Repository
	carts   cart.CartRepository
	tx      txRunner
	outbox  outboxPublisher
	locker  locks.Locker
	metrics *metrics.LifecycleMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("order repository required")
	case params.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox publisher required")
	case params.Locker == nil:
		return nil, fmt.Errorf("order locker required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:    params.Repo,
		carts:   params.Carts,
		tx:      params.Tx,
		outbox:  params.Outbox,
		locker:  params.Locker,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// PlaceOrder snapshots the cart into a PLACED order, queues order_placed and
// removes the cart, all in one transaction.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if input.CustomerID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customerId must be positive")
	}
	if input.CartID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cartId must be positive")
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		source, err := carts.FindByID(ctx, input.CartID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.NotFound("cart", input.CartID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(source.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart must contain at least one item")
		}

		items := itemsFromCart(source.Lines)
		subtotal := decimal.Zero
		for _, item := range items {
			subtotal = subtotal.Add(item.ItemTotal)
		}
		now := s.now().UTC()
		order := &models.Order{
			CustomerID:   input.CustomerID,
			RestaurantID: source.RestaurantID,
			Items:        items,
			Subtotal:     subtotal,
			Status:       enums.OrderStatusPlaced,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		order, err = s.repo.WithTx(tx).Create(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   strconv.FormatInt(order.ID, 10),
			Data:          orderPlacedEvent(order),
			OccurredAt:    now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order placed event")
		}

		if err := carts.Delete(ctx, source.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete ordered cart")
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, created.ID)
	ctx = s.logg.WithFields(ctx, map[string]any{"restaurant_id": created.RestaurantID, "cart_id": input.CartID})
	s.logg.Info(ctx, "order placed")
	return FromModel(created), nil
}

// GetOrder returns nil when the order does not exist.
func (s *service) GetOrder(ctx context.Context, orderID int64) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) ListOrders(ctx context.Context) ([]OrderDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

// ApplyPaymentOutcome maps SUCCESS to CONFIRMED and every other outcome to
// CANCELLED. Re-applying an outcome is a no-op; a contradicting outcome on a
// terminal order overwrites it and is logged as an anomaly.
func (s *service) ApplyPaymentOutcome(ctx context.Context, orderID int64, outcome string) (*OrderDTO, error) {
	if strings.TrimSpace(outcome) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment status cannot be null or empty")
	}
	parsed, err := enums.ParsePaymentOutcome(outcome)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"payment status must be one of: "+strings.Join(enums.PaymentOutcomeNames(), ", "))
	}
	return s.transition(ctx, orderID, parsed.TargetStatus(), parsed.String())
}

// AdvanceFromPlacedToConfirmed confirms the order regardless of its current
// status. Kept for operator tooling; integrations use ApplyPaymentOutcome.
func (s *service) AdvanceFromPlacedToConfirmed(ctx context.Context, orderID int64) (*OrderDTO, error) {
	return s.transition(ctx, orderID, enums.OrderStatusConfirmed, manualTransition)
}

func (s *service) transition(ctx context.Context, orderID int64, target enums.OrderStatus, trigger string) (*OrderDTO, error) {
	ctx = s.logg.WithOrderID(ctx, orderID)

	unlock, err := s.locker.Lock(ctx, strconv.FormatInt(orderID, 10))
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lock")
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to release order lock")
		}
	}()

	var (
		order    *models.Order
		previous enums.OrderStatus
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.NotFound("order", orderID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		previous = current.Status
		order = current
		if previous == target {
			return nil
		}

		now := s.now().UTC()
		if err := repo.UpdateStatus(ctx, orderID, target, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update order status")
		}
		order.Status = target
		order.UpdatedAt = now

		event := payloads.OrderStatusChangedEvent{
			OrderID:        orderID,
			PreviousStatus: previous,
			Status:         target,
			ChangedAt:      now,
		}
		if trigger != manualTransition {
			event.Outcome = enums.PaymentOutcome(trigger)
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   strconv.FormatInt(orderID, 10),
			Data:          event,
			OccurredAt:    now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order status event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"trigger":         trigger,
		"previous_status": previous.String(),
		"status":          target.String(),
	})
	switch {
	case previous == target:
		s.logg.Info(ctx, "order status already applied")
	case previous.IsTerminal():
		s.metrics.IncOverwrite()
		s.logg.Warn(ctx, "terminal order status overwritten")
	default:
		s.logg.Info(ctx, "order status updated")
	}
	s.metrics.IncTransition(trigger, target.String())
	return FromModel(order), nil
}

// DeleteOrder removes the order whatever its status.
func (s *service) DeleteOrder(ctx context.Context, orderID int64) error {
	ctx = s.logg.WithOrderID(ctx, orderID)

	var status enums.OrderStatus
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.NotFound("order", orderID)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
		}
		status = order.Status
		if err := repo.Delete(ctx, orderID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete order")
		}
		return nil
	})
	if err != nil {
		return err
	}

	ctx = s.logg.WithField(ctx, "status", status.String())
	if status != enums.OrderStatusPlaced {
		s.logg.Warn(ctx, "deleted order past PLACED")
		return nil
	}
	s.logg.Info(ctx, "order deleted")
	return nil
}
