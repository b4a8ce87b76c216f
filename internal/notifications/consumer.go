package notifications

import (
	"context"
	"fmt"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/logger"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/metrics"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/idempotency"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
)

// ConsumerName scopes idempotency keys for the fan-out.
const ConsumerName = "notification-service"

// Delivery is a transport-neutral inbound message.
type Delivery struct {
	ID         string
	Attributes map[string]string
	Data       []byte
}

// Decision tells the transport whether to acknowledge the delivery.
type Decision int

const (
	Ack Decision = iota
	Nack
)

func (d Decision) String() string {
	if d == Nack {
		return "nack"
	}
	return "ack"
}

type orderPlacedHandler interface {
	HandleOrderPlaced(ctx context.Context, event payloads.OrderPlacedEvent) error
}

// Processor turns one delivery into an ack or nack. Malformed events are
// acknowledged; only retryable handler failures are nacked.
type Processor struct {
	handler     orderPlacedHandler
	idempotency *idempotency.Manager
	metrics     *metrics.FanoutMetrics
	logg        *logger.Logger
}

// NewProcessor builds a processor. manager may be nil to disable duplicate
// suppression.
func NewProcessor(handler orderPlacedHandler, manager *idempotency.Manager, m *metrics.FanoutMetrics, logg *logger.Logger) (*Processor, error) {
	if handler == nil {
		return nil, fmt.Errorf("order placed handler required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Processor{handler: handler, idempotency: manager, metrics: m, logg: logg}, nil
}

func (p *Processor) Process(ctx context.Context, d Delivery) Decision {
	eventType := d.Attributes[outbox.AttrEventType]
	logCtx := p.logg.WithFields(ctx, map[string]any{
		"message_id": d.ID,
		"event_type": eventType,
	})

	if eventType != "" && eventType != string(enums.EventOrderPlaced) {
		p.logg.Debug(logCtx, "skipping non order placed event")
		return Ack
	}

	event, eventID, err := DecodeOrderPlaced(d.Data)
	if err != nil {
		p.logg.Error(logCtx, "failed to decode order placed event, dropping", err)
		p.metrics.Inc(metrics.ResultDroppedInvalid)
		return Ack
	}
	if eventID == "" {
		eventID = d.Attributes[outbox.AttrEventID]
	}
	if eventID != "" {
		logCtx = p.logg.WithEventID(logCtx, eventID)
	}

	dedupe := p.idempotency != nil && eventID != ""
	if dedupe {
		claimed, err := p.idempotency.Claim(ctx, eventID)
		if err != nil {
			p.logg.Error(logCtx, "idempotency check failed", err)
			return Nack
		}
		if !claimed {
			p.logg.Info(logCtx, "event already processed")
			p.metrics.Inc(metrics.ResultDroppedDuplicate)
			return Ack
		}
	}

	if err := p.handler.HandleOrderPlaced(logCtx, event); err != nil {
		p.logg.Warn(p.logg.WithField(logCtx, "error", err.Error()), "order placed handling failed, requesting redelivery")
		if dedupe {
			if delErr := p.idempotency.Release(context.WithoutCancel(ctx), eventID); delErr != nil {
				p.logg.Error(logCtx, "failed to clear idempotency key", delErr)
			}
		}
		return Nack
	}
	return Ack
}
