package notifications

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
)

// PubSubConsumer feeds Pub/Sub deliveries through the processor.
type PubSubConsumer struct {
	subscription *pubsub.Subscriber
	processor    *Processor
}

func NewPubSubConsumer(subscription *pubsub.Subscriber, processor *Processor) (*PubSubConsumer, error) {
	if subscription == nil {
		return nil, fmt.Errorf("notification subscription required")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor required")
	}
	return &PubSubConsumer{subscription: subscription, processor: processor}, nil
}

// Run receives until ctx is canceled.
func (c *PubSubConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		decision := c.processor.Process(ctx, Delivery{
			ID:         msg.ID,
			Attributes: msg.Attributes,
			Data:       msg.Data,
		})
		if decision == Nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
