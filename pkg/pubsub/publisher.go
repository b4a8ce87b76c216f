package pubsub

import (
	"context"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
)

// TopicPublisher sends outbox messages through the client's cached publishers.
type TopicPublisher struct {
	client *Client
}

func NewTopicPublisher(client *Client) *TopicPublisher {
	return &TopicPublisher{client: client}
}

// Publish blocks until the server acknowledges msg or ctx ends.
func (p *TopicPublisher) Publish(ctx context.Context, msg outbox.Message) error {
	pub := p.client.Publisher(msg.Topic)
	if pub == nil {
		return fmt.Errorf("publisher not configured for topic %s", msg.Topic)
	}
	result := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Data,
		Attributes:  msg.Attributes,
		OrderingKey: msg.Key,
	})
	if _, err := result.Get(ctx); err != nil {
		if msg.Key != "" {
			pub.ResumePublish(msg.Key)
		}
		return fmt.Errorf("publish to %s: %w", msg.Topic, err)
	}
	return nil
}
