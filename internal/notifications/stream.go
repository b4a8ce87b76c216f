package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/redis"
)

const defaultHeartbeat = 15 * time.Second

// Streamer relays a vendor's live channel to a long-lived client connection.
type Streamer struct {
	subscriber redis.Subscriber
	prefix     string
	heartbeat  time.Duration
}

func NewStreamer(subscriber redis.Subscriber, prefix string, heartbeat time.Duration) (*Streamer, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("redis subscriber required")
	}
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Streamer{subscriber: subscriber, prefix: prefix, heartbeat: heartbeat}, nil
}

// Stream calls emit with every payload published for vendorID, and with nil on
// each heartbeat, until ctx ends or emit fails.
func (s *Streamer) Stream(ctx context.Context, vendorID int64, emit func(payload []byte) error) error {
	sub, err := s.subscriber.Subscribe(ctx, Channel(s.prefix, vendorID))
	if err != nil {
		return fmt.Errorf("subscribe vendor channel: %w", err)
	}
	defer func() { _ = sub.Close() }()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emit(nil); err != nil {
				return err
			}
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			if err := emit([]byte(msg.Payload)); err != nil {
				return err
			}
		}
	}
}
