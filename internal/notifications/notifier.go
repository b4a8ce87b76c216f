package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/redis"
)

const defaultChannelPrefix = "foodapp:vendor"

// VendorNotifier delivers a notification to the vendor's live audience.
type VendorNotifier interface {
	Notify(ctx context.Context, notification VendorNotification) error
}

// Channel names the live channel of one vendor.
func Channel(prefix string, vendorID int64) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultChannelPrefix
	}
	return fmt.Sprintf("%s:%d", prefix, vendorID)
}

// RedisNotifier publishes notifications with Redis PUBLISH. Vendors that are
// not subscribed simply miss the update.
type RedisNotifier struct {
	publisher redis.Publisher
	prefix    string
}

func NewRedisNotifier(publisher redis.Publisher, prefix string) (*RedisNotifier, error) {
	if publisher == nil {
		return nil, fmt.Errorf("redis publisher required")
	}
	return &RedisNotifier{publisher: publisher, prefix: prefix}, nil
}

func (n *RedisNotifier) Notify(ctx context.Context, notification VendorNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("encode vendor notification: %w", err)
	}
	if _, err := n.publisher.Publish(ctx, Channel(n.prefix, notification.DestinationVendorID), payload); err != nil {
		return err
	}
	return nil
}
