package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/redis"
)

// Manager suppresses redelivered events for one consumer. A claim is a Redis
// SETNX on foodapp:idempotency:evt:<consumer>:<event_id> that expires after ttl.
type Manager struct {
	store    redis.IdempotencyStore
	consumer string
	ttl      time.Duration
}

func NewManager(store redis.IdempotencyStore, consumer string, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	consumer = strings.TrimSpace(consumer)
	if consumer == "" {
		return nil, errors.New("consumer name is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, consumer: consumer, ttl: ttl}, nil
}

// Claim reports whether this delivery is the first for eventID. A false result
// means another delivery already claimed it and the caller should skip work.
func (m *Manager) Claim(ctx context.Context, eventID string) (bool, error) {
	key, err := m.key(eventID)
	if err != nil {
		return false, err
	}
	claimed, err := m.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), m.ttl)
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	return claimed, nil
}

// Release drops the claim so the next redelivery is processed.
func (m *Manager) Release(ctx context.Context, eventID string) error {
	key, err := m.key(eventID)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, key)
}

func (m *Manager) key(eventID string) (string, error) {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return "", errors.New("event id is required")
	}
	return m.store.IdempotencyKey("evt:"+m.consumer, eventID), nil
}
