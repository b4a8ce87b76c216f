package locks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/redis"
	"github.com/google/uuid"
)

const (
	defaultTTL           = 10 * time.Second
	defaultRetryInterval = 25 * time.Millisecond
	defaultWaitTimeout   = 5 * time.Second
)

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker grants exclusive access to a named key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// RedisLocker implements Locker using Redis SETNX + TTL so that replicas of the
// API share one critical section per key.
type RedisLocker struct {
	store         redis.LockStore
	scope         string
	ttl           time.Duration
	retryInterval time.Duration
	waitTimeout   time.Duration
}

// NewRedisLocker constructs a Redis-backed locker for keys under scope.
func NewRedisLocker(store redis.LockStore, scope string, cfg config.LocksConfig) (*RedisLocker, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	if scope == "" {
		return nil, errors.New("lock scope is required")
	}
	l := &RedisLocker{
		store:         store,
		scope:         scope,
		ttl:           cfg.TTL,
		retryInterval: cfg.RetryInterval,
		waitTimeout:   cfg.WaitTimeout,
	}
	if l.ttl <= 0 {
		l.ttl = defaultTTL
	}
	if l.retryInterval <= 0 {
		l.retryInterval = defaultRetryInterval
	}
	if l.waitTimeout <= 0 {
		l.waitTimeout = defaultWaitTimeout
	}
	return l, nil
}

// Lock polls until the key is owned, the wait timeout elapses or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.waitTimeout)
	defer cancel()

	lockKey := l.store.LockKey(l.scope, key)
	owner := uuid.NewString()
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.store.SetNX(waitCtx, lockKey, owner, l.ttl)
		if err != nil && waitCtx.Err() == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire lock")
		}
		if ok {
			return func(ctx context.Context) error {
				if _, err := l.store.DeleteIfValue(context.WithoutCancel(ctx), lockKey, owner); err != nil {
					return fmt.Errorf("release lock %s: %w", lockKey, err)
				}
				return nil
			}, nil
		}

		select {
		case <-waitCtx.Done():
			return nil, lockTimeout(key, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// LocalLocker serializes holders of the same key inside one process.
type LocalLocker struct {
	mu      sync.Mutex
	entries map[string]*localEntry
}

type localEntry struct {
	slot chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{entries: make(map[string]*localEntry)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{slot: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.forget(key, entry)
		return nil, lockTimeout(key, ctx.Err())
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			<-entry.slot
			l.forget(key, entry)
		})
		return nil
	}, nil
}

func (l *LocalLocker) forget(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, key)
	}
}

func lockTimeout(key string, cause error) error {
	return pkgerrors.Wrap(pkgerrors.CodeDependency, cause, fmt.Sprintf("timed out waiting for lock on %s", key))
}
