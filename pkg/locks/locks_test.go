package locks

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/config"
	pkgerrors "github.com/PrathameshGBhat/foodapp-Backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{data: make(map[string]string)}
}

func (f *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) DeleteIfValue(_ context.Context, key, value string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.data[key] != value {
		return false, nil
	}
	delete(f.data, key)
	return true, nil
}

func (f *fakeLockStore) LockKey(scope, id string) string {
	return "foodapp:lock:" + scope + ":" + id
}

func TestRedisLockerExcludesConcurrentHolders(t *testing.T) {
	store := newFakeLockStore()
	locker, err := NewRedisLocker(store, "order", config.LocksConfig{RetryInterval: time.Millisecond, WaitTimeout: 2 * time.Second})
	require.NoError(t, err)

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "23")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, unlock(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, store.data)
}

func TestRedisLockerTimesOut(t *testing.T) {
	store := newFakeLockStore()
	locker, err := NewRedisLocker(store, "order", config.LocksConfig{RetryInterval: time.Millisecond, WaitTimeout: 20 * time.Millisecond})
	require.NoError(t, err)

	unlock, err := locker.Lock(context.Background(), "23")
	require.NoError(t, err)
	defer unlock(context.Background())

	_, err = locker.Lock(context.Background(), "23")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestNewRedisLockerValidates(t *testing.T) {
	_, err := NewRedisLocker(nil, "order", config.LocksConfig{})
	assert.Error(t, err)
	_, err = NewRedisLocker(newFakeLockStore(), "", config.LocksConfig{})
	assert.Error(t, err)
}

func TestLocalLockerSerializesSameKey(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "23")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "23")
	require.Error(t, err)

	other, err := locker.Lock(context.Background(), "24")
	require.NoError(t, err)
	require.NoError(t, other(context.Background()))

	require.NoError(t, unlock(context.Background()))
	require.NoError(t, unlock(context.Background()))

	again, err := locker.Lock(context.Background(), "23")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
	assert.Empty(t, locker.entries)
}
