package lock_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"pnl-engine/internal/lock"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileKey(t *testing.T) {
	assert.Equal(t, "lock:reconcile:acme", lock.ReconcileKey("acme"))
	assert.Equal(t, "lock:reconcile:all", lock.ReconcileKey(""))
}

func TestNewLocker_WithoutRedisIsNoop(t *testing.T) {
	logger, hook := test.NewNullLogger()
	locker, closeFn := lock.NewLocker(context.Background(), "", logger)
	defer closeFn()

	r1, err := locker.Obtain(context.Background(), lock.ReconcileKey("acme"), lock.DefaultTTL)
	require.NoError(t, err)
	r2, err := locker.Obtain(context.Background(), lock.ReconcileKey("acme"), lock.DefaultTTL)
	require.NoError(t, err)
	assert.NoError(t, r1.Release(context.Background()))
	assert.NoError(t, r2.Release(context.Background()))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
}

func TestRedisLocker_UnreachableServer(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	locker := lock.NewRedisLocker(rdb)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := locker.Obtain(ctx, lock.ReconcileKey("acme"), lock.DefaultTTL)
	require.Error(t, err)
	assert.False(t, errors.Is(err, lock.ErrBusy))
	assert.Contains(t, err.Error(), "failed to obtain lock lock:reconcile:acme")
}

func TestRedisLocker_SecondHolderIsBusy(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set, skipping redis test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	locker := lock.NewRedisLocker(rdb)
	ctx := context.Background()
	key := lock.ReconcileKey("lock-test")

	held, err := locker.Obtain(ctx, key, time.Second)
	require.NoError(t, err)

	_, err = locker.Obtain(ctx, key, time.Second)
	assert.ErrorIs(t, err, lock.ErrBusy)

	require.NoError(t, held.Release(ctx))
	again, err := locker.Obtain(ctx, key, time.Second)
	require.NoError(t, err)
	assert.NoError(t, again.Release(ctx))
}
