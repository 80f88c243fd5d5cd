package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned when another holder owns the lock.
var ErrBusy = errors.New("lock is held by another process")

// DefaultTTL bounds how long a crashed holder can block others.
const DefaultTTL = 30 * time.Second

// Releaser releases an obtained lock.
type Releaser interface {
	Release(ctx context.Context) error
}

// Locker obtains named, expiring locks.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error)
}

// NewLocker returns a Redis-backed locker when addr is set, otherwise a no-op locker.
// A Redis server that cannot be reached at startup also yields the no-op locker.
func NewLocker(ctx context.Context, addr string, logger logrus.FieldLogger) (Locker, func() error) {
	if addr == "" {
		logger.Info("REDIS_ADDRESS not set; reconciliation locks are process-local no-ops")
		return NoopLocker{}, func() error { return nil }
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithFields(logrus.Fields{"addr": addr}).Warn("redis unreachable; proceeding without redis lock: " + err.Error())
		_ = rdb.Close()
		return NoopLocker{}, func() error { return nil }
	}
	return NewRedisLocker(rdb), rdb.Close
}

// RedisLocker wraps redislock.
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker builds a RedisLocker around an existing client.
func NewRedisLocker(rdb redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Releaser, error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%s: %w", key, ErrBusy)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}
	return lk, nil
}

// NoopLocker always succeeds.
type NoopLocker struct{}

func (NoopLocker) Obtain(context.Context, string, time.Duration) (Releaser, error) {
	return noopRelease{}, nil
}

type noopRelease struct{}

func (noopRelease) Release(context.Context) error { return nil }

// ReconcileKey is the lock name guarding a reconciliation pass for one brand.
func ReconcileKey(brand string) string {
	if brand == "" {
		brand = "all"
	}
	return "lock:reconcile:" + brand
}
