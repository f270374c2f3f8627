package locks

import (
	"context"
	"errors"
	"time"

	"likeness.io/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrLockNotAcquired is returned when a lock cannot be acquired
	ErrLockNotAcquired = errors.New("lock not acquired")
	// ErrLockNotHeld is returned when trying to release a lock not held
	ErrLockNotHeld = errors.New("lock not held")
)

// Locker provides short-lived mutual exclusion keyed on a string. The
// registration pipeline keys it on an embedding-space bucket so only
// commits in the same region contend.
type Locker interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration, timeout time.Duration) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

type RedisLocker struct {
	Client    *redis.Client
	KeyPrefix string
}

func NewRedisLocker(client *redis.Client, keyPrefix string) *RedisLocker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &RedisLocker{Client: client, KeyPrefix: keyPrefix}
}

type redisLock struct {
	client *redis.Client
	key    string
	value  string
}

func (l *RedisLocker) acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lockKey := l.KeyPrefix + key
	lockValue := uuid.New().String()

	ok, err := l.Client.SetNX(ctx, lockKey, lockValue, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &redisLock{client: l.Client, key: lockKey, value: lockValue}, nil
}

// TryAcquire attempts to acquire a lock, retrying with backoff until timeout.
func (l *RedisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration, timeout time.Duration) (Lock, error) {
	deadline := time.Now().Add(timeout)
	backoff := 10 * time.Millisecond

	for time.Now().Before(deadline) {
		lock, err := l.acquire(ctx, key, ttl)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, ErrLockNotAcquired) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = backoff * 2
			if backoff > 500*time.Millisecond {
				backoff = 500 * time.Millisecond
			}
		}
	}

	return nil, ErrLockNotAcquired
}

// Release deletes the lock only if this holder still owns it.
func (lock *redisLock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)

	result, err := script.Run(ctx, lock.client, []string{lock.key}, lock.value).Int64()
	if err != nil {
		return err
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	logger.Info("released registration lock", logger.LoggerOptions{Key: "key", Data: lock.key})
	return nil
}
