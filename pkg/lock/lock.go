// Package lock provides Redis backed mutual exclusion shared by the API and the cron worker.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/mealtime-backend/pkg/instance"
)

const defaultTTL = 30 * time.Second

// Lock coordinates exclusive access to a single key.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Store defines the Redis operations used by RedisLock.
type Store interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock using Redis SETNX + TTL.
type RedisLock struct {
	client Store
	key    string
	ttl    time.Duration
	owner  string
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client Store, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Key returns the Redis key guarded by the lock.
func (l *RedisLock) Key() string {
	return l.key
}

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := instance.Owner(uuid.NewString())
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.owner = ""
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		l.owner = ""
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

// Locker hands out locks for arbitrary keys.
type Locker interface {
	Lock(key string, ttl time.Duration) (Lock, error)
}

type keyer interface {
	LockKey(parts ...string) string
}

// RedisLocker builds namespaced RedisLocks on a shared client.
type RedisLocker struct {
	client Store
	keys   keyer
}

// NewRedisLocker returns a Locker whose keys are namespaced by the client when it
// knows how to build lock keys.
func NewRedisLocker(client Store) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for locker")
	}
	locker := &RedisLocker{client: client}
	if k, ok := client.(keyer); ok {
		locker.keys = k
	}
	return locker, nil
}

func (r *RedisLocker) Lock(key string, ttl time.Duration) (Lock, error) {
	if r.keys != nil {
		key = r.keys.LockKey(key)
	}
	return NewRedisLock(r.client, key, ttl)
}
