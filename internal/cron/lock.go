package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockKeyFormat = "sf:janitor:%s:%s"
	minLockTTL    = 30 * time.Second
	maxLockTTL    = 10 * time.Minute
)

// Lock coordinates jobs that must run on one instance at a time.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// JobLockKey scopes a janitor lock to one environment and one job, so staging
// and production sharing a redis never block each other.
func JobLockKey(env, job string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" {
		env = "default"
	}
	return fmt.Sprintf(lockKeyFormat, env, job)
}

// JobLockTTL holds the lock for two janitor ticks, bounded to [30s, 10m]. A
// crashed owner then blocks the other instances for at most one missed tick.
func JobLockTTL(interval time.Duration) time.Duration {
	ttl := 2 * interval
	if ttl < minLockTTL {
		return minLockTTL
	}
	if ttl > maxLockTTL {
		return maxLockTTL
	}
	return ttl
}

// RedisLock is a SETNX lock whose value names the holding tick, so a tick
// that overran its TTL cannot release a lock taken by another instance.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// NewJobLock builds the lock guarding job on a janitor ticking every interval.
func NewJobLock(client redisStore, env string, job Job, interval time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if job == nil || job.Name() == "" {
		return nil, errors.New("named job required for lock")
	}
	return &RedisLock{
		client: client,
		key:    JobLockKey(env, job.Name()),
		ttl:    JobLockTTL(interval),
	}, nil
}

// Key returns the redis key holding the lock.
func (l *RedisLock) Key() string { return l.key }

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release is a no-op once the lock expired or passed to another owner.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	value, err := l.client.Get(ctx, l.key)
	switch {
	case errors.Is(err, redis.Nil):
		return nil
	case err != nil:
		return fmt.Errorf("read owner of %s: %w", l.key, err)
	case value != owner:
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
