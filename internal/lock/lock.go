// Package lock serialises edits of one recurring series across processes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"servicehub/internal/common"
	"servicehub/internal/logger"
)

// Locker guards a critical section keyed by name.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Nop runs fn without locking.
type Nop struct{}

func (Nop) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Redis locks with redislock on top of go-redis.
type Redis struct {
	client *redis.Client
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedis connects to url (redis://...) and pings it.
func NewRedis(ctx context.Context, url string, ttl time.Duration) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, locker: redislock.New(client), ttl: ttl, wait: 5 * time.Second}, nil
}

// WithLock obtains key, retrying for a few seconds, runs fn and releases the lock.
// A lock still held by someone else after the wait is a ValidationError the caller can retry.
func (r *Redis) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	retries := int(r.wait / (100 * time.Millisecond))
	l, err := r.locker.Obtain(ctx, key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return common.ValidationError("the series is being edited, try again", map[string]string{"lock": key})
	}
	if err != nil {
		return fmt.Errorf("obtain lock %s: %w", key, err)
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.WithModule("lock").WithError(err).WithField("key", key).Warn("release lock")
		}
	}()
	return fn(ctx)
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// SeriesKey is the lock key for the series of a job.
func SeriesKey(jobID string) string {
	return "lock:series:" + jobID
}
