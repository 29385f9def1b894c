// Package lock provides a Redis-backed per-entity lock so that several server
// processes serialize transitions on the same entity.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"artpriv/pkg/platform/sentinel"
)

const (
	defaultTTL   = 10 * time.Second
	defaultWait  = 2 * time.Second
	defaultRetry = 25 * time.Millisecond
	keyPrefix    = "artpriv:lock:"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a SET NX PX lock with token-checked release.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

type Option func(*Redis)

// WithTTL sets how long a lock survives a crashed holder.
func WithTTL(d time.Duration) Option {
	return func(l *Redis) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithWait sets how long Acquire polls a busy key before giving up.
func WithWait(d time.Duration) Option {
	return func(l *Redis) {
		if d >= 0 {
			l.wait = d
		}
	}
}

func WithRetryInterval(d time.Duration) Option {
	return func(l *Redis) {
		if d > 0 {
			l.retry = d
		}
	}
}

// NewRedis constructs a Redis lock.
func NewRedis(client redis.UniversalClient, opts ...Option) *Redis {
	l := &Redis{client: client, ttl: defaultTTL, wait: defaultWait, retry: defaultRetry}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire takes the lock for key. It returns sentinel.ErrConflict when the key
// stays held for longer than the configured wait, and an error wrapping
// sentinel.ErrUnavailable when Redis cannot be reached.
func (l *Redis) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	k := keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: acquire lock %s: %v", sentinel.ErrUnavailable, key, err)
		}
		if ok {
			return l.releaser(k, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, sentinel.ErrConflict
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Redis) releaser(k, token string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{k}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", k, err)
		}
		return nil
	}
}
