package lock

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "pcms/pkg/domain-errors"
)

const (
	defaultTTL   = 10 * time.Second
	defaultRetry = 25 * time.Millisecond
	keyPrefix    = "pcms:lock:"
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lock re-acquired by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a single-instance Redis lock (SET NX PX plus a
// compare-and-delete release). The TTL bounds how long a crashed holder
// blocks others.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

type RedisOption func(*RedisLocker)

func WithTTL(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.ttl = d
		}
	}
}

func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retry = d
		}
	}
}

func WithLogger(logger *slog.Logger) RedisOption {
	return func(l *RedisLocker) {
		l.logger = logger
	}
}

func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		ttl:    defaultTTL,
		retry:  defaultRetry,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock polls until the key is free or ctx is done.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		err := l.client.SetArgs(ctx, redisKey, token, redis.SetArgs{Mode: "NX", TTL: l.ttl}).Err()
		switch {
		case err == nil:
			return l.releaser(redisKey, token), nil
		case !errors.Is(err, redis.Nil):
			if ctx.Err() != nil {
				return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock aborted: context cancelled")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire lock")
		}

		select {
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "lock aborted: context cancelled")
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaser(key, token string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			l.logger.Warn("failed to release lock", "key", key, "error", err)
		}
	}
}
