package redis

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"support-kb-ingest/internal/domain"
	"support-kb-ingest/internal/domain/ports/adapter"
)

var _ adapter.Locker = (*RedisLocker)(nil)

// RedisLocker is a SET NX lock with a per-holder token.
type RedisLocker struct {
	cli     *redis.Client
	retries int
	wait    time.Duration
}

// NewLocker tries each lock once; see WithRetry.
func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli, retries: 1, wait: 50 * time.Millisecond}
}

// WithRetry makes TryLock poll up to n times, wait apart, before giving up.
func (l *RedisLocker) WithRetry(n int, wait time.Duration) *RedisLocker {
	if n > 0 {
		l.retries = n
	}
	if wait > 0 {
		l.wait = wait
	}
	return l
}

// TryLock returns domain.ErrLockNotAcquired when another holder owns key.
// Redis errors are returned as-is.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	for i := 0; i < l.retries; i++ {
		ok, err := l.cli.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return "", err
		}
		if ok {
			return token, nil
		}
		if i+1 < l.retries {
			select {
			case <-time.After(l.wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", domain.ErrLockNotAcquired
}

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// Unlock releases key only if token still owns it.
func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	_, err := luaUnlock.Run(ctx, l.cli, []string{key}, token).Result()
	return err
}
