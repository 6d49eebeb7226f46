package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only if it still holds our token, so an expired lock that
// another process has since taken is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out expiring mutual-exclusion locks shared by every process
// pointed at the same Redis.
type Locker struct {
	client redis.UniversalClient
	prefix string
}

// NewLocker builds a Locker. Keys are namespaced with prefix.
func NewLocker(client redis.UniversalClient, prefix string) *Locker {
	return &Locker{client: client, prefix: prefix}
}

// TryLock takes key for at most ttl. When the lock is held elsewhere it
// returns ok=false and a nil error. The returned release func is safe to call
// after the TTL has lapsed.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !acquired {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil {
			return fmt.Errorf("release lock %s: %w", fullKey, err)
		}
		return nil
	}
	return release, true, nil
}
