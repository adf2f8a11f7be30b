package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/target/trendscout/internal/core"
)

// releaseScript deletes the lease key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisTickLease implements core.TickLease with SET NX and a TTL.
type RedisTickLease struct {
	client redis.UniversalClient
	prefix string
}

var _ core.TickLease = (*RedisTickLease)(nil)

// NewRedisTickLease creates a Redis-backed lease. Keys are namespaced with "lease:".
func NewRedisTickLease(client redis.UniversalClient) *RedisTickLease {
	return &RedisTickLease{client: client, prefix: "lease:"}
}

// TryAcquire sets the lease key if absent. The returned token must be passed to Release.
func (l *RedisTickLease) TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if ttl <= 0 {
		return "", false, fmt.Errorf("lease ttl must be positive, got %s", ttl)
	}
	token := uuid.NewString()
	status, err := l.client.SetArgs(ctx, l.prefix+key, token, redis.SetArgs{Mode: "NX", TTL: ttl}).Result()
	if err != nil {
		// NX not met is reported as redis.Nil.
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis SET NX: %w", err)
	}
	return token, status == "OK", nil
}

// Release deletes the lease if token still owns it. A lease that already expired or was
// taken over returns ErrLeaseNotHeld.
func (l *RedisTickLease) Release(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int64()
	if err != nil {
		return fmt.Errorf("redis release lease: %w", err)
	}
	if n == 0 {
		return ErrLeaseNotHeld
	}
	return nil
}
