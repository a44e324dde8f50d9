package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"rental-engine-backend/internal/logger"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired holder can't release a lock someone else has since taken.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker is an ItemLocker shared by every instance pointing at the same Redis.
type RedisLocker struct {
	client redis.UniversalClient
	cfg    Config
}

func NewRedisLocker(client redis.UniversalClient, cfg Config) *RedisLocker {
	return &RedisLocker{client: client, cfg: cfg.withDefaults()}
}

func (r *RedisLocker) Lock(ctx context.Context, itemID string) (func(), error) {
	key := r.cfg.KeyPrefix + itemID
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(r.cfg.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("acquire lock %s: %w: %w", key, ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's ctx may already be cancelled; release must still run
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err(); err != nil {
				logger.Error("Failed to release item lock", "key", key, "error", err)
			}
		})
	}, nil
}
