package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"gitlab.com/magneto-ui.net/internal/core/ports/primary"
	"gitlab.com/magneto-ui.net/internal/core/ports/secondary"
	"gitlab.com/magneto-ui.net/internal/static/errs"
)

const lockKeyPrefix = "oracle-run:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ secondary.RunLock = (*RedisLock)(nil)

// RedisLock implements RunLock with SET NX PX so it holds across replicas
type RedisLock struct {
	redisClient *redis.Client
	ttl         time.Duration
	logger      primary.Logger
}

func NewRedisLock(redisClient *redis.Client, ttl time.Duration, logger primary.Logger) *RedisLock {
	return &RedisLock{redisClient: redisClient, ttl: ttl, logger: logger}
}

func (l *RedisLock) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := lockKeyPrefix + key
	token := uuid.NewString()

	ok, err := l.redisClient.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		l.logger.Error("Failed to acquire run lock", "key", redisKey, "error", err)
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return nil, errs.ErrRunInProgress
	}

	release := func() {
		// the request context may already be gone when the run ends
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.redisClient, []string{redisKey}, token).Err(); err != nil {
			l.logger.Warn("Failed to release run lock", "key", redisKey, "error", err)
		}
	}
	return release, nil
}
