package cache

import (
	"context"
	"time"

	"github.com/rentably/pdc_engine/internal/apperrors"
	portsrepo "github.com/rentably/pdc_engine/internal/core/ports/repositories"
	"github.com/redis/go-redis/v9"
)

const runLockKeyPrefix = "pdc:scheduler:lock:"

// RedisRunLock implements the distributed scheduler run lock with SETNX so that
// exactly one instance executes a given run. The TTL bounds how long a crashed
// holder can block subsequent runs.
type RedisRunLock struct {
	client *redis.Client
}

var _ portsrepo.RunLockManager = (*RedisRunLock)(nil)

func NewRedisRunLock(client *redis.Client) *RedisRunLock {
	return &RedisRunLock{client: client}
}

func (l *RedisRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, runLockKeyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to acquire scheduler run lock "+key, err)
	}
	return acquired, nil
}

func (l *RedisRunLock) Release(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, runLockKeyPrefix+key).Err(); err != nil {
		return apperrors.NewAppError(500, "failed to release scheduler run lock "+key, err)
	}
	return nil
}
