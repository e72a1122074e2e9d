package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ TurnLock = (*redisTurnLock)(nil)

type redisTurnLock struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisTurnLock creates a Redis-backed per-(user, story) turn lease.
// The TTL bounds how long a crashed turn can keep a player locked out.
func NewRedisTurnLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) TurnLock {
	return &redisTurnLock{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisTurnLock"),
	}
}

func turnLockKey(userID, storyID uuid.UUID) string {
	return fmt.Sprintf("turn_lock:%s:%s", userID, storyID)
}

func (l *redisTurnLock) Acquire(ctx context.Context, userID, storyID uuid.UUID) (bool, error) {
	key := turnLockKey(userID, storyID)
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		l.logger.Warn("Failed to acquire turn lock", zap.String("key", key), zap.Error(err))
		return false, err
	}
	l.logger.Debug("Turn lock acquire", zap.String("key", key), zap.Bool("acquired", ok))
	return ok, nil
}

func (l *redisTurnLock) Release(ctx context.Context, userID, storyID uuid.UUID) error {
	key := turnLockKey(userID, storyID)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		l.logger.Warn("Failed to release turn lock", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
