package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisVelocityStore backs the rolling per-IP counters used for both
// fraud velocity scoring and ingestion rate limiting. Counters expire
// with the window, so a quiet IP costs nothing.
type RedisVelocityStore struct {
	client *redis.Client
}

func NewRedisVelocityStore(client *redis.Client) *RedisVelocityStore {
	return &RedisVelocityStore{client: client}
}

func (s *RedisVelocityStore) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// First hit in the window owns the TTL.
		if err := s.client.Expire(ctx, key, window).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (s *RedisVelocityStore) Count(ctx context.Context, key string) (int64, error) {
	raw, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return count, nil
}
