package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore dedupes requests by key. TryLock claims a key for the first
// request, Remember stores its response for later replays.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func lockKey(scope, key string) string {
	return "idemp:" + scope + ":" + key
}

func valueKey(scope, key string) string {
	return "idemp:map:" + scope + ":" + key
}

func (s *RedisStore) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(scope, key), "1", s.ttl).Result()
}

// Release frees the lock of a request that failed so it can be retried.
func (s *RedisStore) Release(ctx context.Context, scope, key string) error {
	return s.rdb.Del(ctx, lockKey(scope, key)).Err()
}

func (s *RedisStore) Remember(ctx context.Context, scope, key string, value []byte) error {
	return s.rdb.Set(ctx, valueKey(scope, key), value, s.ttl).Err()
}

func (s *RedisStore) Recall(ctx context.Context, scope, key string) ([]byte, bool, error) {
	val, err := s.rdb.Get(ctx, valueKey(scope, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}
