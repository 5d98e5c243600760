package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepository stores each cart under cart:<session>. A zero ttl keeps
// carts until they are deleted.
func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisRepository) GetCart(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisRepository) UpsertCart(ctx context.Context, sessionID string, payload []byte) error {
	if err := r.client.Set(ctx, cartKey(sessionID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) DeleteCart(ctx context.Context, sessionID string) error {
	n, err := r.client.Del(ctx, cartKey(sessionID)).Result()
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if n == 0 {
		return ErrCartNotFound
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
