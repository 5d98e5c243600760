package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runContractTests exercises behaviour every CartRepository must share.
func runContractTests(t *testing.T, repo CartRepository) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		payload, err := repo.GetCart(ctx, "nobody")
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.Nil(t, payload)
	})

	t.Run("upsert then get", func(t *testing.T) {
		require.NoError(t, repo.UpsertCart(ctx, "s1", []byte(`[{"id":"sku1"}]`)))

		payload, err := repo.GetCart(ctx, "s1")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"sku1"}]`, string(payload))
	})

	t.Run("upsert overwrites", func(t *testing.T) {
		require.NoError(t, repo.UpsertCart(ctx, "s2", []byte(`[{"id":"a"}]`)))
		require.NoError(t, repo.UpsertCart(ctx, "s2", []byte(`[]`)))

		payload, err := repo.GetCart(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, `[]`, string(payload))
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		require.NoError(t, repo.UpsertCart(ctx, "s3", []byte(`[{"id":"x"}]`)))
		_, err := repo.GetCart(ctx, "s4")
		assert.ErrorIs(t, err, ErrCartNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.UpsertCart(ctx, "s5", []byte(`[]`)))
		require.NoError(t, repo.DeleteCart(ctx, "s5"))

		_, err := repo.GetCart(ctx, "s5")
		assert.ErrorIs(t, err, ErrCartNotFound)
		assert.ErrorIs(t, repo.DeleteCart(ctx, "s5"), ErrCartNotFound)
	})
}

func TestMemoryRepository(t *testing.T) {
	runContractTests(t, NewMemoryRepository())
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	payload := []byte(`[1]`)
	require.NoError(t, repo.UpsertCart(ctx, "s", payload))
	payload[1] = '2'

	got, err := repo.GetCart(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))
}

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisRepository, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRepository(client, ttl), mr
}

func TestRedisRepository(t *testing.T) {
	repo, _ := setupTestRedis(t, 0)
	runContractTests(t, repo)
}

func TestRedisRepository_KeyAndTTL(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, repo.UpsertCart(ctx, "abc", []byte(`[]`)))

	assert.True(t, mr.Exists("cart:abc"))
	assert.Equal(t, time.Hour, mr.TTL("cart:abc"))

	mr.FastForward(2 * time.Hour)
	_, err := repo.GetCart(ctx, "abc")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestRedisRepository_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	mr.Close()

	_, err := repo.GetCart(context.Background(), "abc")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCartNotFound)
	assert.Contains(t, err.Error(), "redis get failed")
}

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()
}
