package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/backend/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	limiter := NewRateLimiter(client, "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), NaverRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, NaverRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), NaverRateLimit))
}

func TestNaverRateLimitPerSecond(t *testing.T) {
	assert.Equal(t, 3, NaverRateLimitPerSecond(3).Limit)
	assert.Equal(t, NaverRateLimit.Limit, NaverRateLimitPerSecond(0).Limit)
	assert.Equal(t, time.Second, NaverRateLimitPerSecond(3).Window)
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(context.Background(), "key", "v", time.Minute))
	assert.NoError(t, cache.Delete(context.Background(), "key"))
}

type snapshot struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestCache_GetHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "aegis")

	mock.ExpectGet("aegis:cache:k1").SetVal(`{"name":"반도체","score":100}`)

	var got snapshot
	found, err := cache.Get(context.Background(), "k1", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, snapshot{Name: "반도체", Score: 100}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "aegis")

	mock.ExpectGet("aegis:cache:k1").RedisNil()

	var got snapshot
	found, err := cache.Get(context.Background(), "k1", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCache_GetError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "aegis")

	mock.ExpectGet("aegis:cache:k1").SetErr(errors.New("connection reset"))

	var got snapshot
	found, err := cache.Get(context.Background(), "k1", &got)
	assert.Error(t, err)
	assert.False(t, found)
}

func TestCache_Set(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(NewFromClient(db), "aegis")

	mock.ExpectSet("aegis:cache:k1", []byte(`{"name":"자동차","score":55}`), 5*time.Minute).SetVal("OK")

	err := cache.Set(context.Background(), "k1", snapshot{Name: "자동차", Score: 55}, 5*time.Minute)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "sector:rank:2025-01-15:n10:k12:flow=true", SectorRankingKey(10, 12, true, "2025-01-15"))
	assert.Equal(t, "score:005930:2025-01-15", ScoreKey("005930", "2025-01-15"))
}
