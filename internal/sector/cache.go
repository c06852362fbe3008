package sector

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/aegis-signal/backend/internal/contracts"
	"github.com/wonny/aegis-signal/backend/pkg/redis"
)

// SnapshotCache stores ranking snapshots for a short TTL.
// A miss is (nil, false, nil); cache errors never fail a ranking request.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (*contracts.SectorRanking, bool, error)
	Set(ctx context.Context, key string, ranking *contracts.SectorRanking, ttl time.Duration) error
}

// CacheKey builds the snapshot key from every parameter that changes the result
func CacheKey(perSector, topK int, flow bool, asOf time.Time) string {
	return redis.SectorRankingKey(perSector, topK, flow, asOf.Format("2006-01-02"))
}

// DefaultMemoryCacheSize bounds the number of live snapshots kept in process
const DefaultMemoryCacheSize = 128

type memoryEntry struct {
	ranking   *contracts.SectorRanking
	expiresAt time.Time
}

// MemoryCache is an in-process SnapshotCache holding at most maxSize entries
type MemoryCache struct {
	mu      sync.Mutex
	items   map[string]memoryEntry
	maxSize int
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items:   make(map[string]memoryEntry),
		maxSize: DefaultMemoryCacheSize,
		now:     time.Now,
	}
}

// Get returns a live snapshot
func (c *MemoryCache) Get(_ context.Context, key string) (*contracts.SectorRanking, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.items, key)
		return nil, false, nil
	}
	return entry.ranking, true, nil
}

// Set stores a snapshot, dropping expired entries first.
// When still full, the entry closest to expiry is evicted.
func (c *MemoryCache) Set(_ context.Context, key string, ranking *contracts.SectorRanking, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	c.items[key] = memoryEntry{ranking: ranking, expiresAt: now.Add(ttl)}
	return nil
}

// Len returns the number of stored entries (live or not yet swept)
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for k, e := range c.items {
		if !found || e.expiresAt.Before(oldest) {
			oldestKey, oldest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(c.items, oldestKey)
	}
}

// RedisCache stores snapshots as JSON in Redis
type RedisCache struct {
	cache *redis.Cache
}

// NewRedisCache wraps the shared Redis cache helper
func NewRedisCache(cache *redis.Cache) *RedisCache {
	return &RedisCache{cache: cache}
}

// Get reads a snapshot
func (c *RedisCache) Get(ctx context.Context, key string) (*contracts.SectorRanking, bool, error) {
	var ranking contracts.SectorRanking
	found, err := c.cache.Get(ctx, key, &ranking)
	if err != nil || !found {
		return nil, false, err
	}
	return &ranking, true, nil
}

// Set writes a snapshot
func (c *RedisCache) Set(ctx context.Context, key string, ranking *contracts.SectorRanking, ttl time.Duration) error {
	return c.cache.Set(ctx, key, ranking, ttl)
}
