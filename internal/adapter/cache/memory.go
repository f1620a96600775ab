package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"todolist/internal/core/port"
)

// MemoryCache keeps entries in process. It is the fallback when no Redis URL
// is configured.
type MemoryCache struct {
	cache *gocache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	return &MemoryCache{
		cache: gocache.New(defaultTTL, 2*defaultTTL),
	}
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.cache.Set(key, value, ttl)

	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, found := m.cache.Get(key)

	if !found {
		return nil, port.ErrCacheMiss
	}

	raw, ok := value.([]byte)

	if !ok {
		return nil, port.ErrCacheMiss
	}

	return raw, nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.cache.Delete(key)

	return nil
}

func (m *MemoryCache) Close() error {
	m.cache.Flush()

	return nil
}
