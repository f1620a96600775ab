package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"todolist/internal/core/port"
	"todolist/internal/core/telemetry"
)

// InstrumentedCache counts hits and misses of the wrapped cache, labelled by
// key prefix so per-user keys do not explode metric cardinality.
type InstrumentedCache struct {
	next    port.CacheRepository
	metrics *telemetry.AppMetrics
}

func NewInstrumentedCache(next port.CacheRepository, metrics *telemetry.AppMetrics) port.CacheRepository {
	if metrics == nil {
		return next
	}

	return &InstrumentedCache{next: next, metrics: metrics}
}

func (c *InstrumentedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.next.Set(ctx, key, value, ttl)
}

func (c *InstrumentedCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.next.Get(ctx, key)

	switch {
	case err == nil:
		c.metrics.RecordCacheHit(ctx, keyPrefix(key))
	case errors.Is(err, port.ErrCacheMiss):
		c.metrics.RecordCacheMiss(ctx, keyPrefix(key))
	}

	return raw, err
}

func (c *InstrumentedCache) Delete(ctx context.Context, key string) error {
	return c.next.Delete(ctx, key)
}

func (c *InstrumentedCache) Close() error {
	return c.next.Close()
}

// keyPrefix keeps the first two segments so per-user keys share a label.
func keyPrefix(key string) string {
	if parts := strings.SplitN(key, ":", 3); len(parts) == 3 {
		return parts[0] + ":" + parts[1]
	}

	return key
}
