package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"todolist/internal/adapter/cache"
	"todolist/internal/core/port"
	"todolist/internal/core/telemetry"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute)
	defer c.Close()

	_, err := c.Get(ctx, "todos:user:1")
	assert.ErrorIs(t, err, port.ErrCacheMiss)

	assert.NoError(t, c.Set(ctx, "todos:user:1", []byte(`[]`), time.Minute))

	raw, err := c.Get(ctx, "todos:user:1")
	assert.NoError(t, err)
	assert.Equal(t, []byte(`[]`), raw)

	assert.NoError(t, c.Delete(ctx, "todos:user:1"))

	_, err = c.Get(ctx, "todos:user:1")
	assert.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryCache(time.Minute)

	assert.NoError(t, c.Set(ctx, "short", []byte("x"), 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "short")
	assert.ErrorIs(t, err, port.ErrCacheMiss)
}

func TestInstrumentedCache_CountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	metrics := telemetry.NewAppMetrics(registry)
	c := cache.NewInstrumentedCache(cache.NewMemoryCache(time.Minute), metrics)

	c.Get(ctx, "todos:user:1:g1")
	c.Set(ctx, "todos:user:1:g1", []byte("[]"), time.Minute)
	c.Get(ctx, "todos:user:1:g1")
	c.Get(ctx, "todos:user:2:g1")
	c.Get(ctx, "todos:gen:1")

	assert.Equal(t, 1.0, counterValue(t, registry, "cache_hits_total", "todos:user"))
	assert.Equal(t, 2.0, counterValue(t, registry, "cache_misses_total", "todos:user"))
	assert.Equal(t, 1.0, counterValue(t, registry, "cache_misses_total", "todos:gen"))
}

func counterValue(t *testing.T, registry *prometheus.Registry, name string, key string) float64 {
	families, err := registry.Gather()
	assert.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "key" && label.GetValue() == key {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}
