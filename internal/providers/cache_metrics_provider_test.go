package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cacheMetricsTestMetrics struct {
	noopMetrics
	hits   map[string]int
	misses map[string]int
}

func newCacheMetricsTestMetrics() *cacheMetricsTestMetrics {
	return &cacheMetricsTestMetrics{hits: map[string]int{}, misses: map[string]int{}}
}

func (m *cacheMetricsTestMetrics) IncCacheHits(keyspace string)   { m.hits[keyspace]++ }
func (m *cacheMetricsTestMetrics) IncCacheMisses(keyspace string) { m.misses[keyspace]++ }

type cacheMetricsTestInner struct {
	data map[string][]byte
}

func (c *cacheMetricsTestInner) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *cacheMetricsTestInner) Set(key string, value []byte) { c.data[key] = value }
func (c *cacheMetricsTestInner) Del(key string)               { delete(c.data, key) }

func TestMetricsCacheProvider_CountsPerKeyspace(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{
		"name:1":        []byte("Standing Club"),
		"board:day:sum": []byte("{}"),
	}}
	metrics := newCacheMetricsTestMetrics()
	cache := &MetricsCacheProvider{inner: inner, metrics: metrics}

	val, ok := cache.Get("name:1")
	assert.True(t, ok)
	assert.Equal(t, []byte("Standing Club"), val)
	cache.Get("name:2")
	cache.Get("board:day:sum")
	cache.Get("board:week:avg")
	cache.Get("board:year:sum")

	assert.Equal(t, map[string]int{"name": 1, "board": 1}, metrics.hits)
	assert.Equal(t, map[string]int{"name": 1, "board": 2}, metrics.misses)
}

func TestMetricsCacheProvider_SetAndDelDelegate(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	cache := &MetricsCacheProvider{inner: inner, metrics: newCacheMetricsTestMetrics()}

	cache.Set("board:all:sum", []byte("{}"))
	_, ok := inner.Get("board:all:sum")
	assert.True(t, ok)

	cache.Del("board:all:sum")
	_, ok = inner.Get("board:all:sum")
	assert.False(t, ok)
}

func TestNewInstrumentedCacheProvider(t *testing.T) {
	metrics := newCacheMetricsTestMetrics()

	disabled := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Second), &cacheTestLogger{}, metrics)
	assert.IsType(t, &noopCache{}, disabled)

	zeroSize := NewInstrumentedCacheProvider(cacheConfig(true, 0, time.Second), &cacheTestLogger{}, metrics)
	assert.IsType(t, &noopCache{}, zeroSize)

	enabled := NewInstrumentedCacheProvider(cacheConfig(true, 1, time.Second), &cacheTestLogger{}, metrics)
	assert.IsType(t, &MetricsCacheProvider{}, enabled)
	enabled.Get("name:7")
	assert.Equal(t, 1, metrics.misses["name"])
}
