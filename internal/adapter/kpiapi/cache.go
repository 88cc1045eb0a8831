package kpiapi

import (
	"context"
	"net/url"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// CachedFetcher wraps a Fetcher with an in-memory TTL-bounded LRU cache.
type CachedFetcher struct {
	inner   Fetcher
	cache   *expirable.LRU[string, any]
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator holding at most maxEntries
// responses, each for at most ttl.
func NewCachedFetcher(inner Fetcher, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   expirable.NewLRU[string, any](maxEntries, nil, ttl),
		metrics: metrics,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, path string, query url.Values) (any, error) {
	key := cacheKey(path, query)
	if data, ok := c.cache.Get(key); ok {
		c.metrics.UpstreamCache.WithLabelValues("hit").Inc()
		return data, nil
	}
	c.metrics.UpstreamCache.WithLabelValues("miss").Inc()

	data, err := c.inner.Fetch(ctx, path, query)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty bodies so a transient empty response can be retried.
	if data != nil {
		c.cache.Add(key, data)
	}
	return data, nil
}

// Purge drops every cached response.
func (c *CachedFetcher) Purge() {
	c.cache.Purge()
}

// Len reports the number of live cache entries.
func (c *CachedFetcher) Len() int {
	return c.cache.Len()
}

func cacheKey(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
