package kpiapi

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// --- mock for cache tests ---

type countingFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	data  any
	err   error
}

func (m *countingFetcher) Fetch(_ context.Context, path string, query url.Values) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[cacheKey(path, query)]++
	return m.data, m.err
}

func (m *countingFetcher) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

// --- CachedFetcher tests ---

func TestCachedFetcher_Hit(t *testing.T) {
	inner := &countingFetcher{data: map[string]any{"totalOffers": 5.0}}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedFetcher(inner, 10, time.Minute, metrics)

	for range 3 {
		data, err := cached.Fetch(context.Background(), PathDashboard, url.Values{"startDate": {"2024-01-01"}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"totalOffers": 5.0}, data)
	}

	assert.Equal(t, 1, inner.count("/dashboard?startDate=2024-01-01"), "should only call inner once")
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.UpstreamCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamCache.WithLabelValues("miss")))
}

func TestCachedFetcher_KeyIncludesQuery(t *testing.T) {
	inner := &countingFetcher{data: []any{}}
	cached := NewCachedFetcher(inner, 10, time.Minute, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), PathOffersPerCountry, url.Values{"dealerId": {"1"}})
	_, _ = cached.Fetch(context.Background(), PathOffersPerCountry, url.Values{"dealerId": {"2"}})
	_, _ = cached.Fetch(context.Background(), PathOffersPerCountry, nil)

	assert.Equal(t, 3, cached.Len())
}

func TestCachedFetcher_NilNotCached(t *testing.T) {
	inner := &countingFetcher{data: nil}
	cached := NewCachedFetcher(inner, 10, time.Minute, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), PathGeo, nil)
	_, _ = cached.Fetch(context.Background(), PathGeo, nil)

	assert.Equal(t, 2, inner.count(PathGeo), "nil bodies should not be cached")
}

func TestCachedFetcher_ErrorNotCached(t *testing.T) {
	inner := &countingFetcher{err: errors.New("boom")}
	cached := NewCachedFetcher(inner, 10, time.Minute, observability.NewMetricsForTesting())

	_, err := cached.Fetch(context.Background(), PathGeo, nil)
	require.Error(t, err)
	_, err = cached.Fetch(context.Background(), PathGeo, nil)
	require.Error(t, err)

	assert.Equal(t, 2, inner.count(PathGeo))
	assert.Zero(t, cached.Len())
}

func TestCachedFetcher_Expires(t *testing.T) {
	inner := &countingFetcher{data: []any{}}
	cached := NewCachedFetcher(inner, 10, 20*time.Millisecond, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), PathGeo, nil)
	time.Sleep(60 * time.Millisecond)
	_, _ = cached.Fetch(context.Background(), PathGeo, nil)

	assert.Equal(t, 2, inner.count(PathGeo))
}

func TestCachedFetcher_Evicts(t *testing.T) {
	inner := &countingFetcher{data: []any{}}
	cached := NewCachedFetcher(inner, 2, time.Minute, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), PathUpsellItemsCount, nil)
	_, _ = cached.Fetch(context.Background(), PathUpsellItemsValue, nil)
	_, _ = cached.Fetch(context.Background(), PathUpsellTotalValue, nil)
	_, _ = cached.Fetch(context.Background(), PathUpsellItemsCount, nil)

	assert.Equal(t, 2, inner.count(PathUpsellItemsCount), "oldest entry should have been evicted")
	assert.Equal(t, 2, cached.Len())
}

func TestCachedFetcher_Purge(t *testing.T) {
	inner := &countingFetcher{data: []any{}}
	cached := NewCachedFetcher(inner, 10, time.Minute, observability.NewMetricsForTesting())

	_, _ = cached.Fetch(context.Background(), PathGeo, nil)
	cached.Purge()

	assert.Zero(t, cached.Len())
}
