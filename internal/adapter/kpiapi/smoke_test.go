//go:build kpiapi

package kpiapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// These tests hit a running KPI API and require KPI_API_BASE_URL.
// Run with: go test -tags=kpiapi ./internal/adapter/kpiapi/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	baseURL := os.Getenv("KPI_API_BASE_URL")
	if baseURL == "" {
		t.Fatal("KPI_API_BASE_URL must be set to run smoke tests")
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_GeoKPIs(t *testing.T) {
	api := NewAPI(smokeClient(t))

	data, err := api.GeoKPIs(context.Background())
	require.NoError(t, err)

	payload := domain.ExtractGeoPayload(data)
	assert.NotEmpty(t, payload.Entries, "geo feed should contain at least one valid country")
	for i := 1; i < len(payload.Entries); i++ {
		assert.GreaterOrEqual(t, payload.Entries[i-1].Sales, payload.Entries[i].Sales)
	}
}

func TestSmoke_Dashboard(t *testing.T) {
	api := NewAPI(smokeClient(t))
	r := domain.ResolveDateRange("6m", "6m")

	data, err := api.Dashboard(context.Background(), Filters{StartDate: r.StartDate(), EndDate: r.EndDate()})
	require.NoError(t, err)
	assert.NotNil(t, data)
}
