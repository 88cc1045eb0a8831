package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/geo-kpi-service/internal/config"
)

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level, format string
		want          slog.Level
	}{
		{"debug", "text", slog.LevelDebug},
		{"INFO", "json", slog.LevelInfo},
		{"warning", "json", slog.LevelWarn},
		{"error", "TEXT", slog.LevelError},
		{"bogus", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: tt.format})

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tt.want))
			assert.False(t, logger.Enabled(ctx, tt.want-1))
			assert.Same(t, logger, slog.Default())
		})
	}
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()

	m.UpstreamRequests.WithLabelValues("/dashboard/geo", "success").Inc()
	m.StaleResponses.WithLabelValues("geo").Inc()
	m.GeoRowsDropped.Add(3)

	assert.NotNil(t, m.PollerRunning)
	assert.NotNil(t, m.PublishErrors)
}
