package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/geo-kpi-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/geo-kpi-service/internal/adapter/kafka"
	"github.com/couchcryptid/geo-kpi-service/internal/adapter/kpiapi"
	"github.com/couchcryptid/geo-kpi-service/internal/config"
	"github.com/couchcryptid/geo-kpi-service/internal/dashboard"
	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
	"github.com/couchcryptid/geo-kpi-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	scale, err := domain.NewColorScale(cfg.ColorScale)
	if err != nil {
		logger.Error("invalid color scale", "error", err)
		os.Exit(1)
	}

	// Upstream KPI API, optionally behind a TTL cache (KPI_CACHE_TTL=0 disables it).
	var fetcher kpiapi.Fetcher = kpiapi.NewClient(cfg.APIBaseURL, cfg.APITimeout, logger, metrics)
	if cfg.CacheTTL > 0 {
		fetcher = kpiapi.NewCachedFetcher(fetcher, cfg.CacheSize, cfg.CacheTTL, metrics)
		logger.Info("kpi api cache enabled", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	} else {
		logger.Info("kpi api cache disabled")
	}
	api := kpiapi.NewAPI(fetcher)

	geo := dashboard.NewGeoService(api, scale, cfg.FallbackCurrency, logger, metrics)
	pages := httpadapter.Pages{
		Geo:      geo,
		Overview: dashboard.NewOverviewService(api, cfg.DefaultRange, logger, metrics),
		Offers:   dashboard.NewOffersService(api, cfg.DefaultRange, logger, metrics),
		Insights: dashboard.NewInsightsService(api, cfg.Labels, logger, metrics),
	}

	// Geo snapshot publishing (feature-flagged via KAFKA_ENABLED).
	var (
		loader pipeline.SnapshotLoader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		metrics.KafkaEnabled.Set(1)
		logger.Info("geo snapshot publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaGeoTopic)
	} else {
		logger.Info("geo snapshot publishing disabled")
	}

	p := pipeline.New(geo, loader, cfg.GeoPollInterval, logger, metrics)

	srv := httpadapter.NewServer(cfg, pages, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start geo poller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			logger.Error("geo poller error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("geo poller did not stop before shutdown timeout")
	}

	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
