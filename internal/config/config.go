package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/geo-kpi-service/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Upstream KPI API.
	APIBaseURL string
	APITimeout time.Duration
	CacheSize  int
	CacheTTL   time.Duration

	// Dashboard presentation.
	GeoPollInterval  time.Duration
	FallbackCurrency string
	DefaultRange     string
	ColorScale       domain.ColorScaleConfig
	Labels           domain.LabelWrapper

	// Geo snapshot publishing.
	KafkaEnabled  bool
	KafkaBrokers  []string
	KafkaGeoTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := parsePositiveDuration("KPI_API_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	pollInterval, err := parsePositiveDuration("GEO_POLL_INTERVAL", "1m")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("KPI_CACHE_TTL", "30s"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid KPI_CACHE_TTL")
	}
	cacheSize, err := parsePositiveInt("KPI_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	colors, err := parseColorScale()
	if err != nil {
		return nil, err
	}

	maxChars, err := parsePositiveInt("LABEL_MAX_CHARS", 12)
	if err != nil {
		return nil, err
	}
	maxLines, err := parsePositiveInt("LABEL_MAX_LINES", 3)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		APIBaseURL: strings.TrimRight(sharedcfg.EnvOrDefault("KPI_API_BASE_URL", "http://localhost:8081/api"), "/"),
		APITimeout: apiTimeout,
		CacheSize:  cacheSize,
		CacheTTL:   cacheTTL,

		GeoPollInterval:  pollInterval,
		FallbackCurrency: strings.ToUpper(sharedcfg.EnvOrDefault("FALLBACK_CURRENCY", "EUR")),
		DefaultRange:     sharedcfg.EnvOrDefault("DEFAULT_RANGE", "6m"),
		ColorScale:       colors,
		Labels:           domain.LabelWrapper{MaxCharsPerLine: maxChars, MaxLines: maxLines},

		KafkaEnabled:  os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:  sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaGeoTopic: sharedcfg.EnvOrDefault("KAFKA_GEO_TOPIC", "geo-kpi-snapshots"),
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("KPI_API_BASE_URL is required")
	}
	if !domain.IsRangeKey(cfg.DefaultRange) {
		return nil, fmt.Errorf("invalid DEFAULT_RANGE %q", cfg.DefaultRange)
	}
	if len(cfg.FallbackCurrency) != 3 {
		return nil, fmt.Errorf("invalid FALLBACK_CURRENCY %q: want a 3-letter code", cfg.FallbackCurrency)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaGeoTopic == "" {
			return nil, errors.New("KAFKA_GEO_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func parsePositiveDuration(name, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(name, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return d, nil
}

func parsePositiveInt(name string, def int) (int, error) {
	s := os.Getenv(name)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func parseColorScale() (domain.ColorScaleConfig, error) {
	cfg := domain.DefaultColorScaleConfig()
	if s := os.Getenv("COLOR_STOPS"); s != "" {
		cfg.Stops = splitList(s)
	}
	cfg.ZeroFill = sharedcfg.EnvOrDefault("COLOR_ZERO_FILL", cfg.ZeroFill)
	if s := os.Getenv("COLOR_EXPONENT"); s != "" {
		exp, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return cfg, errors.New("invalid COLOR_EXPONENT")
		}
		cfg.Exponent = exp
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid COLOR_STOPS/COLOR_ZERO_FILL/COLOR_EXPONENT: %w", err)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
