package kpiapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// Fetcher retrieves a JSON document from the KPI API. The returned value is
// whatever encoding/json produced, or nil when the body was not JSON.
// Callers must treat it as read-only since it may be shared through a cache.
type Fetcher interface {
	Fetch(ctx context.Context, path string, query url.Values) (any, error)
}

// APIError is a non-2xx response from the KPI API.
type APIError struct {
	StatusCode  int
	Message     string
	FieldErrors any
}

func (e *APIError) Error() string {
	return e.Message
}

// Client implements Fetcher over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a KPI API client rooted at baseURL (e.g. "http://host/api").
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch issues GET baseURL+path?query. JSON bodies are decoded only when the
// response declares an application/json content type; an undecodable body
// yields nil data rather than an error.
func (c *Client) Fetch(ctx context.Context, path string, query url.Values) (any, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	start := time.Now()
	data, err := c.doRequest(ctx, u)
	c.metrics.UpstreamDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(path, "error").Inc()
		c.logger.Warn("kpi api request failed", "endpoint", path, "error", err)
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(path, "success").Inc()
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kpi api request: %w", err)
	}
	defer resp.Body.Close()

	var data any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			c.logger.Debug("discarding undecodable kpi api body", "url", fullURL, "error", err)
			data = nil
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newAPIError(resp.StatusCode, data)
	}
	return data, nil
}

func newAPIError(status int, data any) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf("HTTP %d", status),
	}
	body, ok := data.(map[string]any)
	if !ok {
		return apiErr
	}
	for _, key := range []string{"message", "error"} {
		if msg, ok := body[key].(string); ok && msg != "" {
			apiErr.Message = msg
			break
		}
	}
	if fieldErrors, ok := body["errors"]; ok && fieldErrors != nil {
		apiErr.FieldErrors = fieldErrors
	}
	return apiErr
}
