package kpiapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

const testBaseURL = "http://kpi.test/api"

func testClient(transport http.RoundTripper) *Client {
	return &Client{
		baseURL:    testBaseURL,
		httpClient: &http.Client{Transport: transport, Timeout: 5 * time.Second},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestClient_Fetch_DecodesJSON(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testBaseURL+PathGeo,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"currency": "EUR",
			"entries":  []any{map[string]any{"countryCode": "DEU", "sales": 365000}},
		}))

	c := testClient(transport)
	data, err := c.Fetch(context.Background(), PathGeo, nil)
	require.NoError(t, err)

	body, ok := data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "EUR", body["currency"])
	assert.Len(t, body["entries"], 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(PathGeo, "success")))
}

func TestClient_Fetch_SendsQueryAndHeaders(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testBaseURL+PathDashboard,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			assert.Equal(t, "2024-01-01", req.URL.Query().Get("startDate"))
			assert.Equal(t, "2024-06-30", req.URL.Query().Get("endDate"))
			assert.False(t, req.URL.Query().Has("dealerId"))
			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{"totalOffers": 3})
		})

	c := testClient(transport)
	data, err := c.Fetch(context.Background(), PathDashboard, Filters{StartDate: "2024-01-01", EndDate: "2024-06-30"}.Values())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"totalOffers": 3.0}, data)
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestClient_Fetch_NonJSONBodyIsNil(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testBaseURL+PathGeo,
		httpmock.NewStringResponder(http.StatusOK, "<html>maintenance</html>"))

	data, err := testClient(transport).Fetch(context.Background(), PathGeo, nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClient_Fetch_MalformedJSONIsNil(t *testing.T) {
	resp := httpmock.NewStringResponse(http.StatusOK, `{"entries":[`)
	resp.Header.Set("Content-Type", "application/json; charset=utf-8")

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testBaseURL+PathGeo, httpmock.ResponderFromResponse(resp))

	data, err := testClient(transport).Fetch(context.Background(), PathGeo, nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestClient_Fetch_APIErrors(t *testing.T) {
	tests := []struct {
		name        string
		responder   httpmock.Responder
		wantStatus  int
		wantMessage string
		wantFields  any
	}{
		{
			name:        "message preferred",
			responder:   httpmock.NewJsonResponderOrPanic(http.StatusBadRequest, map[string]any{"message": "bad range", "error": "ignored"}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "bad range",
		},
		{
			name:        "error used when message missing",
			responder:   httpmock.NewJsonResponderOrPanic(http.StatusNotFound, map[string]any{"error": "no such dealer"}),
			wantStatus:  http.StatusNotFound,
			wantMessage: "no such dealer",
		},
		{
			name:        "empty message falls through",
			responder:   httpmock.NewJsonResponderOrPanic(http.StatusConflict, map[string]any{"message": "", "error": "conflict"}),
			wantStatus:  http.StatusConflict,
			wantMessage: "conflict",
		},
		{
			name:        "field errors carried",
			responder:   httpmock.NewJsonResponderOrPanic(http.StatusUnprocessableEntity, map[string]any{"message": "invalid", "errors": map[string]any{"startDate": "required"}}),
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "invalid",
			wantFields:  map[string]any{"startDate": "required"},
		},
		{
			name:        "plain text body",
			responder:   httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"),
			wantStatus:  http.StatusBadGateway,
			wantMessage: "HTTP 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder(http.MethodGet, testBaseURL+PathOffersPerSalesman, tt.responder)

			c := testClient(transport)
			_, err := c.Fetch(context.Background(), PathOffersPerSalesman, nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantMessage, apiErr.Error())
			assert.Equal(t, tt.wantFields, apiErr.FieldErrors)
			assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.UpstreamRequests.WithLabelValues(PathOffersPerSalesman, "error")))
		})
	}
}

func TestClient_Fetch_TransportError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder(http.MethodGet, testBaseURL+PathGeo, httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := testClient(transport).Fetch(context.Background(), PathGeo, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestNewClient_TrimsBaseURL(t *testing.T) {
	c := NewClient(testBaseURL+"/", time.Second, slog.Default(), observability.NewMetricsForTesting())
	assert.Equal(t, testBaseURL, c.baseURL)
}

func TestFilters_Values(t *testing.T) {
	assert.Empty(t, Filters{}.Values())
	assert.Equal(t, url.Values{
		"startDate": {"2024-01-01"},
		"endDate":   {"2024-01-31"},
		"dealerId":  {"42"},
	}, Filters{StartDate: "2024-01-01", EndDate: "2024-01-31", DealerID: "42"}.Values())
}

func TestParseRankMode(t *testing.T) {
	assert.Equal(t, RankByValue, ParseRankMode("value"))
	assert.Equal(t, RankByCount, ParseRankMode("count"))
	assert.Equal(t, RankByCount, ParseRankMode(""))
	assert.Equal(t, RankByCount, ParseRankMode("VALUE"))
}
