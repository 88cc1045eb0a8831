package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geo-kpi-service/internal/adapter/kpiapi"
	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

var testNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

// stubFetcher serves canned documents keyed by endpoint path.
type stubFetcher struct {
	mu        sync.Mutex
	responses map[string]any
	errs      map[string]error
	queries   map[string]url.Values
	calls     map[string]int
	before    func(path string)
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		responses: map[string]any{},
		errs:      map[string]error{},
		queries:   map[string]url.Values{},
		calls:     map[string]int{},
	}
}

func (s *stubFetcher) Fetch(_ context.Context, path string, query url.Values) (any, error) {
	if s.before != nil {
		s.before(path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[path]++
	s.queries[path] = query
	if err := s.errs[path]; err != nil {
		return nil, err
	}
	return s.responses[path], nil
}

// holdFirst blocks the first fetch of path until release is closed.
// started is closed once that fetch is in flight.
func (s *stubFetcher) holdFirst(path string) (started <-chan struct{}, release chan<- struct{}) {
	start := make(chan struct{})
	rel := make(chan struct{})
	var once sync.Once
	s.before = func(p string) {
		if p != path {
			return
		}
		held := false
		once.Do(func() { held = true })
		if held {
			close(start)
			<-rel
		}
	}
	return start, rel
}

func (s *stubFetcher) respond(t *testing.T, path, body string) {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = v
}

func (s *stubFetcher) fail(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[path] = err
}

func (s *stubFetcher) callCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

func (s *stubFetcher) query(path string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries[path]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func freezeClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func newTestAPI() (*kpiapi.API, *stubFetcher) {
	f := newStubFetcher()
	return kpiapi.NewAPI(f), f
}

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}
