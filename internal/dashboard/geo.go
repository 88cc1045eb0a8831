package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// Warnings shown above the map when sample data is served.
const (
	WarningGeoEmpty       = "No geo KPI data returned. Displaying sample data."
	WarningGeoUnreachable = "Unable to reach geo KPI endpoint. Displaying sample data."
)

// TopCountriesShown is the length of the "Top Performing Countries" list.
const TopCountriesShown = 5

// GeoSource fetches the raw geo KPI document.
type GeoSource interface {
	GeoKPIs(ctx context.Context) (any, error)
}

// GeoMeta is the view-level metadata; Currency is always set.
type GeoMeta struct {
	UpdatedAt *time.Time `json:"updatedAt"`
	Currency  string     `json:"currency"`
}

// Legend describes the choropleth gradient, low to high.
type Legend struct {
	Stops    []string `json:"stops"`
	ZeroFill string   `json:"zeroFill"`
}

// GeoView is the render-ready state of the Geo page.
type GeoView struct {
	Entries   []domain.CountrySales `json:"entries"`
	Meta      GeoMeta               `json:"meta"`
	Fills     map[string]string     `json:"fills"`
	Legend    Legend                `json:"legend"`
	Summary   domain.GeoSummary     `json:"summary"`
	Warning   string                `json:"warning,omitempty"`
	Fallback  bool                  `json:"fallback"`
	FetchedAt time.Time             `json:"fetchedAt"`
}

// SampleGeoEntries is served when the feed is empty or unreachable.
func SampleGeoEntries() []domain.CountrySales {
	return []domain.CountrySales{
		{CountryCode: "USA", CountryName: "United States", Sales: 420000},
		{CountryCode: "DEU", CountryName: "Germany", Sales: 365000},
		{CountryCode: "FRA", CountryName: "France", Sales: 292500},
		{CountryCode: "GBR", CountryName: "United Kingdom", Sales: 248400},
		{CountryCode: "ESP", CountryName: "Spain", Sales: 210300},
		{CountryCode: "ITA", CountryName: "Italy", Sales: 189200},
		{CountryCode: "BRA", CountryName: "Brazil", Sales: 152000},
		{CountryCode: "CAN", CountryName: "Canada", Sales: 143600},
		{CountryCode: "AUS", CountryName: "Australia", Sales: 127500},
		{CountryCode: "IND", CountryName: "India", Sales: 118900},
	}
}

// GeoService builds the Geo page and keeps its latest committed view.
type GeoService struct {
	source   GeoSource
	scale    *domain.ColorScale
	currency string
	snap     Snapshot[GeoView]
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewGeoService creates a Geo page service. fallbackCurrency is used when
// the feed names none and for sample data.
func NewGeoService(source GeoSource, scale *domain.ColorScale, fallbackCurrency string, logger *slog.Logger, metrics *observability.Metrics) *GeoService {
	return &GeoService{
		source:   source,
		scale:    scale,
		currency: fallbackCurrency,
		logger:   logger,
		metrics:  metrics,
	}
}

// Refresh fetches the geo feed and builds a new view. Upstream failures and
// empty feeds produce a sample-data view with a warning; the error is the
// upstream failure, if any, and the view is usable either way. committed
// is false when a newer refresh started while this one was in flight.
func (s *GeoService) Refresh(ctx context.Context) (view GeoView, committed bool, err error) {
	ticket := s.snap.Begin()

	payload, err := s.source.GeoKPIs(ctx)
	switch {
	case err != nil:
		s.logger.Error("failed to load geo KPI data", "error", err)
		s.metrics.FallbackServed.WithLabelValues("unreachable").Inc()
		view = s.fallbackView(WarningGeoUnreachable)
	default:
		extracted := domain.ExtractGeoPayload(payload)
		if extracted.Dropped > 0 {
			s.metrics.GeoRowsDropped.Add(float64(extracted.Dropped))
			s.logger.Debug("dropped invalid geo rows", "dropped", extracted.Dropped, "kept", len(extracted.Entries))
		}
		if len(extracted.Entries) == 0 {
			s.metrics.FallbackServed.WithLabelValues("empty").Inc()
			view = s.fallbackView(WarningGeoEmpty)
		} else {
			meta := GeoMeta{UpdatedAt: extracted.Meta.UpdatedAt, Currency: s.currency}
			if extracted.Meta.Currency != nil {
				meta.Currency = *extracted.Meta.Currency
			}
			view = s.buildView(extracted.Entries, meta)
		}
	}

	committed = s.snap.Commit(ticket, view)
	if !committed {
		s.metrics.StaleResponses.WithLabelValues("geo").Inc()
		s.logger.Debug("discarding stale geo response")
	} else {
		s.metrics.SnapshotEntries.Observe(float64(len(view.Entries)))
	}
	return view, committed, err
}

// Latest returns the last committed view.
func (s *GeoService) Latest() (GeoView, bool) {
	return s.snap.Load()
}

// Current returns the last committed view, refreshing first if there is none.
func (s *GeoService) Current(ctx context.Context) GeoView {
	if view, ok := s.Latest(); ok {
		return view
	}
	view, _, _ := s.Refresh(ctx)
	return view
}

// Shade colors map regions against the current view.
func (s *GeoService) Shade(ctx context.Context, regions []domain.Region) []domain.RegionFill {
	view := s.Current(ctx)
	idx := domain.NewCountryIndex(view.Entries)

	fills := make([]domain.RegionFill, len(regions))
	for i, r := range regions {
		fills[i] = domain.ShadeRegion(idx, s.scale, r, view.Summary.MaxSales)
	}
	return fills
}

// Scale returns the color scale used for shading.
func (s *GeoService) Scale() *domain.ColorScale {
	return s.scale
}

func (s *GeoService) fallbackView(warning string) GeoView {
	view := s.buildView(SampleGeoEntries(), GeoMeta{Currency: s.currency})
	view.Warning = warning
	view.Fallback = true
	return view
}

func (s *GeoService) buildView(entries []domain.CountrySales, meta GeoMeta) GeoView {
	summary := domain.SummarizeGeo(entries, TopCountriesShown)

	fills := make(map[string]string, len(entries))
	for _, e := range entries {
		fills[e.CountryCode] = s.scale.ColorFor(e.Sales, summary.MaxSales)
	}

	return GeoView{
		Entries: entries,
		Meta:    meta,
		Fills:   fills,
		Legend: Legend{
			Stops:    s.scale.Stops(),
			ZeroFill: s.scale.ZeroFill(),
		},
		Summary:   summary,
		FetchedAt: domain.Now(),
	}
}
