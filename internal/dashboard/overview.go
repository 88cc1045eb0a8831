package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/geo-kpi-service/internal/adapter/kpiapi"
	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// OverviewSource fetches the dashboard KPI documents.
type OverviewSource interface {
	Dashboard(ctx context.Context, f kpiapi.Filters) (any, error)
	DashboardAll(ctx context.Context) (any, error)
}

// OverviewKPIs are the headline cards. A nil value renders as "-".
type OverviewKPIs struct {
	TotalOffers     *float64 `json:"totalOffers"`
	TotalOrders     *float64 `json:"totalOrders"`
	ConversionRate  *float64 `json:"conversionRate"`
	PipelineValue   *float64 `json:"pipelineValue"`
	Revenue         *float64 `json:"revenue"`
	AvgLeadTimeDays *float64 `json:"avgLeadTimeDays"`
}

// SalesPoint is one point of the revenue chart.
type SalesPoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// OverviewView is the render-ready state of the Overview page.
type OverviewView struct {
	Range        domain.DateRange `json:"range"`
	StartDate    string           `json:"startDate"`
	EndDate      string           `json:"endDate"`
	KPIs         OverviewKPIs     `json:"kpis"`
	TopSalesmen  []string         `json:"topSalesmen"`
	TopCountries []string         `json:"topCountries"`
	SalesData    []SalesPoint     `json:"salesData"`
	AllTime      bool             `json:"allTime"`
}

// OverviewService builds the Overview page.
type OverviewService struct {
	source       OverviewSource
	defaultRange string
	snap         Snapshot[OverviewView]
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewOverviewService creates an Overview page service; unknown range keys
// resolve to defaultRange.
func NewOverviewService(source OverviewSource, defaultRange string, logger *slog.Logger, metrics *observability.Metrics) *OverviewService {
	return &OverviewService{
		source:       source,
		defaultRange: defaultRange,
		logger:       logger,
		metrics:      metrics,
	}
}

// Load fetches the KPIs for rangeKey. When the filtered query comes back
// empty the all-time figures are shown instead.
func (s *OverviewService) Load(ctx context.Context, rangeKey string) (OverviewView, error) {
	ticket := s.snap.Begin()
	r := domain.ResolveDateRange(rangeKey, s.defaultRange)

	data, err := s.source.Dashboard(ctx, kpiapi.Filters{StartDate: r.StartDate(), EndDate: r.EndDate()})
	if err != nil {
		return OverviewView{}, fmt.Errorf("load dashboard: %w", err)
	}

	allTime := false
	if isEmptyDocument(data) {
		s.logger.Warn("filtered dashboard data empty, fetching all dashboard data instead", "start_date", r.StartDate(), "end_date", r.EndDate())
		data, err = s.source.DashboardAll(ctx)
		if err != nil {
			return OverviewView{}, fmt.Errorf("load all dashboard data: %w", err)
		}
		allTime = true
	}

	view := buildOverview(asObject(data))
	view.Range = r
	view.StartDate = r.StartDate()
	view.EndDate = r.EndDate()
	view.AllTime = allTime

	if !s.snap.Commit(ticket, view) {
		s.metrics.StaleResponses.WithLabelValues("overview").Inc()
	}
	return view, nil
}

// Latest returns the last committed view.
func (s *OverviewService) Latest() (OverviewView, bool) {
	return s.snap.Load()
}

func buildOverview(data map[string]any) OverviewView {
	view := OverviewView{
		KPIs: OverviewKPIs{
			TotalOffers:     optionalNumber(data["totalOffers"]),
			TotalOrders:     optionalNumber(data["totalOrders"]),
			ConversionRate:  optionalNumber(data["conversionRate"]),
			PipelineValue:   optionalNumber(data["pipelineValue"]),
			Revenue:         optionalNumber(data["revenue"]),
			AvgLeadTimeDays: optionalNumber(data["avgLeadTimeDays"]),
		},
		TopSalesmen:  []string{},
		TopCountries: []string{},
		SalesData:    []SalesPoint{},
	}

	for _, row := range asList(data["topSalesmen"]) {
		view.TopSalesmen = append(view.TopSalesmen, textOr(asObject(row)["salesmanName"], ""))
	}
	for _, row := range asList(data["topCountries"]) {
		view.TopCountries = append(view.TopCountries, textOr(asObject(row)["countryCode"], ""))
	}
	for _, row := range asList(data["salesData"]) {
		point := asObject(row)
		view.SalesData = append(view.SalesData, SalesPoint{
			Date:    textOr(point["date"], ""),
			Revenue: numberOr(point["revenue"], 0),
		})
	}
	return view
}
