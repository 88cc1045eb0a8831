package dashboard

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/geo-kpi-service/internal/adapter/kpiapi"
	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// InsightsSource fetches the cross-sell KPI documents.
type InsightsSource interface {
	TotalUpsellValue(ctx context.Context) (any, error)
	AverageUpsellValue(ctx context.Context) (any, error)
	DiscountedUpsells(ctx context.Context) (any, error)
	TopUpsellCategories(ctx context.Context, mode kpiapi.RankMode) (any, error)
	TopUpsellItems(ctx context.Context, mode kpiapi.RankMode) (any, error)
}

// RankedBar is one bar of a top-N chart with its wrapped tick label.
type RankedBar struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
	Value float64  `json:"value"`
}

// UpsellKPIs are the headline cards of the Product Insights page.
type UpsellKPIs struct {
	TotalUpsellValue       float64  `json:"totalUpsellValue"`
	AverageUpsellValue     float64  `json:"averageUpsellValue"`
	DiscountedCount        float64  `json:"discountedCount"`
	AverageDiscountPercent *float64 `json:"averageDiscountPercent"`
}

// InsightsView is the render-ready state of the Product Insights page.
type InsightsView struct {
	KPIs         UpsellKPIs      `json:"kpis"`
	CategoryMode kpiapi.RankMode `json:"categoryMode"`
	Categories   []RankedBar     `json:"categories"`
	ItemMode     kpiapi.RankMode `json:"itemMode"`
	Items        []RankedBar     `json:"items"`
}

// InsightsService builds the Product Insights page. Every section fails
// soft: a failed KPI trio shows zeros, a failed ranking shows no bars.
type InsightsService struct {
	source  InsightsSource
	labels  domain.LabelWrapper
	snap    Snapshot[InsightsView]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewInsightsService creates a Product Insights page service.
func NewInsightsService(source InsightsSource, labels domain.LabelWrapper, logger *slog.Logger, metrics *observability.Metrics) *InsightsService {
	return &InsightsService{
		source:  source,
		labels:  labels,
		logger:  logger,
		metrics: metrics,
	}
}

// Load fetches the KPI trio and both rankings concurrently.
func (s *InsightsService) Load(ctx context.Context, categoryMode, itemMode kpiapi.RankMode) InsightsView {
	ticket := s.snap.Begin()
	categoryMode = kpiapi.ParseRankMode(string(categoryMode))
	itemMode = kpiapi.ParseRankMode(string(itemMode))

	view := InsightsView{CategoryMode: categoryMode, ItemMode: itemMode}

	var g errgroup.Group
	g.Go(func() error {
		view.KPIs = s.loadKPIs(ctx)
		return nil
	})
	g.Go(func() error {
		view.Categories = s.loadRanking(ctx, "categories", "category", categoryMode, s.source.TopUpsellCategories)
		return nil
	})
	g.Go(func() error {
		view.Items = s.loadRanking(ctx, "items", "item", itemMode, s.source.TopUpsellItems)
		return nil
	})
	_ = g.Wait()

	if !s.snap.Commit(ticket, view) {
		s.metrics.StaleResponses.WithLabelValues("product_insights").Inc()
	}
	return view
}

// Latest returns the last committed view.
func (s *InsightsService) Latest() (InsightsView, bool) {
	return s.snap.Load()
}

// loadKPIs is all-or-nothing: if any of the three requests fails, every
// card shows zero.
func (s *InsightsService) loadKPIs(ctx context.Context) UpsellKPIs {
	var total, avg, discounted any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = s.source.TotalUpsellValue(gctx)
		return err
	})
	g.Go(func() (err error) {
		avg, err = s.source.AverageUpsellValue(gctx)
		return err
	})
	g.Go(func() (err error) {
		discounted, err = s.source.DiscountedUpsells(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load upsell KPIs", "error", err)
		return UpsellKPIs{}
	}

	d := asObject(discounted)
	return UpsellKPIs{
		TotalUpsellValue:       numberOr(total, 0),
		AverageUpsellValue:     numberOr(avg, 0),
		DiscountedCount:        numberOr(d["discountedCount"], 0),
		AverageDiscountPercent: optionalNumber(d["averageDiscountPercent"]),
	}
}

func (s *InsightsService) loadRanking(
	ctx context.Context,
	section, nameField string,
	mode kpiapi.RankMode,
	fetch func(context.Context, kpiapi.RankMode) (any, error),
) []RankedBar {
	data, err := fetch(ctx, mode)
	if err != nil {
		s.logger.Error("failed to load upsell ranking", "section", section, "mode", mode, "error", err)
		return []RankedBar{}
	}

	valueField := "count"
	if mode == kpiapi.RankByValue {
		valueField = "totalValue"
	}

	rows := asList(data)
	bars := make([]RankedBar, 0, len(rows))
	for _, row := range rows {
		obj := asObject(row)
		name := textOr(obj[nameField], "")
		bars = append(bars, RankedBar{
			Name:  name,
			Lines: s.labels.Lines(name),
			Value: numberOr(obj[valueField], 0),
		})
	}
	return bars
}
