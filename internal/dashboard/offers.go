package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/geo-kpi-service/internal/adapter/kpiapi"
	"github.com/couchcryptid/geo-kpi-service/internal/domain"
	"github.com/couchcryptid/geo-kpi-service/internal/observability"
)

// OffersSource fetches the offer KPI documents.
type OffersSource interface {
	OffersBySalesman(ctx context.Context) (any, error)
	OffersByCountry(ctx context.Context, f kpiapi.Filters) (any, error)
	OfferStatusDistribution(ctx context.Context, f kpiapi.Filters) (any, error)
	AverageOfferValue(ctx context.Context, f kpiapi.Filters) (any, error)
	TotalDiscounts(ctx context.Context, f kpiapi.Filters) (any, error)
}

// Salesman is one entry of the salesman filter.
type Salesman struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Offers     float64 `json:"offers"`
	TotalValue float64 `json:"totalValue"`
}

// CountryOffers is one bar of the offers-per-country chart.
type CountryOffers struct {
	Country    string  `json:"country"`
	Offers     float64 `json:"offers"`
	TotalValue float64 `json:"totalValue"`
}

// StatusCount is one slice of the offer status pie.
type StatusCount struct {
	Status string  `json:"status"`
	Count  float64 `json:"count"`
}

// OffersView is the render-ready state of the Offers page.
type OffersView struct {
	Range             domain.DateRange `json:"range"`
	StartDate         string           `json:"startDate"`
	EndDate           string           `json:"endDate"`
	DealerID          string           `json:"dealerId,omitempty"`
	ByCountry         []CountryOffers  `json:"byCountry"`
	Statuses          []StatusCount    `json:"statuses"`
	AverageOfferValue float64          `json:"averageOfferValue"`
	TotalDiscounts    float64          `json:"totalDiscounts"`
	TotalOffers       float64          `json:"totalOffers"`
	SalesmanCountries []CountryOffers  `json:"salesmanCountries"`
}

// OffersService builds the Offers page.
type OffersService struct {
	source       OffersSource
	defaultRange string
	snap         Snapshot[OffersView]
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// NewOffersService creates an Offers page service.
func NewOffersService(source OffersSource, defaultRange string, logger *slog.Logger, metrics *observability.Metrics) *OffersService {
	return &OffersService{
		source:       source,
		defaultRange: defaultRange,
		logger:       logger,
		metrics:      metrics,
	}
}

// Salesmen returns the salesman filter options.
func (s *OffersService) Salesmen(ctx context.Context) ([]Salesman, error) {
	data, err := s.source.OffersBySalesman(ctx)
	if err != nil {
		return nil, fmt.Errorf("load salesmen: %w", err)
	}
	return lo.Map(asList(data), func(row any, _ int) Salesman {
		obj := asObject(row)
		return Salesman{
			ID:         textOr(obj["salesmanId"], ""),
			Name:       textOr(obj["salesmanName"], "Unknown"),
			Offers:     numberOr(firstTruthy(obj, "offersCount"), 0),
			TotalValue: numberOr(firstTruthy(obj, "totalValue"), 0),
		}
	}), nil
}

// Load fetches the filtered offer KPIs in parallel. Any failed request
// fails the whole page. An empty dealerID means all salesmen.
func (s *OffersService) Load(ctx context.Context, rangeKey, dealerID string) (OffersView, error) {
	ticket := s.snap.Begin()
	r := domain.ResolveDateRange(rangeKey, s.defaultRange)
	filters := kpiapi.Filters{StartDate: r.StartDate(), EndDate: r.EndDate(), DealerID: dealerID}

	var countryData, statusData, avgData, discountData any
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		countryData, err = s.source.OffersByCountry(gctx, filters)
		return err
	})
	g.Go(func() (err error) {
		statusData, err = s.source.OfferStatusDistribution(gctx, filters)
		return err
	})
	g.Go(func() (err error) {
		avgData, err = s.source.AverageOfferValue(gctx, filters)
		return err
	})
	g.Go(func() (err error) {
		discountData, err = s.source.TotalDiscounts(gctx, filters)
		return err
	})
	if err := g.Wait(); err != nil {
		return OffersView{}, fmt.Errorf("load offers: %w", err)
	}

	view := OffersView{
		Range:     r,
		StartDate: r.StartDate(),
		EndDate:   r.EndDate(),
		DealerID:  dealerID,
		ByCountry: lo.Map(asList(countryData), func(row any, _ int) CountryOffers {
			obj := asObject(row)
			return CountryOffers{
				Country:    textOr(obj["countryCode"], "N/A"),
				Offers:     numberOr(firstTruthy(obj, "offersCount"), 0),
				TotalValue: numberOr(firstTruthy(obj, "totalValue"), 0),
			}
		}),
		Statuses: lo.Map(asList(statusData), func(row any, _ int) StatusCount {
			obj := asObject(row)
			return StatusCount{
				Status: textOr(obj["status"], "Unknown"),
				Count:  numberOr(firstTruthy(obj, "count"), 0),
			}
		}),
		AverageOfferValue: numberOr(firstTruthy(asObject(avgData), "averageValue", "averageAmount", "amount"), 0),
		TotalDiscounts:    numberOr(firstTruthy(asObject(discountData), "totalDiscount", "total", "amount"), 0),
		SalesmanCountries: []CountryOffers{},
	}
	view.TotalOffers = lo.SumBy(view.Statuses, func(st StatusCount) float64 { return st.Count })

	if dealerID != "" {
		view.SalesmanCountries = lo.Map(view.ByCountry, func(c CountryOffers, _ int) CountryOffers {
			return CountryOffers{Country: c.Country, Offers: c.Offers}
		})
	}

	if !s.snap.Commit(ticket, view) {
		s.metrics.StaleResponses.WithLabelValues("offers").Inc()
	}
	return view, nil
}

// Latest returns the last committed view.
func (s *OffersService) Latest() (OffersView, bool) {
	return s.snap.Load()
}
