package kpiapi

import (
	"context"
	"net/url"
)

// KPI API endpoints, relative to the client's base URL.
const (
	PathGeo          = "/dashboard/geo"
	PathDashboard    = "/dashboard"
	PathDashboardAll = "/dashboard/all"

	PathOffersPerSalesman     = "/offers/per-salesman"
	PathOffersPerCountry      = "/offers/per-country"
	PathOffersStatus          = "/offers/status-distribution"
	PathOffersAverageValue    = "/offers/average-value"
	PathOffersDiscountsGiven  = "/offers/discounts-given"
	PathUpsellTotalValue      = "/cross-sell-products/total-upsell-value"
	PathUpsellAverageValue    = "/cross-sell-products/average-upsell-value"
	PathUpsellDiscounted      = "/cross-sell-products/discounted-upsells"
	PathUpsellCategoriesCount = "/cross-sell-products/top-upsell-categories-count"
	PathUpsellCategoriesValue = "/cross-sell-products/top-upsell-categories-value"
	PathUpsellItemsCount      = "/cross-sell-products/top-upsell-items-count"
	PathUpsellItemsValue      = "/cross-sell-products/top-upsell-items-value"
)

// RankMode selects whether top-N upsell rankings are by count or by value.
type RankMode string

const (
	RankByCount RankMode = "count"
	RankByValue RankMode = "value"
)

// ParseRankMode maps "value" to RankByValue and anything else to RankByCount.
func ParseRankMode(s string) RankMode {
	if RankMode(s) == RankByValue {
		return RankByValue
	}
	return RankByCount
}

// Filters are the query parameters shared by the filtered endpoints.
// Empty fields are omitted.
type Filters struct {
	StartDate string
	EndDate   string
	DealerID  string
}

// Values encodes the filters as a query string.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.StartDate != "" {
		v.Set("startDate", f.StartDate)
	}
	if f.EndDate != "" {
		v.Set("endDate", f.EndDate)
	}
	if f.DealerID != "" {
		v.Set("dealerId", f.DealerID)
	}
	return v
}

// API names the KPI endpoints on top of a Fetcher.
type API struct {
	f Fetcher
}

// NewAPI creates an API over f.
func NewAPI(f Fetcher) *API {
	return &API{f: f}
}

func (a *API) GeoKPIs(ctx context.Context) (any, error) {
	return a.f.Fetch(ctx, PathGeo, nil)
}

func (a *API) Dashboard(ctx context.Context, f Filters) (any, error) {
	return a.f.Fetch(ctx, PathDashboard, f.Values())
}

func (a *API) DashboardAll(ctx context.Context) (any, error) {
	return a.f.Fetch(ctx, PathDashboardAll, nil)
}

func (a *API) OffersBySalesman(ctx context.Context) (any, error) {
	return a.f.Fetch(ctx, PathOffersPerSalesman, nil)
}

func (a *API) OffersByCountry(ctx context.Context, f Filters) (any, error) {
	return a.f.Fetch(ctx, PathOffersPerCountry, f.Values())
}

func (a *API) OfferStatusDistribution(ctx context.Context, f Filters) (any, error) {
	return a.f.Fetch(ctx, PathOffersStatus, f.Values())
}

func (a *API) AverageOfferValue(ctx context.Context, f Filters) (any, error) {
	return a.f.Fetch(ctx, PathOffersAverageValue, f.Values())
}

func (a *API) TotalDiscounts(ctx context.Context, f Filters) (any, error) {
	return a.f.Fetch(ctx, PathOffersDiscountsGiven, f.Values())
}

func (a *API) TotalUpsellValue(ctx context.Context) (any, error) {
	return a.f.Fetch(ctx, PathUpsellTotalValue, nil)
}

func (a *API) AverageUpsellValue(ctx context.Context) (any, error) {
	return a.f.Fetch(ctx, PathUpsellAverageValue, nil)
}

func (a *API) DiscountedUpsells(ctx context.Context) (any, error) {
	return a.f.Fetch(ctx, PathUpsellDiscounted, nil)
}

func (a *API) TopUpsellCategories(ctx context.Context, mode RankMode) (any, error) {
	if mode == RankByValue {
		return a.f.Fetch(ctx, PathUpsellCategoriesValue, nil)
	}
	return a.f.Fetch(ctx, PathUpsellCategoriesCount, nil)
}

func (a *API) TopUpsellItems(ctx context.Context, mode RankMode) (any, error) {
	if mode == RankByValue {
		return a.f.Fetch(ctx, PathUpsellItemsValue, nil)
	}
	return a.f.Fetch(ctx, PathUpsellItemsCount, nil)
}
