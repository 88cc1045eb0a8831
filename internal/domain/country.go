package domain

import "time"

// CountrySales is the canonical per-country row of the geo KPI feed.
// It is only ever produced by NormalizeCountryRecord.
type CountrySales struct {
	CountryCode string  `json:"countryCode"`
	CountryName string  `json:"countryName"`
	Sales       float64 `json:"sales"`
	Orders      float64 `json:"orders"`
}

// GeoPayloadMeta carries the top-level metadata of a geo KPI response.
type GeoPayloadMeta struct {
	UpdatedAt *time.Time `json:"updatedAt"`
	Currency  *string    `json:"currency"`
}

// GeoPayload is the result of extracting a geo KPI response.
type GeoPayload struct {
	Entries []CountrySales `json:"entries"`
	Meta    GeoPayloadMeta `json:"meta"`

	// Dropped counts rows that failed normalization.
	Dropped int `json:"-"`
}
