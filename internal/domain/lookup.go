package domain

import (
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningMarks is the Combining Diacritical Marks block, U+0300..U+036F.
var combiningMarks = runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
})

// NormalizeCountryName folds a country name into a lookup key: lowercase,
// accents stripped, only ASCII letters and single spaces kept.
// "Côte d'Ivoire" becomes "cote divoire".
func NormalizeCountryName(name string) string {
	if name == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(combiningMarks))
	folded, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		folded = strings.ToLower(name)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Region is the subset of map geography properties used for shading.
type Region struct {
	ISOA3 string `json:"ISO_A3"`
	ISOA2 string `json:"ISO_A2"`
	Name  string `json:"NAME"`
}

// Code is the region's display code. Natural Earth marks disputed or
// unassigned ISO-A3 codes with "-99", in which case ISO-A2 is used.
func (r Region) Code() string {
	if r.ISOA3 != "" && r.ISOA3 != "-99" {
		return r.ISOA3
	}
	return r.ISOA2
}

// CountryIndex resolves map regions to country sales rows by code or name.
type CountryIndex struct {
	byKey map[string]CountrySales
}

// NewCountryIndex indexes entries by uppercased code and normalized name.
// When two entries share a key the later one wins.
func NewCountryIndex(entries []CountrySales) *CountryIndex {
	idx := &CountryIndex{byKey: make(map[string]CountrySales, len(entries)*2)}
	for _, e := range entries {
		idx.byKey[strings.ToUpper(e.CountryCode)] = e
		if name := NormalizeCountryName(e.CountryName); name != "" {
			idx.byKey[name] = e
		}
	}
	return idx
}

// Lookup tries ISO-A3, then ISO-A2, then the normalized region name.
func (idx *CountryIndex) Lookup(r Region) (CountrySales, bool) {
	keys := []string{
		strings.ToUpper(r.ISOA3),
		strings.ToUpper(r.ISOA2),
		NormalizeCountryName(r.Name),
	}
	for _, k := range keys {
		if e, ok := idx.byKey[k]; ok {
			return e, true
		}
	}
	return CountrySales{}, false
}

// Len reports the number of distinct lookup keys.
func (idx *CountryIndex) Len() int {
	return len(idx.byKey)
}

// RegionFill is the shaded state of one map region, as shown on hover.
type RegionFill struct {
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Sales             float64  `json:"sales"`
	Orders            float64  `json:"orders"`
	Fill              string   `json:"fill"`
	Matched           bool     `json:"matched"`
	AverageOrderValue *float64 `json:"averageOrderValue"`
}

// ShadeRegion colors a region against maxSales. Unmatched regions get the
// zero fill and report zero sales and orders.
func ShadeRegion(idx *CountryIndex, scale *ColorScale, r Region, maxSales float64) RegionFill {
	e, ok := idx.Lookup(r)
	fill := RegionFill{
		Code:    r.Code(),
		Name:    r.Name,
		Matched: ok,
		Fill:    scale.ZeroFill(),
	}
	if !ok {
		return fill
	}
	fill.Sales = e.Sales
	fill.Orders = e.Orders
	fill.Fill = scale.ColorFor(e.Sales, maxSales)
	if e.Orders > 0 {
		avg := e.Sales / e.Orders
		fill.AverageOrderValue = &avg
	}
	return fill
}

// GeoSummary holds the headline figures of the Geo page.
type GeoSummary struct {
	CountriesTracked int            `json:"countriesTracked"`
	TotalSales       float64        `json:"totalSales"`
	MaxSales         float64        `json:"maxSales"`
	TopCountries     []CountrySales `json:"topCountries"`
}

// SummarizeGeo computes the summary cards and the top-N ranking.
// Entries need not be sorted; ties keep their input order.
func SummarizeGeo(entries []CountrySales, topN int) GeoSummary {
	maxSales := 0.0
	for _, e := range entries {
		maxSales = max(maxSales, e.Sales)
	}

	ranked := append([]CountrySales(nil), entries...)
	sortBySalesDesc(ranked)
	if topN >= 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	return GeoSummary{
		CountriesTracked: len(entries),
		TotalSales:       lo.SumBy(entries, func(e CountrySales) float64 { return e.Sales }),
		MaxSales:         maxSales,
		TopCountries:     ranked,
	}
}
