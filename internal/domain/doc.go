// Package domain turns loosely-structured KPI API responses into the view
// models of the sales dashboard.
//
// # Geo feed
//
// The upstream geo endpoint has shipped several shapes over time. A response
// is either a bare list of rows or an object holding the rows under
// "entries", "countries" or "data", optionally with "updatedAt" and
// "currency" (or "meta.currency"). Each row names its country and sales
// figure under one of several aliases:
//
//	{"countryCode": "deu", "sales": 365000}
//	{"country": {"code": "FR", "name": "France"}, "revenue": "292500"}
//	{"iso_code": "BR", "total": 152000, "orderCount": 410}
//
// [NormalizeCountryRecord] resolves the aliases in a fixed priority order and
// rejects rows without a code or with negative, missing or non-numeric sales.
// Numeric strings are accepted because some exporters quote every value.
// [ExtractGeoPayload] applies it to every row and ranks the survivors by
// sales, preserving feed order among ties.
//
// # Choropleth
//
// [ColorScale] maps sales to a fill relative to the best-selling country.
// The ratio is raised to a power below 1 before being spread across the
// palette so that mid-sized markets remain distinguishable from the long
// tail. Countries without sales get a neutral fill outside the palette.
//
// Map regions are matched to rows by ISO-A3, then ISO-A2, then accent-folded
// name (see [NormalizeCountryName]). Natural Earth uses "-99" for regions
// without an assigned ISO-A3 code.
//
// # Chart labels
//
// Category and item names on bar charts are wrapped by [WrapLabel] and capped
// by [TruncateLines]. Lengths are counted in runes, not bytes.
package domain
