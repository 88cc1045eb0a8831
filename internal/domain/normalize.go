package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Field aliases accepted by the upstream geo feed, in priority order.
// A "country." prefix addresses the nested country object.
var (
	codeFields   = []string{"countryCode", "countryISO", "countryIso", "country.code", "code", "iso_code"}
	salesFields  = []string{"sales", "totalSales", "revenue", "value", "amount", "total", "count"}
	nameFields   = []string{"countryName", "country.name", "name", "label", "title"}
	ordersFields = []string{"orders", "orderCount", "totalOrders", "ordersCount", "countOrders", "count"}
)

// NormalizeCountryRecord maps one loosely-typed record (as decoded by
// encoding/json) into a CountrySales. The boolean is false when the record
// has no usable country code or no finite, non-negative sales value.
func NormalizeCountryRecord(record any) (CountrySales, bool) {
	obj, ok := record.(map[string]any)
	if !ok {
		return CountrySales{}, false
	}

	rawCode, ok := firstPresent(obj, codeFields)
	if !ok || !Truthy(rawCode) {
		return CountrySales{}, false
	}
	rawSales, ok := firstPresent(obj, salesFields)
	if !ok {
		return CountrySales{}, false
	}

	sales, ok := CoerceNumber(rawSales)
	if !ok || sales < 0 {
		return CountrySales{}, false
	}

	code, ok := CoerceText(rawCode)
	if !ok {
		return CountrySales{}, false
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CountrySales{}, false
	}

	name := code
	if rawName, ok := firstPresent(obj, nameFields); ok {
		if s, ok := CoerceText(rawName); ok {
			name = s
		}
	}

	var orders float64
	if rawOrders, ok := firstPresent(obj, ordersFields); ok {
		if n, ok := CoerceNumber(rawOrders); ok && n >= 0 {
			orders = n
		}
	}

	return CountrySales{
		CountryCode: code,
		CountryName: name,
		Sales:       sales,
		Orders:      orders,
	}, true
}

// firstPresent returns the first field that exists and is not JSON null.
func firstPresent(obj map[string]any, fields []string) (any, bool) {
	for _, f := range fields {
		if v, ok := lookupField(obj, f); ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func lookupField(obj map[string]any, field string) (any, bool) {
	parent, child, nested := strings.Cut(field, ".")
	if !nested {
		v, ok := obj[field]
		return v, ok
	}
	inner, ok := obj[parent].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := inner[child]
	return v, ok
}

// CoerceNumber converts a JSON scalar to a finite float64. Numeric strings
// are parsed after trimming, an empty string is 0, booleans are 1 or 0.
func CoerceNumber(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, true
		}
		f, err := parseNumericString(s)
		if err != nil {
			return 0, false
		}
		n = f
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// parseNumericString parses decimal floats plus unsigned 0x, 0o and 0b
// integer literals.
func parseNumericString(s string) (float64, error) {
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, err
			}
			return float64(u), nil
		}
	}
	return strconv.ParseFloat(s, 64)
}

// Truthy reports whether a decoded JSON value counts as set: null, false,
// 0, NaN and "" do not; objects and arrays always do.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case map[string]any, []any:
		return true
	default:
		n, ok := CoerceNumber(v)
		return !ok || n != 0
	}
}

// CoerceText stringifies a JSON scalar. Objects and arrays are rejected.
func CoerceText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}
