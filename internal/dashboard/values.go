package dashboard

import "github.com/couchcryptid/geo-kpi-service/internal/domain"

// Helpers for reading loosely-typed KPI API responses. Missing or
// mistyped fields degrade to defaults; they never fail a page.

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

// isEmptyDocument reports whether a response carries no data at all:
// null, an empty object, or an empty list.
func isEmptyDocument(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}

// firstTruthy returns the first field of obj holding a set value.
func firstTruthy(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := obj[k]; domain.Truthy(v) {
			return v
		}
	}
	return nil
}

func numberOr(v any, def float64) float64 {
	if n, ok := domain.CoerceNumber(v); ok {
		return n
	}
	return def
}

// optionalNumber is nil when v is absent or not numeric.
func optionalNumber(v any) *float64 {
	if v == nil {
		return nil
	}
	n, ok := domain.CoerceNumber(v)
	if !ok {
		return nil
	}
	return &n
}

func textOr(v any, def string) string {
	if !domain.Truthy(v) {
		return def
	}
	if s, ok := domain.CoerceText(v); ok {
		return s
	}
	return def
}
