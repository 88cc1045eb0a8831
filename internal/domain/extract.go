package domain

import (
	"sort"
	"strings"
	"time"
)

// rowCollections are the object keys that may hold the country rows,
// checked in order when the payload is not itself a list.
var rowCollections = []string{"entries", "countries", "data"}

// updatedAtLayouts are the timestamp shapes accepted for updatedAt.
var updatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC850,
	time.ANSIC,
}

// ExtractGeoPayload locates the country rows inside an arbitrary geo KPI
// response, normalizes them, and sorts them by sales descending. Rows with
// equal sales keep their original relative order. Malformed payloads yield
// an empty result, never an error.
func ExtractGeoPayload(payload any) GeoPayload {
	obj, _ := payload.(map[string]any)

	rows := resolveRows(payload, obj)
	entries := make([]CountrySales, 0, len(rows))
	for _, row := range rows {
		if cs, ok := NormalizeCountryRecord(row); ok {
			entries = append(entries, cs)
		}
	}

	sortBySalesDesc(entries)

	return GeoPayload{
		Entries: entries,
		Meta:    extractMeta(obj),
		Dropped: len(rows) - len(entries),
	}
}

// sortBySalesDesc orders entries by sales, highest first, keeping the
// relative order of equal sales.
func sortBySalesDesc(entries []CountrySales) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Sales > entries[j].Sales
	})
}

func resolveRows(payload any, obj map[string]any) []any {
	if list, ok := payload.([]any); ok {
		return list
	}
	for _, key := range rowCollections {
		if list, ok := obj[key].([]any); ok {
			return list
		}
	}
	return nil
}

func extractMeta(obj map[string]any) GeoPayloadMeta {
	var meta GeoPayloadMeta
	if obj == nil {
		return meta
	}

	if raw, ok := obj["updatedAt"]; ok && raw != nil {
		meta.UpdatedAt = parseUpdatedAt(raw)
	}

	currency, ok := obj["currency"].(string)
	if !ok {
		if inner, isObj := obj["meta"].(map[string]any); isObj {
			currency, ok = inner["currency"].(string)
		}
	}
	if ok {
		meta.Currency = &currency
	}

	return meta
}

// parseUpdatedAt accepts ISO-8601 or HTTP-date strings and epoch
// milliseconds. Anything else is treated as absent.
func parseUpdatedAt(raw any) *time.Time {
	switch v := raw.(type) {
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range updatedAtLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
	case float64:
		t := time.UnixMilli(int64(v)).UTC()
		return &t
	}
	return nil
}
