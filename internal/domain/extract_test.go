package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(entries []CountrySales) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.CountryCode
	}
	return out
}

func TestExtractGeoPayload_RowLocations(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{"bare list", `[{"countryCode":"DE","sales":1},{"countryCode":"FR","sales":2}]`, []string{"FR", "DE"}},
		{"entries", `{"entries":[{"countryCode":"DE","sales":1}]}`, []string{"DE"}},
		{"countries", `{"countries":[{"countryCode":"IT","sales":1}]}`, []string{"IT"}},
		{"data", `{"data":[{"countryCode":"ES","sales":1}]}`, []string{"ES"}},
		{"entries wins over countries", `{"entries":[{"code":"A","sales":1}],"countries":[{"code":"B","sales":1}]}`, []string{"A"}},
		{"non-list entries falls through", `{"entries":"oops","countries":[{"code":"B","sales":1}]}`, []string{"B"}},
		{"no known collection", `{"rows":[{"code":"B","sales":1}]}`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractGeoPayload(decodeJSON(t, tt.payload))
			assert.Equal(t, tt.want, codes(got.Entries))
		})
	}
}

func TestExtractGeoPayload_SortsStableDescending(t *testing.T) {
	payload := decodeJSON(t, `[
		{"countryCode":"A","sales":10},
		{"countryCode":"B","sales":20},
		{"countryCode":"C","sales":10},
		{"countryCode":"D","sales":"30"},
		{"countryCode":"E","sales":10}
	]`)

	got := ExtractGeoPayload(payload)

	assert.Equal(t, []string{"D", "B", "A", "C", "E"}, codes(got.Entries))
}

func TestExtractGeoPayload_DropsInvalidRows(t *testing.T) {
	payload := decodeJSON(t, `{"entries":[
		{"countryCode":"DE","sales":5},
		{"countryCode":"","sales":5},
		{"sales":7},
		{"countryCode":"FR","sales":-1},
		"not a row",
		null
	]}`)

	got := ExtractGeoPayload(payload)

	assert.Equal(t, []string{"DE"}, codes(got.Entries))
	assert.Equal(t, 5, got.Dropped)
}

func TestExtractGeoPayload_Meta(t *testing.T) {
	t.Run("top-level currency and ISO timestamp", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"updatedAt":"2024-05-01T10:00:00Z","currency":"USD","entries":[]}`))

		require.NotNil(t, got.Meta.UpdatedAt)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *got.Meta.UpdatedAt)
		require.NotNil(t, got.Meta.Currency)
		assert.Equal(t, "USD", *got.Meta.Currency)
	})

	t.Run("nested meta currency", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"meta":{"currency":"GBP"},"data":[]}`))

		require.NotNil(t, got.Meta.Currency)
		assert.Equal(t, "GBP", *got.Meta.Currency)
	})

	t.Run("null top-level currency defers to meta", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"currency":null,"meta":{"currency":"CHF"}}`))

		require.NotNil(t, got.Meta.Currency)
		assert.Equal(t, "CHF", *got.Meta.Currency)
	})

	t.Run("non-string top-level currency defers to meta", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"currency":5,"meta":{"currency":"USD"}}`))

		require.NotNil(t, got.Meta.Currency)
		assert.Equal(t, "USD", *got.Meta.Currency)
	})

	t.Run("HTTP-date and offset timestamps", func(t *testing.T) {
		want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
		for _, raw := range []string{
			"Tue, 02 Jan 2024 10:00:00 GMT",
			"Tue, 02 Jan 2024 12:00:00 +0200",
			"2024-01-02T12:00:00+0200",
			"2024-01-02T10:00:00.000",
		} {
			got := ExtractGeoPayload(map[string]any{"updatedAt": raw})

			require.NotNil(t, got.Meta.UpdatedAt, raw)
			assert.True(t, want.Equal(*got.Meta.UpdatedAt), raw)
		}
	})

	t.Run("epoch milliseconds", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"updatedAt":1714557600000}`))

		require.NotNil(t, got.Meta.UpdatedAt)
		assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), *got.Meta.UpdatedAt)
	})

	t.Run("date only", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"updatedAt":"2024-05-01"}`))

		require.NotNil(t, got.Meta.UpdatedAt)
		assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), *got.Meta.UpdatedAt)
	})

	t.Run("unparseable values are absent", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `{"updatedAt":"yesterday","currency":978}`))

		assert.Nil(t, got.Meta.UpdatedAt)
		assert.Nil(t, got.Meta.Currency)
	})

	t.Run("list payload has no meta", func(t *testing.T) {
		got := ExtractGeoPayload(decodeJSON(t, `[{"countryCode":"DE","sales":1}]`))

		assert.Equal(t, GeoPayloadMeta{}, got.Meta)
	})
}

func TestExtractGeoPayload_Empty(t *testing.T) {
	for name, payload := range map[string]any{
		"empty object": map[string]any{},
		"nil":          nil,
		"string":       "geo",
		"number":       42.0,
	} {
		t.Run(name, func(t *testing.T) {
			got := ExtractGeoPayload(payload)

			assert.Empty(t, got.Entries)
			assert.Nil(t, got.Meta.UpdatedAt)
			assert.Nil(t, got.Meta.Currency)
			assert.Zero(t, got.Dropped)
		})
	}
}

func TestExtractGeoPayload_FullRows(t *testing.T) {
	payload := decodeJSON(t, `{"currency":"EUR","countries":[
		{"countryIso":"esp","name":"Spain","amount":210300,"totalOrders":120},
		{"country":{"code":"deu","name":"Germany"},"value":365000,"ordersCount":"300"}
	]}`)

	got := ExtractGeoPayload(payload)

	want := []CountrySales{
		{CountryCode: "DEU", CountryName: "Germany", Sales: 365000, Orders: 300},
		{CountryCode: "ESP", CountryName: "Spain", Sales: 210300, Orders: 120},
	}
	if diff := cmp.Diff(want, got.Entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}
