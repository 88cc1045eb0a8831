// Command geofill reads a geo KPI payload captured from the upstream API and
// writes the normalized, shaded country list the Geo page would render. It
// uses the service's domain package so the output matches live behavior.
//
// Usage:
//
//	go run ./cmd/geofill \
//	  -in testdata/geo_payload.json \
//	  -out data/geo_filled.json \
//	  -regions data/world_regions.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/geo-kpi-service/internal/domain"
)

const topN = 5

// shadedEntry is one country of the output, with its choropleth fill.
type shadedEntry struct {
	domain.CountrySales
	Fill     string  `json:"fill"`
	Position float64 `json:"position"`
}

// report is the document written to -out.
type report struct {
	Currency string              `json:"currency"`
	Entries  []shadedEntry       `json:"entries"`
	Regions  []domain.RegionFill `json:"regions,omitempty"`
	Summary  domain.GeoSummary   `json:"summary"`
	Dropped  int                 `json:"dropped"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to a geo KPI payload (JSON)")
	out := flag.String("out", "", "output path for the shaded entries (JSON)")
	regionsPath := flag.String("regions", "", "optional JSON array of map regions ({ISO_A3, ISO_A2, NAME}) to shade")
	currency := flag.String("currency", "EUR", "currency used when the payload names none")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	var payload any
	if err := readJSON(*in, &payload); err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	var regions []domain.Region
	if *regionsPath != "" {
		if err := readJSON(*regionsPath, &regions); err != nil {
			return fmt.Errorf("reading regions: %w", err)
		}
	}

	rep := buildReport(payload, regions, domain.DefaultColorScale(), *currency)

	if err := writeJSON(*out, rep); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	log.Printf("wrote shaded entries: %s", *out)

	printStats(rep)
	return nil
}

func buildReport(payload any, regions []domain.Region, scale *domain.ColorScale, fallbackCurrency string) report {
	extracted := domain.ExtractGeoPayload(payload)
	summary := domain.SummarizeGeo(extracted.Entries, topN)

	rep := report{
		Currency: fallbackCurrency,
		Entries:  make([]shadedEntry, len(extracted.Entries)),
		Summary:  summary,
		Dropped:  extracted.Dropped,
	}
	if extracted.Meta.Currency != nil {
		rep.Currency = *extracted.Meta.Currency
	}

	for i, e := range extracted.Entries {
		rep.Entries[i] = shadedEntry{
			CountrySales: e,
			Fill:         scale.ColorFor(e.Sales, summary.MaxSales),
			Position:     scale.Position(e.Sales, summary.MaxSales),
		}
	}

	if len(regions) > 0 {
		idx := domain.NewCountryIndex(extracted.Entries)
		rep.Regions = make([]domain.RegionFill, len(regions))
		for i, r := range regions {
			rep.Regions[i] = domain.ShadeRegion(idx, scale, r, summary.MaxSales)
		}
	}
	return rep
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(rep report) {
	fmt.Println()
	fmt.Println("=== Geo Payload Stats ===")
	fmt.Printf("Countries: %d (dropped %d invalid rows)\n", rep.Summary.CountriesTracked, rep.Dropped)
	fmt.Printf("Total sales: %.2f %s\n", rep.Summary.TotalSales, rep.Currency)
	fmt.Printf("Max sales: %.2f %s\n", rep.Summary.MaxSales, rep.Currency)

	fmt.Println("\nTop countries:")
	for i, c := range rep.Summary.TopCountries {
		fmt.Printf("  %d. %-4s %-24s %12.2f\n", i+1, c.CountryCode, c.CountryName, c.Sales)
	}

	if len(rep.Regions) > 0 {
		var unmatched []string
		for _, r := range rep.Regions {
			if !r.Matched {
				unmatched = append(unmatched, r.Code)
			}
		}
		fmt.Printf("\nRegions: %d shaded, %d without data\n", len(rep.Regions)-len(unmatched), len(unmatched))
		if len(unmatched) > 0 && len(unmatched) <= 20 {
			fmt.Printf("  without data: %s\n", strings.Join(unmatched, ", "))
		}
	}
}
