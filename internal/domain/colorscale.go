package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColorScaleConfig describes the choropleth palette: an ordered low-to-high
// list of hex stops, the fill for regions without sales, and the power-law
// exponent applied to the sales ratio before interpolation.
type ColorScaleConfig struct {
	Stops    []string
	ZeroFill string
	Exponent float64
}

// DefaultColorScaleConfig returns the dashboard's green sales palette.
// An exponent below 1 compresses differences among low performers and
// spreads the top of the range.
func DefaultColorScaleConfig() ColorScaleConfig {
	return ColorScaleConfig{
		Stops:    []string{"#d7f2df", "#aee4c5", "#7acc9d", "#49a374", "#2f7b51", "#18553a"},
		ZeroFill: "#d2dfd7",
		Exponent: 0.55,
	}
}

// Validate checks that every color is a 6-digit hex string and the exponent is positive.
func (c ColorScaleConfig) Validate() error {
	if len(c.Stops) == 0 {
		return errors.New("color scale needs at least one stop")
	}
	for _, s := range c.Stops {
		if _, err := parseHexColor(s); err != nil {
			return fmt.Errorf("color stop: %w", err)
		}
	}
	if _, err := parseHexColor(c.ZeroFill); err != nil {
		return fmt.Errorf("zero fill: %w", err)
	}
	if c.Exponent <= 0 || math.IsNaN(c.Exponent) || math.IsInf(c.Exponent, 0) {
		return fmt.Errorf("color exponent must be a positive number, got %v", c.Exponent)
	}
	return nil
}

type rgb [3]float64

// ColorScale maps sales values to hex colors. It is immutable and safe for
// concurrent use.
type ColorScale struct {
	cfg   ColorScaleConfig
	stops []rgb
}

// NewColorScale validates cfg and pre-decodes its stops.
func NewColorScale(cfg ColorScaleConfig) (*ColorScale, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stops := make([]rgb, len(cfg.Stops))
	for i, s := range cfg.Stops {
		stops[i], _ = parseHexColor(s)
	}
	cfg.Stops = append([]string(nil), cfg.Stops...)
	return &ColorScale{cfg: cfg, stops: stops}, nil
}

// DefaultColorScale is NewColorScale over DefaultColorScaleConfig.
func DefaultColorScale() *ColorScale {
	s, err := NewColorScale(DefaultColorScaleConfig())
	if err != nil {
		panic(err)
	}
	return s
}

// Stops returns a copy of the palette, low to high.
func (s *ColorScale) Stops() []string {
	return append([]string(nil), s.cfg.Stops...)
}

// ZeroFill returns the color used for regions without sales.
func (s *ColorScale) ZeroFill() string {
	return s.cfg.ZeroFill
}

// ColorFor returns the fill for value relative to the observed maximum.
// A zero maximum or a zero/NaN value yields the zero fill; the palette
// endpoints and exact grid hits are returned verbatim.
func (s *ColorScale) ColorFor(value, maxValue float64) string {
	if maxValue == 0 || value == 0 || math.IsNaN(value) {
		return s.cfg.ZeroFill
	}

	scaled := s.position(value, maxValue)
	lower := int(math.Floor(scaled))
	upper := min(len(s.stops)-1, int(math.Ceil(scaled)))
	if lower == upper {
		return s.cfg.Stops[lower]
	}

	t := scaled - float64(lower)
	lo, hi := s.stops[lower], s.stops[upper]
	var mixed rgb
	for i := range mixed {
		// Halves round up.
		mixed[i] = math.Floor(lo[i] + (hi[i]-lo[i])*t + 0.5)
	}
	return formatHexColor(mixed)
}

// Position returns the continuous palette index in [0, len(stops)-1]
// that ColorFor interpolates at. Zero-fill inputs report 0.
func (s *ColorScale) Position(value, maxValue float64) float64 {
	if maxValue == 0 || value == 0 || math.IsNaN(value) {
		return 0
	}
	return s.position(value, maxValue)
}

func (s *ColorScale) position(value, maxValue float64) float64 {
	ratio := value / maxValue
	if math.IsNaN(ratio) {
		ratio = 0
	}
	ratio = math.Min(math.Max(ratio, 0), 1)
	adjusted := math.Pow(ratio, s.cfg.Exponent)
	return adjusted * float64(len(s.stops)-1)
}

func parseHexColor(s string) (rgb, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(clean) != 6 {
		return rgb{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(clean, 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("invalid hex color %q", s)
	}
	return rgb{float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff)}, nil
}

func formatHexColor(c rgb) string {
	return fmt.Sprintf("#%02x%02x%02x", int(c[0]), int(c[1]), int(c[2]))
}
