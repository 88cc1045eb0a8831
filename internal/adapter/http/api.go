package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/geo-kpi-service/internal/adapter/kpiapi"
	"github.com/couchcryptid/geo-kpi-service/internal/dashboard"
	"github.com/couchcryptid/geo-kpi-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// GeoPage serves the Geo page.
type GeoPage interface {
	Refresh(ctx context.Context) (dashboard.GeoView, bool, error)
	Latest() (dashboard.GeoView, bool)
	Shade(ctx context.Context, regions []domain.Region) []domain.RegionFill
	Scale() *domain.ColorScale
}

// OverviewPage serves the Overview page.
type OverviewPage interface {
	Load(ctx context.Context, rangeKey string) (dashboard.OverviewView, error)
}

// OffersPage serves the Offers page.
type OffersPage interface {
	Salesmen(ctx context.Context) ([]dashboard.Salesman, error)
	Load(ctx context.Context, rangeKey, dealerID string) (dashboard.OffersView, error)
}

// InsightsPage serves the Product Insights page.
type InsightsPage interface {
	Load(ctx context.Context, categoryMode, itemMode kpiapi.RankMode) dashboard.InsightsView
}

// Pages bundles the page services behind the /api routes.
type Pages struct {
	Geo      GeoPage
	Overview OverviewPage
	Offers   OffersPage
	Insights InsightsPage
}

type handlers struct {
	pages        Pages
	defaultRange string
	labels       domain.LabelWrapper
	logger       *slog.Logger
}

type errorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	FieldErrors    any    `json:"fieldErrors,omitempty"`
}

type rangesResponse struct {
	Default string               `json:"default"`
	Options []domain.RangeOption `json:"options"`
}

type colorResponse struct {
	Value    float64 `json:"value"`
	Max      float64 `json:"max"`
	Position float64 `json:"position"`
	Fill     string  `json:"fill"`
}

type wrapRequest struct {
	Text            string `json:"text"`
	MaxCharsPerLine int    `json:"maxCharsPerLine"`
	MaxLines        int    `json:"maxLines"`
}

type wrapResponse struct {
	Lines     []string `json:"lines"`
	Truncated bool     `json:"truncated"`
}

func (h *handlers) mount(r chi.Router) {
	r.Get("/navigation", h.navigation)
	r.Get("/ranges", h.ranges)
	r.Get("/geo", h.geo)
	r.Post("/geo/regions", h.geoRegions)
	r.Get("/geo/color", h.geoColor)
	r.Get("/overview", h.overview)
	r.Get("/offers", h.offers)
	r.Get("/offers/salesmen", h.salesmen)
	r.Get("/product-insights", h.productInsights)
	r.Post("/labels/wrap", h.wrapLabel)
}

func (h *handlers) navigation(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Navigation())
}

func (h *handlers) ranges(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, rangesResponse{Default: h.defaultRange, Options: domain.RangeOptions()})
}

// geo refreshes the view unless cached=true and a committed view exists.
// Upstream failures still answer 200 with the sample-data view.
func (h *handlers) geo(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("cached") == "true" {
		if view, ok := h.pages.Geo.Latest(); ok {
			sharedobs.WriteJSON(w, http.StatusOK, view)
			return
		}
	}
	view, _, _ := h.pages.Geo.Refresh(r.Context())
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (h *handlers) geoRegions(w http.ResponseWriter, r *http.Request) {
	var regions []domain.Region
	if err := decodeBody(w, r, &regions); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: want a JSON array of regions")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, h.pages.Geo.Shade(r.Context(), regions))
}

func (h *handlers) geoColor(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid value")
		return
	}
	maxValue, err := strconv.ParseFloat(r.URL.Query().Get("max"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid max")
		return
	}

	scale := h.pages.Geo.Scale()
	sharedobs.WriteJSON(w, http.StatusOK, colorResponse{
		Value:    value,
		Max:      maxValue,
		Position: scale.Position(value, maxValue),
		Fill:     scale.ColorFor(value, maxValue),
	})
}

func (h *handlers) overview(w http.ResponseWriter, r *http.Request) {
	view, err := h.pages.Overview.Load(r.Context(), r.URL.Query().Get("range"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (h *handlers) offers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.pages.Offers.Load(r.Context(), q.Get("range"), q.Get("dealerId"))
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

func (h *handlers) salesmen(w http.ResponseWriter, r *http.Request) {
	salesmen, err := h.pages.Offers.Salesmen(r.Context())
	if err != nil {
		h.upstreamError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, salesmen)
}

func (h *handlers) productInsights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view := h.pages.Insights.Load(r.Context(),
		kpiapi.ParseRankMode(q.Get("categoryMode")),
		kpiapi.ParseRankMode(q.Get("itemMode")),
	)
	sharedobs.WriteJSON(w, http.StatusOK, view)
}

// wrapLabel wraps text with the configured limits; positive request limits
// override them.
func (h *handlers) wrapLabel(w http.ResponseWriter, r *http.Request) {
	var req wrapRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wrapper := h.labels
	if req.MaxCharsPerLine > 0 {
		wrapper.MaxCharsPerLine = req.MaxCharsPerLine
	}
	if req.MaxLines > 0 {
		wrapper.MaxLines = req.MaxLines
	}

	wrapped := domain.WrapLabel(req.Text, wrapper.MaxCharsPerLine)
	sharedobs.WriteJSON(w, http.StatusOK, wrapResponse{
		Lines:     domain.TruncateLines(wrapped, wrapper.MaxLines),
		Truncated: len(wrapped) > wrapper.MaxLines,
	})
}

// upstreamError answers 504 when the upstream timed out and 502 otherwise.
func (h *handlers) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("upstream request failed", "path", r.URL.Path, "error", err)

	resp := errorResponse{Error: err.Error()}
	status := http.StatusBadGateway

	var apiErr *kpiapi.APIError
	switch {
	case errors.As(err, &apiErr):
		resp.Error = apiErr.Message
		resp.UpstreamStatus = apiErr.StatusCode
		resp.FieldErrors = apiErr.FieldErrors
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	sharedobs.WriteJSON(w, status, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: msg})
}
