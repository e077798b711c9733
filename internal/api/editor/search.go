package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/geocode"
	"github.com/joeblew999/plat-annotate/internal/humastar"
)

// SearchHandler backs the geocoding search box. Lookups are best-effort:
// a failed search patches an empty result list and never touches drawing
// state.
type SearchHandler struct {
	humastar.Handler
	geocoder geocode.Geocoder
	surface  annotation.Surface
}

func NewSearchHandler(geocoder geocode.Geocoder, surface annotation.Surface, renderer *humastar.Renderer) *SearchHandler {
	return &SearchHandler{
		Handler:  humastar.Handler{Renderer: renderer},
		geocoder: geocoder,
		surface:  surface,
	}
}

func (h *SearchHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/editor/search", h.Search, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/search/go", h.Go, huma.OperationTags("editor"))
}

// SearchResultData holds data for the search-result fragment.
type SearchResultData struct {
	Label string
	Lng   float64
	Lat   float64
}

func (h *SearchHandler) Search(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	query := signals.String("searchquery")
	if query == "" {
		return nil, huma.Error400BadRequest("Search query is required")
	}

	return h.Stream(func(sse humastar.SSE) {
		results, err := h.geocoder.Search(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("Geocode lookup failed")
			results = nil
		}
		sse.Patch(h.renderResults(results), "#search-results")
	}), nil
}

// Go pans the map to a picked search result.
func (h *SearchHandler) Go(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	center := orb.Point{signals.Float("searchlng"), signals.Float("searchlat")}

	return h.Stream(func(sse humastar.SSE) {
		h.surface.FlyTo(center, 14)
		sse.Patch("", "#search-results")
		sse.DispatchCustomEvent("fly-to", map[string]any{
			"lng": center.Lon(), "lat": center.Lat(), "zoom": 14,
		})
	}), nil
}

func (h *SearchHandler) renderResults(results []geocode.Result) string {
	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, SearchResultData{
			Label: r.Label,
			Lng:   r.Center.Lon(),
			Lat:   r.Center.Lat(),
		})
	}
	return h.RenderList("search-result", items, "No matches", "Try a different search")
}
