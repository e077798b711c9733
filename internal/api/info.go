package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

type InfoHandler struct {
	geocodeURL string
}

func NewInfoHandler(geocodeURL string) *InfoHandler {
	return &InfoHandler{geocodeURL: geocodeURL}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name       string   `json:"name" doc:"Service name"`
	Version    string   `json:"version" doc:"Service version"`
	GeocodeURL string   `json:"geocode_url" doc:"Geocoding endpoint in use"`
	Features   []string `json:"features" doc:"Available capabilities"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:       "plat-annotate",
		Version:    "0.1.0",
		GeocodeURL: h.geocodeURL,
		Features: []string{
			"draw-point",
			"draw-line",
			"draw-polygon",
			"geojson-export",
			"geocode",
		},
	}}, nil
}
