package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/humastar"
)

// EventHandler streams mutation events to the Datastar UI via SSE so that
// every connected tab keeps its sidebar and map layers in sync.
type EventHandler struct {
	humastar.Handler
	bus      *annotation.EventBus
	store    *annotation.FeatureStore
	features *FeatureHandler
}

// NewEventHandler creates a new event handler.
func NewEventHandler(bus *annotation.EventBus, store *annotation.FeatureStore, features *FeatureHandler) *EventHandler {
	return &EventHandler{
		Handler:  humastar.Handler{Renderer: features.Renderer},
		bus:      bus,
		store:    store,
		features: features,
	}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/events", h.Events, huma.OperationTags("editor"))
}

func (h *EventHandler) Events(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case ev := <-ch:
					if ev.Resource == "features" || ev.Resource == "selection" {
						sse.Patch(h.features.renderFeatureList(), "#feature-list")
					}
					detail := map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					}
					if ev.Resource == "features" && ev.ID != "" {
						// Deleted features are already gone from the store;
						// the layer id is derivable from the feature id.
						detail["layerId"] = "feature-" + ev.ID
						if f, ok := h.store.Get(ev.ID); ok {
							detail["feature"] = f.GeoJSON()
						}
					}
					sse.DispatchCustomEvent("resource-changed", detail)
				}
			}
		},
	}, nil
}
