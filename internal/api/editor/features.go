// Package editor contains Datastar SSE handlers for the annotation UI:
// the sidebar feature list, the properties panel, the toolbar, and the
// map click stream.
package editor

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/humastar"
)

// FeatureHandler serves the sidebar list and properties panel.
type FeatureHandler struct {
	humastar.Handler
	store     *annotation.FeatureStore
	selection *annotation.Selection
}

func NewFeatureHandler(store *annotation.FeatureStore, selection *annotation.Selection, renderer *humastar.Renderer) *FeatureHandler {
	return &FeatureHandler{
		Handler:   humastar.Handler{Renderer: renderer},
		store:     store,
		selection: selection,
	}
}

func (h *FeatureHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/editor/features", h.ListFeatures, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/features/{id}/select", h.SelectFeature, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/features/{id}/properties", h.SaveProperties, huma.OperationTags("editor"))
	huma.Delete(api, "/api/v1/editor/features/{id}", h.DeleteFeature, huma.OperationTags("editor"))
}

func (h *FeatureHandler) ListFeatures(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.renderFeatureList(), "#feature-list")
	}), nil
}

type FeatureIDInput struct {
	ID string `path:"id" doc:"Feature ID"`
}

func (h *FeatureHandler) SelectFeature(ctx context.Context, input *FeatureIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.selection.Select(input.ID); err != nil {
			sse.Error(err.Error())
			return
		}

		f, _ := h.store.Get(input.ID)
		sse.Signals(map[string]any{
			"_panelopen":      true,
			"propname":        f.Name,
			"propdescription": f.Description,
		})
		sse.Patch(h.renderPropertiesPanel(f), "#properties-panel")
		sse.Patch(h.renderFeatureList(), "#feature-list")
	}), nil
}

type SavePropertiesInput struct {
	FeatureIDInput
	humastar.SignalsInput
}

func (h *FeatureHandler) SaveProperties(ctx context.Context, input *SavePropertiesInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}

	return h.Stream(func(sse humastar.SSE) {
		f, err := h.selection.OnPropertiesSave(input.ID,
			signals.String("propname"), signals.String("propdescription"))
		if err != nil {
			sse.Error(err.Error())
			return
		}

		sse.Signals(map[string]any{
			"_panelopen": false,
			"success":    "Saved '" + f.Name + "'",
		})
		sse.Patch(h.renderFeatureList(), "#feature-list")
	}), nil
}

func (h *FeatureHandler) DeleteFeature(ctx context.Context, input *FeatureIDInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		if err := h.selection.OnDelete(input.ID); err != nil {
			if errors.Is(err, annotation.ErrNotFound) {
				sse.Error("Feature already gone")
			} else {
				sse.Error(err.Error())
			}
			return
		}

		sse.Signals(map[string]any{"_panelopen": false})
		sse.Success("Feature deleted")
		sse.RemoveElementByID("feature-card-" + input.ID)
		sse.Patch(h.renderFeatureList(), "#feature-list")
		sse.DispatchCustomEvent("feature-changed", map[string]any{
			"action": "deleted", "id": input.ID, "layerId": "feature-" + input.ID,
		})
	}), nil
}

// FeatureCardData holds data for the feature-card fragment.
type FeatureCardData struct {
	ID       string
	Name     string
	Type     annotation.GeometryType
	Vertices int
	Selected bool
}

func (h *FeatureHandler) renderFeatureList() string {
	features := h.store.List()
	selectedID, _ := h.selection.Selected()

	items := make([]any, 0, len(features))
	for _, f := range features {
		items = append(items, FeatureCardData{
			ID:       f.ID,
			Name:     f.Name,
			Type:     f.Type,
			Vertices: len(f.Coords),
			Selected: f.ID == selectedID,
		})
	}
	return h.RenderList("feature-card", items, "No features yet", "Pick a tool and click the map")
}

func (h *FeatureHandler) renderPropertiesPanel(f annotation.Feature) string {
	html, _ := h.Renderer.Render("properties-panel", f)
	return html
}
