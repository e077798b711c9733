package editor

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/humastar"
)

// SessionHandler serves the toolbar and the map click stream.
type SessionHandler struct {
	humastar.Handler
	session   *annotation.DrawingSession
	store     *annotation.FeatureStore
	selection *annotation.Selection
	features  *FeatureHandler
}

func NewSessionHandler(session *annotation.DrawingSession, store *annotation.FeatureStore, selection *annotation.Selection, features *FeatureHandler) *SessionHandler {
	return &SessionHandler{
		Handler:   humastar.Handler{Renderer: features.Renderer},
		session:   session,
		store:     store,
		selection: selection,
		features:  features,
	}
}

func (h *SessionHandler) RegisterRoutes(api huma.API) {
	huma.Post(api, "/api/v1/editor/session/tool", h.SetTool, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/session/click", h.Click, huma.OperationTags("editor"))
	huma.Post(api, "/api/v1/editor/session/clear", h.Clear, huma.OperationTags("editor"))
}

func (h *SessionHandler) SetTool(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	tool := annotation.Tool(signals.String("tool"))
	switch tool {
	case annotation.ToolNone, annotation.ToolPoint, annotation.ToolLine, annotation.ToolPolygon:
	default:
		return nil, huma.Error400BadRequest("unknown tool: " + string(tool))
	}

	return h.Stream(func(sse humastar.SSE) {
		h.session.SetTool(tool)
		sse.Signals(map[string]any{"tool": string(tool)})
	}), nil
}

func (h *SessionHandler) Click(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, err
	}
	p := orb.Point{signals.Float("clicklng"), signals.Float("clicklat")}

	return h.Stream(func(sse humastar.SSE) {
		f, err := h.session.HandleClick(p)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		if f == nil {
			// No active tool; nothing to redraw.
			return
		}

		action := "updated"
		if len(f.Coords) == 1 {
			action = "created"
		}
		sse.Patch(h.features.renderFeatureList(), "#feature-list")
		sse.DispatchCustomEvent("feature-changed", map[string]any{
			"action":  action,
			"id":      f.ID,
			"layerId": f.LayerID(),
			"feature": f.GeoJSON(),
		})
	}), nil
}

func (h *SessionHandler) Clear(ctx context.Context, input *humastar.EmptyInput) (*huma.StreamResponse, error) {
	return h.Stream(func(sse humastar.SSE) {
		h.session.ClearAll()
		h.selection.Clear()

		sse.Signals(map[string]any{"_panelopen": false, "success": "All features cleared"})
		sse.Patch(h.features.renderFeatureList(), "#feature-list")
		sse.DispatchCustomEvent("feature-changed", map[string]any{"action": "cleared"})
	}), nil
}
