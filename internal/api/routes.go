// Package api defines the Huma REST routes and handlers for features,
// the drawing session, selection, and geocoding.
package api

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/geocode"
	"github.com/joeblew999/plat-annotate/internal/humastar"
)

// Services holds the service dependencies for API handlers.
type Services struct {
	Store     *annotation.FeatureStore
	Session   *annotation.DrawingSession
	Selection *annotation.Selection
	Surface   *annotation.LayerMirror
	Geocoder  geocode.Geocoder
	Bus       *annotation.EventBus
}

// featureActionDefs are the hypermedia actions advertised on every feature.
var featureActionDefs = []humastar.ActionDef{
	{Rel: "edit", Pattern: "/api/v1/features/%s", Method: "PATCH", Title: "Edit feature"},
	{Rel: "delete", Pattern: "/api/v1/features/%s", Method: "DELETE", Title: "Delete feature"},
	{Rel: "select", Pattern: "/api/v1/selection/%s", Method: "POST", Title: "Select feature"},
}

// Types

type IDInput struct {
	ID string `path:"id" doc:"Feature ID" example:"7b1c3a8e-1f2d-4c5b-9e6f-0a1b2c3d4e5f"`
}

type FeatureOutput struct {
	Body FeatureBody
}

// FeatureBody is a feature plus its hypermedia actions.
type FeatureBody struct {
	annotation.Feature
}

// Actions implements humastar.Actor.
func (b FeatureBody) Actions() []humastar.Action {
	return humastar.ActionsFor(b.ID, featureActionDefs)
}

type FeaturesOutput struct {
	Body humastar.PageBody[annotation.Feature]
}

type PageInput struct {
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Pagination offset"`
	Limit  int `query:"limit" minimum:"0" maximum:"500" default:"100" doc:"Page size (0 = all)"`
}

type CreateFeatureBody struct {
	Type        annotation.GeometryType `json:"geometryType" required:"true" enum:"Point,LineString,Polygon" doc:"Geometry type"`
	Coordinates []orb.Point             `json:"coordinates" required:"true" minItems:"1" doc:"Vertex positions as [lng, lat] pairs"`
	Name        string                  `json:"name,omitempty" maxLength:"100" doc:"Display name"`
	Description string                  `json:"description,omitempty" maxLength:"2000" doc:"Free-form description"`
}

type PatchFeatureBody struct {
	Coordinates []orb.Point `json:"coordinates,omitempty" minItems:"1" doc:"Replacement vertices (omit to keep)"`
	Name        *string     `json:"name,omitempty" maxLength:"100" doc:"New display name (omit to keep)"`
	Description *string     `json:"description,omitempty" maxLength:"2000" doc:"New description (omit to keep)"`
}

type PropertiesBody struct {
	Name        string `json:"name" maxLength:"100" doc:"Display name"`
	Description string `json:"description" maxLength:"2000" doc:"Free-form description"`
}

type MessageBody struct {
	Message string `json:"message" doc:"Result message"`
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"0.1.0"`
}

type ToolBody struct {
	Tool annotation.Tool `json:"tool" required:"true" enum:"none,point,line,polygon" doc:"Drawing tool to activate"`
}

type ClickBody struct {
	Lng float64 `json:"lng" required:"true" doc:"Click longitude"`
	Lat float64 `json:"lat" required:"true" doc:"Click latitude"`
}

// ClickResultBody reports what a map click did under the active tool.
type ClickResultBody struct {
	Action  string              `json:"action" enum:"created,extended,none" doc:"What the click did"`
	Feature *annotation.Feature `json:"feature,omitempty" doc:"The created or extended feature"`
}

// SessionBody is the drawing session read model.
type SessionBody struct {
	Tool         annotation.Tool `json:"tool" doc:"Active drawing tool"`
	InProgressID string          `json:"inProgressId,omitempty" doc:"ID of the shape still accepting vertices"`
	SelectedID   string          `json:"selectedId,omitempty" doc:"Currently selected feature ID"`
	PanelOpen    bool            `json:"panelOpen" doc:"Whether the properties panel is open"`
	Features     int             `json:"features" doc:"Number of committed features"`
}

type GeocodeInput struct {
	Query string `query:"q" required:"true" minLength:"1" doc:"Free-text place query" example:"berlin"`
}

type GeocodeOutput struct {
	Body struct {
		Results []geocode.Result `json:"results" doc:"Candidate locations in ranking order"`
	}
}

// APIHandler holds all REST API handlers.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterFeatures registers feature CRUD routes.
func (h *APIHandler) RegisterFeatures(api huma.API) {
	huma.Get(api, "/api/v1/features", h.GetFeatures, huma.OperationTags("features"))
	huma.Post(api, "/api/v1/features", h.CreateFeature, huma.OperationTags("features"))
	huma.Post(api, "/api/v1/features/clear", h.ClearFeatures, huma.OperationTags("features"))
	huma.Get(api, "/api/v1/features/{id}", h.GetFeature, huma.OperationTags("features"))
	huma.Patch(api, "/api/v1/features/{id}", h.PatchFeature, huma.OperationTags("features"))
	huma.Put(api, "/api/v1/features/{id}/properties", h.PutProperties, huma.OperationTags("features"))
	huma.Delete(api, "/api/v1/features/{id}", h.DeleteFeature, huma.OperationTags("features"))
}

// RegisterSession registers drawing session routes.
func (h *APIHandler) RegisterSession(api huma.API) {
	huma.Get(api, "/api/v1/session", h.GetSession, huma.OperationTags("session"))
	huma.Put(api, "/api/v1/session/tool", h.PutTool, huma.OperationTags("session"))
	huma.Post(api, "/api/v1/session/click", h.PostClick, huma.OperationTags("session"))
}

// RegisterSelection registers selection routes.
func (h *APIHandler) RegisterSelection(api huma.API) {
	huma.Post(api, "/api/v1/selection/{id}", h.SelectFeature, huma.OperationTags("session"))
	huma.Delete(api, "/api/v1/selection", h.ClearSelection, huma.OperationTags("session"))
}

// RegisterGeocode registers the search route.
func (h *APIHandler) RegisterGeocode(api huma.API) {
	huma.Get(api, "/api/v1/geocode", h.Geocode, huma.OperationTags("geocode"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: "0.1.0"}}, nil
}

func (h *APIHandler) GetFeatures(ctx context.Context, input *PageInput) (*FeaturesOutput, error) {
	features := h.svc.Store.List()
	return &FeaturesOutput{Body: humastar.Page(features, input.Offset, input.Limit)}, nil
}

func (h *APIHandler) CreateFeature(ctx context.Context, input *struct{ Body CreateFeatureBody }) (*FeatureOutput, error) {
	f := annotation.NewFeature(input.Body.Type, input.Body.Coordinates...)
	if input.Body.Name != "" {
		f.Name = input.Body.Name
	}
	f.Description = input.Body.Description

	created, err := h.svc.Store.Create(f)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return &FeatureOutput{Body: FeatureBody{Feature: created}}, nil
}

func (h *APIHandler) GetFeature(ctx context.Context, input *IDInput) (*FeatureOutput, error) {
	f, ok := h.svc.Store.Get(input.ID)
	if !ok {
		return nil, huma.Error404NotFound("feature not found")
	}
	return &FeatureOutput{Body: FeatureBody{Feature: f}}, nil
}

func (h *APIHandler) PatchFeature(ctx context.Context, input *struct {
	IDInput
	Body PatchFeatureBody
}) (*FeatureOutput, error) {
	updated, err := h.svc.Store.Update(input.ID, annotation.FeaturePatch{
		Coords:      input.Body.Coordinates,
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &FeatureOutput{Body: FeatureBody{Feature: updated}}, nil
}

func (h *APIHandler) PutProperties(ctx context.Context, input *struct {
	IDInput
	Body PropertiesBody
}) (*FeatureOutput, error) {
	updated, err := h.svc.Selection.OnPropertiesSave(input.ID, input.Body.Name, input.Body.Description)
	if err != nil {
		return nil, mapError(err)
	}
	return &FeatureOutput{Body: FeatureBody{Feature: updated}}, nil
}

func (h *APIHandler) DeleteFeature(ctx context.Context, input *IDInput) (*struct{ Body MessageBody }, error) {
	if err := h.svc.Selection.OnDelete(input.ID); err != nil {
		return nil, mapError(err)
	}
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "Feature deleted"}}, nil
}

func (h *APIHandler) ClearFeatures(ctx context.Context, input *struct{}) (*struct{ Body MessageBody }, error) {
	h.svc.Session.ClearAll()
	h.svc.Selection.Clear()
	return &struct{ Body MessageBody }{Body: MessageBody{Message: "All features cleared"}}, nil
}

func (h *APIHandler) GetSession(ctx context.Context, input *struct{}) (*struct{ Body SessionBody }, error) {
	body := SessionBody{
		Tool:      h.svc.Session.Tool(),
		PanelOpen: h.svc.Selection.PanelOpen(),
		Features:  h.svc.Store.Len(),
	}
	if id, ok := h.svc.Session.InProgress(); ok {
		body.InProgressID = id
	}
	if id, ok := h.svc.Selection.Selected(); ok {
		body.SelectedID = id
	}
	return &struct{ Body SessionBody }{Body: body}, nil
}

func (h *APIHandler) PutTool(ctx context.Context, input *struct{ Body ToolBody }) (*struct{ Body SessionBody }, error) {
	h.svc.Session.SetTool(input.Body.Tool)
	return h.GetSession(ctx, &struct{}{})
}

func (h *APIHandler) PostClick(ctx context.Context, input *struct{ Body ClickBody }) (*struct{ Body ClickResultBody }, error) {
	before := h.svc.Store.Len()
	f, err := h.svc.Session.HandleClick(orb.Point{input.Body.Lng, input.Body.Lat})
	if err != nil {
		return nil, mapError(err)
	}

	result := ClickResultBody{Action: "none"}
	if f != nil {
		result.Feature = f
		if h.svc.Store.Len() > before {
			result.Action = "created"
		} else {
			result.Action = "extended"
		}
	}
	return &struct{ Body ClickResultBody }{Body: result}, nil
}

func (h *APIHandler) SelectFeature(ctx context.Context, input *IDInput) (*struct{ Body SessionBody }, error) {
	if err := h.svc.Selection.Select(input.ID); err != nil {
		return nil, mapError(err)
	}
	return h.GetSession(ctx, &struct{}{})
}

func (h *APIHandler) ClearSelection(ctx context.Context, input *struct{}) (*struct{ Body SessionBody }, error) {
	h.svc.Selection.Clear()
	return h.GetSession(ctx, &struct{}{})
}

func (h *APIHandler) Geocode(ctx context.Context, input *GeocodeInput) (*GeocodeOutput, error) {
	out := &GeocodeOutput{}
	results, err := h.svc.Geocoder.Search(ctx, input.Query)
	if err != nil {
		// Search is best-effort: log and return no results rather than
		// failing the request.
		log.Warn().Err(err).Str("query", input.Query).Msg("Geocode lookup failed")
		out.Body.Results = []geocode.Result{}
		return out, nil
	}
	out.Body.Results = results
	return out, nil
}

// mapError translates core sentinel errors to Huma status errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, annotation.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, annotation.ErrInvalidCoordinate):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
