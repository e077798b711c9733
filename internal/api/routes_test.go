package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/paulmach/orb"

	"github.com/joeblew999/plat-annotate/internal/annotation"
	"github.com/joeblew999/plat-annotate/internal/geocode"
)

type fakeGeocoder struct {
	results []geocode.Result
	err     error
}

func (g fakeGeocoder) Search(ctx context.Context, query string) ([]geocode.Result, error) {
	return g.results, g.err
}

func newTestAPI(t *testing.T) (humatest.TestAPI, *Services) {
	t.Helper()

	mirror := annotation.NewLayerMirror()
	bus := annotation.NewEventBus()
	store := annotation.NewFeatureStore(mirror, bus)
	svc := &Services{
		Store:     store,
		Session:   annotation.NewDrawingSession(store, mirror, bus),
		Selection: annotation.NewSelection(store, bus),
		Surface:   mirror,
		Geocoder: fakeGeocoder{results: []geocode.Result{
			{Label: "Berlin, Deutschland", Center: orb.Point{13.405, 52.52}},
		}},
		Bus: bus,
	}

	_, api := humatest.New(t)
	h := NewAPIHandler(svc)
	h.RegisterHealth(api)
	h.RegisterFeatures(api)
	h.RegisterSession(api)
	h.RegisterSelection(api)
	h.RegisterGeocode(api)
	return api, svc
}

func TestHealth(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/health")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200", resp.Code)
	}
}

func TestFeatureCRUD(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Post("/api/v1/features", map[string]any{
		"geometryType": "Point",
		"coordinates":  [][]float64{{10, 20}},
		"name":         "Cafe",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("create status=%d: %s", resp.Code, resp.Body.String())
	}
	var created annotation.Feature
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Name != "Cafe" {
		t.Fatalf("created=%+v", created)
	}

	resp = api.Get("/api/v1/features/" + created.ID)
	if resp.Code != http.StatusOK {
		t.Fatalf("get status=%d", resp.Code)
	}

	resp = api.Put("/api/v1/features/"+created.ID+"/properties", map[string]any{
		"name":        "Cafe",
		"description": "Good coffee",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("properties status=%d: %s", resp.Code, resp.Body.String())
	}

	resp = api.Delete("/api/v1/features/" + created.ID)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete status=%d", resp.Code)
	}

	resp = api.Get("/api/v1/features/" + created.ID)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("status=%d after delete, want 404", resp.Code)
	}
}

func TestPatchEmptyCoordinatesRejected(t *testing.T) {
	api, svc := newTestAPI(t)

	f, _ := svc.Store.Create(annotation.NewFeature(annotation.GeometryPoint, orb.Point{10, 20}))

	resp := api.Patch("/api/v1/features/"+f.ID, map[string]any{
		"coordinates": [][]float64{},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", resp.Code)
	}

	got, _ := svc.Store.Get(f.ID)
	if len(got.Coords) != 1 {
		t.Fatalf("coords=%v, want original vertex", got.Coords)
	}
}

func TestFeatureNotFound(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Put("/api/v1/features/nonexistent/properties", map[string]any{
		"name": "x", "description": "y",
	})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("update status=%d, want 404", resp.Code)
	}

	resp = api.Delete("/api/v1/features/nonexistent")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("delete status=%d, want 404", resp.Code)
	}

	if svc.Store.Len() != 0 {
		t.Fatalf("features=%d, want 0", svc.Store.Len())
	}
}

func TestDrawViaSession(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Put("/api/v1/session/tool", map[string]any{"tool": "line"})
	if resp.Code != http.StatusOK {
		t.Fatalf("tool status=%d: %s", resp.Code, resp.Body.String())
	}

	for _, p := range [][2]float64{{0, 0}, {1, 1}, {2, 2}} {
		resp = api.Post("/api/v1/session/click", map[string]any{"lng": p[0], "lat": p[1]})
		if resp.Code != http.StatusOK {
			t.Fatalf("click status=%d: %s", resp.Code, resp.Body.String())
		}
	}

	features := svc.Store.List()
	if len(features) != 1 {
		t.Fatalf("features=%d, want 1", len(features))
	}
	if features[0].Type != annotation.GeometryLineString || len(features[0].Coords) != 3 {
		t.Fatalf("feature=%+v", features[0])
	}
}

func TestToolValidation(t *testing.T) {
	api, svc := newTestAPI(t)

	resp := api.Put("/api/v1/session/tool", map[string]any{"tool": "circle"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", resp.Code)
	}
	if svc.Session.Tool() != annotation.ToolNone {
		t.Fatalf("tool=%q, want none", svc.Session.Tool())
	}
}

func TestSelectionLifecycle(t *testing.T) {
	api, svc := newTestAPI(t)

	f, _ := svc.Store.Create(annotation.NewFeature(annotation.GeometryPoint, orb.Point{1, 2}))

	resp := api.Post("/api/v1/selection/" + f.ID)
	if resp.Code != http.StatusOK {
		t.Fatalf("select status=%d: %s", resp.Code, resp.Body.String())
	}

	var session SessionBody
	json.Unmarshal(resp.Body.Bytes(), &session)
	if session.SelectedID != f.ID || !session.PanelOpen {
		t.Fatalf("session=%+v", session)
	}

	resp = api.Delete("/api/v1/features/" + f.ID)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete status=%d", resp.Code)
	}

	resp = api.Get("/api/v1/session")
	session = SessionBody{}
	json.Unmarshal(resp.Body.Bytes(), &session)
	if session.SelectedID != "" || session.PanelOpen {
		t.Fatalf("session=%+v after delete, want cleared selection", session)
	}
}

func TestClearAll(t *testing.T) {
	api, svc := newTestAPI(t)

	api.Put("/api/v1/session/tool", map[string]any{"tool": "polygon"})
	api.Post("/api/v1/session/click", map[string]any{"lng": 0.0, "lat": 0.0})
	api.Post("/api/v1/session/click", map[string]any{"lng": 1.0, "lat": 0.0})

	resp := api.Post("/api/v1/features/clear", map[string]any{})
	if resp.Code != http.StatusOK {
		t.Fatalf("clear status=%d", resp.Code)
	}
	if svc.Store.Len() != 0 {
		t.Fatalf("features=%d, want 0", svc.Store.Len())
	}
	if _, ok := svc.Session.InProgress(); ok {
		t.Fatal("in-progress shape survived clear")
	}
}

func TestGeocode(t *testing.T) {
	api, _ := newTestAPI(t)

	resp := api.Get("/api/v1/geocode?q=berlin")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	var body struct {
		Results []geocode.Result `json:"results"`
	}
	json.Unmarshal(resp.Body.Bytes(), &body)
	if len(body.Results) != 1 || body.Results[0].Label != "Berlin, Deutschland" {
		t.Fatalf("results=%+v", body.Results)
	}
}

func TestFeatureListPagination(t *testing.T) {
	api, svc := newTestAPI(t)

	for i := range 5 {
		svc.Store.Create(annotation.NewFeature(annotation.GeometryPoint, orb.Point{float64(i), 0}))
	}

	resp := api.Get("/api/v1/features?offset=2&limit=2")
	if resp.Code != http.StatusOK {
		t.Fatalf("status=%d", resp.Code)
	}
	var page struct {
		Total  int                  `json:"total"`
		Offset int                  `json:"offset"`
		Data   []annotation.Feature `json:"data"`
	}
	json.Unmarshal(resp.Body.Bytes(), &page)
	if page.Total != 5 || page.Offset != 2 || len(page.Data) != 2 {
		t.Fatalf("page=%+v", page)
	}
}
