package annotation

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
)

func newTestStore(t *testing.T) (*FeatureStore, *LayerMirror) {
	t.Helper()
	mirror := NewLayerMirror()
	return NewFeatureStore(mirror, nil), mirror
}

func TestCreateSyncsLayer(t *testing.T) {
	store, mirror := newTestStore(t)

	f, err := store.Create(NewFeature(GeometryPoint, orb.Point{10, 20}))
	if err != nil {
		t.Fatal(err)
	}
	if f.ID == "" {
		t.Fatal("no id assigned")
	}
	if !mirror.HasLayer(f.LayerID()) {
		t.Fatalf("layer %q not added", f.LayerID())
	}

	layers := mirror.Layers()
	if len(layers) != 1 {
		t.Fatalf("layers=%d, want 1", len(layers))
	}
	if layers[0].Type != GeometryPoint {
		t.Fatalf("layer type=%q, want Point", layers[0].Type)
	}
}

func TestCreateRejectsEmptyCoords(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Create(Feature{Type: GeometryPoint})
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("err=%v, want ErrInvalidCoordinate", err)
	}
	if store.Len() != 0 {
		t.Fatalf("features=%d, want 0", store.Len())
	}
}

func TestUpdateRejectsEmptyCoords(t *testing.T) {
	store, _ := newTestStore(t)

	f, err := store.Create(NewFeature(GeometryPoint, orb.Point{10, 20}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.Update(f.ID, FeaturePatch{Coords: []orb.Point{}})
	if !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("err=%v, want ErrInvalidCoordinate", err)
	}

	// The feature keeps its geometry and the collection still exports.
	got, _ := store.Get(f.ID)
	if len(got.Coords) != 1 {
		t.Fatalf("coords=%v, want original vertex", got.Coords)
	}
	fc := store.Collection()
	if len(fc.Features) != 1 {
		t.Fatalf("collection features=%d, want 1", len(fc.Features))
	}
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	store.Create(NewFeature(GeometryPoint, orb.Point{1, 1}))
	before := store.List()

	_, err := store.UpdateProperties("nonexistent", "x", "y")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}

	after := store.List()
	if len(after) != len(before) || after[0].Name != before[0].Name {
		t.Fatal("failed update mutated the store")
	}
}

func TestDeleteMissingIsNotFound(t *testing.T) {
	store, _ := newTestStore(t)
	store.Create(NewFeature(GeometryPoint, orb.Point{1, 1}))

	if err := store.Delete("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	if store.Len() != 1 {
		t.Fatalf("features=%d, want 1", store.Len())
	}
}

func TestPropertyEditRoundTrip(t *testing.T) {
	store, mirror := newTestStore(t)

	created, err := store.Create(NewFeature(GeometryPoint, orb.Point{10, 20}))
	if err != nil {
		t.Fatal(err)
	}
	layerGeom := mirror.Layers()[0].Geom

	if _, err := store.UpdateProperties(created.ID, "Cafe", "Good coffee"); err != nil {
		t.Fatal(err)
	}

	features := store.List()
	if len(features) != 1 {
		t.Fatalf("features=%d, want 1", len(features))
	}
	got := features[0]
	if got.ID != created.ID || got.Type != created.Type {
		t.Fatalf("identity changed: %q/%q", got.ID, got.Type)
	}
	if got.Name != "Cafe" || got.Description != "Good coffee" {
		t.Fatalf("properties=%q/%q", got.Name, got.Description)
	}
	if !got.Coords[0].Equal(orb.Point{10, 20}) {
		t.Fatalf("coords=%v, want unchanged", got.Coords)
	}

	// A properties-only update never re-renders geometry.
	if mirror.Layers()[0].Geom != layerGeom {
		t.Fatal("properties update touched the layer geometry")
	}
}

func TestUpdateCoordsRefreshesLayer(t *testing.T) {
	store, mirror := newTestStore(t)

	f, _ := store.Create(NewFeature(GeometryLineString, orb.Point{0, 0}))
	_, err := store.Update(f.ID, FeaturePatch{Coords: []orb.Point{{0, 0}, {1, 1}}})
	if err != nil {
		t.Fatal(err)
	}

	ls, ok := mirror.Layers()[0].Geom.(orb.LineString)
	if !ok || len(ls) != 2 {
		t.Fatalf("layer geom=%v, want 2-vertex line", mirror.Layers()[0].Geom)
	}
	// Order preserved, same id, still one feature.
	if store.Len() != 1 {
		t.Fatalf("features=%d, want 1", store.Len())
	}
}

func TestDeleteRemovesLayer(t *testing.T) {
	store, mirror := newTestStore(t)

	a, _ := store.Create(NewFeature(GeometryPoint, orb.Point{1, 1}))
	b, _ := store.Create(NewFeature(GeometryPoint, orb.Point{2, 2}))

	if err := store.Delete(a.ID); err != nil {
		t.Fatal(err)
	}
	if mirror.HasLayer(a.LayerID()) {
		t.Fatal("deleted feature still has a layer")
	}
	if !mirror.HasLayer(b.LayerID()) {
		t.Fatal("unrelated layer removed")
	}

	// Removing an already-removed layer is tolerated as a no-op.
	mirror.RemoveLayer(a.LayerID())
}

func TestClearRemovesEverything(t *testing.T) {
	store, mirror := newTestStore(t)

	store.Create(NewFeature(GeometryPoint, orb.Point{1, 1}))
	store.Create(NewFeature(GeometryLineString, orb.Point{0, 0}, orb.Point{1, 1}))

	store.Clear()
	if store.Len() != 0 {
		t.Fatalf("features=%d, want 0", store.Len())
	}
	if len(mirror.Layers()) != 0 {
		t.Fatalf("layers=%d, want 0", len(mirror.Layers()))
	}
}

func TestInsertionOrderPreserved(t *testing.T) {
	store, _ := newTestStore(t)

	a, _ := store.Create(NewFeature(GeometryPoint, orb.Point{1, 1}))
	b, _ := store.Create(NewFeature(GeometryPoint, orb.Point{2, 2}))
	c, _ := store.Create(NewFeature(GeometryPoint, orb.Point{3, 3}))
	store.UpdateProperties(b.ID, "middle", "")

	var ids []string
	for _, f := range store.List() {
		ids = append(ids, f.ID)
	}
	want := []string{a.ID, b.ID, c.ID}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order=%v, want %v", ids, want)
		}
	}
}

func TestCollectionClosesPolygonRing(t *testing.T) {
	store, _ := newTestStore(t)

	store.Create(NewFeature(GeometryPolygon,
		orb.Point{0, 0}, orb.Point{4, 0}, orb.Point{4, 4}))

	fc := store.Collection()
	if len(fc.Features) != 1 {
		t.Fatalf("features=%d, want 1", len(fc.Features))
	}
	poly, ok := fc.Features[0].Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("geometry=%T, want Polygon", fc.Features[0].Geometry)
	}
	ring := poly[0]
	if len(ring) != 4 || !ring[0].Equal(ring[len(ring)-1]) {
		t.Fatalf("ring=%v, want closed 4-vertex ring", ring)
	}
}

func TestEventsPublished(t *testing.T) {
	mirror := NewLayerMirror()
	bus := NewEventBus()
	store := NewFeatureStore(mirror, bus)

	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	f, _ := store.Create(NewFeature(GeometryPoint, orb.Point{1, 1}))
	store.UpdateProperties(f.ID, "a", "b")
	store.Delete(f.ID)

	for _, want := range []string{"created", "updated", "deleted"} {
		ev := <-ch
		if ev.Action != want || ev.Resource != "features" {
			t.Fatalf("event=%+v, want features/%s", ev, want)
		}
	}
}
