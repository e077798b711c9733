package annotation

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Default layer styles per geometry type: point→circle marker,
// line→stroked path, polygon→filled area.
var defaultStyles = map[GeometryType]LayerStyle{
	GeometryPoint:      {Fill: "#3388ff", Stroke: "#2266cc", Opacity: 1, Radius: 6},
	GeometryLineString: {Stroke: "#2266cc", Opacity: 0.9},
	GeometryPolygon:    {Fill: "#3388ff", Stroke: "#2266cc", Opacity: 0.4},
}

// FeaturePatch describes a partial feature update. Nil fields are left
// unchanged.
type FeaturePatch struct {
	Coords      []orb.Point
	Name        *string
	Description *string
}

// FeatureStore holds the ordered collection of committed features, the
// single source of truth rendered into the map and the sidebar. Every
// feature has exactly one corresponding rendering-surface layer; create,
// update and delete keep the two in lockstep.
type FeatureStore struct {
	surface  Surface
	bus      *EventBus
	mu       sync.RWMutex
	order    []string
	features map[string]Feature
}

// NewFeatureStore creates an empty store synced to the given surface.
// The bus may be nil.
func NewFeatureStore(surface Surface, bus *EventBus) *FeatureStore {
	return &FeatureStore{
		surface:  surface,
		bus:      bus,
		features: make(map[string]Feature),
	}
}

// Create appends a feature and adds its layer to the surface. An empty ID
// is assigned; a feature with no vertices is rejected.
func (s *FeatureStore) Create(f Feature) (Feature, error) {
	if len(f.Coords) == 0 {
		return Feature{}, fmt.Errorf("feature %q has no coordinates: %w", f.ID, ErrInvalidCoordinate)
	}
	for _, p := range f.Coords {
		if !ValidPoint(p) {
			return Feature{}, fmt.Errorf("feature %q: %w", f.ID, ErrInvalidCoordinate)
		}
	}
	if f.ID == "" {
		f = NewFeature(f.Type, f.Coords...)
	}

	s.mu.Lock()
	if _, exists := s.features[f.ID]; exists {
		s.mu.Unlock()
		return Feature{}, fmt.Errorf("feature %q already exists", f.ID)
	}
	s.order = append(s.order, f.ID)
	s.features[f.ID] = f.clone()
	s.mu.Unlock()

	s.surface.AddLayer(f.LayerID(), f.Type, f.Geometry(), defaultStyles[f.Type])
	s.bus.Publish(Event{Resource: "features", Action: "created", ID: f.ID})
	return f, nil
}

// Update applies a patch to the feature with the given ID, preserving its
// position in the collection. The surface layer is refreshed only when the
// geometry changed.
func (s *FeatureStore) Update(id string, patch FeaturePatch) (Feature, error) {
	if patch.Coords != nil && len(patch.Coords) == 0 {
		return Feature{}, fmt.Errorf("feature %q has no coordinates: %w", id, ErrInvalidCoordinate)
	}
	for _, p := range patch.Coords {
		if !ValidPoint(p) {
			return Feature{}, fmt.Errorf("feature %q: %w", id, ErrInvalidCoordinate)
		}
	}

	s.mu.Lock()
	f, ok := s.features[id]
	if !ok {
		s.mu.Unlock()
		return Feature{}, fmt.Errorf("feature %q: %w", id, ErrNotFound)
	}
	geomChanged := false
	if patch.Coords != nil {
		f.Coords = patch.Coords
		geomChanged = true
	}
	if patch.Name != nil {
		f.Name = *patch.Name
	}
	if patch.Description != nil {
		f.Description = *patch.Description
	}
	s.features[id] = f.clone()
	s.mu.Unlock()

	if geomChanged {
		s.surface.UpdateLayerData(f.LayerID(), f.Geometry())
	}
	s.bus.Publish(Event{Resource: "features", Action: "updated", ID: id})
	return f, nil
}

// UpdateProperties replaces only the name and description of a feature.
// Geometry is untouched and no layer re-render happens.
func (s *FeatureStore) UpdateProperties(id, name, description string) (Feature, error) {
	return s.Update(id, FeaturePatch{Name: &name, Description: &description})
}

// Delete removes a feature and its surface layer.
func (s *FeatureStore) Delete(id string) error {
	s.mu.Lock()
	f, ok := s.features[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("feature %q: %w", id, ErrNotFound)
	}
	delete(s.features, id)
	for i, fid := range s.order {
		if fid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.surface.RemoveLayer(f.LayerID())
	s.bus.Publish(Event{Resource: "features", Action: "deleted", ID: id})
	return nil
}

// Get returns a feature snapshot by ID.
func (s *FeatureStore) Get(id string) (Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[id]
	if !ok {
		return Feature{}, false
	}
	return f.clone(), true
}

// List returns a snapshot of all features in insertion order.
func (s *FeatureStore) List() []Feature {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Feature, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.features[id].clone())
	}
	return result
}

// Len returns the number of committed features.
func (s *FeatureStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear removes all features and their surface layers.
func (s *FeatureStore) Clear() {
	s.mu.Lock()
	removed := s.order
	features := s.features
	s.order = nil
	s.features = make(map[string]Feature)
	s.mu.Unlock()

	for _, id := range removed {
		s.surface.RemoveLayer(features[id].LayerID())
	}
	s.bus.Publish(Event{Resource: "features", Action: "cleared", ID: ""})
}

// Collection returns the store as a GeoJSON feature collection for map
// sources and API export.
func (s *FeatureStore) Collection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range s.List() {
		fc.Append(f.GeoJSON())
	}
	return fc
}
