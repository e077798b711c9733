// Package annotation contains the core drawing and feature state for the
// plat-annotate platform: the feature collection, the drawing session that
// turns map clicks into features, and the selection state bridging the
// sidebar and properties panel.
package annotation

import (
	"errors"
	"math"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Sentinel errors for the failure taxonomy. Nothing here is fatal: callers
// treat both as a no-op with the store unchanged.
var (
	// ErrNotFound reports an update/delete referencing an ID absent from
	// the store.
	ErrNotFound = errors.New("feature not found")

	// ErrInvalidCoordinate reports a click with a non-finite lng/lat.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// GeometryType identifies the shape of a feature's geometry.
type GeometryType string

const (
	GeometryPoint      GeometryType = "Point"
	GeometryLineString GeometryType = "LineString"
	GeometryPolygon    GeometryType = "Polygon"
)

// Tool is the active drawing tool of a session.
type Tool string

const (
	ToolNone    Tool = "none"
	ToolPoint   Tool = "point"
	ToolLine    Tool = "line"
	ToolPolygon Tool = "polygon"
)

// DefaultName is the placeholder name assigned to new features.
const DefaultName = "Untitled"

// Feature is a committed spatial annotation.
//
// Coords is never empty: a Point holds exactly one position, a LineString
// or Polygon holds the vertices in click order. A polygon's ring is stored
// unclosed; closing is a rendering concern (see GeoJSON).
type Feature struct {
	ID          string       `json:"id" doc:"Unique feature identifier" example:"7b1c3a8e-1f2d-4c5b-9e6f-0a1b2c3d4e5f"`
	Type        GeometryType `json:"geometryType" enum:"Point,LineString,Polygon" doc:"Geometry type" example:"Point"`
	Coords      []orb.Point  `json:"coordinates" doc:"Vertex positions as [lng, lat] pairs"`
	Name        string       `json:"name" doc:"Display name" example:"Cafe"`
	Description string       `json:"description" doc:"Free-form description" example:"Good coffee"`
}

// NewFeature creates a feature with a fresh ID and default properties.
func NewFeature(t GeometryType, coords ...orb.Point) Feature {
	return Feature{
		ID:     uuid.NewString(),
		Type:   t,
		Coords: coords,
		Name:   DefaultName,
	}
}

// LayerID returns the rendering-surface layer identifier for the feature.
func (f Feature) LayerID() string {
	return "feature-" + f.ID
}

// Geometry returns the orb geometry for the feature's current vertices.
// Polygons close their ring here if the producer left it open.
func (f Feature) Geometry() orb.Geometry {
	switch f.Type {
	case GeometryLineString:
		return orb.LineString(f.Coords)
	case GeometryPolygon:
		ring := make(orb.Ring, len(f.Coords))
		copy(ring, f.Coords)
		if len(ring) > 2 && !ring[0].Equal(ring[len(ring)-1]) {
			ring = append(ring, ring[0])
		}
		return orb.Polygon{ring}
	default:
		return f.Coords[0]
	}
}

// GeoJSON returns the feature as a GeoJSON feature for map sources and
// API export.
func (f Feature) GeoJSON() *geojson.Feature {
	gf := geojson.NewFeature(f.Geometry())
	gf.ID = f.ID
	gf.Properties = geojson.Properties{
		"name":        f.Name,
		"description": f.Description,
	}
	return gf
}

// clone returns a copy with its own vertex slice, so callers can hold
// snapshots while the store keeps mutating.
func (f Feature) clone() Feature {
	coords := make([]orb.Point, len(f.Coords))
	copy(coords, f.Coords)
	f.Coords = coords
	return f
}

// ValidPoint reports whether both components of a position are finite.
func ValidPoint(p orb.Point) bool {
	return finite(p.Lon()) && finite(p.Lat())
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
