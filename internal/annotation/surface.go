package annotation

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// ClickHandler receives a map click as a lng/lat position.
type ClickHandler func(p orb.Point)

// Subscription identifies a registered click handler so it can be removed.
type Subscription int

// LayerStyle is the drawable style for a feature's layer.
type LayerStyle struct {
	Fill    string  `json:"fill,omitempty" doc:"Fill color (CSS)" example:"#3388ff"`
	Stroke  string  `json:"stroke,omitempty" doc:"Stroke color (CSS)" example:"#2266cc"`
	Opacity float64 `json:"opacity,omitempty" minimum:"0" maximum:"1" doc:"Layer opacity (0-1)" example:"0.7"`
	Radius  float64 `json:"radius,omitempty" doc:"Point radius in pixels" example:"6"`
}

// Surface is the rendering surface the core draws against: the external
// map component that produces click events and owns the drawable layers.
//
// AddLayer is idempotent (double-add of the same layer ID is a no-op), and
// UpdateLayerData/RemoveLayer tolerate an absent layer as a no-op rather
// than raising, since layer and feature lifecycles converge within a
// single synchronous turn.
type Surface interface {
	// OnClick registers a click handler and returns a handle for Off.
	OnClick(h ClickHandler) Subscription
	// Off removes a previously registered handler. Unknown handles are
	// ignored.
	Off(sub Subscription)

	AddLayer(layerID string, t GeometryType, geom orb.Geometry, style LayerStyle)
	UpdateLayerData(layerID string, geom orb.Geometry)
	RemoveLayer(layerID string)

	// FlyTo pans the viewport. Used by the search box, never by the core.
	FlyTo(center orb.Point, zoom float64)
}

// Layer is the mirrored state of one drawable layer.
type Layer struct {
	ID    string
	Type  GeometryType
	Geom  orb.Geometry
	Style LayerStyle
}

// LayerMirror is the in-process Surface implementation. The browser map is
// the real rendering surface; the mirror tracks its layer state on the
// server so the SSE editor can replay it to newly connected tabs, and
// dispatches click events arriving over HTTP to the registered handler.
type LayerMirror struct {
	mu       sync.RWMutex
	nextSub  Subscription
	handlers map[Subscription]ClickHandler
	order    []string
	layers   map[string]Layer
	center   orb.Point
	zoom     float64
}

// NewLayerMirror creates an empty layer mirror.
func NewLayerMirror() *LayerMirror {
	return &LayerMirror{
		handlers: make(map[Subscription]ClickHandler),
		layers:   make(map[string]Layer),
	}
}

// OnClick registers a click handler.
func (m *LayerMirror) OnClick(h ClickHandler) Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSub++
	m.handlers[m.nextSub] = h
	return m.nextSub
}

// Off removes a handler registration.
func (m *LayerMirror) Off(sub Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, sub)
}

// Click dispatches a physical map click to every registered handler.
// With a correctly rebound session there is exactly one.
func (m *LayerMirror) Click(p orb.Point) {
	m.mu.RLock()
	handlers := make([]ClickHandler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		h(p)
	}
}

// HandlerCount returns the number of registered click handlers.
func (m *LayerMirror) HandlerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers)
}

// AddLayer records a new drawable layer. Adding an existing ID is a no-op.
func (m *LayerMirror) AddLayer(layerID string, t GeometryType, geom orb.Geometry, style LayerStyle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.layers[layerID]; exists {
		log.Debug().Str("layer", layerID).Msg("Layer already added, skipping")
		return
	}
	m.order = append(m.order, layerID)
	m.layers[layerID] = Layer{ID: layerID, Type: t, Geom: geom, Style: style}
}

// UpdateLayerData replaces a layer's source geometry. Absent layers are
// logged and skipped.
func (m *LayerMirror) UpdateLayerData(layerID string, geom orb.Geometry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	layer, ok := m.layers[layerID]
	if !ok {
		log.Debug().Str("layer", layerID).Msg("Layer data update skipped: layer absent")
		return
	}
	layer.Geom = geom
	m.layers[layerID] = layer
}

// RemoveLayer removes a layer and its backing data. Absent layers are a
// no-op.
func (m *LayerMirror) RemoveLayer(layerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.layers[layerID]; !ok {
		log.Debug().Str("layer", layerID).Msg("Layer removal skipped: layer absent")
		return
	}
	delete(m.layers, layerID)
	for i, id := range m.order {
		if id == layerID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// FlyTo records the requested viewport.
func (m *LayerMirror) FlyTo(center orb.Point, zoom float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.center = center
	m.zoom = zoom
}

// Viewport returns the last requested center and zoom.
func (m *LayerMirror) Viewport() (orb.Point, float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.center, m.zoom
}

// Layers returns the mirrored layers in add order.
func (m *LayerMirror) Layers() []Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Layer, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.layers[id])
	}
	return result
}

// HasLayer reports whether a layer is currently mirrored.
func (m *LayerMirror) HasLayer(layerID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.layers[layerID]
	return ok
}
