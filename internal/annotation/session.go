package annotation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

// DrawingSession converts the stream of map clicks into feature-store
// mutations, given the currently active tool.
//
// Exactly one click handler is registered on the surface at any time.
// SetTool unsubscribes the previous handler before subscribing the new
// one; rebinding without the unsubscribe would leave N overlapping
// handlers after N tool switches, each creating a feature per physical
// click.
type DrawingSession struct {
	store   *FeatureStore
	surface Surface
	bus     *EventBus

	mu           sync.Mutex
	tool         Tool
	sub          Subscription
	subscribed   bool
	inProgressID string
	inProgress   []orb.Point
}

// NewDrawingSession creates a session bound to the store and surface. The
// initial tool is ToolNone with its (no-op) click handler registered, so
// the single-handler invariant holds from construction. The bus may be nil.
func NewDrawingSession(store *FeatureStore, surface Surface, bus *EventBus) *DrawingSession {
	s := &DrawingSession{store: store, surface: surface, bus: bus, tool: ToolNone}
	s.mu.Lock()
	s.rebindLocked()
	s.mu.Unlock()
	return s
}

// SetTool switches the active tool. Any in-progress shape is abandoned as
// a committed feature exactly as it stood, and the click handler is
// rebound so a single physical click keeps producing exactly one action.
func (s *DrawingSession) SetTool(tool Tool) {
	s.mu.Lock()
	s.tool = tool
	s.inProgressID = ""
	s.inProgress = nil
	s.rebindLocked()
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "session", Action: "tool", ID: string(tool)})
}

// rebindLocked replaces the surface click subscription. Caller holds mu.
func (s *DrawingSession) rebindLocked() {
	if s.subscribed {
		s.surface.Off(s.sub)
	}
	s.sub = s.surface.OnClick(func(p orb.Point) {
		if _, err := s.HandleClick(p); err != nil && !errors.Is(err, ErrInvalidCoordinate) {
			log.Warn().Err(err).Msg("Click handling failed")
		}
	})
	s.subscribed = true
}

// Tool returns the active tool.
func (s *DrawingSession) Tool() Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// InProgress returns the ID of the shape still accepting vertices, if any.
func (s *DrawingSession) InProgress() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inProgressID, s.inProgressID != ""
}

// HandleClick resolves one map click against the active tool. It returns
// the created or extended feature, or nil when the tool is ToolNone.
// Non-finite coordinates are rejected with ErrInvalidCoordinate and no
// feature is touched.
func (s *DrawingSession) HandleClick(p orb.Point) (*Feature, error) {
	if !ValidPoint(p) {
		return nil, fmt.Errorf("click at (%v, %v): %w", p.Lon(), p.Lat(), ErrInvalidCoordinate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.tool {
	case ToolNone:
		return nil, nil
	case ToolPoint:
		f, err := s.store.Create(NewFeature(GeometryPoint, p))
		if err != nil {
			return nil, err
		}
		return &f, nil
	case ToolLine:
		return s.extendLocked(GeometryLineString, p)
	case ToolPolygon:
		return s.extendLocked(GeometryPolygon, p)
	default:
		return nil, nil
	}
}

// extendLocked starts a new line/polygon on the first click of a shape, or
// appends a vertex to the in-progress one. Caller holds mu.
func (s *DrawingSession) extendLocked(t GeometryType, p orb.Point) (*Feature, error) {
	if s.inProgressID == "" {
		f, err := s.store.Create(NewFeature(t, p))
		if err != nil {
			return nil, err
		}
		s.inProgressID = f.ID
		s.inProgress = []orb.Point{p}
		return &f, nil
	}

	coords := append(append([]orb.Point{}, s.inProgress...), p)
	f, err := s.store.Update(s.inProgressID, FeaturePatch{Coords: coords})
	if errors.Is(err, ErrNotFound) {
		// The in-progress feature was deleted out from under the
		// session; start a fresh shape at this click.
		s.inProgressID = ""
		s.inProgress = nil
		return s.extendLocked(t, p)
	}
	if err != nil {
		return nil, err
	}
	s.inProgress = coords
	return &f, nil
}

// ClearAll removes every committed feature and resets the in-progress
// shape, since the feature it pointed to no longer exists. The next
// line/polygon click starts fresh.
func (s *DrawingSession) ClearAll() {
	s.mu.Lock()
	s.inProgressID = ""
	s.inProgress = nil
	s.mu.Unlock()

	s.store.Clear()
}
