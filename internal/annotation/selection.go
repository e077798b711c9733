package annotation

import (
	"fmt"
	"sync"
)

// Selection bridges the feature store and the presentational sidebar and
// properties panel: at most one selected feature, plus the panel-open
// flag. Selecting never mutates the feature; only a properties save does.
type Selection struct {
	store *FeatureStore
	bus   *EventBus

	mu         sync.Mutex
	selectedID string
	panelOpen  bool
}

// NewSelection creates an empty selection over the store. The bus may be
// nil.
func NewSelection(store *FeatureStore, bus *EventBus) *Selection {
	return &Selection{store: store, bus: bus}
}

// Select marks a feature as selected and opens the properties panel.
func (s *Selection) Select(id string) error {
	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("feature %q: %w", id, ErrNotFound)
	}
	s.mu.Lock()
	s.selectedID = id
	s.panelOpen = true
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "selection", Action: "updated", ID: id})
	return nil
}

// Selected returns the selected feature ID. The selection is lazily
// dropped if the feature disappeared from the store since it was made.
func (s *Selection) Selected() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selectedID == "" {
		return "", false
	}
	if _, ok := s.store.Get(s.selectedID); !ok {
		s.selectedID = ""
		s.panelOpen = false
		return "", false
	}
	return s.selectedID, true
}

// PanelOpen reports whether the properties panel is open.
func (s *Selection) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// Clear drops the selection and closes the panel.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.selectedID = ""
	s.panelOpen = false
	s.mu.Unlock()

	s.bus.Publish(Event{Resource: "selection", Action: "updated", ID: ""})
}

// OnDelete deletes a feature; if it was the selected one, the selection is
// cleared and the panel closed.
func (s *Selection) OnDelete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.mu.Lock()
	if s.selectedID == id {
		s.selectedID = ""
		s.panelOpen = false
	}
	s.mu.Unlock()
	return nil
}

// OnPropertiesSave writes name and description, closes the panel and
// clears the selection.
func (s *Selection) OnPropertiesSave(id, name, description string) (Feature, error) {
	f, err := s.store.UpdateProperties(id, name, description)
	if err != nil {
		return Feature{}, err
	}
	s.mu.Lock()
	s.selectedID = ""
	s.panelOpen = false
	s.mu.Unlock()
	return f, nil
}
