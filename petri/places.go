package petri

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// PlacesManager is the name-indexed store of a net's places, with a separate
// index of input places.
type PlacesManager struct {
	mu          sync.RWMutex
	places      map[string]*Place
	inputPlaces []*Place
}

// NewPlacesManager creates an empty manager.
func NewPlacesManager() *PlacesManager {
	return &PlacesManager{places: make(map[string]*Place)}
}

// Insert adds a place. It fails when the name is empty or already present.
func (m *PlacesManager) Insert(place *Place) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := place.Name()
	if name == "" {
		return fmt.Errorf("%w: empty place name", ErrInvalidName)
	}
	if _, ok := m.places[name]; ok {
		return fmt.Errorf("%w: %q", ErrRepeatedPlace, name)
	}
	m.places[name] = place
	if place.IsInput() {
		m.inputPlaces = append(m.inputPlaces, place)
	}
	return nil
}

// Contains reports whether a place with the given name exists.
func (m *PlacesManager) Contains(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.places[name]
	return ok
}

// Get looks up a place by name.
func (m *PlacesManager) Get(name string) (*Place, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	place, ok := m.places[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown place %q", ErrInvalidName, name)
	}
	return place, nil
}

// Clear drops all places, including the input-place index.
func (m *PlacesManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places = make(map[string]*Place)
	m.inputPlaces = nil
}

// ClearInputPlaces resets every input place to zero tokens without invoking
// callbacks.
func (m *PlacesManager) ClearInputPlaces() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, place := range m.inputPlaces {
		place.SetTokenCount(0)
	}
}

// IncrementInputPlace adds exactly one token to the named input place.
func (m *PlacesManager) IncrementInputPlace(name string) error {
	place, err := m.Get(name)
	if err != nil {
		return err
	}
	if !place.IsInput() {
		return fmt.Errorf("%w: %q", ErrNotInputPlace, name)
	}
	return place.Enter(1)
}

// TokenCount returns the number of tokens in the named place.
func (m *PlacesManager) TokenCount(name string) (uint64, error) {
	place, err := m.Get(name)
	if err != nil {
		return 0, err
	}
	return place.TokenCount(), nil
}

// Properties returns point-in-time snapshots of all places, sorted by name.
func (m *PlacesManager) Properties() []PlaceProperties {
	m.mu.RLock()
	defer m.mu.RUnlock()

	props := make([]PlaceProperties, 0, len(m.places))
	for _, place := range m.places {
		props = append(props, place.Properties())
	}
	sort.Slice(props, func(i, j int) bool { return props[i].Name < props[j].Name })
	return props
}

// Marking returns the current token count of every place.
func (m *PlacesManager) Marking() map[string]uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	marking := make(map[string]uint64, len(m.places))
	for name, place := range m.places {
		marking[name] = place.TokenCount()
	}
	return marking
}

// PrintState writes one "name: tokens" line per place, sorted by name.
func (m *PlacesManager) PrintState(w io.Writer) {
	for _, props := range m.Properties() {
		fmt.Fprintf(w, "%s: %d\n", props.Name, props.InitialNumberOfTokens)
	}
}
