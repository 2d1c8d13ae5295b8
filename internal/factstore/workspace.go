package factstore

import (
	"maps"
	"slices"
)

// Workspace holds one store per source location, e.g. a repository path
// or a tracking server URL.
type Workspace struct {
	stores map[string]*Store
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{stores: make(map[string]*Store)}
}

// Store returns the store for location, creating it on first use.
func (w *Workspace) Store(location string) *Store {
	s, ok := w.stores[location]
	if !ok {
		s = New()
		w.stores[location] = s
	}
	return s
}

// Lookup returns the store for location without creating it.
func (w *Workspace) Lookup(location string) (*Store, bool) {
	s, ok := w.stores[location]
	return s, ok
}

// Locations returns the known locations in sorted order.
func (w *Workspace) Locations() []string {
	return slices.Sorted(maps.Keys(w.stores))
}
