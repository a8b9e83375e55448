package aggregator

import (
	"fmt"
	"sync"
)

// Registry maps store identities to constructed stores so the rest of the
// application can discover them without package-level globals.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]any
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]any)}
}

// Register adds store under id. Each id may be registered once.
func (r *Registry) Register(id string, store any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stores[id]; exists {
		return fmt.Errorf("store %q already registered", id)
	}
	r.stores[id] = store
	return nil
}

// Lookup returns the store registered under id, typed as T.
func Lookup[T any](r *Registry, id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stores[id].(T)
	return s, ok
}

// Register adds the aggregator to r under StoreID.
func (a *Aggregator) Register(r *Registry) error {
	return r.Register(StoreID, a)
}
