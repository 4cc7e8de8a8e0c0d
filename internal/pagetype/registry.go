package pagetype

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps discriminators to registered types. Registration normally
// happens once during startup wiring; lookups are concurrency-safe.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// Register adds a type. An empty name, a missing template, payload
// constructor or store, or a duplicate discriminator is a wiring error and
// fails loudly.
func (r *Registry) Register(t Type) error {
	if t.Name == "" {
		return fmt.Errorf("pagetype: empty type name")
	}
	if t.Template == "" {
		return fmt.Errorf("pagetype %q: empty template", t.Name)
	}
	if t.NewPayload == nil {
		return fmt.Errorf("pagetype %q: nil payload constructor", t.Name)
	}
	if t.Store == nil {
		return fmt.Errorf("pagetype %q: nil store", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[t.Name]; ok {
		return fmt.Errorf("pagetype %q: already registered", t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// MustRegister is Register for startup wiring.
func (r *Registry) MustRegister(t Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get returns the type registered under name.
func (r *Registry) Get(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names returns the registered discriminators, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
