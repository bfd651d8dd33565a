package agent

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs an Agent instance from a child configuration map, as
// supplied by a SpawnChild directive's ChildConfig.
type Factory func(config map[string]any) (Agent, error)

// Registry manages named agent factories with lazy instantiation: a
// factory is stored at registration time, and an agent instance is created
// on first Get call with a given config and cached by name. Thread-safe
// for concurrent access.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	instances map[string]Agent
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		instances: make(map[string]Agent),
	}
}

// Register adds a named agent factory. Returns ErrAgentExists if name is
// already registered.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return ErrEmptyAgentName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", ErrAgentExists, name)
	}

	r.factories[name] = factory
	return nil
}

// Replace updates the factory for an existing named agent type. Any
// cached instance is invalidated so the next Get re-instantiates.
func (r *Registry) Replace(name string, factory Factory) error {
	if name == "" {
		return ErrEmptyAgentName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	r.factories[name] = factory
	delete(r.instances, name)
	return nil
}

// Get instantiates (or returns a cached instance of) the named agent type
// using config. Returns ErrAgentNotFound if name was never registered.
func (r *Registry) Get(name string, config map[string]any) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	factory, registered := r.factories[name]
	if !registered {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	if a, cached := r.instances[name]; cached {
		return a, nil
	}

	a, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent %q: %w", name, err)
	}

	r.instances[name] = a
	return a, nil
}

// Unregister removes a named agent type from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return fmt.Errorf("%w: %s", ErrAgentNotFound, name)
	}

	delete(r.factories, name)
	delete(r.instances, name)
	return nil
}

// List returns the names of all registered agent types, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}
