package amoebot

import (
	"fmt"
	"sort"
	"sync"
)

// AlgorithmFactory builds a fresh algorithm instance for one particle.
// Instances must not be shared between particles.
type AlgorithmFactory func() Algorithm

// AlgorithmRegistry maps algorithm names to factories so worlds can be
// built from configuration files and restored from snapshots.
type AlgorithmRegistry struct {
	mu        sync.RWMutex
	factories map[string]AlgorithmFactory
}

// NewAlgorithmRegistry creates an empty registry.
func NewAlgorithmRegistry() *AlgorithmRegistry {
	return &AlgorithmRegistry{factories: make(map[string]AlgorithmFactory)}
}

// Register adds a factory under name. Registering the same name twice is
// an error.
func (r *AlgorithmRegistry) Register(name string, factory AlgorithmFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		return fmt.Errorf("algorithm name is required")
	}
	if factory == nil {
		return fmt.Errorf("algorithm %s: nil factory", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("algorithm %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// New builds a fresh instance of the named algorithm.
func (r *AlgorithmRegistry) New(name string) (Algorithm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("algorithm %s is not registered", name)
	}
	return factory(), nil
}

// Has reports whether name is registered.
func (r *AlgorithmRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[name]
	return exists
}

// Names returns all registered algorithm names, sorted.
func (r *AlgorithmRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
