package amoebot

import (
	"fmt"
	"sync"
)

// WorldID is a unique identifier for a world
type WorldID string

// WorldManager manages multiple worlds, each isolated from others
type WorldManager struct {
	mu       sync.RWMutex
	worlds   map[WorldID]*System
	registry *AlgorithmRegistry
	logger   Logger
}

// NewWorldManager creates a new world manager resolving algorithm names
// through registry.
func NewWorldManager(registry *AlgorithmRegistry, logger Logger) *WorldManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &WorldManager{
		worlds:   make(map[WorldID]*System),
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the algorithm registry shared by all worlds.
func (wm *WorldManager) Registry() *AlgorithmRegistry {
	return wm.registry
}

// CreateWorld builds a new world from cfg under the given ID.
// Returns an error if a world with that ID already exists.
func (wm *WorldManager) CreateWorld(id WorldID, cfg WorldConfig) (*System, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; exists {
		return nil, fmt.Errorf("world with id %s already exists", id)
	}
	s, err := BuildSystem(cfg, wm.registry, wm.logger)
	if err != nil {
		return nil, err
	}
	wm.worlds[id] = s
	return s, nil
}

// RestoreWorld rebuilds a world from a snapshot under the given ID.
func (wm *WorldManager) RestoreWorld(id WorldID, snapshot Snapshot) (*System, error) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; exists {
		return nil, fmt.Errorf("world with id %s already exists", id)
	}
	s, err := RestoreSystem(snapshot, wm.registry, wm.logger)
	if err != nil {
		return nil, err
	}
	wm.worlds[id] = s
	return s, nil
}

// GetWorld retrieves a world by ID
// Returns the world and a boolean indicating if it was found
func (wm *WorldManager) GetWorld(id WorldID) (*System, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	s, exists := wm.worlds[id]
	return s, exists
}

// DeleteWorld removes a world by ID
// Returns an error if the world doesn't exist
func (wm *WorldManager) DeleteWorld(id WorldID) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	s, exists := wm.worlds[id]
	if !exists {
		return fmt.Errorf("world with id %s does not exist", id)
	}

	// Stop the world if it's running
	s.Stop()

	delete(wm.worlds, id)
	return nil
}

// ListWorlds returns a list of all world IDs
func (wm *WorldManager) ListWorlds() []WorldID {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	ids := make([]WorldID, 0, len(wm.worlds))
	for id := range wm.worlds {
		ids = append(ids, id)
	}
	return ids
}
