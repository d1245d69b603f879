package amoebot

import (
	"encoding/json"
	"fmt"
)

// ParticleSnapshot captures one particle with its full recorded history,
// so a restored world can still be scrubbed back in time.
type ParticleSnapshot struct {
	ID        ParticleID            `json:"id"`
	Compass   Compass               `json:"compass"`
	Algorithm string                `json:"algorithm"`
	Head      []historyRecord[Node]  `json:"head"`
	Tail      []historyRecord[Node]  `json:"tail"`
	Color     []historyRecord[Color] `json:"color"`
	Beep      []historyRecord[bool]  `json:"beep"`
}

// ObjectSnapshot captures one object and its position history.
type ObjectSnapshot struct {
	ID       ObjectID              `json:"id"`
	Offsets  []Node                `json:"offsets"`
	Position []historyRecord[Node] `json:"position"`
}

// Snapshot represents a point-in-time capture of a world's state,
// including every recorded round up to the capture.
type Snapshot struct {
	Round     int                `json:"round"`
	BaseRound int                `json:"base_round"`
	Anchor    ParticleID         `json:"anchor,omitempty"`
	Particles []ParticleSnapshot `json:"particles"`
	Objects   []ObjectSnapshot   `json:"objects,omitempty"`
}

// TakeSnapshot captures the system's committed state and histories.
func (s *System) TakeSnapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Round:     s.round,
		BaseRound: s.baseRound,
		Anchor:    s.anchor,
		Particles: make([]ParticleSnapshot, 0, len(s.order)),
		Objects:   make([]ObjectSnapshot, 0, len(s.objOrder)),
	}
	for _, id := range s.order {
		p := s.particles[id]
		snap.Particles = append(snap.Particles, ParticleSnapshot{
			ID:        p.id,
			Compass:   p.compass,
			Algorithm: p.algorithm.Name(),
			Head:      p.headHistory.Records(),
			Tail:      p.tailHistory.Records(),
			Color:     p.colorHistory.Records(),
			Beep:      p.beepHistory.Records(),
		})
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		snap.Objects = append(snap.Objects, ObjectSnapshot{
			ID:       o.id,
			Offsets:  o.Offsets(),
			Position: o.posHistory.Records(),
		})
	}
	return snap
}

// ValidateSnapshot performs validation checks on a snapshot.
// It verifies that:
//   - All particle and object IDs are non-empty and unique
//   - All algorithms exist in the provided registry (if registry is not nil)
//   - Every history carries at least one record
//
// If registry is nil, algorithm names are not checked.
func ValidateSnapshot(snapshot Snapshot, registry *AlgorithmRegistry) error {
	seenIDs := make(map[ParticleID]struct{})
	for i, ps := range snapshot.Particles {
		if ps.ID == "" {
			return fmt.Errorf("particle at index %d has empty ID", i)
		}
		if _, exists := seenIDs[ps.ID]; exists {
			return fmt.Errorf("duplicate particle ID: %s", ps.ID)
		}
		seenIDs[ps.ID] = struct{}{}

		if registry != nil && !registry.Has(ps.Algorithm) {
			return fmt.Errorf("particle %s has unknown algorithm: %s (not found in registry)", ps.ID, ps.Algorithm)
		}
		if len(ps.Head) == 0 || len(ps.Tail) == 0 || len(ps.Color) == 0 || len(ps.Beep) == 0 {
			return fmt.Errorf("particle %s has an empty history", ps.ID)
		}
	}

	seenObjIDs := make(map[ObjectID]struct{})
	for i, os := range snapshot.Objects {
		if os.ID == "" {
			return fmt.Errorf("object at index %d has empty ID", i)
		}
		if _, exists := seenObjIDs[os.ID]; exists {
			return fmt.Errorf("duplicate object ID: %s", os.ID)
		}
		seenObjIDs[os.ID] = struct{}{}
		if len(os.Position) == 0 {
			return fmt.Errorf("object %s has an empty position history", os.ID)
		}
	}

	if snapshot.Anchor != "" {
		if _, exists := seenIDs[snapshot.Anchor]; !exists {
			return fmt.Errorf("anchor %s does not name a particle in the snapshot", snapshot.Anchor)
		}
	}
	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
// Returns the JSON bytes and any encoding error.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
// Returns the decoded snapshot and any decoding error.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// RestoreSystem rebuilds a live system from a snapshot, recreating each
// particle's algorithm from the registry and replaying nothing: the
// histories come back verbatim, so the timeline stays scrubbable.
func RestoreSystem(snapshot Snapshot, registry *AlgorithmRegistry, logger Logger) (*System, error) {
	if err := ValidateSnapshot(snapshot, registry); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	s := NewSystemWithLogger(logger)
	s.round = snapshot.Round
	s.baseRound = snapshot.BaseRound
	s.marker = snapshot.Round
	s.anchor = snapshot.Anchor

	for _, ps := range snapshot.Particles {
		alg, err := registry.New(ps.Algorithm)
		if err != nil {
			return nil, err
		}
		p := &Particle{id: ps.ID, compass: ps.Compass, algorithm: alg}
		if p.headHistory, err = historyFromRecords(ps.Head); err != nil {
			return nil, fmt.Errorf("particle %s head history: %w", ps.ID, err)
		}
		if p.tailHistory, err = historyFromRecords(ps.Tail); err != nil {
			return nil, fmt.Errorf("particle %s tail history: %w", ps.ID, err)
		}
		if p.colorHistory, err = historyFromRecords(ps.Color); err != nil {
			return nil, fmt.Errorf("particle %s color history: %w", ps.ID, err)
		}
		if p.beepHistory, err = historyFromRecords(ps.Beep); err != nil {
			return nil, fmt.Errorf("particle %s beep history: %w", ps.ID, err)
		}
		p.head = p.headHistory.GetValueInRound(snapshot.Round)
		p.tail = p.tailHistory.GetValueInRound(snapshot.Round)
		p.color = p.colorHistory.GetValueInRound(snapshot.Round)
		p.beep = p.beepHistory.GetValueInRound(snapshot.Round)
		if p.head != p.tail && !p.head.IsAdjacentTo(p.tail) {
			return nil, fmt.Errorf("particle %s: restored head %s and tail %s are not adjacent", ps.ID, p.head, p.tail)
		}
		s.particles[p.id] = p
		s.order = append(s.order, p.id)
	}

	for _, os := range snapshot.Objects {
		o := NewObject(os.ID, Node{}, os.Offsets, snapshot.Round)
		var err error
		if o.posHistory, err = historyFromRecords(os.Position); err != nil {
			return nil, fmt.Errorf("object %s position history: %w", os.ID, err)
		}
		o.pos = o.posHistory.GetValueInRound(snapshot.Round)
		s.objects[o.id] = o
		s.objOrder = append(s.objOrder, o.id)
	}

	if s.anchor == "" && len(s.order) > 0 {
		s.anchor = s.order[0]
	}
	s.rebuildOccupancy()
	return s, nil
}
