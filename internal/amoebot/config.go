package amoebot

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParticleConfig describes one particle of a world setup. A missing tail
// means the particle starts contracted at its head node. Chirality
// defaults to counterclockwise and the compass offset to zero.
type ParticleConfig struct {
	ID            string `json:"id,omitempty" yaml:"id,omitempty"`
	Head          Node   `json:"head" yaml:"head"`
	Tail          *Node  `json:"tail,omitempty" yaml:"tail,omitempty"`
	Chirality     *int   `json:"chirality,omitempty" yaml:"chirality,omitempty"`
	CompassOffset int    `json:"compass_offset,omitempty" yaml:"compass_offset,omitempty"`
	Algorithm     string `json:"algorithm" yaml:"algorithm"`
}

// ObjectConfig describes one static object of a world setup.
type ObjectConfig struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Position Node   `json:"position" yaml:"position"`
	Offsets  []Node `json:"offsets,omitempty" yaml:"offsets,omitempty"`
}

// WorldConfig is the declarative form of a world: its particles, objects,
// anchor, and engine settings.
type WorldConfig struct {
	Name             string           `json:"name" yaml:"name"`
	Anchor           string           `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	CollisionWorkers int              `json:"collision_workers,omitempty" yaml:"collision_workers,omitempty"`
	Particles        []ParticleConfig `json:"particles" yaml:"particles"`
	Objects          []ObjectConfig   `json:"objects,omitempty" yaml:"objects,omitempty"`
}

// ParseWorldConfigJSON decodes a WorldConfig from JSON.
func ParseWorldConfigJSON(data []byte) (WorldConfig, error) {
	var cfg WorldConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return WorldConfig{}, fmt.Errorf("failed to decode world config: %w", err)
	}
	return cfg, nil
}

// ParseWorldConfigYAML decodes a WorldConfig from YAML.
func ParseWorldConfigYAML(data []byte) (WorldConfig, error) {
	var cfg WorldConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WorldConfig{}, fmt.Errorf("failed to decode world config: %w", err)
	}
	return cfg, nil
}

// EncodeWorldConfigJSON encodes a WorldConfig to JSON.
func EncodeWorldConfigJSON(cfg WorldConfig) ([]byte, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode world config: %w", err)
	}
	return data, nil
}

// BuildSystem validates cfg and assembles a ready-to-step system, looking
// algorithm names up in registry.
func BuildSystem(cfg WorldConfig, registry *AlgorithmRegistry, logger Logger) (*System, error) {
	if err := ValidateWorldConfig(cfg, registry); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNoOpLogger()
	}
	s := NewSystemWithLogger(logger)
	if cfg.CollisionWorkers > 0 {
		s.SetCollisionWorkers(cfg.CollisionWorkers)
	}
	for _, pc := range cfg.Particles {
		alg, err := registry.New(pc.Algorithm)
		if err != nil {
			return nil, err
		}
		compass := Compass{Offset: Direction(pc.CompassOffset), Chirality: ChiralityCCW}
		if pc.Chirality != nil && *pc.Chirality < 0 {
			compass.Chirality = ChiralityCW
		}
		head := pc.Head
		tail := head
		if pc.Tail != nil {
			tail = *pc.Tail
		}
		if _, err := s.AddExpandedParticle(ParticleID(pc.ID), head, tail, compass, alg); err != nil {
			return nil, err
		}
	}
	for _, oc := range cfg.Objects {
		if _, err := s.AddObject(ObjectID(oc.ID), oc.Position, oc.Offsets); err != nil {
			return nil, err
		}
	}
	if cfg.Anchor != "" {
		if err := s.SetAnchor(ParticleID(cfg.Anchor)); err != nil {
			return nil, err
		}
	}
	return s, nil
}
