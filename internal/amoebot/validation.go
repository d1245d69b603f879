package amoebot

import (
	"fmt"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid world config: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "world config validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// ValidateWorldConfig performs comprehensive validation of a WorldConfig:
// particle placement, compass parameters, algorithm names against the
// registry, object placement, and the anchor reference. A nil registry
// skips the algorithm-name checks.
func ValidateWorldConfig(cfg WorldConfig, registry *AlgorithmRegistry) error {
	err := &ValidationError{}

	particleIDs := make(map[string]bool)
	taken := make(map[Node]string)

	claim := func(n Node, owner, prefix string) {
		if prev, clash := taken[n]; clash {
			err.Add(prefix + ": node " + n.String() + " is already occupied by " + prev)
			return
		}
		taken[n] = owner
	}

	for i, pc := range cfg.Particles {
		prefix := "particle"
		if pc.ID != "" {
			prefix = "particle '" + pc.ID + "'"
		} else {
			prefix = "particle at index " + fmt.Sprintf("%d", i)
		}

		if pc.ID != "" {
			if particleIDs[pc.ID] {
				err.Add("duplicate particle ID: " + pc.ID)
			} else {
				particleIDs[pc.ID] = true
			}
		}

		if pc.Tail != nil && *pc.Tail != pc.Head && !pc.Head.IsAdjacentTo(*pc.Tail) {
			err.Add(prefix + ": head " + pc.Head.String() + " and tail " + pc.Tail.String() + " are not adjacent")
		}
		if pc.Chirality != nil && *pc.Chirality != 1 && *pc.Chirality != -1 {
			err.Add(prefix + ": chirality must be 1 or -1, got " + fmt.Sprintf("%d", *pc.Chirality))
		}
		if pc.CompassOffset < 0 || pc.CompassOffset >= int(NumDirections) {
			err.Add(prefix + ": compass offset must be between 0 and 5, got " + fmt.Sprintf("%d", pc.CompassOffset))
		}

		if pc.Algorithm == "" {
			err.Add(prefix + ": algorithm is required")
		} else if registry != nil && !registry.Has(pc.Algorithm) {
			err.Add(prefix + ": algorithm '" + pc.Algorithm + "' is not registered")
		}

		owner := pc.ID
		if owner == "" {
			owner = fmt.Sprintf("particle at index %d", i)
		}
		claim(pc.Head, owner, prefix)
		if pc.Tail != nil && *pc.Tail != pc.Head {
			claim(*pc.Tail, owner, prefix)
		}
	}

	objectIDs := make(map[string]bool)
	for i, oc := range cfg.Objects {
		prefix := "object"
		if oc.ID != "" {
			prefix = "object '" + oc.ID + "'"
		} else {
			prefix = "object at index " + fmt.Sprintf("%d", i)
		}

		if oc.ID != "" {
			if objectIDs[oc.ID] {
				err.Add("duplicate object ID: " + oc.ID)
			} else {
				objectIDs[oc.ID] = true
			}
		}

		owner := oc.ID
		if owner == "" {
			owner = fmt.Sprintf("object at index %d", i)
		}
		offsets := oc.Offsets
		if len(offsets) == 0 {
			offsets = []Node{{}}
		}
		seen := make(map[Node]bool)
		for _, off := range offsets {
			if seen[off] {
				continue
			}
			seen[off] = true
			claim(oc.Position.Add(off), owner, prefix)
		}
	}

	if cfg.Anchor != "" && !particleIDs[cfg.Anchor] {
		err.Add("anchor '" + cfg.Anchor + "' does not name a configured particle")
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
