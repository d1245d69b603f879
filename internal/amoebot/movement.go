package amoebot

import "fmt"

// EdgeMovement describes the before/after positions of the two endpoints of
// one physical edge (a bond, or an expanding/contracting particle's own
// head-tail edge) during one round's movement. A static edge is represented
// with equal before and after positions; a whole-edge translation has both
// endpoints shifted by the same vector.
type EdgeMovement struct {
	Start1 Node `json:"start1"`
	Start2 Node `json:"start2"`
	End1   Node `json:"end1"`
	End2   Node `json:"end2"`

	// Owners names the entities the edge belongs to, for fault reporting.
	Owners []string `json:"owners,omitempty"`
}

func (m EdgeMovement) String() string {
	return fmt.Sprintf("%s-%s -> %s-%s", m.Start1, m.Start2, m.End1, m.End2)
}

// Translation1 is the movement vector of the first endpoint.
func (m EdgeMovement) Translation1() Node { return m.End1.Sub(m.Start1) }

// Translation2 is the movement vector of the second endpoint.
func (m EdgeMovement) Translation2() Node { return m.End2.Sub(m.Start2) }

// IsTranslation reports whether both endpoints move by the same vector,
// i.e. the edge translates rigidly instead of expanding or contracting.
func (m EdgeMovement) IsTranslation() bool {
	return m.Translation1() == m.Translation2()
}

// IsStatic reports whether the edge does not move at all.
func (m EdgeMovement) IsStatic() bool {
	return m.Start1 == m.End1 && m.Start2 == m.End2
}

// SharesEndpointWith reports whether the two edges share a before-endpoint
// or an after-endpoint. Edges that do belong to the same bond network at
// that point and cannot collide with each other.
func (m EdgeMovement) SharesEndpointWith(o EdgeMovement) bool {
	if m.Start1 == o.Start1 || m.Start1 == o.Start2 ||
		m.Start2 == o.Start1 || m.Start2 == o.Start2 {
		return true
	}
	return m.End1 == o.End1 || m.End1 == o.End2 ||
		m.End2 == o.End1 || m.End2 == o.End2
}

// movementArena holds the edge movements of the round being resolved.
// Edge movements never outlive one round's validation pass, so the arena
// is reset at round boundaries and its backing storage reused.
type movementArena struct {
	items []EdgeMovement
}

func (a *movementArena) add(m EdgeMovement) {
	a.items = append(a.items, m)
}

func (a *movementArena) reset() {
	a.items = a.items[:0]
}
