package amoebot

import (
	"testing"
)

func TestDirectionVectorsFormHexRing(t *testing.T) {
	// Each direction rotated once CCW must land on the next vector, and
	// opposite directions must cancel.
	for d := Direction(0); d < NumDirections; d++ {
		next := d.Rotate(1)
		if next != Direction((int(d)+1)%int(NumDirections)) {
			t.Errorf("Rotate(1) from %v gave %v", d, next)
		}
		sum := d.Vector().Add(d.Opposite().Vector())
		if sum != (Node{}) {
			t.Errorf("%v and %v vectors do not cancel: %v", d, d.Opposite(), sum)
		}
	}
}

func TestNodeNeighborsAndAdjacency(t *testing.T) {
	origin := Node{}
	seen := make(map[Node]bool)
	for d := Direction(0); d < NumDirections; d++ {
		n := origin.Neighbor(d)
		if seen[n] {
			t.Errorf("Duplicate neighbor %v for direction %v", n, d)
		}
		seen[n] = true

		if !origin.IsAdjacentTo(n) {
			t.Errorf("Expected %v adjacent to origin", n)
		}
		back, ok := n.DirectionTo(origin)
		if !ok || back != d.Opposite() {
			t.Errorf("DirectionTo from %v gave %v, want %v", n, back, d.Opposite())
		}
	}
	if len(seen) != 6 {
		t.Errorf("Expected 6 distinct neighbors, got %d", len(seen))
	}
	if origin.IsAdjacentTo(Node{X: 2, Y: 0}) {
		t.Error("Nodes two steps apart must not be adjacent")
	}
	if origin.IsAdjacentTo(Node{X: 1, Y: 1}) {
		t.Error("(1,1) is not a lattice neighbor of the origin")
	}
}

func TestCompassRoundTrip(t *testing.T) {
	compasses := []Compass{
		{Offset: 0, Chirality: ChiralityCCW},
		{Offset: 2, Chirality: ChiralityCCW},
		{Offset: 5, Chirality: ChiralityCW},
		{Offset: 3, Chirality: ChiralityCW},
	}
	for _, c := range compasses {
		for local := Direction(0); local < NumDirections; local++ {
			global := c.LocalToGlobal(local)
			if got := c.GlobalToLocal(global); got != local {
				t.Errorf("Compass %+v: local %v -> global %v -> local %v", c, local, global, got)
			}
		}
	}
}

func TestCompassChiralityFlipsRotationSense(t *testing.T) {
	ccw := Compass{Offset: DirE, Chirality: ChiralityCCW}
	cw := Compass{Offset: DirE, Chirality: ChiralityCW}

	if got := ccw.LocalToGlobal(1); got != DirNNE {
		t.Errorf("CCW local 1 = %v, want %v", got, DirNNE)
	}
	if got := cw.LocalToGlobal(1); got != DirSSE {
		t.Errorf("CW local 1 = %v, want %v", got, DirSSE)
	}
}
