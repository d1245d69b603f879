package amoebot

import "fmt"

// Node is a position on the triangular lattice, in axial integer coordinates.
// Neighboring nodes differ by exactly one of the six direction vectors.
type Node struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is one of the six lattice directions, numbered counter-clockwise
// starting from East.
type Direction int

const (
	DirE Direction = iota
	DirNNE
	DirNNW
	DirW
	DirSSW
	DirSSE

	NumDirections = 6
)

var dirVectors = [NumDirections]Node{
	{1, 0}, {0, 1}, {-1, 1}, {-1, 0}, {0, -1}, {1, -1},
}

var dirNames = [NumDirections]string{"E", "NNE", "NNW", "W", "SSW", "SSE"}

func (d Direction) String() string {
	if d < 0 || d >= NumDirections {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return dirNames[d]
}

// IsValid reports whether d is one of the six lattice directions.
func (d Direction) IsValid() bool {
	return d >= 0 && d < NumDirections
}

// Vector returns the unit lattice step for d.
func (d Direction) Vector() Node {
	return dirVectors[d]
}

// Rotate returns d rotated by n sixths of a full turn, counter-clockwise
// for positive n.
func (d Direction) Rotate(n int) Direction {
	r := (int(d) + n) % NumDirections
	if r < 0 {
		r += NumDirections
	}
	return Direction(r)
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return d.Rotate(3)
}

// Add returns the node translated by v.
func (n Node) Add(v Node) Node {
	return Node{n.X + v.X, n.Y + v.Y}
}

// Sub returns the translation vector from m to n.
func (n Node) Sub(m Node) Node {
	return Node{n.X - m.X, n.Y - m.Y}
}

// Neighbor returns the adjacent node in direction d.
func (n Node) Neighbor(d Direction) Node {
	return n.Add(d.Vector())
}

// DirectionTo returns the lattice direction from n to the adjacent node m.
// The second return value is false if m is not adjacent to n.
func (n Node) DirectionTo(m Node) (Direction, bool) {
	v := m.Sub(n)
	for d := Direction(0); d < NumDirections; d++ {
		if dirVectors[d] == v {
			return d, true
		}
	}
	return 0, false
}

// IsAdjacentTo reports whether m is one lattice step away from n.
func (n Node) IsAdjacentTo(m Node) bool {
	_, ok := n.DirectionTo(m)
	return ok
}

func (n Node) String() string {
	return fmt.Sprintf("(%d,%d)", n.X, n.Y)
}

// Chirality is a particle's rotation sense: CCW particles number their local
// directions counter-clockwise like the global grid, CW particles mirror it.
type Chirality int

const (
	ChiralityCCW Chirality = 1
	ChiralityCW  Chirality = -1
)

func (c Chirality) String() string {
	if c == ChiralityCW {
		return "cw"
	}
	return "ccw"
}

// Compass maps between a particle's local directions and global grid
// directions. It is fixed at particle creation.
type Compass struct {
	Offset    Direction `json:"offset"`
	Chirality Chirality `json:"chirality"`
}

// LocalToGlobal converts a direction expressed in the particle's own frame
// into a global grid direction.
func (c Compass) LocalToGlobal(local Direction) Direction {
	return c.Offset.Rotate(int(c.Chirality) * int(local))
}

// GlobalToLocal is the inverse of LocalToGlobal.
func (c Compass) GlobalToLocal(global Direction) Direction {
	diff := int(global) - int(c.Offset)
	return Direction(0).Rotate(int(c.Chirality) * diff)
}
