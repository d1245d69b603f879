package amoebot

import "sort"

// ObjectID is a unique identifier for an object.
type ObjectID string

// Object is a rigid environment obstacle: a group of occupied relative
// offsets anchored at one absolute position. Objects run no algorithm and
// never release bonds, but they participate in the bond graph and move
// jointly when bonded particles push or pull them. The anchor position is
// history-tracked like particle positions.
type Object struct {
	id      ObjectID
	offsets []Node
	occSet  map[Node]struct{}
	pos     Node

	posHistory *History[Node]
}

// NewObject creates an object occupying pos+offset for every offset. The
// offset set must be non-empty; duplicates are dropped.
func NewObject(id ObjectID, pos Node, offsets []Node, round int) *Object {
	if id == "" {
		id = ObjectID(NewRandomID())
	}
	o := &Object{
		id:     id,
		pos:    pos,
		occSet: make(map[Node]struct{}, len(offsets)),
	}
	for _, off := range offsets {
		if _, dup := o.occSet[off]; dup {
			continue
		}
		o.occSet[off] = struct{}{}
		o.offsets = append(o.offsets, off)
	}
	if len(o.offsets) == 0 {
		o.occSet[Node{}] = struct{}{}
		o.offsets = append(o.offsets, Node{})
	}
	o.posHistory = NewHistory(round, pos)
	return o
}

func (o *Object) ID() ObjectID   { return o.id }
func (o *Object) Position() Node { return o.pos }

// Offsets returns the relative occupied offsets.
func (o *Object) Offsets() []Node {
	out := make([]Node, len(o.offsets))
	copy(out, o.offsets)
	return out
}

// Nodes returns the absolute occupied nodes.
func (o *Object) Nodes() []Node {
	out := make([]Node, len(o.offsets))
	for i, off := range o.offsets {
		out[i] = o.pos.Add(off)
	}
	return out
}

// OccupiesNode reports whether the object occupies the absolute node n.
func (o *Object) OccupiesNode(n Node) bool {
	_, ok := o.occSet[n.Sub(o.pos)]
	return ok
}

// PositionAt returns the anchor position visible at round.
func (o *Object) PositionAt(round int) Node {
	return o.posHistory.GetValueInRound(round)
}

func (o *Object) commit(round int) error {
	return recordIfChanged(o.posHistory, round, o.pos)
}

// BoundaryPolygon computes the object's boundary: the outer ring of
// occupied nodes traversed counter-clockwise, and one ring per enclosed
// hole listing the unoccupied nodes of that hole. Computed on demand; the
// occupied set of an object never changes, only its anchor moves, so the
// rings are reported in absolute coordinates of the current position.
func (o *Object) BoundaryPolygon() (outer []Node, holes [][]Node) {
	occupied := make(map[Node]struct{}, len(o.offsets))
	minN, maxN := o.pos.Add(o.offsets[0]), o.pos.Add(o.offsets[0])
	for _, off := range o.offsets {
		n := o.pos.Add(off)
		occupied[n] = struct{}{}
		minN.X = min(minN.X, n.X)
		minN.Y = min(minN.Y, n.Y)
		maxN.X = max(maxN.X, n.X)
		maxN.Y = max(maxN.Y, n.Y)
	}

	outer = traceRing(occupied)

	// Flood the exterior of an inflated bounding box; unoccupied nodes the
	// flood cannot reach are enclosed holes.
	lo := Node{minN.X - 1, minN.Y - 1}
	hi := Node{maxN.X + 1, maxN.Y + 1}
	inBox := func(n Node) bool {
		return n.X >= lo.X && n.X <= hi.X && n.Y >= lo.Y && n.Y <= hi.Y
	}
	exterior := map[Node]struct{}{lo: {}}
	queue := []Node{lo}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for d := Direction(0); d < NumDirections; d++ {
			m := n.Neighbor(d)
			if !inBox(m) {
				continue
			}
			if _, occ := occupied[m]; occ {
				continue
			}
			if _, seen := exterior[m]; seen {
				continue
			}
			exterior[m] = struct{}{}
			queue = append(queue, m)
		}
	}

	var holeCells []Node
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			n := Node{x, y}
			if _, occ := occupied[n]; occ {
				continue
			}
			if _, ext := exterior[n]; ext {
				continue
			}
			holeCells = append(holeCells, n)
		}
	}
	sort.Slice(holeCells, func(i, j int) bool {
		if holeCells[i].Y != holeCells[j].Y {
			return holeCells[i].Y < holeCells[j].Y
		}
		return holeCells[i].X < holeCells[j].X
	})

	assigned := make(map[Node]struct{})
	for _, seed := range holeCells {
		if _, done := assigned[seed]; done {
			continue
		}
		component := map[Node]struct{}{seed: {}}
		assigned[seed] = struct{}{}
		queue = append(queue[:0], seed)
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			for d := Direction(0); d < NumDirections; d++ {
				m := n.Neighbor(d)
				if _, occ := occupied[m]; occ {
					continue
				}
				if _, ext := exterior[m]; ext {
					continue
				}
				if !inBox(m) {
					continue
				}
				if _, seen := component[m]; seen {
					continue
				}
				component[m] = struct{}{}
				assigned[m] = struct{}{}
				queue = append(queue, m)
			}
		}
		holes = append(holes, traceRing(component))
	}
	return outer, holes
}

// traceRing walks the boundary of a connected node set counter-clockwise,
// starting from the lowest-leftmost node, and returns the visited ring.
func traceRing(set map[Node]struct{}) []Node {
	var start Node
	first := true
	for n := range set {
		if first || n.Y < start.Y || (n.Y == start.Y && n.X < start.X) {
			start = n
			first = false
		}
	}
	if first {
		return nil
	}

	ring := []Node{start}
	// The start node has no set members to its west or below, so scanning
	// counter-clockwise from west finds the first boundary step.
	back := DirW
	cur := start
	for {
		var next Node
		moved := false
		for k := 1; k <= NumDirections; k++ {
			d := back.Rotate(k)
			m := cur.Neighbor(d)
			if _, ok := set[m]; ok {
				next = m
				back = d.Opposite()
				moved = true
				break
			}
		}
		if !moved {
			// Single-node set.
			break
		}
		if next == start {
			break
		}
		ring = append(ring, next)
		cur = next
		if len(ring) > 6*len(set) {
			// Safety bound; a boundary never revisits a node more than
			// its degree allows.
			break
		}
	}
	return ring
}
