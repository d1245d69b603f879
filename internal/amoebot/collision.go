package amoebot

// The collision detector decides whether two edge movements, executed
// simultaneously, would cause the physical structure to self-intersect.
// All coordinates are integers; no floating point is involved, which keeps
// the verdict exactly deterministic.

// Collision carries the diagnostic data for a detected collision: the two
// offending edge movements plus the swept endpoint path and the segment it
// crossed, so callers can render or log the exact geometric fault.
type Collision struct {
	A, B    EdgeMovement
	Swept   [2]Node
	Against [2]Node
}

// DetectCollision reports whether the two edge movements collide. Edges
// sharing any before- or after-endpoint belong to the same bond network at
// that point and never collide. The verdict is symmetric in its arguments.
func DetectCollision(a, b EdgeMovement) (Collision, bool) {
	if a.SharesEndpointWith(b) {
		return Collision{}, false
	}
	aT, bT := a.IsTranslation(), b.IsTranslation()
	switch {
	case aT && bT:
		return collideTranslations(a, b)
	case aT:
		return collideMixed(a, b)
	case bT:
		c, ok := collideMixed(b, a)
		if ok {
			c.A, c.B = a, b
		}
		return c, ok
	default:
		return collideExpansions(a, b)
	}
}

// collideTranslations handles two rigidly translating edges. In edge a's
// frame, b translates by the relative vector; a zero relative vector means
// the edges keep their distance. Otherwise each endpoint of b sweeps a
// segment that must not cross a, and the mirrored test of a's endpoints
// against b keeps the verdict symmetric.
func collideTranslations(a, b EdgeMovement) (Collision, bool) {
	v := b.Translation1().Sub(a.Translation1())
	if v == (Node{}) {
		return Collision{}, false
	}
	for _, p := range [2]Node{b.Start1, b.Start2} {
		if segmentsIntersect(p, p.Add(v), a.Start1, a.Start2) {
			return Collision{
				A: a, B: b,
				Swept:   [2]Node{p, p.Add(v)},
				Against: [2]Node{a.Start1, a.Start2},
			}, true
		}
	}
	w := Node{}.Sub(v)
	for _, p := range [2]Node{a.Start1, a.Start2} {
		if segmentsIntersect(p, p.Add(w), b.Start1, b.Start2) {
			return Collision{
				A: a, B: b,
				Swept:   [2]Node{p, p.Add(w)},
				Against: [2]Node{b.Start1, b.Start2},
			}, true
		}
	}
	return Collision{}, false
}

// collideMixed handles one translating edge (ref) against one expanding or
// contracting edge (e). The translating edge is the static reference frame:
// its own translation is subtracted from both endpoint translations of e,
// and each endpoint's swept segment is tested against the static edge.
func collideMixed(ref, e EdgeMovement) (Collision, bool) {
	t := ref.Translation1()
	sweeps := [2][2]Node{
		{e.Start1, e.Start1.Add(e.Translation1().Sub(t))},
		{e.Start2, e.Start2.Add(e.Translation2().Sub(t))},
	}
	for _, sw := range sweeps {
		if segmentsIntersect(sw[0], sw[1], ref.Start1, ref.Start2) {
			return Collision{
				A: ref, B: e,
				Swept:   sw,
				Against: [2]Node{ref.Start1, ref.Start2},
			}, true
		}
	}
	return Collision{}, false
}

// collideExpansions handles two expanding/contracting edges. The
// double-anchor test is run in both directions, a anchored against b's
// sweeps and b anchored against a's sweeps, and a collision is reported if
// either direction confirms one. The directions are not equivalent: an
// anchor frame flattens the anchored edge's own deformation, so a crossing
// can be visible from one edge's frames only. Running both keeps the
// verdict independent of argument order.
func collideExpansions(a, b EdgeMovement) (Collision, bool) {
	if c, ok := doubleAnchorTest(a, b); ok {
		c.A, c.B = a, b
		return c, true
	}
	if c, ok := doubleAnchorTest(b, a); ok {
		c.A, c.B = a, b
		return c, true
	}
	return Collision{}, false
}

// doubleAnchorTest anchors edge a first at one endpoint and then at the
// other; in each anchor frame a virtual static segment represents edge a
// fully expanded, against which edge b's relative endpoint sweeps are
// tested. Only if both anchor tests detect an intersection does the hit
// count; a single anchoring can produce a degenerate false positive.
func doubleAnchorTest(a, b EdgeMovement) (Collision, bool) {
	c1, hit1 := anchoredTest(a.Start1, a.Translation1(), a.Start2, a.Translation2(), b)
	if !hit1 {
		return Collision{}, false
	}
	_, hit2 := anchoredTest(a.Start2, a.Translation2(), a.Start1, a.Translation1(), b)
	if !hit2 {
		return Collision{}, false
	}
	return c1, true
}

// anchoredTest pins one endpoint of edge a as the static frame and builds
// the virtual segment from the anchor to the farthest position the moving
// endpoint occupies, i.e. the edge at full expansion. Edge b's endpoints,
// translated relative to the anchor, are swept against it.
func anchoredTest(anchor, anchorT, other, otherT Node, b EdgeMovement) (Collision, bool) {
	rel := otherT.Sub(anchorT)
	far := other
	if moved := other.Add(rel); distSq(anchor, moved) > distSq(anchor, far) {
		far = moved
	}
	sweeps := [2][2]Node{
		{b.Start1, b.Start1.Add(b.Translation1().Sub(anchorT))},
		{b.Start2, b.Start2.Add(b.Translation2().Sub(anchorT))},
	}
	for _, sw := range sweeps {
		if segmentsIntersect(sw[0], sw[1], anchor, far) {
			return Collision{
				Swept:   sw,
				Against: [2]Node{anchor, far},
			}, true
		}
	}
	return Collision{}, false
}

func distSq(a, b Node) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// cross is the 2D cross product of two vectors.
func cross(u, v Node) int {
	return u.X*v.Y - u.Y*v.X
}

// orientation classifies the ordered triple (a, b, c): positive for
// counter-clockwise, negative for clockwise, zero for collinear.
func orientation(a, b, c Node) int {
	return cross(b.Sub(a), c.Sub(a))
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// segmentsIntersect reports whether the closed segments p1-p2 and q1-q2
// share at least one point. Degenerate contact counts: collinear segments
// that overlap, touching endpoints, and zero-length segments lying on the
// other segment all intersect.
func segmentsIntersect(p1, p2, q1, q2 Node) bool {
	o1 := sign(orientation(p1, p2, q1))
	o2 := sign(orientation(p1, p2, q2))
	o3 := sign(orientation(q1, q2, p1))
	o4 := sign(orientation(q1, q2, p2))

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear cases: a point of one segment lies on the other, decided
	// by 1D interval overlap on each axis independently.
	if o1 == 0 && withinBounds(p1, p2, q1) {
		return true
	}
	if o2 == 0 && withinBounds(p1, p2, q2) {
		return true
	}
	if o3 == 0 && withinBounds(q1, q2, p1) {
		return true
	}
	if o4 == 0 && withinBounds(q1, q2, p2) {
		return true
	}
	return false
}

// withinBounds reports whether point p lies within the axis-aligned
// bounding box of the segment a-b. Callers guarantee collinearity.
func withinBounds(a, b, p Node) bool {
	return min(a.X, b.X) <= p.X && p.X <= max(a.X, b.X) &&
		min(a.Y, b.Y) <= p.Y && p.Y <= max(a.Y, b.Y)
}
