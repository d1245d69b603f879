package amoebot

// Joint-movement resolution. Bonds are derived fresh from adjacency at the
// start of every round's resolution, each staged intention is translated
// into local part movements, and a breadth-first pass over the bond graph
// propagates integer offsets outward from the anchor's stationary part.
// Conflicting offsets mean the intentions cannot be merged into one rigid
// joint movement; unreachable entities mean the structure disconnected.

// bondEnd is one endpoint of a derived bond: a particle part or an object
// at a specific node.
type bondEnd struct {
	particle *Particle
	object   *Object
	node     Node
	atHead   bool
}

func (e bondEnd) entityKey() string {
	if e.particle != nil {
		return "p:" + string(e.particle.id)
	}
	return "o:" + string(e.object.id)
}

func (e bondEnd) ownerID() string {
	if e.particle != nil {
		return string(e.particle.id)
	}
	return string(e.object.id)
}

// bond is a derived relation between two adjacent occupied nodes. It lives
// for one round's resolution only.
type bond struct {
	a, b bondEnd
	// moveA/moveB are the movements of each endpoint in its own entity's
	// frame. For rigid bonds both equal the bond's translation; a handover
	// bond rotates, so its endpoints move differently.
	moveA, moveB Node
	// constraintA/constraintB feed the offset propagation. They equal the
	// endpoint movements except for the handover bond, whose two reference
	// parts stay mutually fixed.
	constraintA, constraintB Node
	handover                 bool
}

type edgeKey struct {
	lo, hi Node
}

func canonicalEdge(a, b Node) edgeKey {
	if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// partMove is a particle's resolved movement for the round.
type partMove struct {
	newHead, newTail Node
	headMove         Node // movement of the part at the head node, local frame
	tailMove         Node // movement of the part at the tail node, local frame
}

// resolution is the output of the movement model: global frame offsets per
// entity and final positions per particle. Edge movements land in the
// system's arena.
type resolution struct {
	offsets       map[string]Node
	particleMoves map[ParticleID]partMove
}

// handoverPair records a validated push/pull pairing.
type handoverPair struct {
	pusher, puller *Particle
	target         Node // the puller part the pusher expands into
	remain         Node // the puller part that stays
}

// resolveMovements translates the staged intentions of all particles into
// a consistent set of edge movements for the round, rejecting locally
// inconsistent requests. On success the arena holds one edge movement per
// bond, one per particle edge, and one per object node, and the returned
// resolution carries the committed-to positions.
func (s *System) resolveMovements(round int) (*resolution, *SimError) {
	s.arena.reset()

	moves := make(map[ParticleID]partMove, len(s.order))
	handovers := make(map[ParticleID]handoverPair)

	// First pass: validate each intent against the particle's own state
	// and compute its local part movements.
	for _, id := range s.order {
		p := s.particles[id]
		move, pair, simErr := s.localMove(p, round)
		if simErr != nil {
			return nil, simErr
		}
		moves[id] = move
		if pair != nil {
			handovers[pair.pusher.id] = *pair
		}
	}

	bonds, simErr := s.deriveBonds(round, moves, handovers)
	if simErr != nil {
		return nil, simErr
	}

	offsets, simErr := s.propagateOffsets(round, bonds)
	if simErr != nil {
		return nil, simErr
	}

	// Apply offsets to the final positions and reject any two parts
	// landing on the same node.
	taken := make(map[Node]string, len(s.occupancy))
	for _, id := range s.order {
		off := offsets["p:"+string(id)]
		move := moves[id]
		move.newHead = move.newHead.Add(off)
		move.newTail = move.newTail.Add(off)
		moves[id] = move
		for _, n := range []Node{move.newHead, move.newTail} {
			if prev, clash := taken[n]; clash && prev != string(id) {
				return nil, &SimError{
					Kind:      ErrKindMovementConflict,
					Round:     round,
					Particles: []ParticleID{ParticleID(prev), id},
					Message:   "two parts land on node " + n.String(),
				}
			}
			taken[n] = string(id)
		}
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		off := offsets["o:"+string(id)]
		for _, n := range o.Nodes() {
			moved := n.Add(off)
			if prev, clash := taken[moved]; clash {
				return nil, &SimError{
					Kind:      ErrKindMovementConflict,
					Round:     round,
					Particles: []ParticleID{ParticleID(prev)},
					Message:   "object " + string(id) + " and " + prev + " land on node " + moved.String(),
				}
			}
			taken[moved] = string(id)
		}
	}

	s.fillArena(moves, offsets, bonds)
	return &resolution{offsets: offsets, particleMoves: moves}, nil
}

// localMove validates one particle's staged intent and computes its part
// movements in the particle's own frame (the stationary part at offset
// zero). Handover intents are cross-checked against the named partner.
func (s *System) localMove(p *Particle, round int) (partMove, *handoverPair, *SimError) {
	stay := partMove{newHead: p.head, newTail: p.tail}
	switch p.intent.Kind {
	case ActionNone:
		return stay, nil, nil

	case ActionExpand:
		target := p.head.Neighbor(p.intent.Dir)
		if occ, taken := s.occupancy[target]; taken {
			return stay, nil, &SimError{
				Kind:      ErrKindInvalidAction,
				Round:     round,
				Particles: []ParticleID{p.id},
				Message:   "cannot expand onto occupied node " + target.String() + " (held by " + occ.ownerID() + ")",
			}
		}
		return partMove{newHead: target, newTail: p.head}, nil, nil

	case ActionContractIntoHead:
		return partMove{
			newHead:  p.head,
			newTail:  p.head,
			tailMove: p.head.Sub(p.tail),
		}, nil, nil

	case ActionContractIntoTail:
		return partMove{
			newHead:  p.tail,
			newTail:  p.tail,
			headMove: p.tail.Sub(p.head),
		}, nil, nil

	case ActionPush:
		target := p.head.Neighbor(p.intent.Dir)
		pair, simErr := s.matchHandover(p, target, round)
		if simErr != nil {
			return stay, nil, simErr
		}
		return partMove{newHead: target, newTail: p.head}, pair, nil

	case ActionPull:
		// Validated from the pusher's side; here only check a matching
		// pusher exists at all.
		pusher, ok := s.particles[p.intent.Partner]
		if !ok || pusher.intent.Kind != ActionPush || pusher.intent.Partner != p.id {
			return stay, nil, &SimError{
				Kind:      ErrKindMovementConflict,
				Round:     round,
				Particles: []ParticleID{p.id, p.intent.Partner},
				Message:   "handover partners disagree: " + string(p.id) + " pulls but " + string(p.intent.Partner) + " does not push back",
			}
		}
		target := pusher.head.Neighbor(pusher.intent.Dir)
		remain, ok := p.otherPart(target)
		if !ok {
			return stay, nil, &SimError{
				Kind:      ErrKindMovementConflict,
				Round:     round,
				Particles: []ParticleID{p.id, pusher.id},
				Message:   "handover push target " + target.String() + " is not a part of the pulling particle",
			}
		}
		move := partMove{newHead: remain, newTail: remain}
		if target == p.head {
			move.headMove = remain.Sub(target)
		} else {
			move.tailMove = remain.Sub(target)
		}
		return move, nil, nil

	default:
		return stay, nil, newSimError(ErrKindInvalidAction, round, "particle %s staged unknown action %d", p.id, p.intent.Kind)
	}
}

// otherPart returns the particle's part that is not at node n.
func (p *Particle) otherPart(n Node) (Node, bool) {
	switch n {
	case p.head:
		return p.tail, true
	case p.tail:
		return p.head, true
	default:
		return Node{}, false
	}
}

// matchHandover validates a push intent against its named partner's pull.
func (s *System) matchHandover(pusher *Particle, target Node, round int) (*handoverPair, *SimError) {
	mismatch := func(format string, args ...any) *SimError {
		e := newSimError(ErrKindMovementConflict, round, format, args...)
		e.Particles = []ParticleID{pusher.id, pusher.intent.Partner}
		return e
	}
	occ, taken := s.occupancy[target]
	if !taken || occ.particle == nil {
		return nil, mismatch("push target %s is not occupied by a particle", target)
	}
	puller := occ.particle
	if puller.id != pusher.intent.Partner {
		return nil, mismatch("push target %s is occupied by %s, not the named partner %s", target, puller.id, pusher.intent.Partner)
	}
	if !puller.IsExpanded() {
		return nil, mismatch("handover partner %s is not expanded", puller.id)
	}
	if puller.intent.Kind != ActionPull || puller.intent.Partner != pusher.id {
		return nil, mismatch("handover partners disagree: %s pushes but %s does not pull back", pusher.id, puller.id)
	}
	remain, _ := puller.otherPart(target)
	return &handoverPair{pusher: pusher, puller: puller, target: target, remain: remain}, nil
}

// deriveBonds builds the round's bond set from current adjacency: every
// adjacency between particle parts and object nodes carries a bond unless
// either particle side released it. The connecting bond of each handover
// pair is required and specially marked.
func (s *System) deriveBonds(round int, moves map[ParticleID]partMove, handovers map[ParticleID]handoverPair) ([]bond, *SimError) {
	seen := make(map[edgeKey]struct{})
	var bonds []bond

	addFrom := func(from bondEnd) {
		for d := Direction(0); d < NumDirections; d++ {
			m := from.node.Neighbor(d)
			occ, ok := s.occupancy[m]
			if !ok {
				continue
			}
			if occ.particle != nil && occ.particle == from.particle {
				continue // a particle's own head-tail edge is not a bond
			}
			key := canonicalEdge(from.node, m)
			if _, dup := seen[key]; dup {
				continue
			}
			if from.particle != nil && from.particle.released(from.atHead, d) {
				seen[key] = struct{}{}
				continue
			}
			to := bondEnd{particle: occ.particle, object: occ.object, node: m, atHead: occ.atHead}
			if to.particle != nil && to.particle.released(to.atHead, d.Opposite()) {
				seen[key] = struct{}{}
				continue
			}
			seen[key] = struct{}{}
			b := bond{a: from, b: to}
			if pair, isHandover := s.handoverBond(b, handovers); isHandover {
				b.handover = true
				if b.a.particle == pair.pusher {
					b.moveA = pair.target.Sub(b.a.node)
					b.moveB = pair.remain.Sub(b.b.node)
				} else {
					b.moveA = pair.remain.Sub(b.a.node)
					b.moveB = pair.target.Sub(b.b.node)
				}
				// Both reference parts stay mutually fixed.
			} else {
				b.moveA = s.bondEndMove(b.a, d, moves)
				b.moveB = s.bondEndMove(b.b, d.Opposite(), moves)
				b.constraintA = b.moveA
				b.constraintB = b.moveB
			}
			bonds = append(bonds, b)
		}
	}

	for _, id := range s.order {
		p := s.particles[id]
		addFrom(bondEnd{particle: p, node: p.head, atHead: true})
		if p.IsExpanded() {
			addFrom(bondEnd{particle: p, node: p.tail})
		}
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		for _, n := range o.Nodes() {
			addFrom(bondEnd{object: o, node: n})
		}
	}

	// Every handover needs its connecting bond intact.
	for _, pair := range handovers {
		found := false
		for i := range bonds {
			if bonds[i].handover && bondInvolves(bonds[i], pair.pusher.head, pair.target) {
				found = true
				break
			}
		}
		if !found {
			return nil, &SimError{
				Kind:      ErrKindMovementConflict,
				Round:     round,
				Particles: []ParticleID{pair.pusher.id, pair.puller.id},
				Message:   "handover partners are not connected by a bond",
			}
		}
	}
	return bonds, nil
}

func bondInvolves(b bond, n1, n2 Node) bool {
	return (b.a.node == n1 && b.b.node == n2) || (b.a.node == n2 && b.b.node == n1)
}

// handoverBond reports whether b is the connecting bond of a validated
// handover pair.
func (s *System) handoverBond(b bond, handovers map[ParticleID]handoverPair) (handoverPair, bool) {
	for _, end := range []bondEnd{b.a, b.b} {
		if end.particle == nil {
			continue
		}
		pair, ok := handovers[end.particle.id]
		if !ok {
			continue
		}
		if bondInvolves(b, pair.pusher.head, pair.target) {
			return pair, true
		}
	}
	return handoverPair{}, false
}

// bondEndMove computes how a bond endpoint moves in its entity's own
// frame. toward is the global direction from the endpoint to the bond's
// other end.
func (s *System) bondEndMove(end bondEnd, toward Direction, moves map[ParticleID]partMove) Node {
	if end.particle == nil {
		return Node{} // objects are rigid and passive
	}
	p := end.particle
	switch p.intent.Kind {
	case ActionExpand:
		d := p.intent.Dir
		switch {
		case toward == d.Opposite():
			// The bond opposite the expansion direction never travels.
			return Node{}
		case toward == d || p.marked[toward]:
			return d.Vector()
		default:
			return Node{}
		}

	case ActionContractIntoHead:
		if end.node == p.tail {
			return p.head.Sub(p.tail)
		}
		return Node{}

	case ActionContractIntoTail:
		if end.node == p.head {
			return p.tail.Sub(p.head)
		}
		return Node{}

	case ActionPull:
		// Bonds on the retracting part are transferred to the pushing
		// particle's new head with zero translation; bonds on the
		// remaining part do not move. Marking has no effect.
		return Node{}

	case ActionPush:
		// The pusher's origin is its stationary reference; every bond at
		// it stays except the connecting bond, which is handled by the
		// caller.
		return Node{}

	default:
		return Node{}
	}
}

// propagateOffsets walks the bond graph from the anchor's stationary part
// assigning every entity its global frame offset, detecting conflicting
// joint movements and disconnection.
func (s *System) propagateOffsets(round int, bonds []bond) (map[string]Node, *SimError) {
	type link struct {
		to     string
		delta  Node // offTo = offFrom + delta
		fromID string
		toID   string
	}
	adj := make(map[string][]link)
	bonded := make(map[string]bool)
	for _, b := range bonds {
		ka, kb := b.a.entityKey(), b.b.entityKey()
		bonded[ka], bonded[kb] = true, true
		delta := b.constraintA.Sub(b.constraintB)
		adj[ka] = append(adj[ka], link{to: kb, delta: delta, fromID: b.a.ownerID(), toID: b.b.ownerID()})
		adj[kb] = append(adj[kb], link{to: ka, delta: Node{}.Sub(delta), fromID: b.b.ownerID(), toID: b.a.ownerID()})
	}

	offsets := make(map[string]Node, len(s.order)+len(s.objOrder))
	if s.anchor == "" {
		return offsets, nil
	}
	anchorKey := "p:" + string(s.anchor)
	offsets[anchorKey] = Node{}
	queue := []string{anchorKey}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range adj[cur] {
			want := offsets[cur].Add(l.delta)
			if have, visited := offsets[l.to]; visited {
				if have != want {
					return nil, &SimError{
						Kind:      ErrKindMovementConflict,
						Round:     round,
						Particles: []ParticleID{ParticleID(l.fromID), ParticleID(l.toID)},
						Message: "bond offsets conflict between " + l.fromID + " and " + l.toID +
							": " + have.String() + " vs " + want.String(),
					}
				}
				continue
			}
			offsets[l.to] = want
			queue = append(queue, l.to)
		}
	}

	// The post-movement bond graph must stay one connected component
	// spanning all particles and every object that carries bonds.
	var unreached []ParticleID
	for _, id := range s.order {
		if _, ok := offsets["p:"+string(id)]; !ok {
			unreached = append(unreached, id)
		}
	}
	for _, id := range s.objOrder {
		key := "o:" + string(id)
		if bonded[key] {
			if _, ok := offsets[key]; !ok {
				unreached = append(unreached, ParticleID(id))
			}
		}
	}
	if len(unreached) > 0 {
		return nil, &SimError{
			Kind:      ErrKindDisconnection,
			Round:     round,
			Particles: unreached,
			Message:   "bond graph does not span all entities",
		}
	}
	return offsets, nil
}

// fillArena emits the round's edge movements: one per bond, one per
// particle head-tail edge, and one degenerate point edge per object node,
// so translating structures sweep against static obstacles too.
func (s *System) fillArena(moves map[ParticleID]partMove, offsets map[string]Node, bonds []bond) {
	for _, id := range s.order {
		p := s.particles[id]
		move := moves[id]
		s.arena.add(EdgeMovement{
			Start1: p.head, Start2: p.tail,
			End1: move.newHead, End2: move.newTail,
			Owners: []string{string(id)},
		})
	}
	for _, b := range bonds {
		offA := offsets[b.a.entityKey()]
		offB := offsets[b.b.entityKey()]
		s.arena.add(EdgeMovement{
			Start1: b.a.node, Start2: b.b.node,
			End1:   b.a.node.Add(offA).Add(b.moveA),
			End2:   b.b.node.Add(offB).Add(b.moveB),
			Owners: []string{b.a.ownerID(), b.b.ownerID()},
		})
	}
	for _, id := range s.objOrder {
		o := s.objects[id]
		off := offsets["o:"+string(id)]
		for _, n := range o.Nodes() {
			s.arena.add(EdgeMovement{
				Start1: n, Start2: n,
				End1: n.Add(off), End2: n.Add(off),
				Owners: []string{string(id)},
			})
		}
	}
}
