package amoebot

// Algorithm is the local program every particle runs. Both callbacks are
// invoked once per round, for every particle, before any staged intention
// is resolved, so no activation can observe another's in-progress changes.
// Callbacks must run to completion synchronously and only stage intentions
// through the ActivationContext; a panic aborts the round and is attributed
// to the particle that raised it.
type Algorithm interface {
	Name() string

	// ActivateMove stages the particle's movement intentions: expand,
	// contract, handover, bond releases and marks.
	ActivateMove(ctx *ActivationContext)

	// ActivateBeep stages the particle's communication intentions.
	ActivateBeep(ctx *ActivationContext)
}

// NeighborInfo is what a particle can observe about an adjacent particle.
type NeighborInfo struct {
	ID       ParticleID
	Expanded bool
	// AtHead reports whether the neighboring node is the neighbor's head.
	AtHead bool
	// Beeped is the neighbor's committed beep state from the previous round.
	Beeped bool
}

// ActivationContext is the view and staging surface handed to an algorithm
// during one activation. All directions are local to the particle's compass;
// the context translates them to global grid directions when staging.
type ActivationContext struct {
	p     *Particle
	sys   *System
	round int
}

// Round returns the current round index.
func (c *ActivationContext) Round() int { return c.round }

// ID returns the activated particle's id.
func (c *ActivationContext) ID() ParticleID { return c.p.id }

// IsExpanded reports whether the particle currently occupies two nodes.
func (c *ActivationContext) IsExpanded() bool { return c.p.IsExpanded() }

// HeadDirection returns the local direction from tail to head, valid only
// while expanded.
func (c *ActivationContext) HeadDirection() (Direction, bool) {
	d, ok := c.p.HeadDirection()
	if !ok {
		return 0, false
	}
	return c.p.compass.GlobalToLocal(d), true
}

// NeighborAt returns the particle occupying the node one step in the local
// direction d from the head or tail part.
func (c *ActivationContext) NeighborAt(d Direction, atHead bool) (NeighborInfo, bool) {
	from := c.p.partNode(atHead)
	target := from.Neighbor(c.p.compass.LocalToGlobal(d))
	occ, ok := c.sys.occupantAt(target)
	if !ok || occ.particle == nil || occ.particle == c.p {
		return NeighborInfo{}, false
	}
	n := occ.particle
	return NeighborInfo{
		ID:       n.id,
		Expanded: n.IsExpanded(),
		AtHead:   target == n.head && n.IsExpanded(),
		Beeped:   n.beepHistory.GetValueInRound(c.round - 1),
	}, true
}

// HasObjectAt reports whether an object occupies the node one step in the
// local direction d from the head or tail part.
func (c *ActivationContext) HasObjectAt(d Direction, atHead bool) bool {
	from := c.p.partNode(atHead)
	occ, ok := c.sys.occupantAt(from.Neighbor(c.p.compass.LocalToGlobal(d)))
	return ok && occ.object != nil
}

// Expand stages an expansion in the local direction d.
func (c *ActivationContext) Expand(d Direction) error {
	return c.p.stageExpand(c.p.compass.LocalToGlobal(d), c.round)
}

// ContractIntoHead stages a contraction that retracts the tail.
func (c *ActivationContext) ContractIntoHead() error {
	return c.p.stageContract(true, c.round)
}

// ContractIntoTail stages a contraction that retracts the head.
func (c *ActivationContext) ContractIntoTail() error {
	return c.p.stageContract(false, c.round)
}

// Push stages a handover expansion in the local direction d against the
// named partner, which must stage a matching Pull.
func (c *ActivationContext) Push(d Direction, partner ParticleID) error {
	return c.p.stagePush(c.p.compass.LocalToGlobal(d), partner, c.round)
}

// Pull stages a handover contraction yielding a part to the named partner,
// which must stage a matching Push.
func (c *ActivationContext) Pull(partner ParticleID) error {
	return c.p.stagePull(partner, c.round)
}

// ReleaseBond releases the bond at the head or tail part in the local
// direction d. Release by one side is sufficient to remove the bond.
func (c *ActivationContext) ReleaseBond(d Direction, atHead bool) {
	c.p.stageRelease(c.p.compass.LocalToGlobal(d), atHead)
}

// MarkBond marks the bond in the local direction d to travel with the head
// of a staged expansion. The bond along the expansion direction always
// travels regardless of marking; the bond opposite it never does.
func (c *ActivationContext) MarkBond(d Direction) {
	c.p.stageMark(c.p.compass.LocalToGlobal(d))
}

// SetColor stages the particle's display color.
func (c *ActivationContext) SetColor(col Color) {
	c.p.stagedColor = &col
}

// Beep stages a beep for the communication phase of this round.
func (c *ActivationContext) Beep() {
	c.p.stagedBeep = true
}
