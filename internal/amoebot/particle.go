package amoebot

import "fmt"

// ParticleID is a unique identifier for a particle.
type ParticleID string

// Color is the display color a particle exposes to rendering collaborators.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// ActionKind enumerates the movement actions a particle can request.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionExpand
	ActionContractIntoHead
	ActionContractIntoTail
	ActionPush // handover: expand into a part a pulling neighbor vacates
	ActionPull // handover: contract, yielding a part to a pushing neighbor
)

var actionNames = map[ActionKind]string{
	ActionNone:             "none",
	ActionExpand:           "expand",
	ActionContractIntoHead: "contract into head",
	ActionContractIntoTail: "contract into tail",
	ActionPush:             "push",
	ActionPull:             "pull",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// MoveIntent is a particle's staged movement request for the current round.
// Dir is a global grid direction; Partner names the handover counterpart.
type MoveIntent struct {
	Kind    ActionKind
	Dir     Direction
	Partner ParticleID
}

// Particle is a single amoebot: a memoryless agent occupying one node when
// contracted or two adjacent nodes when expanded. Head and tail positions,
// color and beep state are history-tracked so the timeline can be scrubbed.
type Particle struct {
	id        ParticleID
	compass   Compass
	algorithm Algorithm

	head Node
	tail Node // equals head while contracted

	color Color
	beep  bool

	headHistory  *History[Node]
	tailHistory  *History[Node]
	colorHistory *History[Color]
	beepHistory  *History[bool]

	// Per-round staged state, cleared when the round resolves or aborts.
	// Release/mark tables are indexed by global direction.
	intent       MoveIntent
	releasedHead [NumDirections]bool
	releasedTail [NumDirections]bool
	marked       [NumDirections]bool
	stagedColor  *Color
	stagedBeep   bool
}

// NewParticle creates a contracted particle at pos. The compass (chirality
// and offset) is fixed for the particle's lifetime.
func NewParticle(id ParticleID, pos Node, compass Compass, alg Algorithm, round int) *Particle {
	if id == "" {
		id = ParticleID(NewRandomID())
	}
	p := &Particle{
		id:        id,
		compass:   compass,
		algorithm: alg,
		head:      pos,
		tail:      pos,
	}
	p.headHistory = NewHistory(round, p.head)
	p.tailHistory = NewHistory(round, p.tail)
	p.colorHistory = NewHistory(round, p.color)
	p.beepHistory = NewHistory(round, p.beep)
	return p
}

func (p *Particle) ID() ParticleID   { return p.id }
func (p *Particle) Compass() Compass { return p.compass }
func (p *Particle) Head() Node       { return p.head }
func (p *Particle) Tail() Node       { return p.tail }
func (p *Particle) Color() Color     { return p.color }
func (p *Particle) Beeping() bool    { return p.beep }

// IsExpanded reports whether the particle occupies two nodes.
func (p *Particle) IsExpanded() bool { return p.head != p.tail }

// HeadDirection returns the global direction from tail to head. The second
// return value is false for a contracted particle.
func (p *Particle) HeadDirection() (Direction, bool) {
	if !p.IsExpanded() {
		return 0, false
	}
	d, _ := p.tail.DirectionTo(p.head)
	return d, true
}

// Nodes returns the occupied nodes: one when contracted, two when expanded.
func (p *Particle) Nodes() []Node {
	if p.IsExpanded() {
		return []Node{p.head, p.tail}
	}
	return []Node{p.head}
}

// partNode returns the node of the head or tail part.
func (p *Particle) partNode(atHead bool) Node {
	if atHead {
		return p.head
	}
	return p.tail
}

func (p *Particle) clearStaged() {
	p.intent = MoveIntent{}
	p.releasedHead = [NumDirections]bool{}
	p.releasedTail = [NumDirections]bool{}
	p.marked = [NumDirections]bool{}
	p.stagedColor = nil
	p.stagedBeep = false
}

// stageExpand stages an expansion in the global direction d.
func (p *Particle) stageExpand(d Direction, round int) error {
	if p.IsExpanded() {
		return newSimError(ErrKindInvalidAction, round, "particle %s cannot expand while expanded", p.id)
	}
	if p.intent.Kind != ActionNone {
		return newSimError(ErrKindInvalidAction, round, "particle %s already staged %s", p.id, p.intent.Kind)
	}
	p.intent = MoveIntent{Kind: ActionExpand, Dir: d}
	return nil
}

func (p *Particle) stageContract(intoHead bool, round int) error {
	if !p.IsExpanded() {
		return newSimError(ErrKindInvalidAction, round, "particle %s cannot contract while contracted", p.id)
	}
	if p.intent.Kind != ActionNone {
		return newSimError(ErrKindInvalidAction, round, "particle %s already staged %s", p.id, p.intent.Kind)
	}
	kind := ActionContractIntoTail
	if intoHead {
		kind = ActionContractIntoHead
	}
	p.intent = MoveIntent{Kind: kind}
	return nil
}

func (p *Particle) stagePush(d Direction, partner ParticleID, round int) error {
	if p.IsExpanded() {
		return newSimError(ErrKindInvalidAction, round, "particle %s cannot push while expanded", p.id)
	}
	if p.intent.Kind != ActionNone {
		return newSimError(ErrKindInvalidAction, round, "particle %s already staged %s", p.id, p.intent.Kind)
	}
	p.intent = MoveIntent{Kind: ActionPush, Dir: d, Partner: partner}
	return nil
}

func (p *Particle) stagePull(partner ParticleID, round int) error {
	if !p.IsExpanded() {
		return newSimError(ErrKindInvalidAction, round, "particle %s cannot pull while contracted", p.id)
	}
	if p.intent.Kind != ActionNone {
		return newSimError(ErrKindInvalidAction, round, "particle %s already staged %s", p.id, p.intent.Kind)
	}
	p.intent = MoveIntent{Kind: ActionPull, Partner: partner}
	return nil
}

// stageRelease stages a bond release at the head or tail part, in the
// global direction d. Release by one side is sufficient to remove the bond.
func (p *Particle) stageRelease(d Direction, atHead bool) {
	if atHead || !p.IsExpanded() {
		p.releasedHead[d] = true
		if !p.IsExpanded() {
			p.releasedTail[d] = true
		}
	} else {
		p.releasedTail[d] = true
	}
}

// stageMark marks the bond in global direction d to travel with the head of
// a staged expansion. Marking has no effect on handovers.
func (p *Particle) stageMark(d Direction) {
	p.marked[d] = true
}

// released reports whether the bond at the given part and global direction
// has been released this round.
func (p *Particle) released(atHead bool, d Direction) bool {
	if atHead {
		return p.releasedHead[d]
	}
	return p.releasedTail[d]
}

// commitMovement writes the particle's resolved positions and color into
// its histories at round.
func (p *Particle) commitMovement(round int) error {
	if p.stagedColor != nil {
		p.color = *p.stagedColor
	}
	if err := recordIfChanged(p.headHistory, round, p.head); err != nil {
		return err
	}
	if err := recordIfChanged(p.tailHistory, round, p.tail); err != nil {
		return err
	}
	return recordIfChanged(p.colorHistory, round, p.color)
}

// commitBeep writes the particle's staged beep (and any color set during
// the communication phase) into its histories at round.
func (p *Particle) commitBeep(round int) error {
	p.beep = p.stagedBeep
	if p.stagedColor != nil {
		p.color = *p.stagedColor
		if err := recordIfChanged(p.colorHistory, round, p.color); err != nil {
			return err
		}
	}
	return recordIfChanged(p.beepHistory, round, p.beep)
}
