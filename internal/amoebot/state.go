package amoebot

// ParticleState is the read-only snapshot of one particle exposed to
// rendering and UI collaborators. Collaborators only ever pull committed
// values; staged intentions are never visible here.
type ParticleState struct {
	ID            ParticleID `json:"id"`
	Head          Node       `json:"head"`
	Tail          Node       `json:"tail"`
	Expanded      bool       `json:"expanded"`
	Chirality     Chirality  `json:"chirality"`
	CompassOffset Direction  `json:"compass_offset"`
	Color         Color      `json:"color"`
	Beeping       bool       `json:"beeping"`
	Round         int        `json:"round"`
}

// ObjectState is the read-only snapshot of one object.
type ObjectState struct {
	ID       ObjectID `json:"id"`
	Position Node     `json:"position"`
	Offsets  []Node   `json:"offsets"`
	Round    int      `json:"round"`
}

func (p *Particle) stateAt(round int) ParticleState {
	head := p.headHistory.GetValueInRound(round)
	tail := p.tailHistory.GetValueInRound(round)
	return ParticleState{
		ID:            p.id,
		Head:          head,
		Tail:          tail,
		Expanded:      head != tail,
		Chirality:     p.compass.Chirality,
		CompassOffset: p.compass.Offset,
		Color:         p.colorHistory.GetValueInRound(round),
		Beeping:       p.beepHistory.GetValueInRound(round),
		Round:         round,
	}
}

func (o *Object) stateAt(round int) ObjectState {
	return ObjectState{
		ID:       o.id,
		Position: o.posHistory.GetValueInRound(round),
		Offsets:  o.Offsets(),
		Round:    round,
	}
}
