package main

import (
	"github.com/swarmnet/amoebotsim/internal/amoebot"
)

// Bouncer walks along its local east-west axis and turns around whenever
// the next node is blocked by a particle or an object. It beeps on every
// turn so neighbors can observe the bounce.
type Bouncer struct {
	heading amoebot.Direction
	turned  bool
}

// NewBouncer creates a bouncer initially heading local east.
func NewBouncer() *Bouncer {
	return &Bouncer{heading: amoebot.DirE}
}

func (b *Bouncer) Name() string { return "bouncer" }

func (b *Bouncer) ActivateMove(ctx *amoebot.ActivationContext) {
	if ctx.IsExpanded() {
		// Unreleased tail bonds would be carried along and drag whatever
		// they attach to, walls included.
		for d := amoebot.Direction(0); d < amoebot.NumDirections; d++ {
			ctx.ReleaseBond(d, false)
		}
		_ = ctx.ContractIntoHead()
		return
	}

	b.turned = false
	if b.blocked(ctx) {
		b.heading = b.heading.Opposite()
		b.turned = true
		if b.blocked(ctx) {
			// Boxed in on both sides, stay put this round.
			return
		}
	}
	_ = ctx.Expand(b.heading)
}

func (b *Bouncer) ActivateBeep(ctx *amoebot.ActivationContext) {
	if b.turned {
		ctx.Beep()
		ctx.SetColor(amoebot.Color{R: 240, G: 200, B: 40})
	}
}

func (b *Bouncer) blocked(ctx *amoebot.ActivationContext) bool {
	if _, occupied := ctx.NeighborAt(b.heading, true); occupied {
		return true
	}
	return ctx.HasObjectAt(b.heading, true)
}
