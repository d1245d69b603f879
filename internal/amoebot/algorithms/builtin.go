// Package algorithms ships a small library of ready-to-run particle
// programs, usable as building blocks and as live demos of the engine API.
package algorithms

import (
	"github.com/swarmnet/amoebotsim/internal/amoebot"
)

// RegisterBuiltins registers every built-in algorithm on the registry.
func RegisterBuiltins(r *amoebot.AlgorithmRegistry) error {
	builtins := map[string]amoebot.AlgorithmFactory{
		"idle":    func() amoebot.Algorithm { return &Idle{} },
		"walker":  func() amoebot.Algorithm { return &Walker{} },
		"blinker": func() amoebot.Algorithm { return &Blinker{} },
	}
	for name, factory := range builtins {
		if err := r.Register(name, factory); err != nil {
			return err
		}
	}
	return nil
}

// Idle stages nothing and never beeps. Useful as a passive structure
// member and as the simplest possible program.
type Idle struct{}

func (*Idle) Name() string                            { return "idle" }
func (*Idle) ActivateMove(*amoebot.ActivationContext) {}
func (*Idle) ActivateBeep(*amoebot.ActivationContext) {}

// Walker alternately expands in its local east direction and contracts
// into its head, inching across the grid one node per two rounds. It stops
// in front of objects and other particles.
type Walker struct{}

func (*Walker) Name() string { return "walker" }

func (*Walker) ActivateMove(ctx *amoebot.ActivationContext) {
	if ctx.IsExpanded() {
		// Release tail bonds so the contraction does not drag bystanders.
		for d := amoebot.Direction(0); d < amoebot.NumDirections; d++ {
			ctx.ReleaseBond(d, false)
		}
		_ = ctx.ContractIntoHead()
		return
	}
	if _, blocked := ctx.NeighborAt(amoebot.DirE, true); blocked {
		return
	}
	if ctx.HasObjectAt(amoebot.DirE, true) {
		return
	}
	_ = ctx.Expand(amoebot.DirE)
}

func (*Walker) ActivateBeep(*amoebot.ActivationContext) {}

// Blinker never moves. It beeps on every other round and turns red for one
// round whenever any neighbor beeped, making signal propagation visible.
type Blinker struct{}

func (*Blinker) Name() string { return "blinker" }

func (*Blinker) ActivateMove(*amoebot.ActivationContext) {}

func (*Blinker) ActivateBeep(ctx *amoebot.ActivationContext) {
	if ctx.Round()%2 == 0 {
		ctx.Beep()
	}
	heard := false
	for d := amoebot.Direction(0); d < amoebot.NumDirections; d++ {
		if n, ok := ctx.NeighborAt(d, true); ok && n.Beeped {
			heard = true
			break
		}
	}
	if heard {
		ctx.SetColor(amoebot.Color{R: 220, G: 40, B: 40})
	} else {
		ctx.SetColor(amoebot.Color{R: 160, G: 160, B: 160})
	}
}
