package main

import (
	"fmt"
	"os"

	"github.com/swarmnet/amoebotsim/internal/amoebot"
)

// The demo builds a corridor of two object walls with a bouncer particle
// between them, runs it for a while, then scrubs the timeline back and
// branches the run from an earlier round.
func main() {
	world := amoebot.NewSystem()

	// Walls at both ends of a short east-west corridor.
	wall := []amoebot.Node{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: -1}}
	if _, err := world.AddObject("west-wall", amoebot.Node{X: -1, Y: 0}, wall); err != nil {
		fail(err)
	}
	if _, err := world.AddObject("east-wall", amoebot.Node{X: 6, Y: 0}, wall); err != nil {
		fail(err)
	}

	compass := amoebot.Compass{Offset: amoebot.DirE, Chirality: amoebot.ChiralityCCW}
	if _, err := world.AddParticle("runner", amoebot.Node{X: 1, Y: 0}, compass, NewBouncer()); err != nil {
		fail(err)
	}

	fmt.Println("Running 12 rounds:")
	for i := 0; i < 12; i++ {
		if err := world.Step(); err != nil {
			fail(err)
		}
		printRunner(world)
	}

	fmt.Println("\nScrubbing back 6 rounds:")
	for i := 0; i < 6; i++ {
		world.StepBack()
	}
	printRunner(world)

	fmt.Println("\nBranching from the marked round and running 3 more:")
	world.ContinueFromMarker()
	for i := 0; i < 3; i++ {
		if err := world.Step(); err != nil {
			fail(err)
		}
		printRunner(world)
	}
}

func printRunner(world *amoebot.System) {
	for _, st := range world.ParticleStates() {
		shape := "contracted at " + st.Head.String()
		if st.Expanded {
			shape = "expanded over " + st.Head.String() + " / " + st.Tail.String()
		}
		beep := ""
		if st.Beeping {
			beep = " *beep*"
		}
		fmt.Printf("  round %2d: %s %s%s\n", st.Round, st.ID, shape, beep)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
	os.Exit(1)
}
