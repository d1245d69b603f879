package client_test

import (
	"context"
	"fmt"

	"github.com/swarmnet/amoebotsim/pkg/client"
)

func ExampleWorldBuilder() {
	world := client.NewWorld("hexagon-demo").
		Particle(client.NewParticle("seed").
			At(0, 0).
			Algorithm("hexagon-formation")).
		Particle(client.NewParticle("p1").
			At(1, 0).
			Algorithm("hexagon-formation")).
		Particle(client.NewParticle("p2").
			At(0, 1).
			Clockwise().
			CompassOffset(2).
			Algorithm("hexagon-formation")).
		Object(client.NewObject("wall").
			At(0, 3).
			Offset(0, 0).
			Offset(1, 0).
			Offset(2, 0)).
		Anchor("seed")

	cfg := world.Build()
	fmt.Printf("World: %s\n", cfg.Name)
	fmt.Printf("Particles: %d\n", len(cfg.Particles))
	fmt.Printf("Objects: %d\n", len(cfg.Objects))

	// Example: Apply to server (commented out for test)
	// ctx := context.Background()
	// err := client.ApplyWorld(ctx, "http://localhost:8080", "demo", world)
	// if err != nil {
	// 	log.Fatal(err)
	// }

	// Output:
	// World: hexagon-demo
	// Particles: 3
	// Objects: 1
}

func ExampleApplyWorld() {
	ctx := context.Background()
	world := client.NewWorld("test").
		Particle(client.NewParticle("a").At(0, 0).Algorithm("walker"))

	// This would send the world to the server and step it
	// Uncomment to actually send:
	// if err := client.ApplyWorld(ctx, "http://localhost:8080", "test-world", world); err != nil {
	// 	log.Fatal(err)
	// }
	// round, err := client.Step(ctx, "http://localhost:8080", "test-world")

	_ = ctx
	_ = world
}

func ExampleStepBack() {
	ctx := context.Background()

	// Scrub the timeline after a run, then branch from the marked round
	// Uncomment against a running server:
	// status, err := client.StepBack(ctx, "http://localhost:8080", "demo")
	// if err != nil {
	// 	log.Fatal(err)
	// }
	// fmt.Println(status.Marker, status.Scrubbed)
	// _, err = client.ContinueFromMarker(ctx, "http://localhost:8080", "demo")

	_ = ctx
}
