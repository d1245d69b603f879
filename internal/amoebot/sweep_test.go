package amoebot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildCrossingArms assembles one structure with two arms hanging off the
// anchor. Both arm roots contract at once, dragging the west arm's tip east
// and the east arm's tip west; the tips swap nodes and their sweeps pass
// through each other. Every bond between the two groups is released so the
// round survives offset propagation and fails only in the collision sweep.
func buildCrossingArms(t *testing.T, workers int) *System {
	t.Helper()
	contract := &scripted{move: func(ctx *ActivationContext) {
		require.NoError(t, ctx.ContractIntoTail())
	}}
	release := func(dirs ...Direction) *scripted {
		return &scripted{move: func(ctx *ActivationContext) {
			for _, d := range dirs {
				ctx.ReleaseBond(d, true)
			}
		}}
	}

	sys := NewSystem()
	sys.SetCollisionWorkers(workers)
	add := func(id ParticleID, pos Node, alg Algorithm) {
		_, err := sys.AddParticle(id, pos, eastCompass(), alg)
		require.NoError(t, err)
	}
	addExpanded := func(id ParticleID, head, tail Node, alg Algorithm) {
		_, err := sys.AddExpandedParticle(id, head, tail, eastCompass(), alg)
		require.NoError(t, err)
	}

	add("anchor", Node{0, 1}, idle())
	// West arm: contracting m1 shifts d one step east.
	addExpanded("m1", Node{0, 0}, Node{-1, 0}, contract)
	add("d", Node{0, -1}, release(DirE, DirNNE, DirSSE))
	// East arm: contracting m3 shifts its whole chain one step west. The
	// chain detours around row -1 so only the tips meet.
	addExpanded("m3", Node{1, 1}, Node{2, 1}, contract)
	add("f", Node{2, 0}, release(DirNNW))
	add("f2", Node{3, 0}, idle())
	add("f3", Node{3, -1}, idle())
	add("f4", Node{3, -2}, idle())
	add("k", Node{2, -2}, idle())
	add("h", Node{1, -2}, idle())
	add("e", Node{1, -1}, release(DirW, DirNNW))
	return sys
}

func TestSweepDetectsCrossingTips(t *testing.T) {
	sys := buildCrossingArms(t, 1)
	simErr := requireKind(t, sys.Step(), ErrKindCollision)
	require.Len(t, simErr.Edges, 2)
	assert.NotEmpty(t, simErr.Particles)
	assert.Equal(t, 0, sys.Round(), "the colliding round must not commit")
}

func TestSweepIsDeterministicAcrossWorkerCounts(t *testing.T) {
	base := requireKind(t, buildCrossingArms(t, 1).Step(), ErrKindCollision)
	for _, workers := range []int{2, 3, 8, 17} {
		got := requireKind(t, buildCrossingArms(t, workers).Step(), ErrKindCollision)
		assert.Equal(t, base.Edges, got.Edges, "workers=%d", workers)
		assert.Equal(t, base.Particles, got.Particles, "workers=%d", workers)
	}
}
