package amoebot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eastWalker is a registry-friendly walking algorithm: it carries no state
// captured from the test, so restored particles behave identically.
type eastWalker struct{}

func (eastWalker) Name() string { return "east-walker" }

func (eastWalker) ActivateMove(ctx *ActivationContext) {
	if ctx.IsExpanded() {
		_ = ctx.ContractIntoHead()
	} else {
		_ = ctx.Expand(DirE)
	}
}

func (eastWalker) ActivateBeep(ctx *ActivationContext) {}

func walkerRegistry(t *testing.T) *AlgorithmRegistry {
	t.Helper()
	r := NewAlgorithmRegistry()
	require.NoError(t, r.Register("east-walker", func() Algorithm { return eastWalker{} }))
	return r
}

func TestSnapshotRoundTrip(t *testing.T) {
	reg := walkerRegistry(t)
	sys := NewSystem()
	alg, err := reg.New("east-walker")
	require.NoError(t, err)
	_, err = sys.AddParticle("w", Node{0, 0}, eastCompass(), alg)
	require.NoError(t, err)
	_, err = sys.AddObject("rock", Node{0, 2}, []Node{{0, 0}, {1, 0}})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, sys.Step())
	}

	snap := sys.TakeSnapshot()
	data, err := EncodeSnapshotJSON(snap)
	require.NoError(t, err)
	decoded, err := DecodeSnapshotJSON(data)
	require.NoError(t, err)
	require.NoError(t, ValidateSnapshot(decoded, reg))

	restored, err := RestoreSystem(decoded, reg, nil)
	require.NoError(t, err)

	assert.Equal(t, sys.Round(), restored.Round())
	assert.Equal(t, sys.Anchor(), restored.Anchor())
	for round := 0; round <= sys.Round(); round++ {
		assert.Equal(t, sys.ParticleStatesAt(round), restored.ParticleStatesAt(round),
			"round %d differs after restore", round)
	}
	rock, ok := restored.Object("rock")
	require.True(t, ok)
	assert.Equal(t, Node{0, 2}, rock.Position())

	// The restored timeline is still scrubbable and steppable.
	require.True(t, restored.StepBack())
	assert.True(t, restored.IsScrubbed())
	restored.ContinueFromMarker()
	require.NoError(t, restored.Step())
	assert.Equal(t, 3, restored.Round())
}

func TestValidateSnapshotRejectsBadInput(t *testing.T) {
	reg := walkerRegistry(t)
	record := []historyRecord[Node]{{Round: 0, Value: Node{0, 0}}}
	colors := []historyRecord[Color]{{Round: 0, Value: Color{}}}
	beeps := []historyRecord[bool]{{Round: 0, Value: false}}
	good := func() Snapshot {
		return Snapshot{
			Particles: []ParticleSnapshot{{
				ID: "a", Algorithm: "east-walker",
				Head: record, Tail: record, Color: colors, Beep: beeps,
			}},
		}
	}

	require.NoError(t, ValidateSnapshot(good(), reg))

	snap := good()
	snap.Particles[0].ID = ""
	assert.ErrorContains(t, ValidateSnapshot(snap, reg), "empty ID")

	snap = good()
	snap.Particles = append(snap.Particles, snap.Particles[0])
	assert.ErrorContains(t, ValidateSnapshot(snap, reg), "duplicate particle ID")

	snap = good()
	snap.Particles[0].Algorithm = "missing"
	assert.ErrorContains(t, ValidateSnapshot(snap, reg), "unknown algorithm")
	assert.NoError(t, ValidateSnapshot(snap, nil), "a nil registry skips algorithm checks")

	snap = good()
	snap.Particles[0].Beep = nil
	assert.ErrorContains(t, ValidateSnapshot(snap, reg), "empty history")

	snap = good()
	snap.Anchor = "nobody"
	assert.ErrorContains(t, ValidateSnapshot(snap, reg), "anchor")

	snap = good()
	snap.Objects = []ObjectSnapshot{{ID: "o"}}
	assert.ErrorContains(t, ValidateSnapshot(snap, reg), "position history")
}

func TestRestoreSystemRejectsTornParticle(t *testing.T) {
	reg := walkerRegistry(t)
	colors := []historyRecord[Color]{{Round: 0, Value: Color{}}}
	beeps := []historyRecord[bool]{{Round: 0, Value: false}}
	snap := Snapshot{
		Particles: []ParticleSnapshot{{
			ID: "a", Algorithm: "east-walker",
			Head:  []historyRecord[Node]{{Round: 0, Value: Node{0, 0}}},
			Tail:  []historyRecord[Node]{{Round: 0, Value: Node{5, 5}}},
			Color: colors, Beep: beeps,
		}},
	}

	_, err := RestoreSystem(snap, reg, nil)
	assert.ErrorContains(t, err, "not adjacent")
}
