package amoebot

import (
	"fmt"
	"strings"
)

// ErrorKind tags the engine fault taxonomy. All kinds are round-fatal:
// the round aborts before any commit and the simulation halts.
type ErrorKind int

const (
	// ErrKindInvalidAction is a particle staging an action its current
	// state cannot perform (expanding while expanded, contracting while
	// contracted, expanding onto an occupied node).
	ErrKindInvalidAction ErrorKind = iota
	// ErrKindMovementConflict is a locally consistent set of intentions
	// that cannot be merged into one rigid joint movement (conflicting
	// bond offsets, disagreeing handover partners).
	ErrKindMovementConflict
	// ErrKindCollision is a geometric collision between two edge movements.
	ErrKindCollision
	// ErrKindDisconnection is a bond graph that no longer spans all
	// particles and objects.
	ErrKindDisconnection
	// ErrKindAlgorithmFault is an uncaught panic raised from a particle's
	// activation callback.
	ErrKindAlgorithmFault
	// ErrKindHistoryMisuse is a write against a paused or rewound tracker.
	ErrKindHistoryMisuse
	// ErrKindConfig is an invalid world configuration or snapshot.
	ErrKindConfig
)

var errorKindNames = map[ErrorKind]string{
	ErrKindInvalidAction:    "invalid action",
	ErrKindMovementConflict: "movement conflict",
	ErrKindCollision:        "collision",
	ErrKindDisconnection:    "disconnection",
	ErrKindAlgorithmFault:   "algorithm fault",
	ErrKindHistoryMisuse:    "history misuse",
	ErrKindConfig:           "config",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// SimError is the structured fault raised when a round aborts. Kind selects
// the taxonomy entry; Particles names the responsible entities and Edges
// carries the offending edge movements for collisions, so callers can report
// or visualize the exact fault.
type SimError struct {
	Kind      ErrorKind
	Round     int
	Particles []ParticleID
	Edges     []EdgeMovement
	Message   string
}

func (e *SimError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "round %d aborted: %s", e.Round, e.Kind)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if len(e.Particles) > 0 {
		ids := make([]string, len(e.Particles))
		for i, id := range e.Particles {
			ids[i] = string(id)
		}
		fmt.Fprintf(&b, " (particles %s)", strings.Join(ids, ", "))
	}
	for _, em := range e.Edges {
		fmt.Fprintf(&b, " [edge %s]", em)
	}
	return b.String()
}

func newSimError(kind ErrorKind, round int, format string, args ...any) *SimError {
	return &SimError{
		Kind:    kind,
		Round:   round,
		Message: fmt.Sprintf(format, args...),
	}
}

func newHistoryError(format string, args ...any) *SimError {
	return &SimError{
		Kind:    ErrKindHistoryMisuse,
		Round:   -1,
		Message: fmt.Sprintf(format, args...),
	}
}
