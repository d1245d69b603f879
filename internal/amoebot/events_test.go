package amoebot

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recordingNotifier collects every event it is notified with.
type recordingNotifier struct {
	id string

	mu     sync.Mutex
	events []RoundEvent
	closed bool
}

func (n *recordingNotifier) ID() string   { return n.id }
func (n *recordingNotifier) Type() string { return "recording" }

func (n *recordingNotifier) Notify(ctx context.Context, event RoundEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}

func (n *recordingNotifier) snapshot() []RoundEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]RoundEvent, len(n.events))
	copy(out, n.events)
	return out
}

func waitForEvents(t *testing.T, n *recordingNotifier, want int) []RoundEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := n.snapshot(); len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(n.snapshot()))
	return nil
}

func TestNotificationManagerRegistration(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()

	n := &recordingNotifier{id: "rec"}
	if err := nm.RegisterNotifier(n); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}
	if err := nm.RegisterNotifier(&recordingNotifier{id: "rec"}); err == nil {
		t.Error("expected duplicate id to fail")
	}
	if got, ok := nm.GetNotifier("rec"); !ok || got != Notifier(n) {
		t.Error("GetNotifier did not return the registered notifier")
	}
	if ids := nm.ListNotifiers(); len(ids) != 1 || ids[0] != "rec" {
		t.Errorf("ListNotifiers = %v", ids)
	}

	if err := nm.UnregisterNotifier("rec"); err != nil {
		t.Fatalf("UnregisterNotifier failed: %v", err)
	}
	if err := nm.UnregisterNotifier("rec"); err == nil {
		t.Error("expected unregistering twice to fail")
	}
	if !n.closed {
		t.Error("unregistering should close the notifier")
	}
}

func TestCommittedRoundsReachNotifiers(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()
	rec := &recordingNotifier{id: "rec"}
	if err := nm.RegisterNotifier(rec); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	sys := NewSystem()
	sys.SetNotificationManager(nm)
	_, err := sys.AddParticle("w", Node{0, 0}, eastCompass(), eastWalker{})
	if err != nil {
		t.Fatalf("AddParticle failed: %v", err)
	}

	if err := sys.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if err := sys.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	events := waitForEvents(t, rec, 2)
	if events[0].Round != 1 || events[1].Round != 2 {
		t.Errorf("event rounds = %d, %d", events[0].Round, events[1].Round)
	}
	if events[0].EventID == "" || events[0].EventID == events[1].EventID {
		t.Error("events need distinct non-empty ids")
	}
	if len(events[0].Particles) != 1 {
		t.Fatalf("event carries %d particles", len(events[0].Particles))
	}
	if got := events[0].Particles[0].Head; got != (Node{1, 0}) {
		t.Errorf("round 1 head = %s", got)
	}
	if events[0].MovedEdges == 0 {
		t.Error("an expansion round should report moved edges")
	}
}

func TestAbortedRoundEmitsNoEvent(t *testing.T) {
	nm := NewNotificationManager()
	defer nm.Close()
	rec := &recordingNotifier{id: "rec"}
	if err := nm.RegisterNotifier(rec); err != nil {
		t.Fatalf("RegisterNotifier failed: %v", err)
	}

	sys := NewSystem()
	sys.SetNotificationManager(nm)
	_, err := sys.AddParticle("a", Node{0, 0}, eastCompass(), &scripted{
		move: func(ctx *ActivationContext) { panic("no") },
	})
	if err != nil {
		t.Fatalf("AddParticle failed: %v", err)
	}

	if err := sys.Step(); err == nil {
		t.Fatal("expected the round to abort")
	}
	time.Sleep(50 * time.Millisecond)
	if events := rec.snapshot(); len(events) != 0 {
		t.Errorf("aborted round leaked %d events", len(events))
	}
}
