package notifiers

import (
	"context"
	"testing"
	"time"
)

func TestNewWebSocketNotifier(t *testing.T) {
	notifier := NewWebSocketNotifier("test-ws")
	defer notifier.Close()

	if notifier.ID() != "test-ws" {
		t.Errorf("Expected ID 'test-ws', got '%s'", notifier.ID())
	}

	if notifier.Type() != "websocket" {
		t.Errorf("Expected type 'websocket', got '%s'", notifier.Type())
	}
}

func TestWebSocketNotifier_GetUpgrader(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	defer notifier.Close()

	upgrader := notifier.GetUpgrader()
	if upgrader.ReadBufferSize == 0 {
		t.Error("Expected non-zero ReadBufferSize")
	}
	if upgrader.WriteBufferSize == 0 {
		t.Error("Expected non-zero WriteBufferSize")
	}
}

func TestWebSocketNotifier_NotifyWithoutClients(t *testing.T) {
	notifier := NewWebSocketNotifier("test")
	defer notifier.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	// With no clients the event is queued and dropped by the broadcaster.
	if err := notifier.Notify(ctx, sampleEvent()); err != nil {
		t.Errorf("Expected no error with no clients, got %v", err)
	}
}

func TestWebSocketNotifier_Close(t *testing.T) {
	notifier := NewWebSocketNotifier("test")

	if err := notifier.Close(); err != nil {
		t.Errorf("Expected no error on close, got %v", err)
	}

	// Register after close must not block.
	done := make(chan struct{})
	go func() {
		notifier.RegisterClient(nil)
		notifier.UnregisterClient(nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Register/Unregister blocked after Close")
	}
}
