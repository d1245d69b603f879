package amoebot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// RoundEvent is emitted after a round commits, carrying the committed
// state for streaming collaborators. EventID is unique per emission so
// webhook consumers can deduplicate redeliveries.
type RoundEvent struct {
	EventID    string          `json:"event_id"`
	Round      int             `json:"round"`
	Timestamp  int64           `json:"timestamp"`
	Particles  []ParticleState `json:"particles"`
	Objects    []ObjectState   `json:"objects,omitempty"`
	MovedEdges int             `json:"moved_edges"`
	Beeps      int             `json:"beeps"`
}

// JSON returns the round event as JSON bytes.
func (e RoundEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// Notifier is the interface all event channels must implement.
type Notifier interface {
	// ID returns a unique identifier for this notifier
	ID() string

	// Type returns the type of notifier (e.g., "websocket", "webhook")
	Type() string

	// Notify sends a round event. Returns an error if delivery fails.
	Notify(ctx context.Context, event RoundEvent) error

	// Close closes the notifier and releases any resources
	Close() error
}

// NotificationManager fans committed round events out to every registered
// notifier through a worker queue, so delivery never blocks a round commit.
type NotificationManager struct {
	mu        sync.RWMutex
	logger    Logger
	notifiers map[string]Notifier
	jobs      chan RoundEvent
	closed    bool
	wg        sync.WaitGroup
}

// NewNotificationManager creates a notification manager with a no-op logger.
func NewNotificationManager() *NotificationManager {
	return NewNotificationManagerWithLogger(NewNoOpLogger())
}

// NewNotificationManagerWithLogger creates a notification manager that logs
// delivery failures through the given logger.
func NewNotificationManagerWithLogger(logger Logger) *NotificationManager {
	mgr := &NotificationManager{
		logger:    logger,
		notifiers: make(map[string]Notifier),
		jobs:      make(chan RoundEvent, 1024),
	}
	mgr.wg.Add(1)
	go mgr.worker()
	return mgr
}

// RegisterNotifier registers a notifier with the manager.
func (nm *NotificationManager) RegisterNotifier(notifier Notifier) error {
	if notifier == nil {
		return fmt.Errorf("notifier cannot be nil")
	}
	id := notifier.ID()
	if id == "" {
		return fmt.Errorf("notifier ID cannot be empty")
	}

	nm.mu.Lock()
	defer nm.mu.Unlock()
	if _, exists := nm.notifiers[id]; exists {
		return fmt.Errorf("notifier with ID %s already exists", id)
	}
	nm.notifiers[id] = notifier
	return nil
}

// UnregisterNotifier removes a notifier and closes it.
func (nm *NotificationManager) UnregisterNotifier(id string) error {
	nm.mu.Lock()
	notifier, exists := nm.notifiers[id]
	delete(nm.notifiers, id)
	nm.mu.Unlock()

	if !exists {
		return fmt.Errorf("notifier with ID %s not found", id)
	}
	if err := notifier.Close(); err != nil {
		return fmt.Errorf("error closing notifier %s: %w", id, err)
	}
	return nil
}

// GetNotifier returns the registered notifier with the given ID.
func (nm *NotificationManager) GetNotifier(id string) (Notifier, bool) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	notifier, exists := nm.notifiers[id]
	return notifier, exists
}

// ListNotifiers returns the registered notifier IDs.
func (nm *NotificationManager) ListNotifiers() []string {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	ids := make([]string, 0, len(nm.notifiers))
	for id := range nm.notifiers {
		ids = append(ids, id)
	}
	return ids
}

// Enqueue queues a round event for asynchronous delivery to all registered
// notifiers. Non-blocking; events are dropped if the queue is full.
func (nm *NotificationManager) Enqueue(event RoundEvent) {
	nm.mu.RLock()
	closed := nm.closed
	nm.mu.RUnlock()
	if closed {
		return
	}

	select {
	case nm.jobs <- event:
	default:
		nm.logger.Warnf("notification queue full, dropping event for round %d", event.Round)
	}
}

func (nm *NotificationManager) worker() {
	defer nm.wg.Done()
	for event := range nm.jobs {
		nm.dispatch(event)
	}
}

func (nm *NotificationManager) dispatch(event RoundEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nm.mu.RLock()
	notifiers := make([]Notifier, 0, len(nm.notifiers))
	for _, n := range nm.notifiers {
		notifiers = append(notifiers, n)
	}
	nm.mu.RUnlock()

	for _, n := range notifiers {
		if err := n.Notify(ctx, event); err != nil {
			nm.logger.Warnf("notification failed: notifier=%s round=%d error=%v", n.ID(), event.Round, err)
		}
	}
}

// Close shuts down the worker and closes all registered notifiers.
func (nm *NotificationManager) Close() error {
	nm.mu.Lock()
	if nm.closed {
		nm.mu.Unlock()
		return nil
	}
	nm.closed = true
	close(nm.jobs)
	nm.mu.Unlock()

	nm.wg.Wait()

	nm.mu.Lock()
	defer nm.mu.Unlock()
	var firstErr error
	for id, n := range nm.notifiers {
		if err := n.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing notifier %s: %w", id, err)
		}
	}
	nm.notifiers = make(map[string]Notifier)
	return firstErr
}
