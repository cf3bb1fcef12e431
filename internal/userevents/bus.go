// Package userevents implements the behavior layer of the editor: a bus for
// item events, a registry of invocable functions and a compiler that turns
// behavior action lists into callable closures.
package userevents

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Handler receives the arguments an event was emitted with.
type Handler func(args []any)

// Forwarder receives every emitted item event, after local subscribers ran.
// Used to mirror events to an embedding host such as a collab session.
type Forwarder func(itemID, event string, args []any)

// Bus routes item events to their subscribers. Every subscription belongs to
// the current revision; clearing the bus invalidates in-flight action chains
// by replacing the revision token.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]map[string][]Handler
	revision    string
	forwarder   Forwarder
}

// NewBus creates an empty event bus with a fresh revision.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]map[string][]Handler),
		revision:    uuid.NewString(),
	}
}

// SetForwarder installs the host forwarder. Pass nil to detach.
func (b *Bus) SetForwarder(f Forwarder) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forwarder = f
}

// Subscribe registers a handler for an event on an item. Handlers run in
// subscription order.
func (b *Bus) Subscribe(itemID, event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	events, ok := b.subscribers[itemID]
	if !ok {
		events = make(map[string][]Handler)
		b.subscribers[itemID] = events
	}
	events[event] = append(events[event], h)
}

// EmitItemEvent invokes all handlers subscribed to the event, then forwards
// the event to the host. A panicking forwarder is logged and ignored.
func (b *Bus) EmitItemEvent(itemID, event string, args ...any) {
	b.mu.Lock()
	var handlers []Handler
	if events, ok := b.subscribers[itemID]; ok {
		handlers = append(handlers, events[event]...)
	}
	forwarder := b.forwarder
	b.mu.Unlock()

	for _, h := range handlers {
		h(args)
	}
	if forwarder != nil {
		b.forward(forwarder, itemID, event, args)
	}
}

func (b *Bus) forward(f Forwarder, itemID, event string, args []any) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Warn("event forwarder panicked", "item", itemID, "event", event, "err", rec)
		}
	}()
	f(itemID, event, args)
}

// Revision returns the current revision token.
func (b *Bus) Revision() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision
}

// IsActionAllowed reports whether an action chain started under the given
// revision may still run.
func (b *Bus) IsActionAllowed(revision string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revision == revision
}

// Clear drops all subscriptions and replaces the revision, cancelling any
// action chain still referring to the old one.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = make(map[string]map[string][]Handler)
	b.revision = uuid.NewString()
}

// ClearEventsForItem drops all subscriptions of a single item without
// touching the revision.
func (b *Bus) ClearEventsForItem(itemID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, itemID)
}
