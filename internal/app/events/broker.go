// Package events provides the broker for fanning out player events.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/soundkite/radiobox/internal/app/player"
)

// Sink receives broadcast player events. Send must not block indefinitely;
// slow sinks are the sink's own problem.
type Sink interface {
	Send(player.Event) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(player.Event) error

// Send calls the function.
func (f SinkFunc) Send(e player.Event) error {
	return f(e)
}

// subscription represents one subscriber.
type subscription struct {
	id   string
	sink Sink
}

// Broker fans player events out to subscribers (the lifecycle coordinator,
// websocket clients). Send errors are ignored; a broken subscriber is
// expected to unsubscribe itself.
type Broker struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
}

// NewBroker creates a new event broker.
func NewBroker() *Broker {
	return &Broker{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a sink and returns its subscription ID.
func (b *Broker) Subscribe(sink Sink) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()
	b.subscriptions[id] = &subscription{id: id, sink: sink}
	return id
}

// Unsubscribe removes a subscription.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscriptions, id)
}

// Broadcast delivers an event to all subscribers.
func (b *Broker) Broadcast(e player.Event) {
	b.mu.RLock()
	// Copy to avoid holding the lock during sends
	subs := make([]*subscription, 0, len(b.subscriptions))
	for _, sub := range b.subscriptions {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		_ = sub.sink.Send(e)
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions)
}

// Run pumps events from the session channel into the broker until the
// channel closes.
func (b *Broker) Run(events <-chan player.Event) {
	for e := range events {
		b.Broadcast(e)
	}
}

// Close removes all subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions = make(map[string]*subscription)
}
