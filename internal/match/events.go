package match

import (
	"sync"
	"time"
)

// EventType identifies a match event
type EventType string

const (
	EventTypeRoundResolved  EventType = "round_resolved"
	EventTypeRoundAdvanced  EventType = "round_advanced"
	EventTypeMatchEnded     EventType = "match_ended"
	EventTypeMatchReset     EventType = "match_reset"
	EventTypeCommitRejected EventType = "commit_rejected"
)

func (et EventType) String() string {
	return string(et)
}

// Event is published after every state transition, and after a rejected
// commit. State is the snapshot taken right after the transition.
type Event struct {
	Type      EventType
	State     State
	Err       error
	Timestamp time.Time
}

// EventSubscriber receives match events
type EventSubscriber interface {
	OnEvent(event Event)
}

// SubscriberFunc adapts a function into an EventSubscriber
type SubscriberFunc func(Event)

// OnEvent calls f
func (f SubscriberFunc) OnEvent(event Event) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus delivers events synchronously in subscription order
type SimpleEventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber. Subscribers must be comparable.
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i:i], bus.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event Event) {
	bus.mu.RLock()
	subs := append([]EventSubscriber(nil), bus.subscribers...)
	bus.mu.RUnlock()

	for _, sub := range subs {
		sub.OnEvent(event)
	}
}
