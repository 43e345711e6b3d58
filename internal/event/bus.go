package event

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// Handler receives published events.
type Handler func(Event)

type subscription struct {
	id      string
	handler Handler
}

// Bus is a synchronous pub-sub bus connecting the control loop to its
// observers. The loop publishes every phase transition, sample, decision,
// and scaling outcome; the dashboard, the status API, and the one-shot
// commands subscribe to the slices they care about.
//
// Publish runs handlers on the caller's goroutine, so a tick does not
// move on until its observers have seen the event. Handlers must not
// block.
type Bus struct {
	mu       sync.Mutex
	byType   map[string][]subscription
	wildcard []subscription
	lastID   uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{byType: make(map[string][]subscription)}
}

// Subscribe registers a handler for one event type, such as
// "scaling.decision" or "projection.written". The type "*" matches every
// event. The returned ID can be passed to Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	sub := subscription{id: fmt.Sprintf("sub-%d", b.lastID), handler: handler}
	if eventType == "*" {
		b.wildcard = append(b.wildcard, sub)
	} else {
		b.byType[eventType] = append(b.byType[eventType], sub)
	}
	return sub.id
}

// SubscribeAll registers a handler for every event type. The dashboard
// uses this to mirror loop activity into its feed.
func (b *Bus) SubscribeAll(handler Handler) string {
	return b.Subscribe("*", handler)
}

// Unsubscribe removes a subscription by ID and reports whether it was
// found.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.byType {
		for i, sub := range subs {
			if sub.id == id {
				b.byType[eventType] = append(subs[:i], subs[i+1:]...)
				return true
			}
		}
	}
	for i, sub := range b.wildcard {
		if sub.id == id {
			b.wildcard = append(b.wildcard[:i], b.wildcard[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers an event to subscribers of its exact type, then to
// wildcard subscribers, each group in registration order. Handlers run
// on a snapshot of the subscription list, so a handler may subscribe or
// unsubscribe without deadlocking. A panicking handler is logged and
// skipped so one broken observer cannot stall the loop.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	typed := b.byType[event.EventType()]
	handlers := make([]Handler, 0, len(typed)+len(b.wildcard))
	for _, sub := range typed {
		handlers = append(handlers, sub.handler)
	}
	for _, sub := range b.wildcard {
		handlers = append(handlers, sub.handler)
	}
	b.mu.Unlock()

	for _, handler := range handlers {
		b.deliver(handler, event)
	}
}

func (b *Bus) deliver(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: handler for %s panicked: %v\n%s",
				event.EventType(), r, debug.Stack())
		}
	}()
	handler(event)
}
