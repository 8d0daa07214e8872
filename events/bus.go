// Package events provides a lightweight pub/sub event bus for pipeline observability.
//
// Delivery is synchronous and in registration order: turn events must reach
// subscribers in the exact stage order the pipeline emits them. A panicking
// listener is isolated so it cannot prevent delivery to the others.
package events

import "sync"

// Listener is a function that handles events.
type Listener func(*Event)

// Subscription identifies a registered listener and can be used to remove it.
type Subscription struct {
	id        int
	eventType EventType
	global    bool
}

type registeredListener struct {
	id       int
	listener Listener
}

// EventBus manages event distribution to listeners.
type EventBus struct {
	mu              sync.RWMutex
	nextID          int
	listeners       map[EventType][]registeredListener
	globalListeners []registeredListener
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]registeredListener),
	}
}

// Subscribe registers a listener for a specific event type.
func (eb *EventBus) Subscribe(eventType EventType, listener Listener) Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	eb.listeners[eventType] = append(eb.listeners[eventType], registeredListener{
		id:       eb.nextID,
		listener: listener,
	})
	return Subscription{id: eb.nextID, eventType: eventType}
}

// SubscribeAll registers a listener for all event types.
func (eb *EventBus) SubscribeAll(listener Listener) Subscription {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.nextID++
	eb.globalListeners = append(eb.globalListeners, registeredListener{
		id:       eb.nextID,
		listener: listener,
	})
	return Subscription{id: eb.nextID, global: true}
}

// Unsubscribe removes a previously registered listener.
func (eb *EventBus) Unsubscribe(sub Subscription) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if sub.global {
		eb.globalListeners = removeListener(eb.globalListeners, sub.id)
		return
	}
	eb.listeners[sub.eventType] = removeListener(eb.listeners[sub.eventType], sub.id)
}

// Publish delivers an event to all registered listeners synchronously,
// type-specific listeners first, then global listeners, in registration order.
func (eb *EventBus) Publish(event *Event) {
	eb.mu.RLock()
	typeListeners := eb.listeners[event.Type]

	specificListeners := make([]registeredListener, len(typeListeners))
	copy(specificListeners, typeListeners)

	globalListeners := make([]registeredListener, len(eb.globalListeners))
	copy(globalListeners, eb.globalListeners)
	eb.mu.RUnlock()

	for _, l := range specificListeners {
		safeInvoke(l.listener, event)
	}
	for _, l := range globalListeners {
		safeInvoke(l.listener, event)
	}
}

// Clear removes all listeners (primarily for tests).
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.listeners = make(map[EventType][]registeredListener)
	eb.globalListeners = nil
}

func removeListener(listeners []registeredListener, id int) []registeredListener {
	filtered := listeners[:0]
	for _, l := range listeners {
		if l.id != id {
			filtered = append(filtered, l)
		}
	}
	return filtered
}

func safeInvoke(listener Listener, event *Event) {
	defer func() { _ = recover() }()
	listener(event)
}
