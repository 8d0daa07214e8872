package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_SubscribeAndPublish(t *testing.T) {
	bus := NewEventBus()

	var received []*Event
	bus.Subscribe(EventTurnComplete, func(e *Event) {
		received = append(received, e)
	})

	bus.Publish(&Event{Type: EventTurnComplete, SessionID: "s1"})
	bus.Publish(&Event{Type: EventError, SessionID: "s1"})

	require.Len(t, received, 1)
	assert.Equal(t, EventTurnComplete, received[0].Type)
	assert.Equal(t, "s1", received[0].SessionID)
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus()

	var types []EventType
	bus.SubscribeAll(func(e *Event) {
		types = append(types, e.Type)
	})

	bus.Publish(&Event{Type: EventListeningStart})
	bus.Publish(&Event{Type: EventListeningEnd})
	bus.Publish(&Event{Type: EventTurnComplete})

	assert.Equal(t, []EventType{EventListeningStart, EventListeningEnd, EventTurnComplete}, types)
}

func TestEventBus_DeliveryIsOrdered(t *testing.T) {
	bus := NewEventBus()

	var order []string
	bus.Subscribe(EventStateChange, func(e *Event) {
		order = append(order, "first")
	})
	bus.Subscribe(EventStateChange, func(e *Event) {
		order = append(order, "second")
	})
	bus.SubscribeAll(func(e *Event) {
		order = append(order, "global")
	})

	bus.Publish(&Event{Type: EventStateChange})

	// Type-specific listeners in registration order, then global.
	assert.Equal(t, []string{"first", "second", "global"}, order)
}

func TestEventBus_PanickingListenerIsIsolated(t *testing.T) {
	bus := NewEventBus()

	var delivered bool
	bus.Subscribe(EventError, func(e *Event) {
		panic("subscriber bug")
	})
	bus.Subscribe(EventError, func(e *Event) {
		delivered = true
	})

	assert.NotPanics(t, func() {
		bus.Publish(&Event{Type: EventError})
	})
	assert.True(t, delivered, "second listener must still receive the event")
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()

	var count int
	sub := bus.Subscribe(EventTurnComplete, func(e *Event) {
		count++
	})

	bus.Publish(&Event{Type: EventTurnComplete})
	bus.Unsubscribe(sub)
	bus.Publish(&Event{Type: EventTurnComplete})

	assert.Equal(t, 1, count)
}

func TestEventBus_UnsubscribeGlobal(t *testing.T) {
	bus := NewEventBus()

	var count int
	sub := bus.SubscribeAll(func(e *Event) {
		count++
	})

	bus.Publish(&Event{Type: EventTurnComplete})
	bus.Unsubscribe(sub)
	bus.Publish(&Event{Type: EventTurnComplete})

	assert.Equal(t, 1, count)
}

func TestEventBus_Clear(t *testing.T) {
	bus := NewEventBus()

	var count int
	bus.Subscribe(EventTurnComplete, func(e *Event) { count++ })
	bus.SubscribeAll(func(e *Event) { count++ })

	bus.Clear()
	bus.Publish(&Event{Type: EventTurnComplete})

	assert.Equal(t, 0, count)
}
