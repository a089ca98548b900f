package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/domain"
)

func drain(ch <-chan Event) []Event {
	var out []Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestEventBus(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 64)
	bus.Subscribe(ch)

	s := newTestStore(t, WithListener(bus))
	fc := newFlowChart(t, s)
	a := newNode(t, s, fc, "pass", 0, 0)
	b := newNode(t, s, fc, "pass", 200, 0)

	events := drain(ch)
	require.NotEmpty(t, events)
	assert.Equal(t, Event{Type: EventCreated, Kind: domain.KindFlowChart, ID: fc.ID}, events[0])

	c := connect(t, s, flowPort(t, s, a, "Out"), flowPort(t, s, b, "In"))
	events = drain(ch)
	assert.Contains(t, events, Event{
		Type:      EventConnected,
		Kind:      domain.KindFlowPort,
		ID:        flowPort(t, s, b, "In").ID,
		Connector: c.ID,
	})

	require.NoError(t, s.AddSelection(a.ID))
	events = drain(ch)
	assert.Contains(t, events, Event{
		Type:      EventSelectionChanged,
		Kind:      domain.KindFlowChart,
		ID:        fc.ID,
		Selection: []domain.ID{a.ID},
	})

	s.DestroyConnector(c.ID)
	var types []EventType
	for _, e := range drain(ch) {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventPreDestroy, EventDisconnected, EventDisconnected, EventDestroyed}, types)
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := NewEventBus()
	ch := make(chan Event, 1)
	bus.Subscribe(ch)

	bus.Publish(Event{Type: EventCreated})
	bus.Publish(Event{Type: EventDestroyed})

	assert.Len(t, ch, 1)
	assert.Equal(t, EventCreated, (<-ch).Type)
}
