package graph

import (
	"slices"

	"nodegraph/internal/domain"
)

// EventType defines the type of event
type EventType string

const (
	EventCreated          EventType = "created"
	EventPreDestroy       EventType = "pre_destroy"
	EventDestroyed        EventType = "destroyed"
	EventConnected        EventType = "connected"
	EventDisconnected     EventType = "disconnected"
	EventLoaded           EventType = "loaded"
	EventPropertyChanged  EventType = "property_changed"
	EventSelectionChanged EventType = "selection_changed"

	// Document events are published by hosts, not by the Store.
	EventDocumentSaved    EventType = "document_saved"
	EventDocumentLoaded   EventType = "document_loaded"
	EventDocumentDeleted  EventType = "document_deleted"
	EventDocumentReloaded EventType = "document_reloaded"
)

// Event represents a notification raised by a Store
type Event struct {
	Type      EventType         `json:"type"`
	Kind      domain.EntityKind `json:"kind,omitempty"`
	ID        domain.ID         `json:"id"`
	Connector domain.ID         `json:"connector,omitempty"`
	Property  string            `json:"property,omitempty"`
	Selection []domain.ID       `json:"selection,omitempty"`
	Document  string            `json:"document,omitempty"`
}

// EventBus turns Store notifications into events for channel subscribers.
// It implements Listener.
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

func (eb *EventBus) entity(t EventType, e domain.Entity) {
	eb.Publish(Event{Type: t, Kind: e.EntityKind(), ID: e.EntityID()})
}

func (eb *EventBus) OnCreate(e domain.Entity) { eb.entity(EventCreated, e) }
func (eb *EventBus) OnPreDestroy(e domain.Entity) { eb.entity(EventPreDestroy, e) }
func (eb *EventBus) OnPostDestroy(e domain.Entity) { eb.entity(EventDestroyed, e) }
func (eb *EventBus) OnPostLoad(e domain.Entity) { eb.entity(EventLoaded, e) }

func (eb *EventBus) OnConnect(port *domain.Port, c *domain.Connector) {
	eb.Publish(Event{Type: EventConnected, Kind: port.EntityKind(), ID: port.ID, Connector: c.ID})
}

func (eb *EventBus) OnDisconnect(port *domain.Port, c *domain.Connector) {
	eb.Publish(Event{Type: EventDisconnected, Kind: port.EntityKind(), ID: port.ID, Connector: c.ID})
}

func (eb *EventBus) OnPropertyChanged(e domain.Entity, property string) {
	eb.Publish(Event{Type: EventPropertyChanged, Kind: e.EntityKind(), ID: e.EntityID(), Property: property})
}

func (eb *EventBus) OnSelectionChanged(flowChart domain.ID, selected []domain.ID) {
	eb.Publish(Event{
		Type:      EventSelectionChanged,
		Kind:      domain.KindFlowChart,
		ID:        flowChart,
		Selection: slices.Clone(selected),
	})
}
