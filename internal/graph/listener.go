package graph

import "nodegraph/internal/domain"

// Listener receives lifecycle and change notifications from a Store.
// Callbacks run synchronously inside the operation that raised them and must
// not mutate the store.
type Listener interface {
	OnCreate(e domain.Entity)
	OnPreDestroy(e domain.Entity)
	OnPostDestroy(e domain.Entity)
	OnConnect(port *domain.Port, connector *domain.Connector)
	OnDisconnect(port *domain.Port, connector *domain.Connector)
	// OnPostLoad fires for every entity created by a document load, after
	// all references are resolved.
	OnPostLoad(e domain.Entity)
	OnPropertyChanged(e domain.Entity, property string)
	OnSelectionChanged(flowChart domain.ID, selected []domain.ID)
}

// NopListener ignores every notification. Embed it to implement a subset.
type NopListener struct{}

func (NopListener) OnCreate(domain.Entity) {}
func (NopListener) OnPreDestroy(domain.Entity) {}
func (NopListener) OnPostDestroy(domain.Entity) {}
func (NopListener) OnConnect(*domain.Port, *domain.Connector) {}
func (NopListener) OnDisconnect(*domain.Port, *domain.Connector) {}
func (NopListener) OnPostLoad(domain.Entity) {}
func (NopListener) OnPropertyChanged(domain.Entity, string) {}
func (NopListener) OnSelectionChanged(domain.ID, []domain.ID) {}

// Listeners fans notifications out in order.
type Listeners []Listener

func (ls Listeners) OnCreate(e domain.Entity) {
	for _, l := range ls {
		l.OnCreate(e)
	}
}

func (ls Listeners) OnPreDestroy(e domain.Entity) {
	for _, l := range ls {
		l.OnPreDestroy(e)
	}
}

func (ls Listeners) OnPostDestroy(e domain.Entity) {
	for _, l := range ls {
		l.OnPostDestroy(e)
	}
}

func (ls Listeners) OnConnect(port *domain.Port, c *domain.Connector) {
	for _, l := range ls {
		l.OnConnect(port, c)
	}
}

func (ls Listeners) OnDisconnect(port *domain.Port, c *domain.Connector) {
	for _, l := range ls {
		l.OnDisconnect(port, c)
	}
}

func (ls Listeners) OnPostLoad(e domain.Entity) {
	for _, l := range ls {
		l.OnPostLoad(e)
	}
}

func (ls Listeners) OnPropertyChanged(e domain.Entity, property string) {
	for _, l := range ls {
		l.OnPropertyChanged(e, property)
	}
}

func (ls Listeners) OnSelectionChanged(flowChart domain.ID, selected []domain.ID) {
	for _, l := range ls {
		l.OnSelectionChanged(flowChart, selected)
	}
}
