package graph

import (
	"fmt"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
)

// CreateEntity records the creation of an entity. Undo destroys it and redo
// restores it from the snapshot taken when it was created.
type CreateEntity struct {
	store    *Store
	name     string
	ID       domain.ID
	Snapshot *codec.Element
}

func (c *CreateEntity) Name() string { return c.name }

func (c *CreateEntity) Undo() error {
	return c.store.destroyEntity(c.ID)
}

func (c *CreateEntity) Redo() error {
	_, err := c.store.DeserializeEntity(c.Snapshot.Clone())
	return err
}

// DestroyEntity records the destruction of an entity. The snapshot is taken
// before anything is torn down.
type DestroyEntity struct {
	store    *Store
	name     string
	ID       domain.ID
	Snapshot *codec.Element
}

func (c *DestroyEntity) Name() string { return c.name }

func (c *DestroyEntity) Undo() error {
	_, err := c.store.DeserializeEntity(c.Snapshot.Clone())
	return err
}

func (c *DestroyEntity) Redo() error {
	return c.store.destroyEntity(c.ID)
}

// PropertyChange records one property write. The entity is looked up by ID
// on every undo and redo.
type PropertyChange struct {
	store    *Store
	ID       domain.ID
	Property string
	Old, New any
}

func (c *PropertyChange) Name() string { return "Set " + c.Property }

func (c *PropertyChange) Undo() error {
	return c.store.applyProperty(c.ID, c.Property, c.Old)
}

func (c *PropertyChange) Redo() error {
	return c.store.applyProperty(c.ID, c.Property, c.New)
}

// ViewTransformChange records a pan or zoom.
type ViewTransformChange struct {
	store     *Store
	FlowChart domain.ID
	Old, New  domain.ViewTransform
}

func (c *ViewTransformChange) Name() string { return "Zoom and pan" }

func (c *ViewTransformChange) Undo() error {
	return c.store.applyViewTransform(c.FlowChart, c.Old)
}

func (c *ViewTransformChange) Redo() error {
	return c.store.applyViewTransform(c.FlowChart, c.New)
}

func (s *Store) newCreateCommand(name string, e domain.Entity) *CreateEntity {
	return &CreateEntity{store: s, name: name, ID: e.EntityID(), Snapshot: s.serialize(e)}
}

func (s *Store) newDestroyCommand(name string, e domain.Entity) *DestroyEntity {
	return &DestroyEntity{store: s, name: name, ID: e.EntityID(), Snapshot: s.serialize(e)}
}

func (s *Store) newPropertyCommand(id domain.ID, property string, old, new any) *PropertyChange {
	return &PropertyChange{store: s, ID: id, Property: property, Old: old, New: new}
}

// destroyEntity destroys an entity without recording it.
func (s *Store) destroyEntity(id domain.ID) error {
	e, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("destroy entity %s: %w", id, domain.ErrNotFound)
	}
	switch e.EntityKind() {
	case domain.KindNode:
		s.destroyNode(id, false)
	case domain.KindFlowPort, domain.KindPropertyPort:
		s.destroyPort(id, false)
	case domain.KindConnector:
		s.destroyConnector(id, false)
	case domain.KindFlowChart:
		s.DestroyFlowChart(id)
	}
	return nil
}
