package domain

import "github.com/google/uuid"

// ID identifies an entity. IDs are unique per entity kind.
type ID = uuid.UUID

// NilID is the zero ID, used for unset references.
var NilID = uuid.Nil

// NewID returns a fresh random ID.
func NewID() ID {
	return uuid.New()
}

// ParseID parses the canonical string form of an ID.
func ParseID(s string) (ID, error) {
	return uuid.Parse(s)
}

// EntityKind names one of the entity registries.
type EntityKind string

const (
	KindFlowChart    EntityKind = "FlowChart"
	KindNode         EntityKind = "Node"
	KindFlowPort     EntityKind = "FlowPort"
	KindPropertyPort EntityKind = "PropertyPort"
	KindConnector    EntityKind = "Connector"
)

// Entity is implemented by every registered graph entity.
type Entity interface {
	EntityID() ID
	EntityKind() EntityKind
}
