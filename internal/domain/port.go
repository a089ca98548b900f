package domain

import (
	"fmt"
	"slices"
)

// PortKind distinguishes flow ports from property ports.
type PortKind int

const (
	FlowPortKind PortKind = iota
	PropertyPortKind
)

func (k PortKind) String() string {
	switch k {
	case FlowPortKind:
		return "FlowPort"
	case PropertyPortKind:
		return "PropertyPort"
	}
	return fmt.Sprintf("PortKind(%d)", int(k))
}

// EntityKind returns the registry the kind is stored in.
func (k PortKind) EntityKind() EntityKind {
	if k == PropertyPortKind {
		return KindPropertyPort
	}
	return KindFlowPort
}

// Direction is the side of a node a port sits on.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Output {
		return Input
	}
	return Output
}

// ParseDirection converts "input" or "output" into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "input":
		return Input, nil
	case "output":
		return Output, nil
	}
	return Input, fmt.Errorf("unknown port direction %q: %w", s, ErrInvalidArgument)
}

// Port is a connection point on a node. ValueType and Value are only
// meaningful for property ports.
type Port struct {
	ID                  ID        `json:"id"`
	Kind                PortKind  `json:"kind"`
	Type                string    `json:"type"`
	Owner               ID        `json:"owner"`
	Name                string    `json:"name"`
	DisplayName         string    `json:"display_name"`
	Direction           Direction `json:"direction"`
	AllowMultipleInput  bool      `json:"allow_multiple_input"`
	AllowMultipleOutput bool      `json:"allow_multiple_output"`
	IsPortEnabled       bool      `json:"is_port_enabled"`
	IsEnabled           bool      `json:"is_enabled"`
	Connectors          []ID      `json:"connectors"`

	ValueType ValueType `json:"value_type,omitempty"`
	Value     any       `json:"value,omitempty"`
}

func (p *Port) EntityID() ID { return p.ID }
func (p *Port) EntityKind() EntityKind { return p.Kind.EntityKind() }

// IsInput reports whether the port is on the input side of its node.
func (p *Port) IsInput() bool { return p.Direction == Input }

// AllowsMultiple reports whether the port may carry more than one connector
// in its own direction.
func (p *Port) AllowsMultiple() bool {
	if p.Direction == Input {
		return p.AllowMultipleInput
	}
	return p.AllowMultipleOutput
}

// AttachConnector records a connector on this port.
func (p *Port) AttachConnector(id ID) { addID(&p.Connectors, id) }

// DetachConnector removes a connector from this port.
func (p *Port) DetachConnector(id ID) bool { return removeID(&p.Connectors, id) }

// HasConnector reports whether the connector is attached.
func (p *Port) HasConnector(id ID) bool {
	return slices.Contains(p.Connectors, id)
}
