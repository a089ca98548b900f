package graph

import (
	"fmt"

	"nodegraph/internal/domain"
)

// RouterNodeType is the node type of pass-through router nodes.
const RouterNodeType = "router"

// PortSpec describes a port to create. A zero ID allocates a fresh one.
type PortSpec struct {
	ID                  domain.ID
	Kind                domain.PortKind
	Type                string
	Name                string
	DisplayName         string
	Direction           domain.Direction
	AllowMultipleInput  bool
	AllowMultipleOutput bool
	IsPortEnabled       bool
	IsEnabled           bool

	// ValueType and DefaultValue apply to property ports. An empty
	// ValueType means any.
	ValueType    domain.ValueType
	DefaultValue any
}

// FlowPortSpec returns a flow port spec with the usual defaults: many
// incoming connectors, a single outgoing one.
func FlowPortSpec(name string, dir domain.Direction) PortSpec {
	return PortSpec{
		Kind:               domain.FlowPortKind,
		Name:               name,
		DisplayName:        name,
		Direction:          dir,
		AllowMultipleInput: true,
		IsPortEnabled:      true,
		IsEnabled:          true,
	}
}

// PropertyPortSpec returns a property port spec with the usual defaults: a
// single incoming connector, many outgoing ones.
func PropertyPortSpec(name string, dir domain.Direction, vt domain.ValueType, def any) PortSpec {
	return PortSpec{
		Kind:                domain.PropertyPortKind,
		Name:                name,
		DisplayName:         name,
		Direction:           dir,
		AllowMultipleOutput: true,
		IsPortEnabled:       true,
		IsEnabled:           true,
		ValueType:           vt,
		DefaultValue:        def,
	}
}

// ConnectableFunc is a node type's extra connection rule. It is called with
// a port of the node and the port it would be connected to and returns false
// with a reason to reject.
type ConnectableFunc func(s *Store, own, other *domain.Port) (bool, string)

// Descriptor declares a node type: its default presentation and the ports
// created with every new node of the type.
type Descriptor struct {
	Type                    string
	Header                  string
	HeaderBackgroundColor   string
	HeaderFontColor         string
	AllowCircularConnection bool
	Ports                   []PortSpec
	IsConnectable           ConnectableFunc
}

var builtinDescriptors = []Descriptor{
	{Type: ""},
	{Type: RouterNodeType, AllowCircularConnection: true},
}

// RegisterDescriptor adds or replaces a node type.
func (s *Store) RegisterDescriptor(d Descriptor) error {
	if d.Type == "" {
		return fmt.Errorf("register descriptor: empty node type: %w", domain.ErrInvalidArgument)
	}
	for _, spec := range d.Ports {
		if spec.Kind != domain.PropertyPortKind {
			continue
		}
		vt := valueTypeOrAny(spec.ValueType)
		if _, err := vt.Check(spec.DefaultValue); err != nil {
			return fmt.Errorf("register descriptor %q: port %q: %w", d.Type, spec.Name, err)
		}
	}
	s.descriptors[d.Type] = d
	return nil
}

// Descriptor returns a registered node type.
func (s *Store) Descriptor(nodeType string) (Descriptor, bool) {
	d, ok := s.descriptors[nodeType]
	return d, ok
}

func valueTypeOrAny(vt domain.ValueType) domain.ValueType {
	if vt == "" {
		return domain.ValueAny
	}
	return vt
}
