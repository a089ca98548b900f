package graph

import (
	"fmt"
	"math"
	"reflect"
	"sort"

	"nodegraph/internal/domain"
)

// Property names accepted by Property and SetProperty.
const (
	propX                       = "X"
	propY                       = "Y"
	propZIndex                  = "ZIndex"
	propHeader                  = "Header"
	propHeaderBackgroundColor   = "HeaderBackgroundColor"
	propHeaderFontColor         = "HeaderFontColor"
	propAllowCircularConnection = "AllowCircularConnection"
	propDisplayName             = "DisplayName"
	propIsPortEnabled           = "IsPortEnabled"
	propIsEnabled               = "IsEnabled"
	propValue                   = "Value"
	propView                    = "View"
)

// accessor reads and writes one named property. set receives the value
// already normalized by kind.
type accessor struct {
	kind domain.ValueType
	get  func(e domain.Entity) any
	set  func(s *Store, e domain.Entity, v any) error
}

func nodeAccessor[T any](kind domain.ValueType, field func(n *domain.Node) *T) accessor {
	return accessor{
		kind: kind,
		get:  func(e domain.Entity) any { return *field(e.(*domain.Node)) },
		set: func(_ *Store, e domain.Entity, v any) error {
			*field(e.(*domain.Node)) = v.(T)
			return nil
		},
	}
}

func portAccessor[T any](kind domain.ValueType, field func(p *domain.Port) *T) accessor {
	return accessor{
		kind: kind,
		get:  func(e domain.Entity) any { return *field(e.(*domain.Port)) },
		set: func(_ *Store, e domain.Entity, v any) error {
			*field(e.(*domain.Port)) = v.(T)
			return nil
		},
	}
}

var nodeProperties = map[string]accessor{
	propX:                       nodeAccessor(domain.ValueFloat, func(n *domain.Node) *float64 { return &n.X }),
	propY:                       nodeAccessor(domain.ValueFloat, func(n *domain.Node) *float64 { return &n.Y }),
	propHeader:                  nodeAccessor(domain.ValueString, func(n *domain.Node) *string { return &n.Header }),
	propHeaderBackgroundColor:   nodeAccessor(domain.ValueString, func(n *domain.Node) *string { return &n.HeaderBackgroundColor }),
	propHeaderFontColor:         nodeAccessor(domain.ValueString, func(n *domain.Node) *string { return &n.HeaderFontColor }),
	propAllowCircularConnection: nodeAccessor(domain.ValueBool, func(n *domain.Node) *bool { return &n.AllowCircularConnection }),
	propZIndex: {
		kind: domain.ValueInt,
		get:  func(e domain.Entity) any { return e.(*domain.Node).ZIndex },
		set: func(_ *Store, e domain.Entity, v any) error {
			i := v.(int64)
			if i < math.MinInt32 || i > math.MaxInt32 {
				return fmt.Errorf("z-index %d out of range: %w", i, domain.ErrInvalidArgument)
			}
			e.(*domain.Node).ZIndex = int(i)
			return nil
		},
	},
	propIsSelected: {
		kind: domain.ValueBool,
		get:  func(e domain.Entity) any { return e.(*domain.Node).IsSelected },
		set: func(s *Store, e domain.Entity, v any) error {
			node := e.(*domain.Node)
			if v.(bool) {
				s.selectNode(node)
			} else {
				s.removeSelection(node.Owner, node)
			}
			return nil
		},
	},
}

var portProperties = map[string]accessor{
	propDisplayName:   portAccessor(domain.ValueString, func(p *domain.Port) *string { return &p.DisplayName }),
	propIsPortEnabled: portAccessor(domain.ValueBool, func(p *domain.Port) *bool { return &p.IsPortEnabled }),
	propIsEnabled:     portAccessor(domain.ValueBool, func(p *domain.Port) *bool { return &p.IsEnabled }),
}

var valueProperty = accessor{
	get: func(e domain.Entity) any { return e.(*domain.Port).Value },
	set: func(_ *Store, e domain.Entity, v any) error {
		e.(*domain.Port).Value = v
		return nil
	},
}

// lookupProperty resolves a property by name for an entity.
func lookupProperty(e domain.Entity, name string) (accessor, bool) {
	switch v := e.(type) {
	case *domain.Node:
		a, ok := nodeProperties[name]
		return a, ok
	case *domain.Port:
		if name == propValue && v.Kind == domain.PropertyPortKind {
			a := valueProperty
			a.kind = v.ValueType
			return a, true
		}
		a, ok := portProperties[name]
		return a, ok
	}
	return accessor{}, false
}

// PropertyNames lists the settable properties of an entity.
func PropertyNames(e domain.Entity) []string {
	var names []string
	switch v := e.(type) {
	case *domain.Node:
		for name := range nodeProperties {
			names = append(names, name)
		}
	case *domain.Port:
		for name := range portProperties {
			names = append(names, name)
		}
		if v.Kind == domain.PropertyPortKind {
			names = append(names, propValue)
		}
	}
	sort.Strings(names)
	return names
}

// Property reads a named property of an entity.
func (s *Store) Property(id domain.ID, name string) (any, error) {
	e, ok := s.Find(id)
	if !ok {
		return nil, fmt.Errorf("property %s: entity %s: %w", name, id, domain.ErrNotFound)
	}
	a, ok := lookupProperty(e, name)
	if !ok {
		return nil, fmt.Errorf("property %s of %s: %w", name, e.EntityKind(), domain.ErrInvalidArgument)
	}
	return a.get(e), nil
}

// SetProperty writes a named property and records the change. Setting a
// property to its current value is a no-op.
func (s *Store) SetProperty(id domain.ID, name string, value any) error {
	e, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("set property %s: entity %s: %w", name, id, domain.ErrNotFound)
	}
	a, ok := lookupProperty(e, name)
	if !ok {
		return fmt.Errorf("set property %s of %s: %w", name, e.EntityKind(), domain.ErrInvalidArgument)
	}
	v, err := a.kind.Check(value)
	if err != nil {
		return fmt.Errorf("set property %s: %w", name, err)
	}
	old := a.get(e)
	if current, err := a.kind.Check(old); err == nil && reflect.DeepEqual(current, v) {
		return nil
	}

	fc := s.ownerFlowChart(e)
	done := s.autoTx(fc, "Set "+name)
	defer done()

	if err := a.set(s, e, v); err != nil {
		return fmt.Errorf("set property %s: %w", name, err)
	}
	if h := s.recorder(fc); h != nil {
		h.AddCommand(s.newPropertyCommand(id, name, old, a.get(e)))
	}
	s.listener.OnPropertyChanged(e, name)
	return nil
}

// applyProperty sets a property without recording it. The entity and
// accessor are resolved on every call.
func (s *Store) applyProperty(id domain.ID, name string, value any) error {
	e, ok := s.Find(id)
	if !ok {
		return fmt.Errorf("apply property %s: entity %s: %w", name, id, domain.ErrNotFound)
	}
	a, ok := lookupProperty(e, name)
	if !ok {
		return fmt.Errorf("apply property %s of %s: %w", name, e.EntityKind(), domain.ErrInvalidArgument)
	}
	v, err := a.kind.Check(value)
	if err != nil {
		return fmt.Errorf("apply property %s: %w", name, err)
	}
	if err := a.set(s, e, v); err != nil {
		return fmt.Errorf("apply property %s: %w", name, err)
	}
	s.listener.OnPropertyChanged(e, name)
	return nil
}

// SetViewTransform sets the pan and zoom of a flow chart and records the
// change.
func (s *Store) SetViewTransform(flowChart domain.ID, view domain.ViewTransform) error {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return fmt.Errorf("set view: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	if view.Scale <= 0 || math.IsNaN(view.Scale) || math.IsInf(view.Scale, 0) {
		return fmt.Errorf("set view: scale %v: %w", view.Scale, domain.ErrInvalidArgument)
	}
	if fc.View == view {
		return nil
	}

	done := s.autoTx(flowChart, "Zoom and pan")
	defer done()

	old := fc.View
	fc.View = view
	if h := s.recorder(flowChart); h != nil {
		h.AddCommand(&ViewTransformChange{store: s, FlowChart: flowChart, Old: old, New: view})
	}
	s.listener.OnPropertyChanged(fc, propView)
	return nil
}

func (s *Store) applyViewTransform(flowChart domain.ID, view domain.ViewTransform) error {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return fmt.Errorf("apply view: flowchart %s: %w", flowChart, domain.ErrNotFound)
	}
	fc.View = view
	s.listener.OnPropertyChanged(fc, propView)
	return nil
}
