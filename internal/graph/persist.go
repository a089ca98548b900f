package graph

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
)

// Document element and attribute names.
const (
	DocumentElement = "NodeGraph"
	DocumentVersion = "1"

	elFlowChart    = "FlowChart"
	elView         = "View"
	elNodes        = "Nodes"
	elNode         = "Node"
	elFlowPort     = "FlowPort"
	elPropertyPort = "PropertyPort"
	elConnectors   = "Connectors"
	elConnector    = "Connector"
)

// loader tracks a deserialization so it can be rolled back.
type loader struct {
	created    []domain.Entity
	connectors []pendingConnector
	selected   []*domain.Node
}

type pendingConnector struct {
	connector  *domain.Connector
	start, end domain.ID
}

// SerializeStore writes every flow chart into a document root.
func (s *Store) SerializeStore() *codec.Element {
	root := codec.NewElement(DocumentElement).Set("version", DocumentVersion)
	for _, fc := range s.FlowCharts() {
		root.Add(s.serializeFlowChart(fc))
	}
	return root
}

// SerializeEntity writes one entity. Flow charts and nodes include what they
// contain; connectors are written with their endpoint IDs.
func (s *Store) SerializeEntity(id domain.ID) (*codec.Element, error) {
	e, ok := s.Find(id)
	if !ok {
		return nil, fmt.Errorf("serialize %s: %w", id, domain.ErrNotFound)
	}
	return s.serialize(e), nil
}

func (s *Store) serialize(e domain.Entity) *codec.Element {
	switch v := e.(type) {
	case *domain.FlowChart:
		return s.serializeFlowChart(v)
	case *domain.Node:
		return s.serializeNode(v)
	case *domain.Port:
		return s.serializePort(v)
	case *domain.Connector:
		return serializeConnector(v)
	}
	panic(fmt.Sprintf("graph: cannot serialize %T", e))
}

func (s *Store) serializeFlowChart(fc *domain.FlowChart) *codec.Element {
	el := codec.NewElement(elFlowChart).
		Set("id", fc.ID.String()).
		Set("type", fc.Type)
	el.Add(codec.NewElement(elView).
		SetFloat("scale", fc.View.Scale).
		SetFloat("offset-x", fc.View.OffsetX).
		SetFloat("offset-y", fc.View.OffsetY))

	nodes := codec.NewElement(elNodes)
	for _, id := range fc.Nodes {
		nodes.Add(s.serializeNode(s.nodes[id]))
	}
	connectors := codec.NewElement(elConnectors)
	for _, id := range fc.Connectors {
		if s.connecting != nil && s.connecting.connector == id {
			continue
		}
		connectors.Add(serializeConnector(s.connectors[id]))
	}
	return el.Add(nodes, connectors)
}

func (s *Store) serializeNode(n *domain.Node) *codec.Element {
	el := codec.NewElement(elNode).
		Set("id", n.ID.String()).
		Set("type", n.Type).
		Set("owner", n.Owner.String()).
		SetFloat("x", n.X).
		SetFloat("y", n.Y).
		SetFloat("width", n.Width).
		SetFloat("height", n.Height).
		SetInt("z-index", n.ZIndex).
		Set("header", n.Header).
		Set("header-background", n.HeaderBackgroundColor).
		Set("header-font", n.HeaderFontColor).
		SetBool("allow-circular", n.AllowCircularConnection).
		SetBool("selected", n.IsSelected)
	for _, id := range n.AllPorts() {
		if p, ok := s.FindPort(id); ok {
			el.Add(s.serializePort(p))
		}
	}
	return el
}

func (s *Store) serializePort(p *domain.Port) *codec.Element {
	name := elFlowPort
	if p.Kind == domain.PropertyPortKind {
		name = elPropertyPort
	}
	el := codec.NewElement(name).
		Set("id", p.ID.String()).
		Set("type", p.Type).
		Set("owner", p.Owner.String()).
		Set("name", p.Name).
		Set("display-name", p.DisplayName).
		Set("direction", p.Direction.String()).
		SetBool("allow-multiple-input", p.AllowMultipleInput).
		SetBool("allow-multiple-output", p.AllowMultipleOutput).
		SetBool("port-enabled", p.IsPortEnabled).
		SetBool("enabled", p.IsEnabled)
	if n, ok := s.nodes[p.Owner]; ok {
		el.SetInt("index", n.PortIndex(p.ID))
	}
	if p.Kind == domain.PropertyPortKind {
		el.Set("value-type", string(p.ValueType))
		if v, err := codec.EncodeValue(p.ValueType, p.Value); err == nil {
			el.Set("value", v)
		} else {
			s.logger.Warn("property value not serialized", "port", p.ID, "error", err)
		}
	}
	return el
}

func serializeConnector(c *domain.Connector) *codec.Element {
	el := codec.NewElement(elConnector).
		Set("id", c.ID.String()).
		Set("type", c.Type).
		Set("owner", c.Owner.String())
	if c.StartPort != domain.NilID {
		el.Set("start-port", c.StartPort.String())
	}
	if c.EndPort != domain.NilID {
		el.Set("end-port", c.EndPort.String())
	}
	return el
}

// Load builds a new store from a document root.
func Load(root *codec.Element, opts ...Option) (*Store, error) {
	s := New(opts...)
	if err := s.DeserializeStore(root); err != nil {
		return nil, err
	}
	return s, nil
}

// DeserializeStore adds every flow chart of a document to the store. The
// load is atomic: on error nothing from the document remains and no
// notifications have fired.
func (s *Store) DeserializeStore(root *codec.Element) error {
	if root == nil || root.Name != DocumentElement {
		return fmt.Errorf("load: root element is not %s: %w", DocumentElement, domain.ErrCorruptDocument)
	}
	if v, ok := root.Attr("version"); ok && v != DocumentVersion {
		return fmt.Errorf("load: unsupported version %q: %w", v, domain.ErrCorruptDocument)
	}
	return s.deserialize(func() error {
		for _, el := range root.Children {
			if el.Name != elFlowChart {
				return fmt.Errorf("unexpected element %s", el.Name)
			}
			if _, err := s.loadFlowChart(el); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeserializeEntity restores one serialized entity, including what it
// contains. The owner named by the element must already exist.
func (s *Store) DeserializeEntity(el *codec.Element) (domain.Entity, error) {
	if el == nil {
		return nil, fmt.Errorf("deserialize: nil element: %w", domain.ErrInvalidArgument)
	}
	var build func() (domain.Entity, error)
	switch el.Name {
	case elFlowChart:
		build = func() (domain.Entity, error) { return s.loadFlowChart(el) }
	case elNode:
		owner, err := s.existingOwner(el, s.hasFlowChart)
		if err != nil {
			return nil, err
		}
		build = func() (domain.Entity, error) { return s.loadNode(el, owner) }
	case elFlowPort, elPropertyPort:
		owner, err := s.existingOwner(el, s.hasNode)
		if err != nil {
			return nil, err
		}
		build = func() (domain.Entity, error) { return s.loadPort(el, s.nodes[owner]) }
	case elConnector:
		owner, err := s.existingOwner(el, s.hasFlowChart)
		if err != nil {
			return nil, err
		}
		build = func() (domain.Entity, error) { return s.loadConnector(el, owner) }
	default:
		return nil, fmt.Errorf("deserialize: unknown element %s: %w", el.Name, domain.ErrCorruptDocument)
	}

	var e domain.Entity
	err := s.deserialize(func() error {
		var err error
		e, err = build()
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) hasFlowChart(id domain.ID) bool {
	_, ok := s.flowCharts[id]
	return ok
}

func (s *Store) hasNode(id domain.ID) bool {
	_, ok := s.nodes[id]
	return ok
}

func (s *Store) existingOwner(el *codec.Element, exists func(domain.ID) bool) (domain.ID, error) {
	raw, ok := el.Attr("owner")
	if !ok {
		return domain.NilID, fmt.Errorf("deserialize %s: missing owner: %w", el.Name, domain.ErrInvalidArgument)
	}
	id, err := domain.ParseID(raw)
	if err != nil || !exists(id) {
		return domain.NilID, fmt.Errorf("deserialize %s: owner %q: %w", el.Name, raw, domain.ErrInvalidArgument)
	}
	return id, nil
}

// deserialize runs build with a loader installed, resolves connector
// endpoints and selection, then fires post-load notifications. Any failure
// removes everything build created without notifying.
func (s *Store) deserialize(build func() error) error {
	if s.loading != nil {
		return fmt.Errorf("deserialize: load already in progress: %w", domain.ErrInvalidOperation)
	}
	l := &loader{}
	s.loading = l

	err := build()
	if err == nil {
		err = s.resolve(l)
	}
	s.loading = nil

	if err != nil {
		s.rollback(l)
		if errors.Is(err, domain.ErrCorruptDocument) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrCorruptDocument, err)
	}

	changed := make(map[domain.ID]bool)
	for _, n := range l.selected {
		s.selections[n.Owner] = append(s.selections[n.Owner], n.ID)
		changed[n.Owner] = true
	}
	for _, e := range l.created {
		s.listener.OnPostLoad(e)
	}
	for _, fc := range s.order {
		if changed[fc] {
			s.listener.OnSelectionChanged(fc, s.Selection(fc))
		}
	}
	s.logger.Debug("deserialized", "entities", len(l.created))
	return nil
}

// resolve attaches connector endpoints once every port exists.
func (s *Store) resolve(l *loader) error {
	for _, pc := range l.connectors {
		c := pc.connector
		var kinds []domain.PortKind
		for _, end := range []struct {
			id  domain.ID
			dir domain.Direction
		}{{pc.start, domain.Output}, {pc.end, domain.Input}} {
			if end.id == domain.NilID {
				continue
			}
			port, ok := s.FindPort(end.id)
			if !ok {
				return fmt.Errorf("connector %s: unknown port %s", c.ID, end.id)
			}
			if port.Direction != end.dir {
				return fmt.Errorf("connector %s: port %s is an %s", c.ID, port.ID, port.Direction)
			}
			if s.ownerFlowChart(port) != c.Owner {
				return fmt.Errorf("connector %s: port %s belongs to another flow chart", c.ID, port.ID)
			}
			kinds = append(kinds, port.Kind)
			s.attach(port, c)
		}
		if len(kinds) == 2 && kinds[0] != kinds[1] {
			return fmt.Errorf("connector %s: %s", c.ID, ReasonKindMismatch)
		}
	}
	for _, pc := range l.connectors {
		if err := s.checkLoaded(pc.connector); err != nil {
			return err
		}
	}
	for _, n := range l.selected {
		n.IsSelected = true
	}
	return nil
}

// checkLoaded applies the connection rules to a connector read from a
// document once every connector is attached. Cycles are not rechecked: the
// circular rule depends on the order connectors were made in.
func (s *Store) checkLoaded(c *domain.Connector) error {
	for _, id := range []domain.ID{c.StartPort, c.EndPort} {
		if p, ok := s.FindPort(id); ok && !p.AllowsMultiple() && len(p.Connectors) > 1 {
			return fmt.Errorf("connector %s: port %s holds %d connectors", c.ID, p.ID, len(p.Connectors))
		}
	}
	out, ok := s.FindPort(c.StartPort)
	if !ok {
		return nil
	}
	in, ok := s.FindPort(c.EndPort)
	if !ok {
		return nil
	}

	if out.Owner == in.Owner {
		return fmt.Errorf("connector %s: %s", c.ID, ReasonSameNode)
	}
	for _, id := range out.Connectors {
		if id != c.ID && s.connectors[id].IsConnectedPort(in.ID) {
			return fmt.Errorf("connector %s: %s", c.ID, ReasonAlreadyConnected)
		}
	}
	if out.Kind == domain.PropertyPortKind && !in.ValueType.AssignableFrom(out.ValueType) {
		return fmt.Errorf("connector %s: %s", c.ID, ReasonValueType)
	}
	return nil
}

// rollback removes loaded entities in reverse creation order without
// notifying listeners.
func (s *Store) rollback(l *loader) {
	for _, n := range l.selected {
		n.IsSelected = false
	}
	for _, e := range slices.Backward(l.created) {
		switch v := e.(type) {
		case *domain.Connector:
			for _, id := range []domain.ID{v.StartPort, v.EndPort} {
				if p, ok := s.FindPort(id); ok {
					p.DetachConnector(v.ID)
				}
			}
			if fc, ok := s.flowCharts[v.Owner]; ok {
				fc.RemoveConnector(v.ID)
			}
		case *domain.Port:
			if n, ok := s.nodes[v.Owner]; ok {
				n.RemovePort(v.ID)
			}
		case *domain.Node:
			if fc, ok := s.flowCharts[v.Owner]; ok {
				fc.RemoveNode(v.ID)
			}
		case *domain.FlowChart:
			delete(s.histories, v.ID)
			delete(s.selections, v.ID)
		}
		s.unregister(e)
	}
}

func (s *Store) loadFlowChart(el *codec.Element) (*domain.FlowChart, error) {
	r := attrReader{el: el}
	id := r.id("id", true)
	chartType := r.str("type")
	view := domain.IdentityView
	if v := el.Child(elView); v != nil {
		vr := attrReader{el: v}
		view = domain.ViewTransform{
			Scale:   vr.float("scale", 1),
			OffsetX: vr.float("offset-x", 0),
			OffsetY: vr.float("offset-y", 0),
		}
		if vr.err != nil {
			return nil, vr.err
		}
		if view.Scale <= 0 {
			return nil, fmt.Errorf("flowchart %s: scale %v must be positive", id, view.Scale)
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	fc, err := s.CreateFlowChart(FlowChartParams{ID: id, Type: chartType, Deserializing: true})
	if err != nil {
		return nil, err
	}
	fc.View = view

	if nodes := el.Child(elNodes); nodes != nil {
		for _, n := range nodes.Children {
			if n.Name != elNode {
				return nil, fmt.Errorf("flowchart %s: unexpected element %s", id, n.Name)
			}
			if _, err := s.loadNode(n, fc.ID); err != nil {
				return nil, err
			}
		}
	}
	if connectors := el.Child(elConnectors); connectors != nil {
		for _, c := range connectors.Children {
			if c.Name != elConnector {
				return nil, fmt.Errorf("flowchart %s: unexpected element %s", id, c.Name)
			}
			if _, err := s.loadConnector(c, fc.ID); err != nil {
				return nil, err
			}
		}
	}
	return fc, nil
}

func (s *Store) loadNode(el *codec.Element, owner domain.ID) (*domain.Node, error) {
	r := attrReader{el: el}
	id := r.id("id", true)
	r.owner(owner)
	p := NodeParams{
		ID:            id,
		Type:          r.str("type"),
		X:             r.float("x", 0),
		Y:             r.float("y", 0),
		ZIndex:        r.int("z-index", 0),
		Deserializing: true,
	}
	width := r.float("width", domain.DefaultNodeWidth)
	height := r.float("height", domain.DefaultNodeHeight)
	selected := r.bool("selected", false)
	if r.err != nil {
		return nil, r.err
	}

	node, err := s.CreateNode(owner, p)
	if err != nil {
		return nil, err
	}
	node.Width, node.Height = width, height
	node.Header = el.AttrOr("header", node.Header)
	node.HeaderBackgroundColor = el.AttrOr("header-background", node.HeaderBackgroundColor)
	node.HeaderFontColor = el.AttrOr("header-font", node.HeaderFontColor)
	node.AllowCircularConnection = r.bool("allow-circular", node.AllowCircularConnection)
	if r.err != nil {
		return nil, r.err
	}
	if selected {
		s.loading.selected = append(s.loading.selected, node)
	}

	for _, child := range el.Children {
		switch child.Name {
		case elFlowPort, elPropertyPort:
			if _, err := s.loadPort(child, node); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("node %s: unexpected element %s", id, child.Name)
		}
	}
	return node, nil
}

func (s *Store) loadPort(el *codec.Element, node *domain.Node) (*domain.Port, error) {
	r := attrReader{el: el}
	spec := PortSpec{
		ID:                  r.id("id", true),
		Kind:                domain.FlowPortKind,
		Type:                r.str("type"),
		Name:                r.str("name"),
		DisplayName:         r.str("display-name"),
		Direction:           r.direction("direction"),
		AllowMultipleInput:  r.bool("allow-multiple-input", false),
		AllowMultipleOutput: r.bool("allow-multiple-output", false),
		IsPortEnabled:       r.bool("port-enabled", true),
		IsEnabled:           r.bool("enabled", true),
	}
	r.owner(node.ID)
	index := r.int("index", -1)
	if el.Name == elPropertyPort {
		spec.Kind = domain.PropertyPortKind
		spec.ValueType = r.valueType("value-type")
		if raw, ok := el.Attr("value"); ok && r.err == nil {
			v, err := codec.DecodeValue(spec.ValueType, raw)
			if err != nil {
				return nil, fmt.Errorf("port %s: %w", spec.ID, err)
			}
			spec.DefaultValue = v
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	port, err := s.createPort(node, spec, true, false)
	if err != nil {
		return nil, err
	}
	if index >= 0 {
		node.RemovePort(port.ID)
		node.InsertPort(port.Kind, port.Direction, port.ID, index)
	}
	return port, nil
}

func (s *Store) loadConnector(el *codec.Element, owner domain.ID) (*domain.Connector, error) {
	r := attrReader{el: el}
	p := ConnectorParams{ID: r.id("id", true), Type: r.str("type")}
	r.owner(owner)
	start := r.id("start-port", false)
	end := r.id("end-port", false)
	if r.err != nil {
		return nil, r.err
	}

	c, err := s.createConnector(owner, p, true)
	if err != nil {
		return nil, err
	}
	s.loading.connectors = append(s.loading.connectors, pendingConnector{connector: c, start: start, end: end})
	return c, nil
}

// attrReader parses typed attributes and keeps the first error.
type attrReader struct {
	el  *codec.Element
	err error
}

func (r *attrReader) fail(name, raw string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s attribute %s=%q: %w", r.el.Name, name, raw, err)
	}
}

func (r *attrReader) str(name string) string {
	return r.el.AttrOr(name, "")
}

func (r *attrReader) id(name string, required bool) domain.ID {
	raw, ok := r.el.Attr(name)
	if !ok || raw == "" {
		if required {
			r.fail(name, raw, errors.New("missing"))
		}
		return domain.NilID
	}
	id, err := domain.ParseID(raw)
	if err != nil {
		r.fail(name, raw, err)
		return domain.NilID
	}
	return id
}

// owner checks an optional owner attribute against the enclosing entity.
func (r *attrReader) owner(want domain.ID) {
	if id := r.id("owner", false); id != domain.NilID && id != want {
		r.fail("owner", id.String(), fmt.Errorf("expected %s", want))
	}
}

func (r *attrReader) float(name string, def float64) float64 {
	raw, ok := r.el.Attr(name)
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		r.fail(name, raw, err)
		return def
	}
	return v
}

func (r *attrReader) int(name string, def int) int {
	raw, ok := r.el.Attr(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(name, raw, err)
		return def
	}
	return v
}

func (r *attrReader) bool(name string, def bool) bool {
	raw, ok := r.el.Attr(name)
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(name, raw, err)
		return def
	}
	return v
}

func (r *attrReader) direction(name string) domain.Direction {
	raw := r.el.AttrOr(name, "")
	d, err := domain.ParseDirection(raw)
	if err != nil {
		r.fail(name, raw, err)
	}
	return d
}

func (r *attrReader) valueType(name string) domain.ValueType {
	raw := r.el.AttrOr(name, string(domain.ValueAny))
	vt, err := domain.ParseValueType(raw)
	if err != nil {
		r.fail(name, raw, err)
		return domain.ValueAny
	}
	return vt
}
