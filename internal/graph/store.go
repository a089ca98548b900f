package graph

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"nodegraph/internal/domain"
	"nodegraph/internal/history"
)

// SelectionMode decides how a rubber band selects nodes.
type SelectionMode string

const (
	// SelectionOverlap selects nodes touching the band.
	SelectionOverlap SelectionMode = "overlap"
	// SelectionInclude selects nodes entirely inside the band.
	SelectionInclude SelectionMode = "include"
)

// ParseSelectionMode converts a config value into a SelectionMode.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch SelectionMode(s) {
	case SelectionOverlap, "":
		return SelectionOverlap, nil
	case SelectionInclude:
		return SelectionInclude, nil
	}
	return "", fmt.Errorf("unknown selection mode %q: %w", s, domain.ErrInvalidArgument)
}

// Store holds every entity of one or more flow charts.
type Store struct {
	logger          *slog.Logger
	listener        Listeners
	newID           func() domain.ID
	historyCapacity int
	selectionMode   SelectionMode

	flowCharts    map[domain.ID]*domain.FlowChart
	order         []domain.ID
	nodes         map[domain.ID]*domain.Node
	flowPorts     map[domain.ID]*domain.Port
	propertyPorts map[domain.ID]*domain.Port
	connectors    map[domain.ID]*domain.Connector
	descriptors   map[string]Descriptor

	histories  map[domain.ID]*history.History
	selections map[domain.ID][]domain.ID

	connecting *connectSession
	selecting  *selectSession
	dragging   *dragSession

	// loading is set while a document is being deserialized.
	loading *loader
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Stores log at debug level only.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithListener adds a listener for lifecycle and change notifications.
func WithListener(l Listener) Option {
	return func(s *Store) {
		if l != nil {
			s.listener = append(s.listener, l)
		}
	}
}

// WithIDGenerator replaces the random ID generator.
func WithIDGenerator(gen func() domain.ID) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithHistoryCapacity sets the number of undo slots for each new flow chart.
func WithHistoryCapacity(n int) Option {
	return func(s *Store) {
		s.historyCapacity = max(0, n)
	}
}

// WithSelectionMode sets the rubber band hit test.
func WithSelectionMode(mode SelectionMode) Option {
	return func(s *Store) {
		s.selectionMode = mode
	}
}

// New creates an empty store with the built-in node descriptors registered.
func New(opts ...Option) *Store {
	s := &Store{
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		newID:           domain.NewID,
		historyCapacity: history.DefaultCapacity,
		selectionMode:   SelectionOverlap,
		flowCharts:      make(map[domain.ID]*domain.FlowChart),
		nodes:           make(map[domain.ID]*domain.Node),
		flowPorts:       make(map[domain.ID]*domain.Port),
		propertyPorts:   make(map[domain.ID]*domain.Port),
		connectors:      make(map[domain.ID]*domain.Connector),
		descriptors:     make(map[string]Descriptor),
		histories:       make(map[domain.ID]*history.History),
		selections:      make(map[domain.ID][]domain.ID),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, d := range builtinDescriptors {
		s.descriptors[d.Type] = d
	}
	return s
}

// Counts reports the number of registered entities per kind.
type Counts struct {
	FlowCharts    int `json:"flowcharts"`
	Nodes         int `json:"nodes"`
	FlowPorts     int `json:"flow_ports"`
	PropertyPorts int `json:"property_ports"`
	Connectors    int `json:"connectors"`
}

// Counts returns the registry sizes.
func (s *Store) Counts() Counts {
	return Counts{
		FlowCharts:    len(s.flowCharts),
		Nodes:         len(s.nodes),
		FlowPorts:     len(s.flowPorts),
		PropertyPorts: len(s.propertyPorts),
		Connectors:    len(s.connectors),
	}
}

func (s *Store) idOrNew(id domain.ID) domain.ID {
	if id == domain.NilID {
		return s.newID()
	}
	return id
}

// register adds an entity to the registry for its kind.
func (s *Store) register(e domain.Entity) error {
	id := e.EntityID()
	if id == domain.NilID {
		return fmt.Errorf("register %s: nil id: %w", e.EntityKind(), domain.ErrInvalidArgument)
	}
	if _, exists := s.findKind(e.EntityKind(), id); exists {
		return fmt.Errorf("register %s %s: %w", e.EntityKind(), id, domain.ErrDuplicateID)
	}

	switch v := e.(type) {
	case *domain.FlowChart:
		s.flowCharts[id] = v
		s.order = append(s.order, id)
	case *domain.Node:
		s.nodes[id] = v
	case *domain.Port:
		if v.Kind == domain.PropertyPortKind {
			s.propertyPorts[id] = v
		} else {
			s.flowPorts[id] = v
		}
	case *domain.Connector:
		s.connectors[id] = v
	default:
		panic(fmt.Sprintf("graph: cannot register %T", e))
	}
	if s.loading != nil {
		s.loading.created = append(s.loading.created, e)
	}
	return nil
}

// unregister drops an entity from its registry.
func (s *Store) unregister(e domain.Entity) {
	id := e.EntityID()
	switch e.EntityKind() {
	case domain.KindFlowChart:
		delete(s.flowCharts, id)
		if i := slices.Index(s.order, id); i >= 0 {
			s.order = slices.Delete(s.order, i, i+1)
		}
	case domain.KindNode:
		delete(s.nodes, id)
	case domain.KindFlowPort:
		delete(s.flowPorts, id)
	case domain.KindPropertyPort:
		delete(s.propertyPorts, id)
	case domain.KindConnector:
		delete(s.connectors, id)
	}
}

func (s *Store) findKind(kind domain.EntityKind, id domain.ID) (domain.Entity, bool) {
	var e domain.Entity
	var ok bool
	switch kind {
	case domain.KindFlowChart:
		e, ok = s.flowCharts[id]
	case domain.KindNode:
		e, ok = s.nodes[id]
	case domain.KindFlowPort:
		e, ok = s.flowPorts[id]
	case domain.KindPropertyPort:
		e, ok = s.propertyPorts[id]
	case domain.KindConnector:
		e, ok = s.connectors[id]
	}
	return e, ok
}

// Find looks an ID up in every registry.
func (s *Store) Find(id domain.ID) (domain.Entity, bool) {
	for _, kind := range []domain.EntityKind{
		domain.KindFlowChart, domain.KindNode, domain.KindFlowPort, domain.KindPropertyPort, domain.KindConnector,
	} {
		if e, ok := s.findKind(kind, id); ok {
			return e, true
		}
	}
	return nil, false
}

// FindFlowChart returns a flow chart by ID.
func (s *Store) FindFlowChart(id domain.ID) (*domain.FlowChart, bool) {
	fc, ok := s.flowCharts[id]
	return fc, ok
}

// FindNode returns a node by ID.
func (s *Store) FindNode(id domain.ID) (*domain.Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// FindFlowPort returns a flow port by ID.
func (s *Store) FindFlowPort(id domain.ID) (*domain.Port, bool) {
	p, ok := s.flowPorts[id]
	return p, ok
}

// FindPropertyPort returns a property port by ID.
func (s *Store) FindPropertyPort(id domain.ID) (*domain.Port, bool) {
	p, ok := s.propertyPorts[id]
	return p, ok
}

// FindPort returns a port of either kind.
func (s *Store) FindPort(id domain.ID) (*domain.Port, bool) {
	if p, ok := s.flowPorts[id]; ok {
		return p, true
	}
	p, ok := s.propertyPorts[id]
	return p, ok
}

// FindConnector returns a connector by ID.
func (s *Store) FindConnector(id domain.ID) (*domain.Connector, bool) {
	c, ok := s.connectors[id]
	return c, ok
}

// FlowCharts returns every flow chart in creation order.
func (s *Store) FlowCharts() []*domain.FlowChart {
	out := make([]*domain.FlowChart, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.flowCharts[id])
	}
	return out
}

// FindNodesByHeader returns the nodes of a flow chart with the given header.
func (s *Store) FindNodesByHeader(flowChart domain.ID, header string) []*domain.Node {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return nil
	}
	var out []*domain.Node
	for _, id := range fc.Nodes {
		if n := s.nodes[id]; n.Header == header {
			out = append(out, n)
		}
	}
	return out
}

// FindFlowPortByName returns a node's flow port by name.
func (s *Store) FindFlowPortByName(node domain.ID, name string) (*domain.Port, bool) {
	return s.findPortByName(node, domain.FlowPortKind, name)
}

// FindPropertyPortByName returns a node's property port by name.
func (s *Store) FindPropertyPortByName(node domain.ID, name string) (*domain.Port, bool) {
	return s.findPortByName(node, domain.PropertyPortKind, name)
}

func (s *Store) findPortByName(node domain.ID, kind domain.PortKind, name string) (*domain.Port, bool) {
	n, ok := s.nodes[node]
	if !ok {
		return nil, false
	}
	for _, dir := range []domain.Direction{domain.Input, domain.Output} {
		for _, id := range n.Ports(kind, dir) {
			if p, _ := s.FindPort(id); p.Name == name {
				return p, true
			}
		}
	}
	return nil, false
}

// ownerFlowChart returns the flow chart an entity belongs to.
func (s *Store) ownerFlowChart(e domain.Entity) domain.ID {
	switch v := e.(type) {
	case *domain.FlowChart:
		return v.ID
	case *domain.Node:
		return v.Owner
	case *domain.Port:
		if n, ok := s.nodes[v.Owner]; ok {
			return n.Owner
		}
	case *domain.Connector:
		return v.Owner
	}
	return domain.NilID
}

// History returns the undo log of a flow chart.
func (s *Store) History(flowChart domain.ID) (*history.History, bool) {
	h, ok := s.histories[flowChart]
	return h, ok
}

// BeginTransaction opens a named transaction on a flow chart. Operations
// performed until EndTransaction are undone together.
func (s *Store) BeginTransaction(flowChart domain.ID, name string) error {
	h, ok := s.histories[flowChart]
	if !ok {
		return fmt.Errorf("begin transaction: flowchart %s: %w", flowChart, domain.ErrNotFound)
	}
	h.BeginTransaction(name)
	return nil
}

// EndTransaction commits or cancels the open transaction of a flow chart.
// Cancelling discards the record only; it does not revert state.
func (s *Store) EndTransaction(flowChart domain.ID, cancel bool) error {
	h, ok := s.histories[flowChart]
	if !ok {
		return fmt.Errorf("end transaction: flowchart %s: %w", flowChart, domain.ErrNotFound)
	}
	h.EndTransaction(cancel)
	return nil
}

// Undo reverts the last transaction of a flow chart.
func (s *Store) Undo(flowChart domain.ID) error {
	h, ok := s.histories[flowChart]
	if !ok {
		return fmt.Errorf("undo: flowchart %s: %w", flowChart, domain.ErrNotFound)
	}
	return h.Undo()
}

// Redo reapplies the next undone transaction of a flow chart.
func (s *Store) Redo(flowChart domain.ID) error {
	h, ok := s.histories[flowChart]
	if !ok {
		return fmt.Errorf("redo: flowchart %s: %w", flowChart, domain.ErrNotFound)
	}
	return h.Redo()
}

// autoTx opens a transaction named after the operation unless the caller
// already opened one. The returned func commits it.
func (s *Store) autoTx(flowChart domain.ID, name string) func() {
	finish := s.autoTxCancel(flowChart, name)
	return func() { finish(false) }
}

// autoTxCancel is autoTx for operations that can fail partway. Passing true
// to the returned func discards the transaction it opened.
func (s *Store) autoTxCancel(flowChart domain.ID, name string) func(cancel bool) {
	h := s.histories[flowChart]
	if h == nil || h.IsReplaying() || h.InTransaction() || s.loading != nil {
		return func(bool) {}
	}
	h.BeginTransaction(name)
	return func(cancel bool) { h.EndTransaction(cancel) }
}

// recorder returns the history commands for a flow chart should be added to,
// or nil when nothing is being recorded.
func (s *Store) recorder(flowChart domain.ID) *history.History {
	h := s.histories[flowChart]
	if h == nil || h.IsReplaying() || !h.InTransaction() || s.loading != nil {
		return nil
	}
	return h
}
