package graph

import (
	"fmt"
	"slices"

	"nodegraph/internal/domain"
	"nodegraph/internal/history"
)

// FlowChartParams are the creation fields of a flow chart.
type FlowChartParams struct {
	ID   domain.ID
	Type string
	// Deserializing suppresses the creation hook.
	Deserializing bool
}

// NodeParams are the creation fields of a node. Header and colours default
// to the node type's descriptor.
type NodeParams struct {
	ID     domain.ID
	Type   string
	X, Y   float64
	ZIndex int
	Header string
	// Deserializing skips descriptor ports and the creation hook, and the
	// node is not recorded in history. Ports are expected to be created
	// explicitly.
	Deserializing bool
}

// ConnectorParams are the creation fields of a connector.
type ConnectorParams struct {
	ID   domain.ID
	Type string
}

// CreateFlowChart registers a new flow chart with its own history and an
// empty selection.
func (s *Store) CreateFlowChart(p FlowChartParams) (*domain.FlowChart, error) {
	fc := domain.NewFlowChart(s.idOrNew(p.ID), p.Type)
	if err := s.register(fc); err != nil {
		return nil, fmt.Errorf("create flowchart: %w", err)
	}
	s.histories[fc.ID] = history.New(s.historyCapacity,
		history.WithLogger(s.logger.With("flowchart", fc.ID.String())))
	s.selections[fc.ID] = []domain.ID{}

	if !p.Deserializing {
		s.listener.OnCreate(fc)
	}
	s.logger.Debug("flowchart created", "id", fc.ID)
	return fc, nil
}

// DestroyFlowChart destroys every node of a flow chart, then any connector
// left without endpoints, then the flow chart itself with its history and
// selection. Unknown IDs are ignored.
func (s *Store) DestroyFlowChart(id domain.ID) {
	fc, ok := s.flowCharts[id]
	if !ok {
		return
	}
	s.cancelSessionsIn(id)
	s.listener.OnPreDestroy(fc)

	for _, nodeID := range slices.Clone(fc.Nodes) {
		s.destroyNode(nodeID, false)
	}
	for _, connID := range slices.Clone(fc.Connectors) {
		if c := s.connectors[connID]; !s.hasLiveEndpoint(c) {
			s.destroyConnector(connID, false)
		}
	}
	if len(fc.Connectors) > 0 {
		panic(fmt.Sprintf("graph: flowchart %s still has %d connectors after destroying its nodes", id, len(fc.Connectors)))
	}

	delete(s.selections, id)
	delete(s.histories, id)
	s.listener.OnPostDestroy(fc)
	s.unregister(fc)
	s.logger.Debug("flowchart destroyed", "id", id)
}

func (s *Store) hasLiveEndpoint(c *domain.Connector) bool {
	for _, id := range []domain.ID{c.StartPort, c.EndPort} {
		if _, ok := s.FindPort(id); ok {
			return true
		}
	}
	return false
}

// CreateNode creates a node in a flow chart and, unless deserializing, the
// ports declared by its type's descriptor.
func (s *Store) CreateNode(flowChart domain.ID, p NodeParams) (*domain.Node, error) {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return nil, fmt.Errorf("create node: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	desc, ok := s.descriptors[p.Type]
	if !ok && !p.Deserializing {
		return nil, fmt.Errorf("create node: unknown node type %q: %w", p.Type, domain.ErrInvalidArgument)
	}

	node := domain.NewNode(s.idOrNew(p.ID), p.Type, fc.ID, p.X, p.Y)
	node.ZIndex = p.ZIndex
	node.Header = desc.Header
	if p.Header != "" {
		node.Header = p.Header
	}
	node.HeaderBackgroundColor = desc.HeaderBackgroundColor
	node.HeaderFontColor = desc.HeaderFontColor
	node.AllowCircularConnection = desc.AllowCircularConnection

	if err := s.register(node); err != nil {
		return nil, fmt.Errorf("create node: %w", err)
	}
	fc.Nodes = append(fc.Nodes, node.ID)
	if p.Deserializing {
		return node, nil
	}

	done := s.autoTx(fc.ID, "Create node")
	defer done()

	for _, spec := range desc.Ports {
		spec.ID = domain.NilID
		if _, err := s.createPort(node, spec, false, false); err != nil {
			s.destroyNode(node.ID, false)
			return nil, fmt.Errorf("create node %q: %w", p.Type, err)
		}
	}

	s.listener.OnCreate(node)
	if h := s.recorder(fc.ID); h != nil {
		h.AddCommand(s.newCreateCommand("Create node", node))
	}
	s.logger.Debug("node created", "id", node.ID, "type", node.Type, "flowchart", fc.ID)
	return node, nil
}

// DestroyNode destroys a node, every connector attached to its ports and the
// ports themselves. Unknown IDs are ignored.
func (s *Store) DestroyNode(id domain.ID) {
	s.destroyNode(id, true)
}

func (s *Store) destroyNode(id domain.ID, record bool) {
	node, ok := s.nodes[id]
	if !ok {
		return
	}
	fcID := node.Owner
	if record {
		done := s.autoTx(fcID, "Destroy node")
		defer done()
	}

	s.listener.OnPreDestroy(node)

	var connectors []domain.ID
	for _, portID := range node.AllPorts() {
		if port, ok := s.FindPort(portID); ok {
			for _, c := range port.Connectors {
				if !slices.Contains(connectors, c) {
					connectors = append(connectors, c)
				}
			}
		}
	}
	for _, c := range connectors {
		s.destroyConnector(c, record)
	}

	var cmd history.Command
	if h := s.recorderIf(record, fcID); h != nil {
		cmd = s.newDestroyCommand("Destroy node", node)
	}

	for _, portID := range slices.Clone(node.AllPorts()) {
		s.destroyPort(portID, false)
	}

	if fc, ok := s.flowCharts[fcID]; ok {
		fc.RemoveNode(id)
	}
	s.removeSelection(fcID, node)
	if s.dragging != nil {
		s.dragging.forget(id)
	}

	s.listener.OnPostDestroy(node)
	if cmd != nil {
		s.recorder(fcID).AddCommand(cmd)
	}
	s.unregister(node)
	s.logger.Debug("node destroyed", "id", id)
}

func (s *Store) recorderIf(record bool, flowChart domain.ID) *history.History {
	if !record {
		return nil
	}
	return s.recorder(flowChart)
}

// CreateFlowPort adds a flow port to a node. The PortSpec Kind is ignored.
func (s *Store) CreateFlowPort(node domain.ID, spec PortSpec) (*domain.Port, error) {
	spec.Kind = domain.FlowPortKind
	return s.createPortOn(node, spec)
}

// CreatePropertyPort adds a property port to a node. The default value must
// match the port's value type.
func (s *Store) CreatePropertyPort(node domain.ID, spec PortSpec) (*domain.Port, error) {
	spec.Kind = domain.PropertyPortKind
	return s.createPortOn(node, spec)
}

func (s *Store) createPortOn(nodeID domain.ID, spec PortSpec) (*domain.Port, error) {
	node, ok := s.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("create %s: node %s: %w", spec.Kind, nodeID, domain.ErrInvalidArgument)
	}
	done := s.autoTx(node.Owner, "Create port")
	defer done()
	return s.createPort(node, spec, false, true)
}

// createPort registers a port and appends it to its node.
func (s *Store) createPort(node *domain.Node, spec PortSpec, deserializing, record bool) (*domain.Port, error) {
	port := &domain.Port{
		ID:                  s.idOrNew(spec.ID),
		Kind:                spec.Kind,
		Type:                spec.Type,
		Owner:               node.ID,
		Name:                spec.Name,
		DisplayName:         spec.DisplayName,
		Direction:           spec.Direction,
		AllowMultipleInput:  spec.AllowMultipleInput,
		AllowMultipleOutput: spec.AllowMultipleOutput,
		IsPortEnabled:       spec.IsPortEnabled,
		IsEnabled:           spec.IsEnabled,
		Connectors:          []domain.ID{},
	}
	if spec.Kind == domain.PropertyPortKind {
		port.ValueType = valueTypeOrAny(spec.ValueType)
		v, err := port.ValueType.Check(spec.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("create %s %q: %w", spec.Kind, spec.Name, err)
		}
		port.Value = v
	}

	if err := s.register(port); err != nil {
		return nil, fmt.Errorf("create %s: %w", spec.Kind, err)
	}
	node.AddPort(port.Kind, port.Direction, port.ID)

	if !deserializing {
		s.listener.OnCreate(port)
	}
	if h := s.recorderIf(record, node.Owner); h != nil {
		h.AddCommand(s.newCreateCommand("Create port", port))
	}
	return port, nil
}

// DestroyFlowPort destroys a flow port and its connectors. Unknown IDs and
// property port IDs are ignored.
func (s *Store) DestroyFlowPort(id domain.ID) {
	if _, ok := s.flowPorts[id]; ok {
		s.DestroyPort(id)
	}
}

// DestroyPropertyPort destroys a property port and its connectors. Unknown
// IDs and flow port IDs are ignored.
func (s *Store) DestroyPropertyPort(id domain.ID) {
	if _, ok := s.propertyPorts[id]; ok {
		s.DestroyPort(id)
	}
}

// DestroyPort destroys a port of either kind and its connectors.
func (s *Store) DestroyPort(id domain.ID) {
	port, ok := s.FindPort(id)
	if !ok {
		return
	}
	node := s.nodes[port.Owner]
	done := s.autoTx(node.Owner, "Destroy port")
	defer done()
	s.destroyPort(id, true)
}

func (s *Store) destroyPort(id domain.ID, record bool) {
	port, ok := s.FindPort(id)
	if !ok {
		return
	}
	node := s.nodes[port.Owner]

	s.listener.OnPreDestroy(port)
	for _, c := range slices.Clone(port.Connectors) {
		s.destroyConnector(c, record)
	}

	var cmd history.Command
	if h := s.recorderIf(record, node.Owner); h != nil {
		cmd = s.newDestroyCommand("Destroy port", port)
	}
	node.RemovePort(id)

	s.listener.OnPostDestroy(port)
	if cmd != nil {
		s.recorder(node.Owner).AddCommand(cmd)
	}
	s.unregister(port)
}

// CreateConnector adds a connector without endpoints to a flow chart.
// Connectors are normally created by a connection session.
func (s *Store) CreateConnector(flowChart domain.ID, p ConnectorParams) (*domain.Connector, error) {
	if _, ok := s.flowCharts[flowChart]; !ok {
		return nil, fmt.Errorf("create connector: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	done := s.autoTx(flowChart, "Create connector")
	defer done()

	c, err := s.createConnector(flowChart, p, false)
	if err != nil {
		return nil, err
	}
	if h := s.recorder(flowChart); h != nil {
		h.AddCommand(s.newCreateCommand("Create connector", c))
	}
	return c, nil
}

func (s *Store) createConnector(flowChart domain.ID, p ConnectorParams, deserializing bool) (*domain.Connector, error) {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return nil, fmt.Errorf("create connector: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	c := domain.NewConnector(s.idOrNew(p.ID), p.Type, fc.ID)
	if err := s.register(c); err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	fc.Connectors = append(fc.Connectors, c.ID)
	if !deserializing {
		s.listener.OnCreate(c)
	}
	return c, nil
}

// DestroyConnector detaches a connector from its ports and destroys it.
// Destroying the pending connector of a connection session ends the
// session. Unknown IDs are ignored.
func (s *Store) DestroyConnector(id domain.ID) {
	c, ok := s.connectors[id]
	if !ok {
		return
	}
	done := s.autoTx(c.Owner, "Destroy connector")
	defer done()
	s.destroyConnector(id, true)
}

func (s *Store) destroyConnector(id domain.ID, record bool) {
	c, ok := s.connectors[id]
	if !ok {
		return
	}
	pending := s.connecting != nil && s.connecting.connector == id

	var cmd history.Command
	if h := s.recorderIf(record && !pending, c.Owner); h != nil {
		cmd = s.newDestroyCommand("Destroy connector", c)
	}

	s.listener.OnPreDestroy(c)
	for _, dir := range []domain.Direction{domain.Output, domain.Input} {
		if port, ok := s.FindPort(c.Endpoint(dir)); ok {
			s.detach(port, c)
		}
	}
	if fc, ok := s.flowCharts[c.Owner]; ok {
		fc.RemoveConnector(id)
	}
	if pending {
		s.connecting = nil
	}

	s.listener.OnPostDestroy(c)
	if cmd != nil {
		s.recorder(c.Owner).AddCommand(cmd)
	}
	s.unregister(c)
}

// DisconnectAll destroys every connector attached to a port.
func (s *Store) DisconnectAll(portID domain.ID) {
	port, ok := s.FindPort(portID)
	if !ok || len(port.Connectors) == 0 {
		return
	}
	done := s.autoTx(s.ownerFlowChart(port), "Disconnect")
	defer done()
	for _, c := range slices.Clone(port.Connectors) {
		s.destroyConnector(c, true)
	}
}

// attach sets port as the endpoint of c on the port's side.
func (s *Store) attach(port *domain.Port, c *domain.Connector) {
	c.SetEndpoint(port.Direction, port.ID)
	port.AttachConnector(c.ID)
	if s.loading == nil {
		s.listener.OnConnect(port, c)
	}
}

func (s *Store) detach(port *domain.Port, c *domain.Connector) {
	s.listener.OnDisconnect(port, c)
	if c.Endpoint(port.Direction) == port.ID {
		c.SetEndpoint(port.Direction, domain.NilID)
	}
	port.DetachConnector(c.ID)
}
