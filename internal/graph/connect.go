package graph

import (
	"fmt"
	"slices"

	"nodegraph/internal/domain"
)

// Reasons reported by CheckConnectable.
const (
	ReasonNoSession        = "no connection in progress"
	ReasonUnknownPort      = "unknown port"
	ReasonSamePort         = "same port"
	ReasonSameNode         = "port of the same node"
	ReasonOtherFlowChart   = "port of another flow chart"
	ReasonKindMismatch     = "port kinds differ"
	ReasonSameDirection    = "ports are both inputs or both outputs"
	ReasonAlreadyConnected = "already connected"
	ReasonValueType        = "value type is not assignable"
	ReasonCircular         = "circular connection"
)

// Connectability is the result of a connection check. Reason is empty when
// OK is true.
type Connectability struct {
	OK     bool
	Reason string
}

func reject(reason string) Connectability {
	return Connectability{Reason: reason}
}

type connectSession struct {
	anchor    domain.ID
	connector domain.ID
}

// IsConnecting reports whether a connection session is active.
func (s *Store) IsConnecting() bool {
	return s.connecting != nil
}

// PendingConnector returns the connector of the active connection session.
func (s *Store) PendingConnector() (*domain.Connector, bool) {
	if s.connecting == nil {
		return nil, false
	}
	return s.FindConnector(s.connecting.connector)
}

// BeginConnection starts a connection session anchored at a port. A new
// connector is created with the port attached on its side.
func (s *Store) BeginConnection(portID domain.ID) (*domain.Connector, error) {
	if s.connecting != nil {
		return nil, fmt.Errorf("begin connection: another connection is in progress: %w", domain.ErrInvalidOperation)
	}
	port, ok := s.FindPort(portID)
	if !ok {
		return nil, fmt.Errorf("begin connection: port %s: %w", portID, domain.ErrInvalidArgument)
	}

	c, err := s.createConnector(s.ownerFlowChart(port), ConnectorParams{}, false)
	if err != nil {
		return nil, fmt.Errorf("begin connection: %w", err)
	}
	s.attach(port, c)
	s.connecting = &connectSession{anchor: port.ID, connector: c.ID}

	s.logger.Debug("connection started", "anchor", port.ID, "connector", c.ID)
	return c, nil
}

// SetOtherConnectionPort tentatively attaches a port to the free side of the
// pending connector, replacing whatever was attached there. domain.NilID
// detaches it.
func (s *Store) SetOtherConnectionPort(portID domain.ID) error {
	if s.connecting == nil {
		return fmt.Errorf("set connection port: %w", domain.ErrInvalidOperation)
	}
	anchor, _ := s.FindPort(s.connecting.anchor)
	c := s.connectors[s.connecting.connector]
	side := anchor.Direction.Opposite()

	current := c.Endpoint(side)
	if current == portID && portID != domain.NilID {
		return nil
	}

	var port *domain.Port
	if portID != domain.NilID {
		var ok bool
		if port, ok = s.FindPort(portID); !ok {
			return fmt.Errorf("set connection port %s: %w", portID, domain.ErrInvalidArgument)
		}
		if port.Direction != side {
			return fmt.Errorf("set connection port %s: port is an %s: %w", portID, port.Direction, domain.ErrInvalidArgument)
		}
		if s.ownerFlowChart(port) != c.Owner {
			return fmt.Errorf("set connection port %s: %s: %w", portID, ReasonOtherFlowChart, domain.ErrInvalidArgument)
		}
	}

	if old, ok := s.FindPort(current); ok {
		s.detach(old, c)
	}
	if port != nil {
		s.attach(port, c)
	}
	return nil
}

// CheckConnectable reports whether the anchor of the active session may be
// connected to a candidate port. Checks run in order and the first failure
// is reported.
func (s *Store) CheckConnectable(candidateID domain.ID) Connectability {
	if s.connecting == nil {
		return reject(ReasonNoSession)
	}
	anchor, _ := s.FindPort(s.connecting.anchor)
	candidate, ok := s.FindPort(candidateID)
	if !ok {
		return reject(ReasonUnknownPort)
	}
	return s.checkPair(anchor, candidate, s.connecting.connector)
}

// checkPair validates connecting anchor to candidate. pending is the
// session's own connector, which does not count as an existing connection.
func (s *Store) checkPair(anchor, candidate *domain.Port, pending domain.ID) Connectability {
	if anchor.ID == candidate.ID {
		return reject(ReasonSamePort)
	}
	if anchor.Owner == candidate.Owner {
		return reject(ReasonSameNode)
	}
	anchorNode := s.nodes[anchor.Owner]
	candidateNode := s.nodes[candidate.Owner]
	if anchorNode.Owner != candidateNode.Owner {
		return reject(ReasonOtherFlowChart)
	}
	if anchor.Kind != candidate.Kind {
		return reject(ReasonKindMismatch)
	}
	if anchor.Direction == candidate.Direction {
		return reject(ReasonSameDirection)
	}
	for _, id := range anchor.Connectors {
		if id == pending {
			continue
		}
		if c := s.connectors[id]; c.IsConnectedPort(candidate.ID) {
			return reject(ReasonAlreadyConnected)
		}
	}

	out, in := anchor, candidate
	if anchor.Direction == domain.Input {
		out, in = candidate, anchor
	}
	if out.Kind == domain.PropertyPortKind && !in.ValueType.AssignableFrom(out.ValueType) {
		return reject(ReasonValueType)
	}

	outNode, inNode := s.nodes[out.Owner], s.nodes[in.Owner]
	if !outNode.AllowCircularConnection && s.isReachable(inNode.ID, outNode.ID, pending) {
		return reject(ReasonCircular)
	}

	if ok, reason := s.hookConnectable(anchorNode, anchor, candidate); !ok {
		return reject(reason)
	}
	if ok, reason := s.hookConnectable(candidateNode, candidate, anchor); !ok {
		return reject(reason)
	}
	return Connectability{OK: true}
}

func (s *Store) hookConnectable(node *domain.Node, own, other *domain.Port) (bool, string) {
	desc, ok := s.descriptors[node.Type]
	if !ok || desc.IsConnectable == nil {
		return true, ""
	}
	return desc.IsConnectable(s, own, other)
}

// isReachable reports whether a directed path of connectors leads from one
// node to another. The traversal is iterative with a visited set, so it
// terminates on existing cycles.
func (s *Store) isReachable(from, to, skip domain.ID) bool {
	visited := make(map[domain.ID]bool)
	stack := []domain.ID{from}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true

		node, ok := s.nodes[current]
		if !ok {
			continue
		}
		for _, portID := range node.OutputPorts() {
			port, _ := s.FindPort(portID)
			for _, connID := range port.Connectors {
				c := s.connectors[connID]
				if connID == skip || c.EndPort == domain.NilID {
					continue
				}
				end, ok := s.FindPort(c.EndPort)
				if !ok {
					continue
				}
				if end.Owner == to {
					return true
				}
				if !visited[end.Owner] {
					stack = append(stack, end.Owner)
				}
			}
		}
	}
	return false
}

// EndConnection finishes the active session. A supplied port is attached
// first. The pending connector is destroyed when the port cannot be
// attached, an endpoint is missing or the pair fails CheckConnectable.
// Otherwise connectors on single-valued endpoints are evicted and the
// connector is kept.
func (s *Store) EndConnection(portID domain.ID) (*domain.Connector, bool) {
	if s.connecting == nil {
		return nil, false
	}
	session := s.connecting
	c := s.connectors[session.connector]

	if portID != domain.NilID {
		if err := s.SetOtherConnectionPort(portID); err != nil {
			s.logger.Debug("connection port rejected", "port", portID, "error", err)
			s.abortConnection()
			return nil, false
		}
	}

	if !c.IsComplete() {
		s.abortConnection()
		return nil, false
	}
	anchor, _ := s.FindPort(session.anchor)
	other, _ := s.FindPort(c.Endpoint(anchor.Direction.Opposite()))
	if res := s.checkPair(anchor, other, c.ID); !res.OK {
		s.logger.Debug("connection rejected", "anchor", anchor.ID, "port", other.ID, "reason", res.Reason)
		s.abortConnection()
		return nil, false
	}

	done := s.autoTx(c.Owner, "Connect")
	defer done()

	start, _ := s.FindPort(c.StartPort)
	end, _ := s.FindPort(c.EndPort)
	for _, port := range []*domain.Port{start, end} {
		if port.AllowsMultiple() {
			continue
		}
		for _, id := range slices.Clone(port.Connectors) {
			if id != c.ID {
				s.destroyConnector(id, true)
			}
		}
	}

	s.connecting = nil
	if h := s.recorder(c.Owner); h != nil {
		h.AddCommand(s.newCreateCommand("Create connector", c))
	}
	s.logger.Debug("connection completed", "connector", c.ID, "start", c.StartPort, "end", c.EndPort)
	return c, true
}

// abortConnection destroys the pending connector, ending the session.
func (s *Store) abortConnection() {
	if s.connecting == nil {
		return
	}
	id := s.connecting.connector
	s.destroyConnector(id, false)
	s.connecting = nil
	s.logger.Debug("connection aborted", "connector", id)
}

// ConnectPorts connects two ports in one step. The ports may be given in
// either order.
func (s *Store) ConnectPorts(a, b domain.ID) (*domain.Connector, error) {
	if _, err := s.BeginConnection(a); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if res := s.CheckConnectable(b); !res.OK {
		s.abortConnection()
		return nil, fmt.Errorf("connect: %s: %w", res.Reason, domain.ErrInvalidArgument)
	}
	c, ok := s.EndConnection(b)
	if !ok {
		return nil, fmt.Errorf("connect: %w", domain.ErrInvalidArgument)
	}
	return c, nil
}
