package graph

import (
	"fmt"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
)

// CreateRouterNode replaces a connector with a pass-through router node at
// the given point. The router gets one input and one output port of the
// connector's port kind, and the original endpoints are reconnected through
// it.
func (s *Store) CreateRouterNode(connectorID domain.ID, at domain.Point) (*domain.Node, error) {
	c, ok := s.connectors[connectorID]
	if !ok {
		return nil, fmt.Errorf("create router: connector %s: %w", connectorID, domain.ErrInvalidArgument)
	}
	if s.connecting != nil {
		return nil, fmt.Errorf("create router: %w", domain.ErrInvalidOperation)
	}
	start, okStart := s.FindPort(c.StartPort)
	endPort, okEnd := s.FindPort(c.EndPort)
	if !okStart || !okEnd {
		return nil, fmt.Errorf("create router: connector %s is not attached at both ends: %w", connectorID, domain.ErrInvalidArgument)
	}
	fc := c.Owner
	snapshot := s.serialize(c)

	finish := s.autoTxCancel(fc, "Create router node")
	node, err := s.insertRouter(c, start, endPort, at)
	if err != nil {
		s.removeRouter(fc, node, connectorID, snapshot)
		finish(true)
		return nil, fmt.Errorf("create router: %w", err)
	}
	finish(false)

	s.logger.Debug("router node created", "id", node.ID, "replaced", connectorID)
	return node, nil
}

func (s *Store) insertRouter(c *domain.Connector, start, end *domain.Port, at domain.Point) (*domain.Node, error) {
	fc := c.Owner
	s.destroyConnector(c.ID, true)

	node, err := s.CreateNode(fc, NodeParams{
		Type:   RouterNodeType,
		X:      at.X,
		Y:      at.Y,
		ZIndex: s.topZIndex(fc) + 1,
	})
	if err != nil {
		return nil, err
	}

	routerPort := func(name string, dir domain.Direction) PortSpec {
		return PortSpec{
			Kind:          start.Kind,
			Name:          name,
			Direction:     dir,
			IsPortEnabled: true,
			IsEnabled:     true,
			ValueType:     start.ValueType,
			DefaultValue:  start.Value,
		}
	}
	in, err := s.createPort(node, routerPort("Input", domain.Input), false, true)
	if err != nil {
		return node, err
	}
	out, err := s.createPort(node, routerPort("Output", domain.Output), false, true)
	if err != nil {
		return node, err
	}

	if _, err := s.ConnectPorts(start.ID, in.ID); err != nil {
		return node, err
	}
	if _, err := s.ConnectPorts(out.ID, end.ID); err != nil {
		return node, err
	}
	return node, nil
}

// removeRouter undoes a failed insertion: the router goes and the replaced
// connector comes back. Both steps are recorded so an enclosing transaction
// stays consistent.
func (s *Store) removeRouter(fc domain.ID, node *domain.Node, connectorID domain.ID, snapshot *codec.Element) {
	if node != nil {
		s.destroyNode(node.ID, true)
	}
	if _, ok := s.connectors[connectorID]; ok {
		return
	}
	restored, err := s.DeserializeEntity(snapshot.Clone())
	if err != nil {
		s.logger.Warn("replaced connector not restored", "error", err)
		return
	}
	if h := s.recorder(fc); h != nil {
		h.AddCommand(s.newCreateCommand("Restore connector", restored))
	}
}
