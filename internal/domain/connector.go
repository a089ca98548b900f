package domain

// Connector is a directed edge. StartPort is the output side and EndPort the
// input side; either may be NilID while a connection is being drawn.
type Connector struct {
	ID        ID     `json:"id"`
	Type      string `json:"type"`
	Owner     ID     `json:"owner"`
	StartPort ID     `json:"start_port"`
	EndPort   ID     `json:"end_port"`
}

// NewConnector creates an unattached connector.
func NewConnector(id ID, connType string, owner ID) *Connector {
	return &Connector{ID: id, Type: connType, Owner: owner}
}

func (c *Connector) EntityID() ID { return c.ID }
func (c *Connector) EntityKind() EntityKind { return KindConnector }

// IsConnectedPort reports whether the port is either endpoint.
func (c *Connector) IsConnectedPort(port ID) bool {
	return port != NilID && (c.StartPort == port || c.EndPort == port)
}

// IsComplete reports whether both endpoints are set.
func (c *Connector) IsComplete() bool {
	return c.StartPort != NilID && c.EndPort != NilID
}

// Endpoint returns the port on the given side: Output is StartPort, Input is
// EndPort.
func (c *Connector) Endpoint(dir Direction) ID {
	if dir == Output {
		return c.StartPort
	}
	return c.EndPort
}

// SetEndpoint sets the port on the given side.
func (c *Connector) SetEndpoint(dir Direction, port ID) {
	if dir == Output {
		c.StartPort = port
	} else {
		c.EndPort = port
	}
}
