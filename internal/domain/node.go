package domain

import "slices"

// Default node dimensions used before the host reports a measured size.
const (
	DefaultNodeWidth  = 160
	DefaultNodeHeight = 80
)

// Node is a graph vertex. Its four port collections are ordered.
type Node struct {
	ID                      ID      `json:"id"`
	Type                    string  `json:"type"`
	Owner                   ID      `json:"owner"`
	X                       float64 `json:"x"`
	Y                       float64 `json:"y"`
	Width                   float64 `json:"width"`
	Height                  float64 `json:"height"`
	ZIndex                  int     `json:"z_index"`
	Header                  string  `json:"header"`
	HeaderBackgroundColor   string  `json:"header_background_color,omitempty"`
	HeaderFontColor         string  `json:"header_font_color,omitempty"`
	AllowCircularConnection bool    `json:"allow_circular_connection"`
	IsSelected              bool    `json:"is_selected"`

	InputFlowPorts      []ID `json:"input_flow_ports"`
	OutputFlowPorts     []ID `json:"output_flow_ports"`
	InputPropertyPorts  []ID `json:"input_property_ports"`
	OutputPropertyPorts []ID `json:"output_property_ports"`
}

// NewNode creates a node at the given position with default size.
func NewNode(id ID, nodeType string, owner ID, x, y float64) *Node {
	return &Node{
		ID:                  id,
		Type:                nodeType,
		Owner:               owner,
		X:                   x,
		Y:                   y,
		Width:               DefaultNodeWidth,
		Height:              DefaultNodeHeight,
		InputFlowPorts:      []ID{},
		OutputFlowPorts:     []ID{},
		InputPropertyPorts:  []ID{},
		OutputPropertyPorts: []ID{},
	}
}

func (n *Node) EntityID() ID { return n.ID }
func (n *Node) EntityKind() EntityKind { return KindNode }

// Bounds returns the node's rectangle.
func (n *Node) Bounds() Rect {
	return Rect{X: n.X, Y: n.Y, Width: n.Width, Height: n.Height}
}

// Ports returns the collection for a kind and direction.
func (n *Node) Ports(kind PortKind, dir Direction) []ID {
	return *n.portList(kind, dir)
}

// AllPorts returns every port ID in the order input flow, output flow,
// input property, output property.
func (n *Node) AllPorts() []ID {
	all := make([]ID, 0, len(n.InputFlowPorts)+len(n.OutputFlowPorts)+len(n.InputPropertyPorts)+len(n.OutputPropertyPorts))
	all = append(all, n.InputFlowPorts...)
	all = append(all, n.OutputFlowPorts...)
	all = append(all, n.InputPropertyPorts...)
	all = append(all, n.OutputPropertyPorts...)
	return all
}

// OutputPorts returns output flow ports followed by output property ports.
func (n *Node) OutputPorts() []ID {
	out := make([]ID, 0, len(n.OutputFlowPorts)+len(n.OutputPropertyPorts))
	out = append(out, n.OutputFlowPorts...)
	return append(out, n.OutputPropertyPorts...)
}

// AddPort appends a port to the matching collection.
func (n *Node) AddPort(kind PortKind, dir Direction, id ID) {
	addID(n.portList(kind, dir), id)
}

// InsertPort places a port at index within the matching collection. An
// out of range index appends.
func (n *Node) InsertPort(kind PortKind, dir Direction, id ID, index int) {
	list := n.portList(kind, dir)
	if slices.Contains(*list, id) {
		return
	}
	if index < 0 || index > len(*list) {
		index = len(*list)
	}
	*list = slices.Insert(*list, index, id)
}

// PortIndex returns the position of a port within its collection, or -1.
func (n *Node) PortIndex(id ID) int {
	for _, list := range [][]ID{n.InputFlowPorts, n.OutputFlowPorts, n.InputPropertyPorts, n.OutputPropertyPorts} {
		if i := slices.Index(list, id); i >= 0 {
			return i
		}
	}
	return -1
}

// RemovePort drops a port from whichever collection lists it.
func (n *Node) RemovePort(id ID) bool {
	for _, list := range []*[]ID{&n.InputFlowPorts, &n.OutputFlowPorts, &n.InputPropertyPorts, &n.OutputPropertyPorts} {
		if removeID(list, id) {
			return true
		}
	}
	return false
}

func (n *Node) portList(kind PortKind, dir Direction) *[]ID {
	switch {
	case kind == FlowPortKind && dir == Input:
		return &n.InputFlowPorts
	case kind == FlowPortKind && dir == Output:
		return &n.OutputFlowPorts
	case kind == PropertyPortKind && dir == Input:
		return &n.InputPropertyPorts
	default:
		return &n.OutputPropertyPorts
	}
}
