package domain

import "slices"

// FlowChart is the root container of a graph. Node and connector order is
// preserved and is the order used when persisting.
type FlowChart struct {
	ID         ID            `json:"id"`
	Type       string        `json:"type"`
	Nodes      []ID          `json:"nodes"`
	Connectors []ID          `json:"connectors"`
	View       ViewTransform `json:"view"`
}

// NewFlowChart creates an empty flow chart with an identity view.
func NewFlowChart(id ID, chartType string) *FlowChart {
	return &FlowChart{
		ID:         id,
		Type:       chartType,
		Nodes:      []ID{},
		Connectors: []ID{},
		View:       IdentityView,
	}
}

func (f *FlowChart) EntityID() ID { return f.ID }
func (f *FlowChart) EntityKind() EntityKind { return KindFlowChart }

// HasNode reports whether the node is listed in this flow chart.
func (f *FlowChart) HasNode(id ID) bool {
	return slices.Contains(f.Nodes, id)
}

// RemoveNode drops a node reference. It returns false if it was not listed.
func (f *FlowChart) RemoveNode(id ID) bool {
	return removeID(&f.Nodes, id)
}

// HasConnector reports whether the connector is listed in this flow chart.
func (f *FlowChart) HasConnector(id ID) bool {
	return slices.Contains(f.Connectors, id)
}

// RemoveConnector drops a connector reference.
func (f *FlowChart) RemoveConnector(id ID) bool {
	return removeID(&f.Connectors, id)
}

func removeID(list *[]ID, id ID) bool {
	i := slices.Index(*list, id)
	if i < 0 {
		return false
	}
	*list = slices.Delete(*list, i, i+1)
	return true
}

func addID(list *[]ID, id ID) {
	if !slices.Contains(*list, id) {
		*list = append(*list, id)
	}
}
