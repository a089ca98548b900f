package graph

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"nodegraph/internal/domain"
)

// Modifiers are the keyboard modifiers held during a selection gesture.
type Modifiers struct {
	Ctrl  bool
	Shift bool
	Alt   bool
}

const propIsSelected = "IsSelected"

// Selection returns the selected nodes of a flow chart in selection order.
func (s *Store) Selection(flowChart domain.ID) []domain.ID {
	return slices.Clone(s.selections[flowChart])
}

// selectNode selects a node without recording it. The z-order is left
// alone.
func (s *Store) selectNode(node *domain.Node) bool {
	if node.IsSelected {
		return false
	}
	node.IsSelected = true
	s.selections[node.Owner] = append(s.selections[node.Owner], node.ID)
	s.listener.OnSelectionChanged(node.Owner, s.Selection(node.Owner))
	return true
}

// addSelection selects a node without recording it and brings it to the
// front.
func (s *Store) addSelection(node *domain.Node) bool {
	if !s.selectNode(node) {
		return false
	}
	s.moveNodeToFront(node)
	return true
}

// removeSelection deselects a node without recording it.
func (s *Store) removeSelection(flowChart domain.ID, node *domain.Node) bool {
	list := s.selections[flowChart]
	i := slices.Index(list, node.ID)
	if !node.IsSelected && i < 0 {
		return false
	}
	node.IsSelected = false
	if i >= 0 {
		s.selections[flowChart] = slices.Delete(list, i, i+1)
	}
	s.listener.OnSelectionChanged(flowChart, s.Selection(flowChart))
	return true
}

func (s *Store) recordSelection(node *domain.Node, selected bool) {
	if h := s.recorder(node.Owner); h != nil {
		h.AddCommand(s.newPropertyCommand(node.ID, propIsSelected, !selected, selected))
	}
}

// AddSelection selects a node and brings it to the front.
func (s *Store) AddSelection(nodeID domain.ID) error {
	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("add selection: node %s: %w", nodeID, domain.ErrInvalidArgument)
	}
	before := s.zIndexes(node.Owner)
	done := s.autoTx(node.Owner, "Selection")
	defer done()
	if s.addSelection(node) {
		s.recordSelection(node, true)
		s.recordZIndexes(node.Owner, before)
		s.notifyZIndexes(node.Owner, before)
	}
	return nil
}

// RemoveSelection deselects a node.
func (s *Store) RemoveSelection(nodeID domain.ID) error {
	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("remove selection: node %s: %w", nodeID, domain.ErrInvalidArgument)
	}
	done := s.autoTx(node.Owner, "Selection")
	defer done()
	if s.removeSelection(node.Owner, node) {
		s.recordSelection(node, false)
	}
	return nil
}

// DeselectAll clears the selection of a flow chart.
func (s *Store) DeselectAll(flowChart domain.ID) error {
	if _, ok := s.flowCharts[flowChart]; !ok {
		return fmt.Errorf("deselect all: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	done := s.autoTx(flowChart, "Deselection")
	defer done()
	s.deselectAll(flowChart, true)
	return nil
}

func (s *Store) deselectAll(flowChart domain.ID, record bool) {
	for _, id := range s.Selection(flowChart) {
		node := s.nodes[id]
		if s.removeSelection(flowChart, node) && record {
			s.recordSelection(node, false)
		}
	}
}

// SelectAll selects every node of a flow chart.
func (s *Store) SelectAll(flowChart domain.ID) error {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return fmt.Errorf("select all: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	done := s.autoTx(flowChart, "Selection")
	defer done()

	changed := false
	for _, id := range fc.Nodes {
		node := s.nodes[id]
		if node.IsSelected {
			continue
		}
		node.IsSelected = true
		s.selections[flowChart] = append(s.selections[flowChart], id)
		s.recordSelection(node, true)
		changed = true
	}
	if changed {
		s.listener.OnSelectionChanged(flowChart, s.Selection(flowChart))
	}
	return nil
}

// TrySelection applies a click on a node. Ctrl toggles, Shift adds, Alt
// removes, and a plain click replaces the selection with the node.
func (s *Store) TrySelection(nodeID domain.ID, mods Modifiers) error {
	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("try selection: node %s: %w", nodeID, domain.ErrInvalidArgument)
	}
	before := s.zIndexes(node.Owner)
	done := s.autoTx(node.Owner, "Selection")
	defer done()

	var add bool
	switch {
	case mods.Ctrl:
		add = !node.IsSelected
	case mods.Shift:
		add = true
	case mods.Alt:
		add = false
	default:
		s.deselectAll(node.Owner, true)
		add = true
	}

	if add {
		if s.addSelection(node) {
			s.recordSelection(node, true)
			s.recordZIndexes(node.Owner, before)
			s.notifyZIndexes(node.Owner, before)
		}
	} else if s.removeSelection(node.Owner, node) {
		s.recordSelection(node, false)
	}
	return nil
}

// DestroySelectedNodes destroys every selected node of a flow chart.
func (s *Store) DestroySelectedNodes(flowChart domain.ID) {
	if _, ok := s.flowCharts[flowChart]; !ok {
		return
	}
	done := s.autoTx(flowChart, "Destroy selection")
	defer done()
	for _, id := range s.Selection(flowChart) {
		s.destroyNode(id, true)
	}
}

// MoveNodeToFront gives a node the highest z-index of its flow chart and
// renumbers all z-indexes densely from zero.
func (s *Store) MoveNodeToFront(nodeID domain.ID) error {
	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("move to front: node %s: %w", nodeID, domain.ErrInvalidArgument)
	}
	before := s.zIndexes(node.Owner)

	done := s.autoTx(node.Owner, "Move to front")
	defer done()
	s.moveNodeToFront(node)
	s.recordZIndexes(node.Owner, before)
	s.notifyZIndexes(node.Owner, before)
	return nil
}

// recordZIndexes records a ZIndex change for every node whose z-index
// differs from before.
func (s *Store) recordZIndexes(flowChart domain.ID, before map[domain.ID]int) {
	h := s.recorder(flowChart)
	if h == nil {
		return
	}
	for _, id := range s.flowCharts[flowChart].Nodes {
		old, ok := before[id]
		if z := s.nodes[id].ZIndex; ok && old != z {
			h.AddCommand(s.newPropertyCommand(id, propZIndex, old, z))
		}
	}
}

func (s *Store) notifyZIndexes(flowChart domain.ID, before map[domain.ID]int) {
	for _, id := range s.flowCharts[flowChart].Nodes {
		n := s.nodes[id]
		if old, ok := before[id]; ok && old != n.ZIndex {
			s.listener.OnPropertyChanged(n, propZIndex)
		}
	}
}

// restoreZIndexes puts back the z-indexes captured in before.
func (s *Store) restoreZIndexes(flowChart domain.ID, before map[domain.ID]int) {
	for _, id := range s.flowCharts[flowChart].Nodes {
		n := s.nodes[id]
		if old, ok := before[id]; ok && old != n.ZIndex {
			n.ZIndex = old
			s.listener.OnPropertyChanged(n, propZIndex)
		}
	}
}

func (s *Store) moveNodeToFront(node *domain.Node) {
	fc, ok := s.flowCharts[node.Owner]
	if !ok {
		return
	}
	node.ZIndex = s.topZIndex(fc.ID) + 1

	nodes := make([]*domain.Node, 0, len(fc.Nodes))
	for _, id := range fc.Nodes {
		nodes = append(nodes, s.nodes[id])
	}
	slices.SortStableFunc(nodes, func(a, b *domain.Node) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	for i, n := range nodes {
		n.ZIndex = i
	}
}

func (s *Store) zIndexes(flowChart domain.ID) map[domain.ID]int {
	out := make(map[domain.ID]int)
	if fc, ok := s.flowCharts[flowChart]; ok {
		for _, id := range fc.Nodes {
			out[id] = s.nodes[id].ZIndex
		}
	}
	return out
}

func (s *Store) topZIndex(flowChart domain.ID) int {
	top := -1
	if fc, ok := s.flowCharts[flowChart]; ok {
		for _, id := range fc.Nodes {
			top = max(top, s.nodes[id].ZIndex)
		}
	}
	return top
}

// ContentBounds returns the rectangle enclosing the nodes of a flow chart,
// or only the selected ones. It is the zero Rect when there are none.
func (s *Store) ContentBounds(flowChart domain.ID, onlySelected bool) domain.Rect {
	fc, ok := s.flowCharts[flowChart]
	if !ok {
		return domain.Rect{}
	}
	var bounds domain.Rect
	found := false
	for _, id := range fc.Nodes {
		node := s.nodes[id]
		if onlySelected && !node.IsSelected {
			continue
		}
		if !found {
			bounds = node.Bounds()
			found = true
			continue
		}
		bounds = bounds.Union(node.Bounds())
	}
	return bounds
}

type selectSession struct {
	flowChart domain.ID
	start     domain.Point
	original  []domain.ID
	zOrder    map[domain.ID]int
}

// IsSelecting reports whether a rubber band selection is active.
func (s *Store) IsSelecting() bool {
	return s.selecting != nil
}

// BeginDragSelection starts a rubber band selection and snapshots the
// current selection and z-order.
func (s *Store) BeginDragSelection(flowChart domain.ID, start domain.Point) error {
	if s.selecting != nil {
		return fmt.Errorf("begin drag selection: %w", domain.ErrInvalidOperation)
	}
	if _, ok := s.flowCharts[flowChart]; !ok {
		return fmt.Errorf("begin drag selection: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	s.selecting = &selectSession{
		flowChart: flowChart,
		start:     start,
		original:  s.Selection(flowChart),
		zOrder:    s.zIndexes(flowChart),
	}
	return nil
}

// UpdateDragSelection recomputes the selection for a band from the start
// point to end. Ctrl toggles nodes of the original selection inside the
// band, Alt removes nodes inside the band, otherwise nodes inside are added.
// Nodes outside the band revert to their original state.
func (s *Store) UpdateDragSelection(end domain.Point, mods Modifiers) error {
	sel := s.selecting
	if sel == nil {
		return fmt.Errorf("update drag selection: %w", domain.ErrInvalidOperation)
	}
	band := domain.RectFromPoints(sel.start, end)
	add := mods.Ctrl || mods.Shift || !mods.Alt

	fc := s.flowCharts[sel.flowChart]
	for _, id := range fc.Nodes {
		node := s.nodes[id]
		original := slices.Contains(sel.original, id)

		var hit bool
		if s.selectionMode == SelectionInclude {
			hit = band.Contains(node.Bounds())
		} else {
			hit = band.Intersects(node.Bounds())
		}

		if !hit {
			if original {
				if mods.Ctrl || !add {
					s.addSelection(node)
				}
			} else if mods.Ctrl || add {
				s.removeSelection(fc.ID, node)
			}
			continue
		}

		thisAdd := add
		if original && mods.Ctrl {
			thisAdd = false
		}
		if thisAdd {
			s.addSelection(node)
		} else {
			s.removeSelection(fc.ID, node)
		}
	}
	return nil
}

// EndDragSelection finishes a rubber band selection. Cancelling restores the
// selection and z-order captured at the start. Otherwise the difference is
// recorded and the result reports whether the selection changed.
func (s *Store) EndDragSelection(cancel bool) bool {
	sel := s.selecting
	if sel == nil {
		return false
	}
	s.selecting = nil
	if _, ok := s.flowCharts[sel.flowChart]; !ok {
		return false
	}

	if cancel {
		s.deselectAll(sel.flowChart, false)
		for _, id := range sel.original {
			if node, ok := s.nodes[id]; ok {
				s.selectNode(node)
			}
		}
		s.restoreZIndexes(sel.flowChart, sel.zOrder)
		return false
	}

	done := s.autoTx(sel.flowChart, "Selection")
	defer done()

	changed := false
	current := s.selections[sel.flowChart]
	for _, id := range sel.original {
		if node, ok := s.nodes[id]; ok && !slices.Contains(current, id) {
			s.recordSelection(node, false)
			changed = true
		}
	}
	for _, id := range current {
		if !slices.Contains(sel.original, id) {
			s.recordSelection(s.nodes[id], true)
			changed = true
		}
	}
	s.recordZIndexes(sel.flowChart, sel.zOrder)
	s.notifyZIndexes(sel.flowChart, sel.zOrder)
	return changed
}

type dragSession struct {
	flowChart domain.ID
	nodes     []domain.ID
	origin    map[domain.ID]domain.Point
}

func (d *dragSession) forget(id domain.ID) {
	if i := slices.Index(d.nodes, id); i >= 0 {
		d.nodes = slices.Delete(d.nodes, i, i+1)
	}
	delete(d.origin, id)
}

// IsDraggingNodes reports whether a node drag is active.
func (s *Store) IsDraggingNodes() bool {
	return s.dragging != nil
}

// BeginDragNode starts moving the selected nodes of a flow chart.
func (s *Store) BeginDragNode(flowChart domain.ID) error {
	if s.dragging != nil {
		return fmt.Errorf("begin node drag: %w", domain.ErrInvalidOperation)
	}
	if _, ok := s.flowCharts[flowChart]; !ok {
		return fmt.Errorf("begin node drag: flowchart %s: %w", flowChart, domain.ErrInvalidArgument)
	}
	d := &dragSession{
		flowChart: flowChart,
		nodes:     s.Selection(flowChart),
		origin:    make(map[domain.ID]domain.Point),
	}
	for _, id := range d.nodes {
		n := s.nodes[id]
		d.origin[id] = domain.Point{X: n.X, Y: n.Y}
	}
	s.dragging = d
	return nil
}

// DragNode moves the dragged nodes by a delta.
func (s *Store) DragNode(dx, dy float64) error {
	if s.dragging == nil {
		return fmt.Errorf("drag node: %w", domain.ErrInvalidOperation)
	}
	for _, id := range s.dragging.nodes {
		n := s.nodes[id]
		n.X += dx
		n.Y += dy
		s.listener.OnPropertyChanged(n, propX)
		s.listener.OnPropertyChanged(n, propY)
	}
	return nil
}

// EndDragNode finishes a node drag. Cancelling moves the nodes back.
// Otherwise the moves are recorded and the result reports whether any node
// moved.
func (s *Store) EndDragNode(cancel bool) bool {
	d := s.dragging
	if d == nil {
		return false
	}
	s.dragging = nil

	if cancel {
		for _, id := range d.nodes {
			n := s.nodes[id]
			n.X, n.Y = d.origin[id].X, d.origin[id].Y
			s.listener.OnPropertyChanged(n, propX)
			s.listener.OnPropertyChanged(n, propY)
		}
		return false
	}

	done := s.autoTx(d.flowChart, "Move nodes")
	defer done()

	moved := false
	h := s.recorder(d.flowChart)
	for _, id := range d.nodes {
		n, from := s.nodes[id], d.origin[id]
		if n.X == from.X && n.Y == from.Y {
			continue
		}
		moved = true
		if h != nil {
			h.AddCommand(s.newPropertyCommand(id, propX, from.X, n.X))
			h.AddCommand(s.newPropertyCommand(id, propY, from.Y, n.Y))
		}
	}
	return moved
}

// CancelSessions aborts any active connection, rubber band selection and
// node drag.
func (s *Store) CancelSessions() {
	s.abortConnection()
	s.EndDragSelection(true)
	s.EndDragNode(true)
}

func (s *Store) cancelSessionsIn(flowChart domain.ID) {
	if c, ok := s.PendingConnector(); ok && c.Owner == flowChart {
		s.abortConnection()
	}
	if s.selecting != nil && s.selecting.flowChart == flowChart {
		s.EndDragSelection(true)
	}
	if s.dragging != nil && s.dragging.flowChart == flowChart {
		s.EndDragNode(true)
	}
}

// SetNodeSize stores the measured size of a node. Sizes are layout state
// and are not recorded in history.
func (s *Store) SetNodeSize(nodeID domain.ID, width, height float64) error {
	node, ok := s.nodes[nodeID]
	if !ok {
		return fmt.Errorf("set node size: node %s: %w", nodeID, domain.ErrInvalidArgument)
	}
	if width < 0 || height < 0 || math.IsNaN(width) || math.IsNaN(height) {
		return fmt.Errorf("set node size: %vx%v: %w", width, height, domain.ErrInvalidArgument)
	}
	node.Width, node.Height = width, height
	return nil
}
