package graph

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
)

func buildSample(t *testing.T) (*Store, *domain.FlowChart) {
	t.Helper()
	s := newTestStore(t)
	fc := newFlowChart(t, s)
	a := newNode(t, s, fc, "source", 0, 0)
	b := newNode(t, s, fc, "sink", 240, 40)
	connect(t, s, flowPort(t, s, a, "Out"), flowPort(t, s, b, "In"))
	require.NoError(t, s.SetViewTransform(fc.ID, domain.ViewTransform{Scale: 1.5, OffsetX: 3}))
	require.NoError(t, s.AddSelection(b.ID))
	return s, fc
}

func TestRoundTrip(t *testing.T) {
	src, fc := buildSample(t)

	codecs := []codec.Codec{
		codec.NewXMLCodec(),
		codec.NewYAMLCodec(),
		codec.NewJSONCodec(),
		codec.NewBinaryCodec(true),
	}
	for _, c := range codecs {
		t.Run(c.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, c.Export(src.SerializeStore(), &buf))
			root, err := c.Parse(&buf)
			require.NoError(t, err)

			dst, err := Load(root)
			require.NoError(t, err)

			assert.Equal(t, Counts{FlowCharts: 1, Nodes: 2, FlowPorts: 2, PropertyPorts: 2, Connectors: 1}, dst.Counts())
			loaded, ok := dst.FindFlowChart(fc.ID)
			require.True(t, ok)
			assert.Equal(t, fc.View, loaded.View)
			require.Len(t, loaded.Connectors, 1)

			conn, _ := dst.FindConnector(loaded.Connectors[0])
			start, _ := dst.FindPort(conn.StartPort)
			end, _ := dst.FindPort(conn.EndPort)
			assert.Equal(t, "Out", start.Name)
			assert.Equal(t, "In", end.Name)
			assert.Equal(t, []domain.ID{conn.ID}, start.Connectors)

			value, ok := dst.FindPropertyPortByName(loaded.Nodes[0], "Value")
			require.True(t, ok)
			assert.Equal(t, int64(1), value.Value)
			assert.Equal(t, src.Selection(fc.ID), dst.Selection(fc.ID))
			assert.Equal(t, src.SerializeStore(), dst.SerializeStore())

			h, ok := dst.History(fc.ID)
			require.True(t, ok)
			assert.False(t, h.CanUndo(), "loading is not recorded")
		})
	}
}

func TestLoadNotifies(t *testing.T) {
	src, _ := buildSample(t)
	rec := &eventLog{}

	_, err := Load(src.SerializeStore(), WithListener(rec))
	require.NoError(t, err)

	require.Len(t, rec.events, 8)
	assert.Equal(t, "load:FlowChart", rec.events[0])
	assert.Equal(t, "load:Connector", rec.events[7])
	assert.NotContains(t, rec.events, "connect")
}

func TestLoadIsAtomic(t *testing.T) {
	src, fc := buildSample(t)

	tests := []struct {
		name    string
		corrupt func(root *codec.Element)
	}{
		{"unknown endpoint", func(root *codec.Element) {
			conn := root.Children[0].Child("Connectors").Children[0]
			conn.Set("end-port", domain.NewID().String())
		}},
		{"swapped endpoints", func(root *codec.Element) {
			conn := root.Children[0].Child("Connectors").Children[0]
			start, _ := conn.Attr("start-port")
			end, _ := conn.Attr("end-port")
			conn.Set("start-port", end).Set("end-port", start)
		}},
		{"bad number", func(root *codec.Element) {
			root.Children[0].Child("Nodes").Children[1].Set("x", "left")
		}},
		{"bad value", func(root *codec.Element) {
			port := root.Children[0].Child("Nodes").Children[0].ChildrenNamed("PropertyPort")[0]
			port.Set("value", "many")
		}},
		{"mismatched owner", func(root *codec.Element) {
			root.Children[0].Child("Nodes").Children[0].Children[0].Set("owner", domain.NewID().String())
		}},
		{"missing id", func(root *codec.Element) {
			root.Children[0].Child("Nodes").Children[1].Attrs = nil
		}},
		{"zero scale", func(root *codec.Element) {
			root.Children[0].Child("View").SetFloat("scale", 0)
		}},
		{"stray element", func(root *codec.Element) {
			root.Add(codec.NewElement("Widget"))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := src.SerializeStore()
			tt.corrupt(root)

			rec := &eventLog{}
			dst := New(WithListener(rec))
			existing, err := dst.CreateFlowChart(FlowChartParams{})
			require.NoError(t, err)
			rec.events = nil

			err = dst.DeserializeStore(root)
			require.ErrorIs(t, err, domain.ErrCorruptDocument)

			assert.Equal(t, Counts{FlowCharts: 1}, dst.Counts())
			_, ok := dst.FindFlowChart(fc.ID)
			assert.False(t, ok)
			assert.Equal(t, []*domain.FlowChart{existing}, dst.FlowCharts())
			assert.Empty(t, rec.events)
		})
	}

	t.Run("duplicate ids", func(t *testing.T) {
		dst := New()
		require.NoError(t, dst.DeserializeStore(src.SerializeStore()))
		err := dst.DeserializeStore(src.SerializeStore())
		assert.ErrorIs(t, err, domain.ErrCorruptDocument)
		assert.ErrorIs(t, err, domain.ErrDuplicateID)
		assert.Equal(t, src.Counts(), dst.Counts())
	})

	t.Run("wrong root", func(t *testing.T) {
		err := New().DeserializeStore(codec.NewElement("Other"))
		assert.ErrorIs(t, err, domain.ErrCorruptDocument)
		err = New().DeserializeStore(codec.NewElement(DocumentElement).Set("version", "9"))
		assert.ErrorIs(t, err, domain.ErrCorruptDocument)
	})
}

func TestLoadEnforcesConnectionRules(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) *codec.Element
	}{
		{"single output with two connectors", func(t *testing.T) *codec.Element {
			s := newTestStore(t)
			fc := newFlowChart(t, s)
			a := newNode(t, s, fc, "source", 0, 0)
			b := newNode(t, s, fc, "sink", 240, 0)
			c := newNode(t, s, fc, "sink", 240, 200)
			connect(t, s, flowPort(t, s, a, "Out"), flowPort(t, s, b, "In"))

			root := s.SerializeStore()
			conns := root.Children[0].Child("Connectors")
			conns.Add(conns.Children[0].Clone().
				Set("id", domain.NewID().String()).
				Set("end-port", flowPort(t, s, c, "In").ID.String()))
			return root
		}},
		{"same node", func(t *testing.T) *codec.Element {
			s := newTestStore(t)
			fc := newFlowChart(t, s)
			a := newNode(t, s, fc, "pass", 0, 0)
			b := newNode(t, s, fc, "pass", 240, 0)
			connect(t, s, flowPort(t, s, a, "Out"), flowPort(t, s, b, "In"))

			root := s.SerializeStore()
			root.Children[0].Child("Connectors").Children[0].Set("end-port", flowPort(t, s, a, "In").ID.String())
			return root
		}},
		{"duplicate pair", func(t *testing.T) *codec.Element {
			s := newTestStore(t)
			fc := newFlowChart(t, s)
			a := newNode(t, s, fc, "pass", 0, 0)
			b := newNode(t, s, fc, "pass", 240, 0)
			connect(t, s, flowPort(t, s, a, "Out"), flowPort(t, s, b, "In"))

			root := s.SerializeStore()
			conns := root.Children[0].Child("Connectors")
			conns.Add(conns.Children[0].Clone().Set("id", domain.NewID().String()))
			return root
		}},
		{"value type not assignable", func(t *testing.T) *codec.Element {
			s := newTestStore(t)
			fc := newFlowChart(t, s)
			a := newNode(t, s, fc, "source", 0, 0)
			b := newNode(t, s, fc, "sink", 240, 0)
			connect(t, s, propertyPort(t, s, a, "Value"), propertyPort(t, s, b, "Value"))

			root := s.SerializeStore()
			port := root.Children[0].Child("Nodes").Children[1].ChildrenNamed("PropertyPort")[0]
			port.Set("value-type", "string").Set("value", "text")
			return root
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := tt.build(t)

			dst := New()
			err := dst.DeserializeStore(root)
			require.ErrorIs(t, err, domain.ErrCorruptDocument)
			assert.Equal(t, Counts{}, dst.Counts())
		})
	}

	t.Run("cycle through a node that allows it", func(t *testing.T) {
		s := newTestStore(t)
		fc := newFlowChart(t, s)
		a := newNode(t, s, fc, "pass", 0, 0)
		b := newNode(t, s, fc, "pass", 240, 0)
		require.NoError(t, s.SetProperty(b.ID, "AllowCircularConnection", true))
		connect(t, s, flowPort(t, s, a, "Out"), flowPort(t, s, b, "In"))
		connect(t, s, flowPort(t, s, b, "Out"), flowPort(t, s, a, "In"))

		dst, err := Load(s.SerializeStore())
		require.NoError(t, err)
		assert.Equal(t, 2, dst.Counts().Connectors)
	})
}

func TestSerializeEntity(t *testing.T) {
	s, fc := buildSample(t)
	node := s.nodes[fc.Nodes[0]]

	el, err := s.SerializeEntity(node.ID)
	require.NoError(t, err)
	assert.Equal(t, "Node", el.Name)
	assert.Len(t, el.Children, 2)

	_, err = s.SerializeEntity(domain.NewID())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	t.Run("restores into the owner", func(t *testing.T) {
		s.DestroyNode(node.ID)
		e, err := s.DeserializeEntity(el)
		require.NoError(t, err)
		assert.Equal(t, node.ID, e.EntityID())
		assert.Contains(t, fc.Nodes, node.ID)
		assert.Equal(t, 2, s.Counts().Nodes)
	})

	t.Run("owner must exist", func(t *testing.T) {
		orphan := el.Clone().Set("owner", domain.NewID().String()).Set("id", domain.NewID().String())
		_, err := s.DeserializeEntity(orphan)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		port := el.Children[0].Clone()
		port.Attrs = nil
		_, err = s.DeserializeEntity(port)
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("pending connector is not saved", func(t *testing.T) {
		_, err := s.BeginConnection(s.nodes[node.ID].OutputFlowPorts[0])
		require.NoError(t, err)
		defer s.CancelSessions()

		doc := s.SerializeStore()
		assert.Empty(t, doc.Children[0].Child("Connectors").Children)
	})
}
