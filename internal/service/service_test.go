package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
	"nodegraph/internal/graph"
	"nodegraph/internal/repository/sqlite"
)

// populate builds two connected nodes in the service's store.
func populate(t *testing.T, svc *DocumentService) *domain.FlowChart {
	t.Helper()
	s := svc.Store()
	fc, err := s.CreateFlowChart(graph.FlowChartParams{Type: "main"})
	require.NoError(t, err)

	a, err := s.CreateNode(fc.ID, graph.NodeParams{Header: "A"})
	require.NoError(t, err)
	b, err := s.CreateNode(fc.ID, graph.NodeParams{Header: "B", X: 200})
	require.NoError(t, err)
	out, err := s.CreateFlowPort(a.ID, graph.FlowPortSpec("Out", domain.Output))
	require.NoError(t, err)
	in, err := s.CreateFlowPort(b.ID, graph.FlowPortSpec("In", domain.Input))
	require.NoError(t, err)
	_, err = s.ConnectPorts(out.ID, in.ID)
	require.NoError(t, err)
	return fc
}

func TestSerializeDeserialize(t *testing.T) {
	for _, name := range []string{"graph.xml", "graph.yaml", "graph.json", "graph.ngb", "graph.doc"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			svc := NewDocumentService(WithFormat(codec.FormatJSON, codec.Options{Compress: true}))
			fc := populate(t, svc)

			require.NoError(t, svc.Serialize(path))
			entries, err := os.ReadDir(filepath.Dir(path))
			require.NoError(t, err)
			assert.Len(t, entries, 1, "temp file must not remain")

			loaded := NewDocumentService(WithFormat(codec.FormatJSON, codec.Options{}))
			ok, err := loaded.Deserialize(path)
			require.NoError(t, err)
			assert.True(t, ok)

			s := loaded.Store()
			assert.Equal(t, graph.Counts{FlowCharts: 1, Nodes: 2, FlowPorts: 2, Connectors: 1}, s.Counts())
			_, found := s.FindFlowChart(fc.ID)
			assert.True(t, found)
			assert.Len(t, s.FindNodesByHeader(fc.ID, "B"), 1)
		})
	}
}

func TestSerializeWhileResetting(t *testing.T) {
	svc := NewDocumentService()
	fc := populate(t, svc)
	old := svc.Store()
	require.NoError(t, old.BeginDragSelection(fc.ID, domain.Point{}))

	dir := t.TempDir()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.Serialize(filepath.Join(dir, fmt.Sprintf("graph-%d.xml", i))))
		}()
	}
	svc.Reset()
	wg.Wait()

	assert.False(t, old.IsSelecting(), "swapping out a store cancels its sessions")
	assert.Equal(t, graph.Counts{}, svc.Store().Counts())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestDeserializeMissingFile(t *testing.T) {
	svc := NewDocumentService()
	populate(t, svc)
	before := svc.Store()

	ok, err := svc.Deserialize(filepath.Join(t.TempDir(), "absent.xml"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Same(t, before, svc.Store())

	assert.Error(t, svc.Reload(filepath.Join(t.TempDir(), "absent.xml")))
}

func TestDeserializeCorruptKeepsStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xml")
	require.NoError(t, os.WriteFile(path, []byte(`<NodeGraph version="1"><FlowChart type="x"/></NodeGraph>`), 0o644))

	svc := NewDocumentService()
	populate(t, svc)
	before := svc.Store()

	ok, err := svc.Deserialize(path)
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrCorruptDocument)
	assert.Same(t, before, svc.Store())
	assert.Equal(t, 2, svc.Store().Counts().Nodes)
}

func TestUnsupportedFormat(t *testing.T) {
	svc := NewDocumentService(WithFormat("toml", codec.Options{}))
	err := svc.Serialize(filepath.Join(t.TempDir(), "graph.toml"))
	assert.ErrorContains(t, err, "unsupported document format")
}

func TestRepositoryDocuments(t *testing.T) {
	ctx := context.Background()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "docs.db"))
	require.NoError(t, err)
	defer repo.Close()

	bus := graph.NewEventBus()
	events := make(chan graph.Event, 256)
	bus.Subscribe(events)

	svc := NewDocumentService(WithRepository(repo), WithEventBus(bus))
	fc := populate(t, svc)
	require.NoError(t, svc.SaveToRepository(ctx, "main"))

	docs, err := svc.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 2, docs[0].Nodes)

	svc.Reset()
	assert.Zero(t, svc.Store().Counts().Nodes)

	ok, err := svc.LoadFromRepository(ctx, "main")
	require.NoError(t, err)
	assert.True(t, ok)
	_, found := svc.Store().FindFlowChart(fc.ID)
	assert.True(t, found)

	ok, err = svc.LoadFromRepository(ctx, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.DeleteDocument(ctx, "main"))
	assert.ErrorIs(t, svc.DeleteDocument(ctx, "main"), domain.ErrNotFound)

	var types []graph.EventType
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	assert.Contains(t, types, graph.EventCreated)
	assert.Contains(t, types, graph.EventLoaded)
	assert.Contains(t, types, graph.EventDocumentSaved)
	assert.Contains(t, types, graph.EventDocumentLoaded)
	assert.Contains(t, types, graph.EventDocumentDeleted)
}

func TestNoRepository(t *testing.T) {
	svc := NewDocumentService()
	ctx := context.Background()

	assert.ErrorIs(t, svc.SaveToRepository(ctx, "x"), ErrNoRepository)
	_, err := svc.LoadFromRepository(ctx, "x")
	assert.ErrorIs(t, err, ErrNoRepository)
	_, err = svc.ListDocuments(ctx)
	assert.ErrorIs(t, err, ErrNoRepository)
}
