package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/graph"
	"nodegraph/internal/service"
)

type fakeReloader struct {
	calls atomic.Int32
	err   error
	done  chan string
}

func (f *fakeReloader) Reload(path string) error {
	f.calls.Add(1)
	f.done <- path
	return f.err
}

func start(t *testing.T, w *Watcher) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Watch(ctx) }()

	select {
	case <-w.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("watch failed: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher never became ready")
	}

	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-errCh, context.Canceled)
	})
	return cancel
}

func waitReload(t *testing.T, done <-chan string) string {
	t.Helper()
	select {
	case path := <-done:
		return path
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
		return ""
	}
}

func TestWatchDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.xml")
	require.NoError(t, os.WriteFile(path, []byte("v0"), 0o644))

	target := &fakeReloader{done: make(chan string, 8)}
	w := New(path, target, WithDebounce(100*time.Millisecond))
	start(t, w)

	for _, v := range []string{"v1", "v2", "v3"} {
		require.NoError(t, os.WriteFile(path, []byte(v), 0o644))
	}

	assert.Equal(t, path, waitReload(t, target.done))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), target.calls.Load())
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.xml")

	target := &fakeReloader{done: make(chan string, 8)}
	w := New(path, target, WithDebounce(50*time.Millisecond))
	start(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.xml"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, target.calls.Load())

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	waitReload(t, target.done)
}

func TestWatchSurvivesReloadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.xml")

	target := &fakeReloader{done: make(chan string, 8), err: errors.New("corrupt")}
	w := New(path, target, WithDebounce(50*time.Millisecond))
	start(t, w)

	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))
	waitReload(t, target.done)

	require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	waitReload(t, target.done)
	assert.Equal(t, int32(2), target.calls.Load())
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent", "graph.xml"), &fakeReloader{})
	assert.Error(t, w.Watch(context.Background()))
}

func TestWatchReloadsDocumentService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.xml")

	writer := service.NewDocumentService()
	fc, err := writer.Store().CreateFlowChart(graph.FlowChartParams{Type: "main"})
	require.NoError(t, err)
	require.NoError(t, writer.Serialize(path))

	bus := graph.NewEventBus()
	events := make(chan graph.Event, 64)
	bus.Subscribe(events)

	svc := service.NewDocumentService(service.WithEventBus(bus))
	ok, err := svc.Deserialize(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, svc.Store().Counts().Nodes)

	w := New(path, svc, WithDebounce(50*time.Millisecond))
	start(t, w)

	_, err = writer.Store().CreateNode(fc.ID, graph.NodeParams{Header: "added"})
	require.NoError(t, err)
	require.NoError(t, writer.Serialize(path))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type != graph.EventDocumentReloaded {
				continue
			}
			assert.Equal(t, path, ev.Document)
			assert.Equal(t, 1, svc.Store().Counts().Nodes)
			return
		case <-deadline:
			t.Fatal("document was not reloaded")
		}
	}
}
