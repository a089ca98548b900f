package hub

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/domain"
	"nodegraph/internal/graph"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := New(nil)
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, srv
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHubStreamsEvents(t *testing.T) {
	h, srv := startHub(t)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	waitClients(t, h, 1)

	id := uuid.New()
	h.Broadcast(graph.Event{Type: graph.EventCreated, Kind: domain.KindNode, ID: id})

	var frame []string
	for len(frame) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			frame = append(frame, line)
		}
	}
	assert.Equal(t, "event: "+string(graph.EventCreated), frame[0])
	assert.Contains(t, frame[1], id.String())
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	h, srv := startHub(t)

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	waitClients(t, h, 1)

	cancel()
	resp.Body.Close()
	waitClients(t, h, 0)
}

func TestForward(t *testing.T) {
	h := New(nil)
	events := make(chan graph.Event, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Forward(ctx, events)

	events <- graph.Event{Type: graph.EventDocumentReloaded, Document: "a.xml"}
	select {
	case ev := <-h.broadcast:
		assert.Equal(t, "a.xml", ev.Document)
	case <-time.After(5 * time.Second):
		t.Fatal("event not forwarded")
	}
}
