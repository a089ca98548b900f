package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodegraph/internal/domain"
	"nodegraph/internal/graph"
	"nodegraph/internal/repository/sqlite"
	"nodegraph/internal/service"
)

type fixture struct {
	svc  *service.DocumentService
	srv  *httptest.Server
	node *domain.Node
	path string
}

func newFixture(t *testing.T, withRepo bool) *fixture {
	t.Helper()
	dir := t.TempDir()

	var opts []service.Option
	if withRepo {
		repo, err := sqlite.New(filepath.Join(dir, "docs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		opts = append(opts, service.WithRepository(repo))
	}
	svc := service.NewDocumentService(opts...)

	s := svc.Store()
	fc, err := s.CreateFlowChart(graph.FlowChartParams{Type: "main"})
	require.NoError(t, err)
	a, err := s.CreateNode(fc.ID, graph.NodeParams{Header: "A"})
	require.NoError(t, err)
	b, err := s.CreateNode(fc.ID, graph.NodeParams{Header: "B"})
	require.NoError(t, err)
	out, err := s.CreateFlowPort(a.ID, graph.FlowPortSpec("Out", domain.Output))
	require.NoError(t, err)
	in, err := s.CreateFlowPort(b.ID, graph.FlowPortSpec("In", domain.Input))
	require.NoError(t, err)
	_, err = s.ConnectPorts(out.ID, in.ID)
	require.NoError(t, err)

	path := filepath.Join(dir, "graph.xml")
	require.NoError(t, svc.Serialize(path))

	mux := http.NewServeMux()
	NewDocumentHandler(svc, path, nil).Register(mux, nil)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &fixture{svc: svc, srv: srv, node: a, path: path}
}

func (f *fixture) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestGetGraph(t *testing.T) {
	f := newFixture(t, false)

	resp := f.do(t, http.MethodGet, "/api/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Counts     graph.Counts `json:"counts"`
		FlowCharts []struct {
			Type     string `json:"type"`
			NodeList []struct {
				Header string         `json:"header"`
				Ports  []*domain.Port `json:"ports"`
			} `json:"node_list"`
			ConnectorList []*domain.Connector `json:"connector_list"`
		} `json:"flowcharts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, graph.Counts{FlowCharts: 1, Nodes: 2, FlowPorts: 2, Connectors: 1}, body.Counts)
	require.Len(t, body.FlowCharts, 1)
	fc := body.FlowCharts[0]
	assert.Equal(t, "main", fc.Type)
	require.Len(t, fc.NodeList, 2)
	assert.Equal(t, "A", fc.NodeList[0].Header)
	require.Len(t, fc.NodeList[0].Ports, 1)
	assert.Equal(t, "Out", fc.NodeList[0].Ports[0].Name)
	assert.Len(t, fc.ConnectorList, 1)
}

func TestGetNode(t *testing.T) {
	f := newFixture(t, false)

	resp := f.do(t, http.MethodGet, "/api/nodes/"+f.node.ID.String())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	node := decode[map[string]any](t, resp)
	assert.Equal(t, "A", node["header"])

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/nodes/nope").StatusCode)

	resp = f.do(t, http.MethodGet, "/api/nodes/"+uuid.NewString())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", decode[ErrorResponse](t, resp).Error)
}

func TestExport(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"xml", "application/xml", "<NodeGraph"},
		{"yaml", "application/yaml", "NodeGraph"},
		{"json", "application/json", `"NodeGraph"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			resp := f.do(t, http.MethodGet, "/api/export/"+tt.format)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			data, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.contains)
		})
	}

	resp := f.do(t, http.MethodGet, "/api/export/binary?compress=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/export/toml").StatusCode)
}

func TestDocuments(t *testing.T) {
	f := newFixture(t, true)

	assert.Equal(t, http.StatusCreated, f.do(t, http.MethodPut, "/api/documents/first").StatusCode)

	resp := f.do(t, http.MethodGet, "/api/documents")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	docs := decode[[]map[string]any](t, resp)
	require.Len(t, docs, 1)
	assert.Equal(t, "first", docs[0]["name"])

	f.svc.Reset()
	resp = f.do(t, http.MethodPost, "/api/documents/first/load")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, f.svc.Store().Counts().Nodes)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/documents/absent/load").StatusCode)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/documents/first").StatusCode)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/api/documents/first").StatusCode)
}

func TestDocumentsWithoutRepository(t *testing.T) {
	f := newFixture(t, false)
	resp := f.do(t, http.MethodGet, "/api/documents")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.True(t, strings.Contains(decode[ErrorResponse](t, resp).Details, "repository"))
}

func TestReload(t *testing.T) {
	f := newFixture(t, false)

	f.svc.Reset()
	require.Zero(t, f.svc.Store().Counts().Nodes)

	resp := f.do(t, http.MethodPost, "/api/reload")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[graph.Counts](t, resp).Nodes)

	mux := http.NewServeMux()
	NewDocumentHandler(f.svc, "", nil).Register(mux, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMiddleware(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), mark("outer"), Recover(logger), Logger(logger), mark("inner"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
