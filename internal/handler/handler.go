package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"nodegraph/internal/codec"
	"nodegraph/internal/domain"
	"nodegraph/internal/graph"
	"nodegraph/internal/service"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GraphResponse is the body of GET /api/graph
type GraphResponse struct {
	Counts     graph.Counts    `json:"counts"`
	FlowCharts []FlowChartView `json:"flowcharts"`
}

// FlowChartView is a flow chart with its entities resolved
type FlowChartView struct {
	*domain.FlowChart
	NodeList      []NodeView          `json:"node_list"`
	ConnectorList []*domain.Connector `json:"connector_list"`
}

// NodeView is a node with its ports resolved
type NodeView struct {
	*domain.Node
	Ports []*domain.Port `json:"ports"`
}

// DocumentHandler serves the document held by a DocumentService
type DocumentHandler struct {
	svc    *service.DocumentService
	path   string
	logger *slog.Logger
}

// NewDocumentHandler creates a handler. path is the file served by
// POST /api/reload and may be empty.
func NewDocumentHandler(svc *service.DocumentService, path string, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DocumentHandler{svc: svc, path: path, logger: logger}
}

// Register adds the API routes to mux. events serves /events when non-nil.
func (h *DocumentHandler) Register(mux *http.ServeMux, events http.Handler) {
	mux.HandleFunc("GET /api/graph", h.GetGraph)
	mux.HandleFunc("GET /api/nodes/{id}", h.GetNode)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
	mux.HandleFunc("POST /api/reload", h.Reload)

	mux.HandleFunc("GET /api/documents", h.ListDocuments)
	mux.HandleFunc("PUT /api/documents/{name}", h.SaveDocument)
	mux.HandleFunc("POST /api/documents/{name}/load", h.LoadDocument)
	mux.HandleFunc("DELETE /api/documents/{name}", h.DeleteDocument)

	if events != nil {
		mux.Handle("GET /events", events)
	}
}

// GetGraph returns every flow chart of the current document
func (h *DocumentHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	s := h.svc.Store()
	resp := GraphResponse{Counts: s.Counts(), FlowCharts: []FlowChartView{}}

	for _, fc := range s.FlowCharts() {
		view := FlowChartView{
			FlowChart:     fc,
			NodeList:      make([]NodeView, 0, len(fc.Nodes)),
			ConnectorList: make([]*domain.Connector, 0, len(fc.Connectors)),
		}
		for _, id := range fc.Nodes {
			if n, ok := s.FindNode(id); ok {
				view.NodeList = append(view.NodeList, nodeView(s, n))
			}
		}
		for _, id := range fc.Connectors {
			if c, ok := s.FindConnector(id); ok {
				view.ConnectorList = append(view.ConnectorList, c)
			}
		}
		resp.FlowCharts = append(resp.FlowCharts, view)
	}

	h.writeJSON(w, resp, http.StatusOK)
}

func nodeView(s *graph.Store, n *domain.Node) NodeView {
	view := NodeView{Node: n, Ports: []*domain.Port{}}
	for _, ids := range [][]domain.ID{n.InputFlowPorts, n.OutputFlowPorts, n.InputPropertyPorts, n.OutputPropertyPorts} {
		for _, id := range ids {
			if p, ok := s.FindPort(id); ok {
				view.Ports = append(view.Ports, p)
			}
		}
	}
	return view
}

// GetNode returns a single node
func (h *DocumentHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.writeError(w, "Invalid node ID", err.Error(), http.StatusBadRequest)
		return
	}

	s := h.svc.Store()
	n, ok := s.FindNode(id)
	if !ok {
		h.writeError(w, "Not found", "node "+id.String()+" does not exist", http.StatusNotFound)
		return
	}
	h.writeJSON(w, nodeView(s, n), http.StatusOK)
}

var contentTypes = map[string]string{
	codec.FormatXML:    "application/xml",
	codec.FormatYAML:   "application/yaml",
	codec.FormatJSON:   "application/json",
	codec.FormatBinary: "application/octet-stream",
}

// Export writes the current document in the requested format. Binary
// exports are zstd compressed when ?compress=true.
func (h *DocumentHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	c, err := codec.ForFormat(format, codec.Options{Compress: r.URL.Query().Get("compress") == "true"})
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentTypes[c.Format()])
	if err := c.Export(h.svc.Store().SerializeStore(), w); err != nil {
		h.logger.Error("export failed", "format", format, "error", err)
	}
}

// Reload re-reads the served file
func (h *DocumentHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.path == "" {
		h.writeError(w, "Nothing to reload", "server was started without a document file", http.StatusConflict)
		return
	}
	if err := h.svc.Reload(h.path); err != nil {
		h.fail(w, "Reload failed", err)
		return
	}
	h.writeJSON(w, h.svc.Store().Counts(), http.StatusOK)
}

// ListDocuments returns the stored documents
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.Context())
	if err != nil {
		h.fail(w, "Failed to list documents", err)
		return
	}
	h.writeJSON(w, docs, http.StatusOK)
}

// SaveDocument stores the current document under {name}
func (h *DocumentHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := h.svc.SaveToRepository(r.Context(), name); err != nil {
		h.fail(w, "Failed to save document", err)
		return
	}
	h.writeJSON(w, map[string]string{"name": name}, http.StatusCreated)
}

// LoadDocument replaces the current document with a stored one
func (h *DocumentHandler) LoadDocument(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	ok, err := h.svc.LoadFromRepository(r.Context(), name)
	if err != nil {
		h.fail(w, "Failed to load document", err)
		return
	}
	if !ok {
		h.writeError(w, "Not found", "no stored document named "+name, http.StatusNotFound)
		return
	}
	h.writeJSON(w, h.svc.Store().Counts(), http.StatusOK)
}

// DeleteDocument removes a stored document
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteDocument(r.Context(), r.PathValue("name")); err != nil {
		h.fail(w, "Failed to delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) fail(w http.ResponseWriter, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNoRepository):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrCorruptDocument):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error(msg, "error", err)
	}
	h.writeError(w, msg, err.Error(), status)
}

func (h *DocumentHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *DocumentHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
