// Package http exposes graph analysis and node test runs over HTTP.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodySize caps request bodies; graphs with inline CSV can be large.
const maxBodySize = 8 << 20

// Server serves the weft API.
type Server struct {
	Engine   *weft.Engine
	Sessions *session.Manager

	loader   ports.GraphLoader
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGraphLoader sets the graph used when a request carries none.
func WithGraphLoader(loader ports.GraphLoader) Option {
	return func(s *Server) {
		s.loader = loader
	}
}

// WithMetrics mounts /metrics for gatherer.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = gatherer
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server. sessions may be nil, which disables /runs.
func NewServer(engine *weft.Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{Engine: engine, Sessions: sessions, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *weft.Engine, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(engine, sessions, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLog)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/openapi.json", s.GetOpenAPI)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/graph", s.GetGraph)
	r.Post("/fields", s.ListFields)
	r.Post("/variables", s.ListVariables)
	r.Post("/ancestors", s.ListAncestors)
	r.Post("/inputs", s.ListRequiredInputs)
	r.Post("/order", s.OrderNodes)
	r.Post("/testcases", s.RunTestCases)

	r.Route("/runs", func(r chi.Router) {
		r.Use(s.requireSessions)
		r.Get("/", s.ListRuns)
		r.Post("/", s.StartRun)
		r.Get("/{id}", s.GetRun)
		r.Delete("/{id}", s.DeleteRun)
		r.Post("/{id}/cancel", s.CancelRun)
		r.Get("/{id}/events", s.SubscribeRun)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) requireSessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Sessions == nil {
			writeError(w, http.StatusNotImplemented, errors.New("run storage is not configured"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := GetSwagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "weft-http",
		"version":     strings.TrimSpace(weft.Version),
		"api_version": apiVersion,
	})
}

// GetOpenAPI handles GET /openapi.json.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := GetSwagger()
	if err != nil {
		s.logger.Error("failed to load openapi spec", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// analysisRequest is the body shared by the analysis and run endpoints.
type analysisRequest struct {
	Graph   *domain.Graph                       `json:"graph"`
	Node    *domain.Node                        `json:"node"`
	NodeID  string                              `json:"nodeId"`
	NodeIDs []string                            `json:"nodeIds"`
	Last    int                                 `json:"last"`
	Inputs  map[domain.VariableReference]string `json:"inputs"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (analysisRequest, *domain.Graph, bool) {
	var req analysisRequest
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return req, nil, false
	}
	if req.Last < 0 {
		writeError(w, http.StatusBadRequest, errors.New("last must not be negative"))
		return req, nil, false
	}

	g := req.Graph
	if g == nil {
		if s.loader == nil {
			if req.Node != nil {
				return req, domain.NewGraph([]domain.Node{*req.Node}, nil), true
			}
			writeError(w, http.StatusBadRequest, errors.New("graph is required"))
			return req, nil, false
		}
		loaded, err := s.loader.LoadGraph(r.Context())
		if err != nil {
			s.logger.Error("failed to load graph", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return req, nil, false
		}
		g = loaded
	}
	return req, g, true
}

// node resolves the request node: an inline node, or nodeId within g.
func (s *Server) node(w http.ResponseWriter, req analysisRequest, g *domain.Graph) (domain.Node, bool) {
	if req.Node != nil {
		return *req.Node, true
	}
	n, ok := g.Node(req.NodeID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, req.NodeID))
		return domain.Node{}, false
	}
	return n, true
}

// selection resolves nodeIds, or the last N of the full order.
func selection(e *weft.Engine, req analysisRequest, g *domain.Graph) domain.Selection {
	sel := domain.NewSelection(req.NodeIDs...)
	if len(sel.NodeIDs) == 0 && req.Last > 0 {
		sel = e.SelectLast(g, req.Last)
	}
	sel.Inputs = req.Inputs
	return sel
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph configured"))
		return
	}
	g, err := s.loader.LoadGraph(r.Context())
	if err != nil {
		s.logger.Error("failed to load graph", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// ListFields handles POST /fields.
func (s *Server) ListFields(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	n, ok := s.node(w, req, g)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": s.Engine.ListAvailableFields(n)})
}

// ListVariables handles POST /variables.
func (s *Server) ListVariables(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	if !g.Has(req.NodeID) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, req.NodeID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"variables": s.Engine.AvailableVariables(g, req.NodeID)})
}

// ListAncestors handles POST /ancestors.
func (s *Server) ListAncestors(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	if !g.Has(req.NodeID) {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, req.NodeID))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ancestors": s.Engine.ComputeAncestors(g, req.NodeID)})
}

// ListRequiredInputs handles POST /inputs.
func (s *Server) ListRequiredInputs(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	sel := selection(s.Engine, req, g)
	writeJSON(w, http.StatusOK, map[string]any{"inputs": s.Engine.RequiredInputs(g, sel.NodeIDs)})
}

// OrderNodes handles POST /order.
func (s *Server) OrderNodes(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	sel := selection(s.Engine, req, g)
	writeJSON(w, http.StatusOK, s.Engine.TopologicalOrder(g, sel.NodeIDs...))
}

// RunTestCases handles POST /testcases. It runs synchronously.
func (s *Server) RunTestCases(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	n, ok := s.node(w, req, g)
	if !ok {
		return
	}
	results, err := s.Engine.RunTestCases(r.Context(), n)
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// StartRun handles POST /runs.
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	req, g, ok := s.decode(w, r)
	if !ok {
		return
	}
	report, err := s.Sessions.Start(r.Context(), g, selection(s.Engine, req, g))
	if err != nil {
		s.respondError(w, err)
		return
	}
	w.Header().Set("Location", "/runs/"+report.ID)
	writeJSON(w, http.StatusAccepted, report)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": ids})
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	report, err := s.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.Sessions.Get(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelRun handles POST /runs/{id}/cancel.
func (s *Server) CancelRun(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Cancel(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// SubscribeRun handles GET /runs/{id}/events (SSE).
//
// The stream opens with a snapshot of the report, then one result event per
// change, and ends with a complete event carrying the final report.
func (s *Server) SubscribeRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	updates, unsubscribe, err := s.Sessions.Subscribe(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	defer unsubscribe()

	snapshot, err := s.Sessions.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	writeEvent(w, "snapshot", snapshot)
	flusher.Flush()
	s.logger.Info("sse subscribed", "run_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "run_id", id)
			return
		case res, ok := <-updates:
			if !ok {
				if final, err := s.Sessions.Get(r.Context(), id); err == nil {
					writeEvent(w, "complete", final)
					flusher.Flush()
				}
				return
			}
			writeEvent(w, "result", res)
			flusher.Flush()
		}
	}
}

// respondError maps domain errors to status codes.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, err)
}

func statusFor(err error) int {
	var cycle *domain.CycleError
	switch {
	case errors.Is(err, domain.ErrRunNotFound), errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.As(err, &cycle), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, runtime.ErrInputTooLarge), errors.Is(err, runtime.ErrInvalidUTF8):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoExecutor):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeEvent(w io.Writer, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
