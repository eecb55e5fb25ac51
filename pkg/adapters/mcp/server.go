// Package mcp exposes graph analysis and node test runs as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/fields"
	"github.com/aretw0/weft/pkg/ports"
	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// GraphURI is the resource that serves the configured graph.
const GraphURI = "weft://graph"

// FieldsResponse lists the fields a node exposes.
type FieldsResponse struct {
	Fields []string `json:"fields" jsonschema_description:"Field names downstream nodes can reference"`
}

// VariablesResponse lists what a node may reference.
type VariablesResponse struct {
	Variables []fields.AvailableField `json:"variables" jsonschema_description:"Variables from every ancestor"`
}

// AncestorsResponse lists upstream nodes.
type AncestorsResponse struct {
	Ancestors []string `json:"ancestors" jsonschema_description:"Upstream node ids in declared order"`
}

// InputsResponse lists the manual inputs a selection needs.
type InputsResponse struct {
	Inputs []domain.RequiredInput `json:"inputs" jsonschema_description:"Variables read from nodes outside the selection"`
}

// OrderResponse is the dependency order of a selection.
type OrderResponse struct {
	Order   []string `json:"order" jsonschema_description:"Execution order"`
	Omitted []string `json:"omitted,omitempty" jsonschema_description:"Nodes left out because of a cycle"`
}

// TestCasesResponse holds one result per saved test case.
type TestCasesResponse struct {
	Results []domain.TestCaseResult `json:"results"`
}

// Server wraps the weft Engine and exposes it as an MCP server.
type Server struct {
	engine    *weft.Engine
	loader    ports.GraphLoader
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP server. loader may be nil, in which case every
// tool call must pass its graph inline.
func NewServer(engine *weft.Engine, loader ports.GraphLoader, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		loader:    loader,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("weft-mcp", strings.TrimSpace(weft.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on port over SSE until ctx ends.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func graphArg() mcp.ToolOption {
	return mcp.WithString("graph", mcp.Description("JSON graph {nodes, edges}; defaults to the configured graph"))
}

func nodeIDsArg() mcp.ToolOption {
	return mcp.WithString("node_ids", mcp.Description("Comma separated or JSON array of node ids"))
}

func lastArg() mcp.ToolOption {
	return mcp.WithNumber("last", mcp.Description("Select the last N nodes of the full order when node_ids is empty"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_fields",
		mcp.WithDescription("List the fields a node exposes to its descendants."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		graphArg(),
		mcp.WithOutputSchema[FieldsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListFields))

	s.mcpServer.AddTool(mcp.NewTool("list_variables",
		mcp.WithDescription("List every {{node.field}} variable a node may reference."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		graphArg(),
		mcp.WithOutputSchema[VariablesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListVariables))

	s.mcpServer.AddTool(mcp.NewTool("compute_ancestors",
		mcp.WithDescription("List the nodes upstream of a node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		graphArg(),
		mcp.WithOutputSchema[AncestorsResponse](),
	), mcp.NewStructuredToolHandler(s.handleAncestors))

	s.mcpServer.AddTool(mcp.NewTool("required_inputs",
		mcp.WithDescription("List the variables a selection reads from nodes outside it."),
		nodeIDsArg(), lastArg(), graphArg(),
		mcp.WithOutputSchema[InputsResponse](),
	), mcp.NewStructuredToolHandler(s.handleRequiredInputs))

	s.mcpServer.AddTool(mcp.NewTool("topological_order",
		mcp.WithDescription("Order a selection so every node runs after its dependencies."),
		nodeIDsArg(), lastArg(), graphArg(),
		mcp.WithOutputSchema[OrderResponse](),
	), mcp.NewStructuredToolHandler(s.handleOrder))

	s.mcpServer.AddTool(mcp.NewTool("run_nodes",
		mcp.WithDescription("Test the selected nodes in dependency order and return the report."),
		nodeIDsArg(), lastArg(), graphArg(),
		mcp.WithString("inputs", mcp.Description(`JSON object of manual inputs, e.g. {"csv.email": "a@b.c"}`)),
		mcp.WithOutputSchema[domain.RunReport](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("run_test_cases",
		mcp.WithDescription("Run the saved test cases of a node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		graphArg(),
		mcp.WithOutputSchema[TestCasesResponse](),
	), mcp.NewStructuredToolHandler(s.handleTestCases))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the configured graph definition."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := s.graphJSON(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(GraphURI, "Current Graph Definition",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw, err := s.graphJSON(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: GraphURI, MIMEType: "application/json", Text: string(raw)},
		}, nil
	})
}

func (s *Server) graphJSON(ctx context.Context) ([]byte, error) {
	if s.loader == nil {
		return nil, errors.New("no graph configured")
	}
	g, err := s.loader.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	return json.Marshal(g)
}

// graph resolves the "graph" argument or falls back to the loader.
func (s *Server) graph(ctx context.Context, args map[string]any) (*domain.Graph, error) {
	if raw, ok := args["graph"].(string); ok && strings.TrimSpace(raw) != "" {
		var g domain.Graph
		if err := json.Unmarshal([]byte(raw), &g); err != nil {
			return nil, fmt.Errorf("invalid graph: %w", err)
		}
		return &g, nil
	}
	if s.loader == nil {
		return nil, errors.New("graph is required")
	}
	return s.loader.LoadGraph(ctx)
}

func nodeArg(g *domain.Graph, args map[string]any) (domain.Node, error) {
	id, _ := args["node_id"].(string)
	n, ok := g.Node(id)
	if !ok {
		return domain.Node{}, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

// ParseNodeIDs accepts a JSON array or a comma separated list.
func ParseNodeIDs(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "[") {
		var ids []string
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, fmt.Errorf("invalid node_ids: %w", err)
		}
		return ids, nil
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *Server) selection(g *domain.Graph, args map[string]any) (domain.Selection, error) {
	raw, _ := args["node_ids"].(string)
	ids, err := ParseNodeIDs(raw)
	if err != nil {
		return domain.Selection{}, err
	}
	sel := domain.NewSelection(ids...)
	if last, ok := args["last"].(float64); ok && len(ids) == 0 && last > 0 {
		sel = s.engine.SelectLast(g, int(last))
	}
	if rawInputs, ok := args["inputs"].(string); ok && strings.TrimSpace(rawInputs) != "" {
		if err := json.Unmarshal([]byte(rawInputs), &sel.Inputs); err != nil {
			return domain.Selection{}, fmt.Errorf("invalid inputs: %w", err)
		}
	}
	return sel, nil
}

func (s *Server) handleListFields(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (FieldsResponse, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return FieldsResponse{}, err
	}
	n, err := nodeArg(g, args)
	if err != nil {
		return FieldsResponse{}, err
	}
	return FieldsResponse{Fields: s.engine.ListAvailableFields(n)}, nil
}

func (s *Server) handleListVariables(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (VariablesResponse, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return VariablesResponse{}, err
	}
	n, err := nodeArg(g, args)
	if err != nil {
		return VariablesResponse{}, err
	}
	return VariablesResponse{Variables: s.engine.AvailableVariables(g, n.ID)}, nil
}

func (s *Server) handleAncestors(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (AncestorsResponse, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return AncestorsResponse{}, err
	}
	n, err := nodeArg(g, args)
	if err != nil {
		return AncestorsResponse{}, err
	}
	return AncestorsResponse{Ancestors: s.engine.ComputeAncestors(g, n.ID)}, nil
}

func (s *Server) handleRequiredInputs(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (InputsResponse, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return InputsResponse{}, err
	}
	sel, err := s.selection(g, args)
	if err != nil {
		return InputsResponse{}, err
	}
	return InputsResponse{Inputs: s.engine.RequiredInputs(g, sel.NodeIDs)}, nil
}

func (s *Server) handleOrder(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (OrderResponse, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return OrderResponse{}, err
	}
	sel, err := s.selection(g, args)
	if err != nil {
		return OrderResponse{}, err
	}
	o := s.engine.TopologicalOrder(g, sel.NodeIDs...)
	return OrderResponse{Order: o.IDs, Omitted: o.Omitted}, nil
}

func (s *Server) handleRun(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (domain.RunReport, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return domain.RunReport{}, err
	}
	sel, err := s.selection(g, args)
	if err != nil {
		return domain.RunReport{}, err
	}
	report, err := s.engine.Run(ctx, g, sel)
	if err != nil {
		s.logger.Warn("mcp run rejected", "error", err)
		return domain.RunReport{}, fmt.Errorf("run failed: %w", err)
	}
	return *report, nil
}

func (s *Server) handleTestCases(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (TestCasesResponse, error) {
	g, err := s.graph(ctx, args)
	if err != nil {
		return TestCasesResponse{}, err
	}
	n, err := nodeArg(g, args)
	if err != nil {
		return TestCasesResponse{}, err
	}
	results, err := s.engine.RunTestCases(ctx, n)
	if err != nil {
		return TestCasesResponse{}, err
	}
	return TestCasesResponse{Results: results}, nil
}
