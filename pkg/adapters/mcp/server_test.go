package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, exec *memory.Executor) *Server {
	t.Helper()
	g := domain.NewGraph(
		[]domain.Node{
			{ID: "csv", Type: domain.KindCSVInput, Label: "Contacts", Config: domain.Config{CSV: "email\nann@example.com"}},
			{ID: "llm", Type: domain.KindLLM, Config: domain.Config{
				UserPrompt: "Write to {{csv.email}}",
				TestCases:  []domain.TestCase{{ID: "t1", ExpectedContains: []string{"hi"}}},
			}},
		},
		[]domain.Edge{{Source: "csv", Target: "llm"}},
	)
	eng, err := weft.New(weft.WithExecutor(exec))
	require.NoError(t, err)
	return NewServer(eng, memory.NewLoader(g))
}

func TestParseNodeIDs(t *testing.T) {
	ids, err := ParseNodeIDs(`["a", "b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = ParseNodeIDs(" a, ,b ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	ids, err = ParseNodeIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = ParseNodeIDs("[1")
	assert.Error(t, err)
}

func TestServer_AnalysisTools(t *testing.T) {
	s := testServer(t, memory.NewExecutor())
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	f, err := s.handleListFields(ctx, req, map[string]any{"node_id": "csv"})
	require.NoError(t, err)
	assert.Equal(t, []string{"rows", "rowCount", "email"}, f.Fields)

	_, err = s.handleListFields(ctx, req, map[string]any{"node_id": "ghost"})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	v, err := s.handleListVariables(ctx, req, map[string]any{"node_id": "llm"})
	require.NoError(t, err)
	assert.Len(t, v.Variables, 3)

	a, err := s.handleAncestors(ctx, req, map[string]any{"node_id": "llm"})
	require.NoError(t, err)
	assert.Equal(t, []string{"csv"}, a.Ancestors)

	in, err := s.handleRequiredInputs(ctx, req, map[string]any{"node_ids": "llm"})
	require.NoError(t, err)
	require.Len(t, in.Inputs, 1)
	assert.Equal(t, domain.VariableReference("csv.email"), in.Inputs[0].Variable)

	o, err := s.handleOrder(ctx, req, map[string]any{"node_ids": `["llm", "csv"]`})
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "llm"}, o.Order)

	o, err = s.handleOrder(ctx, req, map[string]any{"last": float64(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"llm"}, o.Order)

	o, err = s.handleOrder(ctx, req, map[string]any{"graph": `{"nodes": [{"id": "x"}]}`})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, o.Order)

	_, err = s.handleOrder(ctx, req, map[string]any{"graph": `{`})
	assert.ErrorContains(t, err, "invalid graph")
}

func TestServer_RunTools(t *testing.T) {
	exec := memory.NewExecutor().Succeed("llm", "hi there")
	s := testServer(t, exec)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	report, err := s.handleRun(ctx, req, map[string]any{
		"node_ids": "llm",
		"inputs":   `{"csv.email": "ann@example.com"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseComplete, report.Phase)
	assert.Equal(t, domain.StatusSuccess, report.Results["llm"].Status)
	assert.Equal(t, map[string]any{"email": "ann@example.com"}, exec.Calls()[0].Context["csv"])

	_, err = s.handleRun(ctx, req, map[string]any{"node_ids": "llm", "inputs": `[1]`})
	assert.ErrorContains(t, err, "invalid inputs")

	tc, err := s.handleTestCases(ctx, req, map[string]any{"node_id": "llm"})
	require.NoError(t, err)
	require.Len(t, tc.Results, 1)
	assert.Equal(t, domain.TestCasePassed, tc.Results[0].Status)
}

func TestServer_GraphResource(t *testing.T) {
	s := testServer(t, memory.NewExecutor())

	raw, err := s.graphJSON(context.Background())
	require.NoError(t, err)

	var g domain.Graph
	require.NoError(t, json.Unmarshal(raw, &g))
	assert.Equal(t, []string{"csv", "llm"}, g.NodeIDs())

	bare := NewServer(nil, nil)
	_, err = bare.graphJSON(context.Background())
	assert.Error(t, err)
	assert.NotNil(t, bare.MCPServer())
}
