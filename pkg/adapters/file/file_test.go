package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, file.NewStore(t.TempDir()))
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.NewStore(t.TempDir())
	err := store.Save(context.Background(), &domain.RunReport{ID: "../escape"})
	assert.Error(t, err)
}

func TestLoader_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"nodes": [
			{"id": "csv", "type": "CSV_INPUT", "label": "Leads", "csv": "email,name"},
			{"id": "llm", "type": "LLM", "userPrompt": "Write to {{csv.email}}", "schema": "{\"properties\":{\"body\":{}}}"}
		],
		"edges": [{"source": "csv", "target": "llm"}]
	}`), 0o644))

	g, err := file.NewLoader(path).LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"csv", "llm"}, g.NodeIDs())

	llm, _ := g.Node("llm")
	assert.True(t, llm.Schema.IsText())
	assert.Len(t, g.Incoming("llm"), 1)
}

func TestLoader_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
nodes:
  - id: lead
    type: LEAD_INPUT
    label: Lead
  - id: writer
    type: LLM
    label: Writer
    model: gpt-4o
    temperature: 1
    userPrompt: "Hi {{lead.leads[].firstName}}"
    schema:
      type: object
      properties:
        subject: {type: string}
    outputs: [subject]
    testCases:
      - id: t1
        name: mentions company
        inputContext:
          lead.leads[].firstName: Ann
        expectedContains: [Ann]
edges:
  - source: lead
    target: writer
`), 0o644))

	g, err := file.NewLoader(path).LoadGraph(context.Background())
	require.NoError(t, err)

	w, ok := g.Node("writer")
	require.True(t, ok)
	assert.Equal(t, domain.KindLLM, w.Type)
	assert.Equal(t, "gpt-4o", w.Model)
	require.NotNil(t, w.Temperature)
	assert.Equal(t, 1.0, *w.Temperature)
	assert.False(t, w.Schema.IsText())
	assert.JSONEq(t, `{"type":"object","properties":{"subject":{"type":"string"}}}`, w.Schema.Text())
	require.Len(t, w.TestCases, 1)
	assert.Equal(t, "Ann", w.TestCases[0].InputContext["lead.leads[].firstName"])
	assert.Equal(t, []domain.Edge{{Source: "lead", Target: "writer"}}, g.Edges())
}

func TestLoader_Errors(t *testing.T) {
	_, err := file.NewLoader(filepath.Join(t.TempDir(), "missing.json")).LoadGraph(context.Background())
	assert.Error(t, err)

	_, err = file.DecodeJSON([]byte(`{"nodes": 3}`))
	assert.Error(t, err)

	_, err = file.DecodeYAML([]byte("nodes: [\n"))
	assert.Error(t, err)
}
