package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowJSON = `{
	"nodes": [
		{"id": "X", "type": "CSV_INPUT", "label": "Contacts", "csv": "email,name"},
		{"id": "A", "type": "LLM", "label": "Writer", "userPrompt": "Write to {{X.email}}"},
		{"id": "B", "type": "LLM", "label": "Editor", "userPrompt": "Polish {{A.text}}"}
	],
	"edges": [{"source": "X", "target": "A"}, {"source": "A", "target": "B"}]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "weft version "))
}

func TestAnalysisCommands(t *testing.T) {
	dir := t.TempDir()
	graph := writeFile(t, dir, "flow.json", flowJSON)
	cfg := writeFile(t, dir, "weft.yaml", "log:\n  level: error\n")

	out, err := runCLI(t, "order", "--config", cfg, "--graph", graph, "--json=false", "--last", "0", "B", "A")
	require.NoError(t, err)
	assert.Equal(t, "A\nB\n", out)

	out, err = runCLI(t, "fields", "--config", cfg, "--graph", graph, "--json=false", "--available=false", "X")
	require.NoError(t, err)
	assert.Equal(t, "email\nname\n", out)

	out, err = runCLI(t, "fields", "--config", cfg, "--graph", graph, "--json=true", "--available=true", "B")
	require.NoError(t, err)
	assert.Contains(t, out, `"variable": "X.email"`)
	assert.Contains(t, out, `"variable": "A.text"`)

	out, err = runCLI(t, "ancestors", "--config", cfg, "--graph", graph, "--json=false", "B")
	require.NoError(t, err)
	assert.Equal(t, "X\nA\n", out)

	out, err = runCLI(t, "inputs", "--config", cfg, "--graph", graph, "--json=false", "--last", "0", "B")
	require.NoError(t, err)
	assert.Equal(t, "A.text\tWriter.text\n", out)

	_, err = runCLI(t, "fields", "--config", cfg, "--graph", graph, "--json=false", "--available=false", "ghost")
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "weft.yaml", "log:\n  level: error\n")

	out, err := runCLI(t, "check", "--config", cfg, "--graph", writeFile(t, dir, "ok.json", flowJSON), "--json=false", "--strict=false")
	require.NoError(t, err)
	assert.Contains(t, out, "3 nodes, 2 edges: ok")

	cyclic := `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"source":"a","target":"b"},{"source":"b","target":"a"}]}`
	out, err = runCLI(t, "check", "--config", cfg, "--graph", writeFile(t, dir, "cycle.json", cyclic), "--json=false", "--strict=false")
	require.Error(t, err)
	assert.Contains(t, out, "dependency cycle among nodes: a, b")

	dangling := writeFile(t, dir, "dangling.json", `{"nodes":[{"id":"a"}],"edges":[{"source":"ghost","target":"a"}]}`)
	out, err = runCLI(t, "check", "--config", cfg, "--graph", dangling, "--json=false", "--strict=false")
	require.NoError(t, err)
	assert.Contains(t, out, "warning: ghost: edge ghost -> a names an unknown node")

	_, err = runCLI(t, "check", "--config", cfg, "--graph", dangling, "--json=false", "--strict=true")
	assert.Error(t, err)
}

func TestRunSaveAndGraph(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Node    map[string]any `json:"node"`
			Context map[string]any `json:"context"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Node["id"] == "B" {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "quota exceeded"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "output": map[string]any{"text": "hello", "seen": req.Context}})
	}))
	defer ts.Close()

	dir := t.TempDir()
	graph := writeFile(t, dir, "flow.json", flowJSON)
	cfg := writeFile(t, dir, "weft.yaml", strings.Join([]string{
		"log:",
		"  level: error",
		"service:",
		"  url: " + ts.URL,
		"store:",
		"  driver: file",
		"  dir: " + filepath.Join(dir, "runs"),
		"",
	}, "\n"))

	out, err := runCLI(t, "run", "--config", cfg, "--graph", graph, "--json", "--save", "--stream=false", "--last", "0",
		"-i", "X.email=ann@example.com", "A", "B")
	require.Error(t, err, "a failed node fails the command")
	assert.Contains(t, err.Error(), "1 of 2 nodes failed")

	var report domain.RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []string{"A", "B"}, report.Order)
	assert.Equal(t, domain.StatusSuccess, report.Results["A"].Status)
	assert.Equal(t, "quota exceeded", report.Results["B"].Error)
	assert.Contains(t, out, "ann@example.com", "manual input reaches the service")

	out, err = runCLI(t, "graph", "--config", cfg, "--graph", graph, "--run", report.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "class A success;")
	assert.Contains(t, out, "class B error;")

	_, err = runCLI(t, "graph", "--config", cfg, "--graph", graph, "--run", "missing")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
