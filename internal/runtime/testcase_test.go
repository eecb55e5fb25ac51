package runtime_test

import (
	"context"
	"testing"

	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RunTestCases(t *testing.T) {
	exec := &recorder{answer: func(req domain.ExecutionRequest) (domain.ExecutionResponse, error) {
		lead, _ := req.Context["lead"].(map[string]any)
		name, _ := lead["name"].(string)
		if name == "" {
			return domain.ExecutionResponse{Success: false, Error: "missing name"}, nil
		}
		return domain.ExecutionResponse{Success: true, Output: map[string]any{"greeting": "Hello " + name, "score": 7}}, nil
	}}
	node := domain.Node{ID: "writer", Type: domain.KindLLM, Config: domain.Config{
		UserPrompt: "Greet {{lead.name}}",
		TestCases: []domain.TestCase{
			{ID: "t1", Name: "greets", InputContext: map[string]string{"lead.name": "Ann"}, ExpectedContains: []string{"Hello Ann"}, Assert: "output.score > 5"},
			{ID: "t2", Name: "no shouting", InputContext: map[string]string{"lead.name": "Bob"}, ExpectedNotContains: []string{"Bob"}},
			{ID: "t3", Name: "service error"},
			{ID: "t4", Name: "bad assert", InputContext: map[string]string{"lead.name": "Cy"}, Assert: "output.score >"},
		},
	}}

	results, err := runtime.NewEngine(exec).RunTestCases(context.Background(), node)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, domain.TestCasePassed, results[0].Status, results[0].Failures)
	assert.Equal(t, domain.TestCaseFailed, results[1].Status)
	assert.Len(t, results[1].Failures, 1)
	assert.Equal(t, "missing name", results[2].Error)
	assert.Equal(t, domain.TestCaseFailed, results[3].Status)
	assert.Contains(t, results[3].Failures[0], "assert")

	assert.Equal(t, runtime.DefaultModel, exec.requests[0].Node.Model)
}

func TestEngine_RunTestCases_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	node := domain.Node{ID: "n", Config: domain.Config{TestCases: []domain.TestCase{{ID: "t"}}}}

	_, err := runtime.NewEngine(&recorder{}).RunTestCases(ctx, node)
	assert.ErrorIs(t, err, domain.ErrRunCanceled)
}

func TestAssert(t *testing.T) {
	ok, err := runtime.Assert(`text contains "hi"`, nil, "oh hi")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = runtime.Assert(`len(output.items) == 2`, map[string]any{"items": []any{1, 2}}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = runtime.Assert(`1 +`, nil, "")
	assert.Error(t, err)
}

func TestOutputText(t *testing.T) {
	assert.Equal(t, "", runtime.OutputText(nil))
	assert.Equal(t, "plain", runtime.OutputText("plain"))
	assert.JSONEq(t, `{"a":1}`, runtime.OutputText(map[string]any{"a": 1}))
}
