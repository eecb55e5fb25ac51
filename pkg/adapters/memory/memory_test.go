package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, memory.NewStore())
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	report := &domain.RunReport{ID: "r", Results: map[string]domain.NodeTestResult{"a": {NodeID: "a"}}}
	require.NoError(t, store.Save(ctx, report))

	report.Results["a"] = domain.NodeTestResult{NodeID: "a", Status: domain.StatusError}
	loaded, err := store.Load(ctx, "r")
	require.NoError(t, err)
	assert.Empty(t, loaded.Results["a"].Status)
}

func TestExecutor_Scripts(t *testing.T) {
	ctx := context.Background()
	exec := memory.NewExecutor().
		Succeed("a", "out-a").
		Fail("b", "quota").
		On("c", func(context.Context, domain.ExecutionRequest) (domain.ExecutionResponse, error) {
			return domain.ExecutionResponse{}, errors.New("unreachable")
		})

	resp, err := exec.Execute(ctx, domain.ExecutionRequest{Node: domain.Node{ID: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "out-a", resp.Output)

	resp, err = exec.Execute(ctx, domain.ExecutionRequest{Node: domain.Node{ID: "b"}})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "quota", resp.Error)

	_, err = exec.Execute(ctx, domain.ExecutionRequest{Node: domain.Node{ID: "c"}})
	assert.ErrorContains(t, err, "unreachable")

	resp, err = exec.Execute(ctx, domain.ExecutionRequest{Node: domain.Node{ID: "other"}})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.Len(t, exec.Calls(), 4)
}

func TestExecutor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := memory.NewExecutor().Execute(ctx, domain.ExecutionRequest{Node: domain.Node{ID: "a"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader(t *testing.T) {
	l, err := memory.NewFromJSON([]byte(`{"nodes":[{"id":"a","type":"JSON"},{"id":"b","type":"LLM"}],"edges":[{"source":"a","target":"b"}]}`))
	require.NoError(t, err)
	g, err := l.LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, g.NodeIDs())

	_, err = memory.NewFromNodes([]domain.Node{{Label: "no id"}})
	assert.Error(t, err)

	_, err = memory.NewFromJSON([]byte(`{`))
	assert.Error(t, err)
}
