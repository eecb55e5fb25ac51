package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore is a map-backed RunStore used to exercise the contract suite itself.
type mockStore struct {
	data map[string]*domain.RunReport
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]*domain.RunReport)}
}

func (m *mockStore) Save(_ context.Context, report *domain.RunReport) error {
	m.data[report.ID] = report.Clone()
	return nil
}

func (m *mockStore) Load(_ context.Context, runID string) (*domain.RunReport, error) {
	report, ok := m.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return report.Clone(), nil
}

func (m *mockStore) Delete(_ context.Context, runID string) error {
	delete(m.data, runID)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestRunStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, newMockStore())
}

func TestExecutorFunc(t *testing.T) {
	var exec ports.NodeExecutor = ports.ExecutorFunc(func(_ context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error) {
		return domain.ExecutionResponse{Success: true, Output: req.Node.ID}, nil
	})

	resp, err := exec.Execute(context.Background(), domain.ExecutionRequest{Node: domain.Node{ID: "n1"}})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "n1", resp.Output)
}
