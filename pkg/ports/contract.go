package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-run-" + time.Now().Format("20060102150405")

	newReport := func(id string) *domain.RunReport {
		return &domain.RunReport{
			ID:        id,
			Phase:     domain.PhaseComplete,
			Order:     []string{"a", "b"},
			StartedAt: time.Now().UTC().Truncate(time.Millisecond),
			Results: map[string]domain.NodeTestResult{
				"a": {NodeID: "a", Status: domain.StatusSuccess, Output: map[string]any{"text": "hi"}, DurationMs: 12},
				"b": {NodeID: "b", Status: domain.StatusError, Error: "boom"},
			},
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		report := newReport(runID)
		require.NoError(t, store.Save(ctx, report), "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, report.ID, loaded.ID)
		assert.Equal(t, report.Phase, loaded.Phase)
		assert.Equal(t, report.Order, loaded.Order)
		assert.Equal(t, domain.StatusError, loaded.Results["b"].Status)
		assert.Equal(t, "boom", loaded.Results["b"].Error)
		// JSON backends decode outputs as generic maps.
		assert.NotNil(t, loaded.Results["a"].Output)
		assert.True(t, report.StartedAt.Equal(loaded.StartedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		report := newReport(runID)
		report.Canceled = true
		require.NoError(t, store.Save(ctx, report))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.True(t, loaded.Canceled)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newReport(runID)))
		require.NoError(t, store.Delete(ctx, runID), "Delete should not return error")

		_, err := store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, newReport(id1)))
		require.NoError(t, store.Save(ctx, newReport(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
