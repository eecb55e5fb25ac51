package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
)

// RunStore persists run reports.
type RunStore interface {
	// Save stores the report under report.ID, replacing any previous version.
	Save(ctx context.Context, report *domain.RunReport) error

	// Load retrieves a report.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, runID string) (*domain.RunReport, error)

	// Delete removes a report. Deleting a missing run is not an error.
	Delete(ctx context.Context, runID string) error

	// List returns the ids of all stored runs.
	List(ctx context.Context) ([]string, error)
}
