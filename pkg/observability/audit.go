package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/weft/pkg/domain"
)

// AuditHooks logs every lifecycle event to logger.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID, "nodes", len(e.Report.Results))
		},
		OnNodeStart: func(ctx context.Context, e *domain.NodeEvent) {
			logger.InfoContext(ctx, "node_start", "run_id", e.RunID, "node_id", e.Node.ID, "type", e.Node.Type, "position", e.Position)
		},
		OnNodeFinish: func(ctx context.Context, e *domain.NodeEvent) {
			attrs := []any{"run_id", e.RunID, "node_id", e.Node.ID, "status", e.Result.Status, "duration_ms", e.Result.DurationMs}
			if e.Result.Error != "" {
				logger.WarnContext(ctx, "node_finish", append(attrs, "error", e.Result.Error)...)
				return
			}
			logger.InfoContext(ctx, "node_finish", attrs...)
		},
		OnRunComplete: func(ctx context.Context, e *domain.RunEvent) {
			succeeded, failed := e.Report.Counts()
			logger.InfoContext(ctx, "run_complete", "run_id", e.RunID, "success", succeeded, "error", failed, "canceled", e.Report.Canceled)
		},
	}
}
