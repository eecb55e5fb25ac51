package domain

import "context"

// RunEvent describes a run-level transition.
type RunEvent struct {
	RunID  string
	Report *RunReport
}

// NodeEvent describes a node-level transition inside a run.
type NodeEvent struct {
	RunID    string
	Node     Node
	Result   NodeTestResult
	Position int // 0-based index in the run order
}

// LifecycleHooks defines callbacks for run observability.
type LifecycleHooks struct {
	OnRunStart    func(context.Context, *RunEvent)
	OnNodeStart   func(context.Context, *NodeEvent)
	OnNodeFinish  func(context.Context, *NodeEvent)
	OnRunComplete func(context.Context, *RunEvent)
}

// CombineHooks fans every callback out to each of the given hooks in order.
func CombineHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnNodeStart: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeStart != nil {
					h.OnNodeStart(ctx, e)
				}
			}
		},
		OnNodeFinish: func(ctx context.Context, e *NodeEvent) {
			for _, h := range hooks {
				if h.OnNodeFinish != nil {
					h.OnNodeFinish(ctx, e)
				}
			}
		},
		OnRunComplete: func(ctx context.Context, e *RunEvent) {
			for _, h := range hooks {
				if h.OnRunComplete != nil {
					h.OnRunComplete(ctx, e)
				}
			}
		},
	}
}
