package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/template"
	"github.com/aretw0/weft/pkg/topology"
	"github.com/google/uuid"
)

// DefaultModel is sent for nodes that do not name a model.
const DefaultModel = "gemini-2.0-flash"

// Messages recorded on nodes that fail without a service error text.
const (
	MsgUnknownError = "Unknown error"
	MsgNetworkError = "Network error"
	MsgDependency   = "dependency cycle"
)

// Engine runs node selections against a NodeExecutor.
// An Engine is safe for concurrent use; each Run owns its own state.
type Engine struct {
	executor      ports.NodeExecutor
	logger        *slog.Logger
	hooks         domain.LifecycleHooks
	failurePolicy FailurePolicy
	cyclePolicy   CyclePolicy
	defaultModel  string
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithFailurePolicy sets how failures propagate to referencing nodes.
func WithFailurePolicy(p FailurePolicy) EngineOption {
	return func(e *Engine) {
		if p != "" {
			e.failurePolicy = p
		}
	}
}

// WithCyclePolicy sets how cycles in the selection are handled.
func WithCyclePolicy(p CyclePolicy) EngineOption {
	return func(e *Engine) {
		if p != "" {
			e.cyclePolicy = p
		}
	}
}

// WithDefaultModel overrides DefaultModel. An empty model leaves nodes untouched.
func WithDefaultModel(model string) EngineOption {
	return func(e *Engine) {
		e.defaultModel = model
	}
}

// NewEngine creates an engine dispatching to executor.
func NewEngine(executor ports.NodeExecutor, opts ...EngineOption) *Engine {
	e := &Engine{
		executor:      executor,
		logger:        logging.NewNop(),
		failurePolicy: FailureContinue,
		cyclePolicy:   CycleDrop,
		defaultModel:  DefaultModel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOption configures a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	id      string
	updates chan<- domain.NodeTestResult
}

// WithRunID fixes the run id instead of generating one.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.id = id
	}
}

// WithUpdates sends every result change to ch. The channel is never closed by Run.
func WithUpdates(ch chan<- domain.NodeTestResult) RunOption {
	return func(c *runConfig) {
		c.updates = ch
	}
}

// Run executes the selected nodes of g in dependency order.
//
// Every selected id ends with a terminal result. Unknown ids and cycle members
// fail without dispatch, a failing node never stops later nodes, and a
// canceled ctx fails the nodes that were not started yet. Run only returns an
// error when the run cannot start: missing executor, invalid manual input or a
// cycle under CycleReject.
func (e *Engine) Run(ctx context.Context, g *domain.Graph, sel domain.Selection, opts ...RunOption) (*domain.RunReport, error) {
	if e.executor == nil {
		return nil, domain.ErrNoExecutor
	}
	cfg := runConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	inputs, err := SanitizeInputs(sel.Inputs)
	if err != nil {
		return nil, fmt.Errorf("invalid manual input: %w", err)
	}

	selected := dedupe(sel.NodeIDs)
	var known, unknown []string
	for _, id := range selected {
		if g.Has(id) {
			known = append(known, id)
		} else {
			unknown = append(unknown, id)
		}
	}

	ordering := topology.Order(g, known...)
	if e.cyclePolicy == CycleReject {
		if _, err := ordering.Strict(); err != nil {
			return nil, err
		}
	}

	r := &run{
		engine:  e,
		cfg:     cfg,
		logger:  e.logger.With("run_id", cfg.id),
		report: &domain.RunReport{
			ID:        cfg.id,
			Phase:     domain.PhaseConfiguring,
			Order:     slices.Clone(ordering.IDs),
			Omitted:   slices.Clone(ordering.Omitted),
			Results:   make(map[string]domain.NodeTestResult, len(selected)),
			StartedAt: time.Now().UTC(),
		},
		manual:  domain.ContextFromInputs(inputs),
		outputs: domain.NewExecutionContext(),
		failed:  domain.NodeSet{},
	}
	for _, id := range selected {
		r.report.Results[id] = domain.NewPendingResult(id)
	}

	r.report.Phase = domain.PhaseRunning
	r.logger.Info("run started", "nodes", len(selected), "order", len(ordering.IDs))
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{RunID: cfg.id, Report: r.report.Clone()})
	}

	for _, id := range unknown {
		r.fail(ctx, id, domain.ErrNodeNotFound.Error(), 0)
	}
	for _, id := range ordering.Omitted {
		r.fail(ctx, id, MsgDependency, 0)
	}

	for i, id := range ordering.IDs {
		if ctx.Err() != nil {
			for _, rest := range ordering.IDs[i:] {
				r.fail(ctx, rest, domain.ErrRunCanceled.Error(), 0)
			}
			break
		}
		node, _ := g.Node(id)
		r.step(ctx, node, i)
	}

	r.report.Canceled = ctx.Err() != nil
	r.report.Phase = domain.PhaseComplete
	r.report.FinishedAt = time.Now().UTC()

	succeeded, failed := r.report.Counts()
	r.logger.Info("run complete", "success", succeeded, "error", failed, "canceled", r.report.Canceled)
	final := r.report.Clone()
	if e.hooks.OnRunComplete != nil {
		e.hooks.OnRunComplete(ctx, &domain.RunEvent{RunID: cfg.id, Report: final.Clone()})
	}
	return final, nil
}

// run holds the private state of one Run call.
type run struct {
	engine  *Engine
	cfg     runConfig
	logger  *slog.Logger
	report  *domain.RunReport
	manual  domain.ExecutionContext
	outputs domain.ExecutionContext
	failed  domain.NodeSet
}

func (r *run) step(ctx context.Context, node domain.Node, position int) {
	e := r.engine
	if e.failurePolicy == FailureSkipDependents {
		if upstream, ok := r.failedReference(node); ok {
			r.fail(ctx, node.ID, fmt.Sprintf("%s: %s", domain.ErrUpstreamFailed, upstream), 0)
			return
		}
	}

	if !r.advance(ctx, node.ID, func(res domain.NodeTestResult) (domain.NodeTestResult, error) {
		return res.Advance(domain.StatusRunning)
	}) {
		return
	}
	if e.hooks.OnNodeStart != nil {
		e.hooks.OnNodeStart(ctx, &domain.NodeEvent{RunID: r.cfg.id, Node: node, Result: r.report.Results[node.ID], Position: position})
	}
	r.logger.Debug("node dispatched", "node_id", node.ID, "type", node.Type)

	if node.Model == "" {
		node.Model = e.defaultModel
	}
	req := domain.ExecutionRequest{
		Node:    node,
		Context: r.manual.Merge(r.outputs).Map(),
	}

	start := time.Now()
	resp, err := e.executor.Execute(ctx, req)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		msg := err.Error()
		if msg == "" {
			msg = MsgNetworkError
		}
		r.fail(ctx, node.ID, msg, elapsed)
	case !resp.Success:
		msg := resp.Error
		if msg == "" {
			msg = MsgUnknownError
		}
		r.fail(ctx, node.ID, msg, elapsed)
	default:
		r.outputs = r.outputs.With(node.ID, resp.Output)
		r.advance(ctx, node.ID, func(res domain.NodeTestResult) (domain.NodeTestResult, error) {
			return res.Succeed(resp.Output, elapsed)
		})
	}

	if e.hooks.OnNodeFinish != nil {
		e.hooks.OnNodeFinish(ctx, &domain.NodeEvent{RunID: r.cfg.id, Node: node, Result: r.report.Results[node.ID], Position: position})
	}
}

// failedReference returns the first referenced node that failed earlier in the run.
func (r *run) failedReference(node domain.Node) (string, bool) {
	for _, v := range template.ScanNode(node) {
		if r.failed.Has(v.NodeID) {
			return v.NodeID, true
		}
	}
	return "", false
}

func (r *run) fail(ctx context.Context, id, msg string, elapsed time.Duration) {
	r.failed.Add(id)
	r.advance(ctx, id, func(res domain.NodeTestResult) (domain.NodeTestResult, error) {
		return res.Fail(msg, elapsed)
	})
}

// advance applies a transition, records it and publishes the new result.
func (r *run) advance(ctx context.Context, id string, move func(domain.NodeTestResult) (domain.NodeTestResult, error)) bool {
	next, err := move(r.report.Results[id])
	if err != nil {
		r.logger.Error("rejected result transition", "node_id", id, "error", err)
		return false
	}
	r.report.Results[id] = next
	if next.Status.Terminal() {
		r.logger.Info("node finished", "node_id", id, "status", next.Status, "duration_ms", next.DurationMs)
	}
	r.publish(ctx, next)
	return true
}

func (r *run) publish(ctx context.Context, res domain.NodeTestResult) {
	if r.cfg.updates == nil {
		return
	}
	select {
	case r.cfg.updates <- res:
		return
	default:
	}
	select {
	case r.cfg.updates <- res:
	case <-ctx.Done():
		r.logger.Warn("dropped result update", "node_id", res.NodeID, "error", ctx.Err())
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// IsCycle reports whether err is a *domain.CycleError.
func IsCycle(err error) bool {
	var cycle *domain.CycleError
	return errors.As(err, &cycle)
}
