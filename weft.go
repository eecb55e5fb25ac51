package weft

import (
	"context"
	"log/slog"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/fields"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/topology"
)

// Policy aliases, so library users do not import internal packages.
type (
	FailurePolicy = runtime.FailurePolicy
	CyclePolicy   = runtime.CyclePolicy
	RunOption     = runtime.RunOption
)

const (
	FailureContinue       = runtime.FailureContinue
	FailureSkipDependents = runtime.FailureSkipDependents
	CycleDrop             = runtime.CycleDrop
	CycleReject           = runtime.CycleReject
)

// WithRunID fixes the id of a run.
func WithRunID(id string) RunOption { return runtime.WithRunID(id) }

// WithUpdates streams every result change of a run to ch.
func WithUpdates(ch chan<- domain.NodeTestResult) RunOption { return runtime.WithUpdates(ch) }

// Engine is the high-level entry point for the weft library.
// It wraps the internal runtime and the graph analysis packages.
type Engine struct {
	runtime      *runtime.Engine
	executor     ports.NodeExecutor
	registry     *fields.Registry
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
	failure      FailurePolicy
	cycle        CyclePolicy
	defaultModel *string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithExecutor sets the node execution service. Without it only the analysis
// methods work; Run returns domain.ErrNoExecutor.
func WithExecutor(exec ports.NodeExecutor) Option {
	return func(e *Engine) {
		e.executor = exec
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithFieldRegistry replaces the built-in field extractors.
func WithFieldRegistry(r *fields.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithFailurePolicy sets how a failed node affects nodes that reference it.
func WithFailurePolicy(p FailurePolicy) Option {
	return func(e *Engine) {
		e.failure = p
	}
}

// WithCyclePolicy sets how cycles in a selection are handled.
func WithCyclePolicy(p CyclePolicy) Option {
	return func(e *Engine) {
		e.cycle = p
	}
}

// WithDefaultModel sets the model sent for nodes that name none.
func WithDefaultModel(model string) Option {
	return func(e *Engine) {
		e.defaultModel = &model
	}
}

// New initializes a new weft Engine.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.registry == nil {
		eng.registry = fields.NewRegistry()
	}
	if _, err := runtime.ParseFailurePolicy(string(eng.failure)); err != nil {
		return nil, err
	}
	if _, err := runtime.ParseCyclePolicy(string(eng.cycle)); err != nil {
		return nil, err
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithFailurePolicy(eng.failure),
		runtime.WithCyclePolicy(eng.cycle),
	}
	if eng.defaultModel != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithDefaultModel(*eng.defaultModel))
	}
	eng.runtime = runtime.NewEngine(eng.executor, runtimeOpts...)
	return eng, nil
}

// ListAvailableFields returns the variable names node exposes downstream.
func (e *Engine) ListAvailableFields(node domain.Node) []string {
	return e.registry.List(node)
}

// AvailableVariables lists what nodeID may reference: every ancestor field.
func (e *Engine) AvailableVariables(g *domain.Graph, nodeID string) []fields.AvailableField {
	return fields.AvailableWith(e.registry, g, nodeID)
}

// ComputeAncestors returns the ids upstream of nodeID, in declared node order.
func (e *Engine) ComputeAncestors(g *domain.Graph, nodeID string) []string {
	return topology.Ancestors(g, nodeID).InOrder(g)
}

// RequiredExternalInputs returns the references the selection reads from
// nodes outside it.
func (e *Engine) RequiredExternalInputs(g *domain.Graph, selected []string) []domain.VariableReference {
	inputs := runtime.RequiredInputs(g, selected)
	out := make([]domain.VariableReference, len(inputs))
	for i, in := range inputs {
		out[i] = in.Variable
	}
	return out
}

// RequiredInputs is RequiredExternalInputs with display names for prompting a user.
func (e *Engine) RequiredInputs(g *domain.Graph, selected []string) []domain.RequiredInput {
	return runtime.RequiredInputs(g, selected)
}

// TopologicalOrder orders subset (or the whole graph when empty).
func (e *Engine) TopologicalOrder(g *domain.Graph, subset ...string) topology.Ordering {
	return topology.Order(g, subset...)
}

// SelectLast returns the last n nodes of the full order; n <= 0 selects all.
func (e *Engine) SelectLast(g *domain.Graph, n int) domain.Selection {
	return domain.NewSelection(topology.Last(g, n)...)
}

// Run executes the selection and returns the final report.
func (e *Engine) Run(ctx context.Context, g *domain.Graph, sel domain.Selection, opts ...RunOption) (*domain.RunReport, error) {
	return e.runtime.Run(ctx, g, sel, opts...)
}

// RunTestCases runs the saved test cases of node.
func (e *Engine) RunTestCases(ctx context.Context, node domain.Node) ([]domain.TestCaseResult, error) {
	return e.runtime.RunTestCases(ctx, node)
}

// RunHandle is a run in progress started by Stream.
type RunHandle struct {
	updates <-chan domain.NodeTestResult
	done    chan struct{}
	report  *domain.RunReport
	err     error
}

// Updates yields every result change. It is closed when the run ends.
func (h *RunHandle) Updates() <-chan domain.NodeTestResult {
	return h.updates
}

// Wait blocks until the run ends and returns its report.
func (h *RunHandle) Wait() (*domain.RunReport, error) {
	<-h.done
	return h.report, h.err
}

// Stream starts the run in a goroutine. Updates is buffered for every
// transition of the selection, so the run never waits on the consumer.
func (e *Engine) Stream(ctx context.Context, g *domain.Graph, sel domain.Selection, opts ...RunOption) *RunHandle {
	ch := make(chan domain.NodeTestResult, 2*len(sel.NodeIDs)+1)
	h := &RunHandle{updates: ch, done: make(chan struct{})}

	runOpts := append(append([]RunOption(nil), opts...), runtime.WithUpdates(ch))
	go func() {
		defer close(h.done)
		defer close(ch)
		h.report, h.err = e.runtime.Run(ctx, g, sel, runOpts...)
	}()
	return h
}
