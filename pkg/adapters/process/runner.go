// Package process executes nodes with local commands.
//
// Each node type maps to an allow-listed command. The command receives the
// execution request as JSON on stdin and answers on stdout, either with a
// run-node response object ({"success", "output", "error"}) or with any other
// text, which is taken as a successful output.
package process

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	json "github.com/goccy/go-json"
)

// Runner implements ports.NodeExecutor with local processes.
type Runner struct {
	registry map[domain.NodeKind]CommandConfig
	fallback *CommandConfig
	baseDir  string
	grace    time.Duration
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithCommands populates the allow-list from a loaded config.
func WithCommands(commands map[string]CommandConfig) RunnerOption {
	return func(r *Runner) {
		for kind, c := range commands {
			r.Register(domain.NodeKind(kind), c.Command, c.Args...)
			if len(c.Environment) > 0 {
				reg := r.registry[domain.NodeKind(kind)]
				reg.Environment = c.Environment
				r.registry[domain.NodeKind(kind)] = reg
			}
		}
	}
}

// WithFallback runs command for node types without a registered command.
func WithFallback(command string, args ...string) RunnerOption {
	return func(r *Runner) {
		r.fallback = &CommandConfig{Command: command, Args: args}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithGracePeriod sets how long a canceled process may take to exit after
// the interrupt before it is killed.
func WithGracePeriod(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.grace = d
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[domain.NodeKind]CommandConfig),
		grace:    2 * time.Second,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register allows command to execute nodes of kind.
func (r *Runner) Register(kind domain.NodeKind, command string, args ...string) {
	r.registry[kind] = CommandConfig{Type: string(kind), Command: command, Args: args}
}

func (r *Runner) lookup(kind domain.NodeKind) (CommandConfig, bool) {
	if c, ok := r.registry[kind]; ok {
		return c, true
	}
	if r.fallback != nil {
		return *r.fallback, true
	}
	return CommandConfig{}, false
}

// Execute runs the command registered for req.Node.Type.
//
// An unregistered type is a failed response, not an error. A command that
// exits non-zero fails the node with its stderr. Cancellation of ctx
// interrupts the process and returns the context error.
func (r *Runner) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error) {
	proc, ok := r.lookup(req.Node.Type)
	if !ok {
		return domain.ExecutionResponse{
			Error: fmt.Sprintf("no command registered for node type %q", req.Node.Type),
		}, nil
	}

	if req.Context == nil {
		req.Context = map[string]any{}
	}
	stdin, err := json.Marshal(req)
	if err != nil {
		return domain.ExecutionResponse{}, fmt.Errorf("failed to encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Cancel = func() error { return interrupt(cmd) }
	cmd.WaitDelay = r.grace

	// Node identity travels in the environment; the payload only on stdin.
	env := []string{
		"WEFT_NODE_ID=" + req.Node.ID,
		"WEFT_NODE_TYPE=" + string(req.Node.Type),
	}
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	r.logger.Debug("process finished", "node_id", req.Node.ID, "command", proc.Command, "duration_ms", time.Since(start).Milliseconds())

	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.ExecutionResponse{}, ctxErr
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return domain.ExecutionResponse{Error: fmt.Sprintf("execution failed: %s", msg)}, nil
	}
	return decodeOutput(stdout.Bytes()), nil
}

type commandResponse struct {
	Success *bool  `json:"success"`
	Output  any    `json:"output"`
	Error   string `json:"error"`
}

// decodeOutput reads a response object when stdout holds one and falls back
// to the raw output otherwise: decoded JSON when it parses, trimmed text else.
func decodeOutput(out []byte) domain.ExecutionResponse {
	trimmed := bytes.TrimSpace(out)

	var resp commandResponse
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &resp) == nil && resp.Success != nil {
		return domain.ExecutionResponse{Success: *resp.Success, Output: resp.Output, Error: resp.Error}
	}

	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		var v any
		if json.Unmarshal(trimmed, &v) == nil {
			return domain.ExecutionResponse{Success: true, Output: v}
		}
	}
	return domain.ExecutionResponse{Success: true, Output: string(trimmed)}
}
