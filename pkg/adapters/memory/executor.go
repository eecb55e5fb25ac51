package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
)

// Handler answers a request for one node.
type Handler func(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error)

// Executor implements ports.NodeExecutor with scripted answers per node id.
// Nodes without a script get the fallback handler; without one they succeed
// echoing their id. Safe for concurrent use.
type Executor struct {
	mu       sync.Mutex
	scripts  map[string]Handler
	fallback Handler
	calls    []domain.ExecutionRequest
}

// NewExecutor creates an executor with no scripts.
func NewExecutor() *Executor {
	return &Executor{scripts: make(map[string]Handler)}
}

// On registers the handler for nodeID.
func (e *Executor) On(nodeID string, h Handler) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[nodeID] = h
	return e
}

// Succeed scripts nodeID to succeed with output.
func (e *Executor) Succeed(nodeID string, output any) *Executor {
	return e.On(nodeID, func(context.Context, domain.ExecutionRequest) (domain.ExecutionResponse, error) {
		return domain.ExecutionResponse{Success: true, Output: output}, nil
	})
}

// Fail scripts nodeID to be rejected by the service with msg.
func (e *Executor) Fail(nodeID, msg string) *Executor {
	return e.On(nodeID, func(context.Context, domain.ExecutionRequest) (domain.ExecutionResponse, error) {
		return domain.ExecutionResponse{Success: false, Error: msg}, nil
	})
}

// Otherwise sets the handler for unscripted nodes.
func (e *Executor) Otherwise(h Handler) *Executor {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = h
	return e
}

// Execute implements ports.NodeExecutor.
func (e *Executor) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error) {
	e.mu.Lock()
	e.calls = append(e.calls, req)
	h, ok := e.scripts[req.Node.ID]
	if !ok {
		h = e.fallback
	}
	e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return domain.ExecutionResponse{}, err
	}
	if h == nil {
		return domain.ExecutionResponse{Success: true, Output: map[string]any{"node": req.Node.ID}}, nil
	}
	resp, err := h(ctx, req)
	if err != nil {
		return domain.ExecutionResponse{}, fmt.Errorf("node %s: %w", req.Node.ID, err)
	}
	return resp, nil
}

// Calls returns the requests received so far.
func (e *Executor) Calls() []domain.ExecutionRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.ExecutionRequest(nil), e.calls...)
}
