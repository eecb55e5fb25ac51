package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
)

// NodeExecutor runs one node with the given context and returns the service answer.
//
// A returned error means the service could not be reached or answered with
// something undecodable. A reachable service that fails the node returns a
// response with Success=false and a nil error.
type NodeExecutor interface {
	Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error)
}

// ExecutorFunc adapts a function to NodeExecutor.
type ExecutorFunc func(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error)

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, req domain.ExecutionRequest) (domain.ExecutionResponse, error) {
	return f(ctx, req)
}
