package ports

import (
	"context"

	"github.com/aretw0/weft/pkg/domain"
)

// GraphLoader provides the workflow graph under test.
// The graph is owned by the editor; loaders only read it.
type GraphLoader interface {
	LoadGraph(ctx context.Context) (*domain.Graph, error)
}
