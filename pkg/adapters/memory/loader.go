package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/weft/pkg/domain"
)

// Loader implements ports.GraphLoader over a graph held in memory.
type Loader struct {
	graph *domain.Graph
}

// NewLoader wraps an existing graph.
func NewLoader(g *domain.Graph) *Loader {
	return &Loader{graph: g}
}

// NewFromNodes builds the graph from domain objects.
// This improves DX for tests and embedded use.
func NewFromNodes(nodes []domain.Node, edges ...domain.Edge) (*Loader, error) {
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
	}
	return &Loader{graph: domain.NewGraph(nodes, edges)}, nil
}

// NewFromJSON parses an editor export ({"nodes": [...], "edges": [...]}).
func NewFromJSON(data []byte) (*Loader, error) {
	var g domain.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return &Loader{graph: &g}, nil
}

// LoadGraph returns the held graph.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	if l.graph == nil {
		return domain.NewGraph(nil, nil), nil
	}
	return l.graph, nil
}
