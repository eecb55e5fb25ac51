package dsl

import (
	"fmt"

	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	order []string
	nodes map[string]*NodeBuilder
	edges []domain.Edge
	errs  []error
}

// New creates a new graph builder.
func New() *Builder {
	return &Builder{
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(id string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = nb
	b.order = append(b.order, id)
	return nb
}

// Edge adds a directed edge. Either end may be added later.
func (b *Builder) Edge(source, target string) *Builder {
	b.edges = append(b.edges, domain.Edge{Source: source, Target: target})
	return b
}

// Graph returns the graph, or the first error recorded while building.
// Edges naming nodes that were never added are an error.
func (b *Builder) Graph() (*domain.Graph, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}
	for _, e := range b.edges {
		for _, end := range []string{e.Source, e.Target} {
			if _, ok := b.nodes[end]; !ok {
				return nil, fmt.Errorf("edge %s -> %s: %w: %s", e.Source, e.Target, domain.ErrNodeNotFound, end)
			}
		}
	}
	nodes := make([]domain.Node, 0, len(b.order))
	for _, id := range b.order {
		nodes = append(nodes, b.nodes[id].node)
	}
	return domain.NewGraph(nodes, b.edges), nil
}

// Build compiles the graph into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	g, err := b.Graph()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewFromNodes(g.Nodes(), g.Edges()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}

// MustGraph is Graph for tests and examples; it panics on error.
func (b *Builder) MustGraph() *domain.Graph {
	g, err := b.Graph()
	if err != nil {
		panic(err)
	}
	return g
}
