package topology_test

import (
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/topology"
	"github.com/stretchr/testify/assert"
)

func nodes(ids ...string) []domain.Node {
	out := make([]domain.Node, len(ids))
	for i, id := range ids {
		out[i] = domain.Node{ID: id, Label: id}
	}
	return out
}

func edges(pairs ...string) []domain.Edge {
	out := make([]domain.Edge, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Edge{Source: pairs[i], Target: pairs[i+1]})
	}
	return out
}

func TestAncestors(t *testing.T) {
	tests := []struct {
		name   string
		graph  *domain.Graph
		target string
		want   []string
	}{
		{
			name:   "Chain",
			graph:  domain.NewGraph(nodes("a", "b", "c"), edges("a", "b", "b", "c")),
			target: "c",
			want:   []string{"a", "b"},
		},
		{
			name:   "Diamond",
			graph:  domain.NewGraph(nodes("a", "b", "c", "d"), edges("a", "b", "a", "c", "b", "d", "c", "d")),
			target: "d",
			want:   []string{"a", "b", "c"},
		},
		{
			name:   "Root Has None",
			graph:  domain.NewGraph(nodes("a", "b"), edges("a", "b")),
			target: "a",
			want:   nil,
		},
		{
			name:   "Cycle Includes Target",
			graph:  domain.NewGraph(nodes("a", "b"), edges("a", "b", "b", "a")),
			target: "a",
			want:   []string{"a", "b"},
		},
		{
			name:   "Dangling Source Ignored",
			graph:  domain.NewGraph(nodes("a", "b"), edges("ghost", "b", "a", "b", "a", "b")),
			target: "b",
			want:   []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := topology.Ancestors(tt.graph, tt.target)
			assert.Equal(t, tt.want, got.InOrder(tt.graph))
		})
	}
}

func TestAncestorNodes_DeclaredOrder(t *testing.T) {
	g := domain.NewGraph(nodes("z", "y", "x"), edges("x", "y", "z", "y"))
	got := topology.AncestorNodes(g, "y")
	if assert.Len(t, got, 2) {
		assert.Equal(t, "z", got[0].ID)
		assert.Equal(t, "x", got[1].ID)
	}
}

func TestAncestors_SelfLoopTerminates(t *testing.T) {
	g := domain.NewGraph(nodes("a"), edges("a", "a"))
	got := topology.Ancestors(g, "a")
	assert.True(t, got.Has("a"))
	assert.Len(t, got, 1)
}
