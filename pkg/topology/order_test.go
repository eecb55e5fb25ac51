package topology_test

import (
	"testing"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder(t *testing.T) {
	tests := []struct {
		name        string
		graph       *domain.Graph
		subset      []string
		wantIDs     []string
		wantOmitted []string
	}{
		{
			name:    "Declared Order Seeds Queue",
			graph:   domain.NewGraph(nodes("c", "a", "b"), nil),
			wantIDs: []string{"c", "a", "b"},
		},
		{
			name:    "Edges Respected",
			graph:   domain.NewGraph(nodes("b", "a"), edges("a", "b")),
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "Duplicate Edges Harmless",
			graph:   domain.NewGraph(nodes("a", "b"), edges("a", "b", "a", "b")),
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "Subset Uses Internal Edges Only",
			graph:   domain.NewGraph(nodes("a", "b", "c"), edges("a", "b", "b", "c")),
			subset:  []string{"c", "a"},
			wantIDs: []string{"a", "c"},
		},
		{
			name:        "Cycle Members Omitted",
			graph:       domain.NewGraph(nodes("a", "b", "c", "d"), edges("b", "c", "c", "b", "c", "d")),
			wantIDs:     []string{"a"},
			wantOmitted: []string{"b", "c", "d"},
		},
		{
			name:    "Dangling Edge Ignored",
			graph:   domain.NewGraph(nodes("a"), edges("ghost", "a")),
			wantIDs: []string{"a"},
		},
		{
			name:    "Unknown Subset Ids Ignored",
			graph:   domain.NewGraph(nodes("a"), nil),
			subset:  []string{"a", "nope"},
			wantIDs: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := topology.Order(tt.graph, tt.subset...)
			assert.Equal(t, tt.wantIDs, got.IDs)
			assert.Equal(t, tt.wantOmitted, got.Omitted)
		})
	}
}

func TestOrder_EveryEdgeForward(t *testing.T) {
	g := domain.NewGraph(
		nodes("e", "d", "c", "b", "a"),
		edges("a", "b", "a", "c", "b", "d", "c", "d", "d", "e"),
	)
	order := topology.Order(g).IDs
	require.Len(t, order, 5)

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		assert.Less(t, pos[e.Source], pos[e.Target], "%s -> %s", e.Source, e.Target)
	}
}

func TestOrdering_Strict(t *testing.T) {
	g := domain.NewGraph(nodes("a", "b"), edges("a", "b", "b", "a"))
	_, err := topology.Order(g).Strict()

	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"a", "b"}, cycle.Nodes)

	ids, err := topology.Order(domain.NewGraph(nodes("a"), nil)).Strict()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
}

func TestLast(t *testing.T) {
	g := domain.NewGraph(nodes("a", "b", "c", "d"), edges("a", "b", "b", "c", "c", "d"))
	assert.Equal(t, []string{"c", "d"}, topology.Last(g, 2))
	assert.Equal(t, []string{"a", "b", "c", "d"}, topology.Last(g, 10))
	assert.Equal(t, []string{"a", "b", "c", "d"}, topology.Last(g, 0))
}
