package topology

import (
	"slices"

	"github.com/aretw0/weft/pkg/domain"
)

// Ordering is the result of Order. IDs is a valid execution order; Omitted
// holds the nodes that could not be placed because they sit on, or behind,
// a cycle.
type Ordering struct {
	IDs     []string `json:"order"`
	Omitted []string `json:"omitted,omitempty"`
}

// Strict returns a *domain.CycleError when any node was omitted.
func (o Ordering) Strict() ([]string, error) {
	if len(o.Omitted) > 0 {
		return o.IDs, &domain.CycleError{Nodes: slices.Clone(o.Omitted)}
	}
	return o.IDs, nil
}

// Order runs Kahn's algorithm over subset, or over every node of g when
// subset is empty. Only edges with both ends inside the set count. The queue
// is seeded in declared node order, so the result is deterministic.
// Subset ids that are not nodes of g are ignored.
func Order(g *domain.Graph, subset ...string) Ordering {
	members := domain.NodeSet{}
	if len(subset) == 0 {
		for _, id := range g.NodeIDs() {
			members.Add(id)
		}
	} else {
		for _, id := range subset {
			members.Add(id)
		}
	}
	ids := members.InOrder(g)

	inDegree := make(map[string]int, len(ids))
	successors := make(map[string][]string, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, e := range g.Edges() {
		if !members.Has(e.Source) || !members.Has(e.Target) || !g.Has(e.Source) || !g.Has(e.Target) {
			continue
		}
		successors[e.Source] = append(successors[e.Source], e.Target)
		inDegree[e.Target]++
	}

	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		order = append(order, current)
		for _, next := range successors[current] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	res := Ordering{IDs: order}
	if len(order) < len(ids) {
		placed := make(map[string]bool, len(order))
		for _, id := range order {
			placed[id] = true
		}
		for _, id := range ids {
			if !placed[id] {
				res.Omitted = append(res.Omitted, id)
			}
		}
	}
	return res
}

// Last returns the last n ids of the full graph order. n <= 0 or n larger
// than the ordered node count returns the whole order.
func Last(g *domain.Graph, n int) []string {
	ids := Order(g).IDs
	if n <= 0 || n >= len(ids) {
		return ids
	}
	return slices.Clone(ids[len(ids)-n:])
}
