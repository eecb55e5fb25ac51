package topology

import "github.com/aretw0/weft/pkg/domain"

// Ancestors returns every node that can reach id by following edges forward.
// It walks incoming edges breadth first with a visited set. id itself is only
// included when a cycle leads back to it.
func Ancestors(g *domain.Graph, id string) domain.NodeSet {
	incoming := make(map[string][]string)
	for _, e := range g.Edges() {
		if g.Has(e.Source) {
			incoming[e.Target] = append(incoming[e.Target], e.Source)
		}
	}

	found := domain.NodeSet{}
	visited := map[string]bool{}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, src := range incoming[current] {
			if !found.Has(src) {
				found.Add(src)
				queue = append(queue, src)
			}
		}
	}
	return found
}

// AncestorNodes returns the ancestors of id as nodes, in declared node order.
func AncestorNodes(g *domain.Graph, id string) []domain.Node {
	set := Ancestors(g, id)
	var out []domain.Node
	for _, aid := range set.InOrder(g) {
		n, _ := g.Node(aid)
		out = append(out, n)
	}
	return out
}
