package domain

import "encoding/json"

// Edge is a directed link: Target may read variables produced by Source.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph holds nodes and directed edges. It performs no validation beyond id
// lookup: edges may reference ids that are not nodes, and callers ignore them.
// A Graph is read-only once built and safe for concurrent readers.
type Graph struct {
	nodes []Node
	edges []Edge
	index map[string]int
}

// NewGraph builds a graph from the editor's node and edge lists.
// If two nodes share an id, the first one wins on lookup.
func NewGraph(nodes []Node, edges []Edge) *Graph {
	g := &Graph{
		nodes: append([]Node(nil), nodes...),
		edges: append([]Edge(nil), edges...),
		index: make(map[string]int, len(nodes)),
	}
	for i, n := range g.nodes {
		if _, dup := g.index[n.ID]; !dup {
			g.index[n.ID] = i
		}
	}
	return g
}

// Nodes returns every node in declared order.
func (g *Graph) Nodes() []Node {
	return append([]Node(nil), g.nodes...)
}

// Edges returns every edge in declared order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// NodeIDs returns the node ids in declared order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Has reports whether id names a node of this graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Incoming returns the edges whose target is id.
func (g *Graph) Incoming(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the edges whose source is id.
func (g *Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

type graphWire struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// MarshalJSON encodes the graph as {"nodes": [...], "edges": [...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	w := graphWire{Nodes: g.nodes, Edges: g.edges}
	if w.Nodes == nil {
		w.Nodes = []Node{}
	}
	if w.Edges == nil {
		w.Edges = []Edge{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes {"nodes": [...], "edges": [...]} and rebuilds the index.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var w graphWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*g = *NewGraph(w.Nodes, w.Edges)
	return nil
}

// NodeSet is an unordered set of node ids.
type NodeSet map[string]struct{}

// Has reports membership.
func (s NodeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id.
func (s NodeSet) Add(id string) {
	s[id] = struct{}{}
}

// InOrder returns the members following the declared node order of g.
// Members that are not nodes of g are left out.
func (s NodeSet) InOrder(g *Graph) []string {
	var ids []string
	seen := make(map[string]bool, len(s))
	for _, n := range g.nodes {
		if s.Has(n.ID) && !seen[n.ID] {
			seen[n.ID] = true
			ids = append(ids, n.ID)
		}
	}
	return ids
}
