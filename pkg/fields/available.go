package fields

import (
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/topology"
)

// AvailableField is a variable a node may reference in its prompts.
type AvailableField struct {
	Variable  domain.VariableReference `json:"variable"`
	Field     string                   `json:"field"`
	NodeLabel string                   `json:"nodeLabel"`
}

// Available lists the fields of every ancestor of nodeID, ancestors in
// declared node order, each field prefixed with its node id.
func Available(g *domain.Graph, nodeID string) []AvailableField {
	return AvailableWith(defaultRegistry, g, nodeID)
}

// AvailableWith is Available with a custom registry.
func AvailableWith(r *Registry, g *domain.Graph, nodeID string) []AvailableField {
	out := []AvailableField{}
	for _, n := range topology.AncestorNodes(g, nodeID) {
		for _, f := range r.List(n) {
			out = append(out, AvailableField{
				Variable:  domain.NewReference(n.ID, f),
				Field:     f,
				NodeLabel: n.Label,
			})
		}
	}
	return out
}
