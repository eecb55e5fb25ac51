package runtime

import (
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/template"
)

// RequiredInputs lists the variables referenced by the selected nodes whose
// source node is not selected. Such values are never produced during the run
// and must be supplied by the caller. Results follow selection order and are
// deduplicated across nodes. Selected ids that are not nodes of g are skipped.
func RequiredInputs(g *domain.Graph, selected []string) []domain.RequiredInput {
	inSelection := make(map[string]bool, len(selected))
	for _, id := range selected {
		inSelection[id] = true
	}

	out := []domain.RequiredInput{}
	seen := make(map[domain.VariableReference]bool)
	for _, id := range selected {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		for _, v := range template.ScanNode(node) {
			if inSelection[v.NodeID] || seen[v.Ref] {
				continue
			}
			seen[v.Ref] = true
			out = append(out, describe(g, v))
		}
	}
	return out
}

func describe(g *domain.Graph, v template.Variable) domain.RequiredInput {
	src, ok := g.Node(v.NodeID)
	if !ok {
		return domain.RequiredInput{Variable: v.Ref, DisplayName: v.Ref.String(), NodeLabel: v.NodeID}
	}
	return domain.RequiredInput{
		Variable:    v.Ref,
		DisplayName: src.DisplayName() + "." + v.Field,
		NodeLabel:   src.DisplayName(),
	}
}
