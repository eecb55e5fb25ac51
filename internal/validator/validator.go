// Package validator reports structural problems of a workflow graph before
// it is run.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/fields"
	"github.com/aretw0/weft/pkg/template"
	"github.com/aretw0/weft/pkg/topology"
)

// Severity ranks an Issue. Errors make ValidateGraph fail; warnings do not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding about the graph.
type Issue struct {
	Severity Severity `json:"severity"`
	NodeID   string   `json:"nodeId,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	if i.NodeID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.NodeID, i.Message)
}

// Check inspects g and returns its issues, node by node in declared order.
//
// Errors: empty or duplicate ids and cycles.
// Warnings: edges to unknown nodes, which the graph ignores, and references
// to unknown nodes, to nodes that are not upstream or to fields the
// referenced node does not expose.
func Check(g *domain.Graph, r *fields.Registry) []Issue {
	if r == nil {
		r = fields.NewRegistry()
	}
	var issues []Issue

	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		switch {
		case n.ID == "":
			issues = append(issues, Issue{Severity: SeverityError, Message: "node without an id"})
		case seen[n.ID]:
			issues = append(issues, Issue{Severity: SeverityError, NodeID: n.ID, Message: "duplicate node id"})
		}
		seen[n.ID] = true
	}

	for _, e := range g.Edges() {
		for _, end := range []string{e.Source, e.Target} {
			if !g.Has(end) {
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					NodeID:   end,
					Message:  fmt.Sprintf("edge %s -> %s names an unknown node", e.Source, e.Target),
				})
			}
		}
	}

	if omitted := topology.Order(g).Omitted; len(omitted) > 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  (&domain.CycleError{Nodes: omitted}).Error(),
		})
	}

	for _, n := range g.Nodes() {
		ancestors := topology.Ancestors(g, n.ID)
		for _, v := range template.ScanNode(n) {
			ref, ok := g.Node(v.NodeID)
			switch {
			case !ok:
				issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID,
					Message: fmt.Sprintf("{{%s}} references an unknown node", v.Ref)})
			case !ancestors.Has(v.NodeID):
				issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID,
					Message: fmt.Sprintf("{{%s}} references a node that is not upstream", v.Ref)})
			case !exposes(r.List(ref), v.Ref):
				issues = append(issues, Issue{Severity: SeverityWarning, NodeID: n.ID,
					Message: fmt.Sprintf("{{%s}} names a field %s does not expose", v.Ref, ref.DisplayName())})
			}
		}
	}
	return issues
}

// exposes reports whether the field of ref, or a field nested under it, is
// listed. List markers are ignored.
// Nodes without a field list accept anything.
func exposes(list []string, ref domain.VariableReference) bool {
	want := segmentNames(ref)
	if len(list) == 0 || len(want) == 0 {
		return true
	}
	return slices.ContainsFunc(list, func(f string) bool {
		have := segmentNames(domain.VariableReference(ref.NodeID() + "." + f))
		n := min(len(have), len(want))
		return slices.Equal(have[:n], want[:n])
	})
}

func segmentNames(ref domain.VariableReference) []string {
	segs := ref.Segments()
	names := make([]string, len(segs))
	for i, s := range segs {
		names[i] = s.Name
	}
	return names
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	return slices.ContainsFunc(issues, func(i Issue) bool { return i.Severity == SeverityError })
}

// ValidateGraph returns an error listing every error-level issue of g.
func ValidateGraph(g *domain.Graph) error {
	var errs []string
	for _, i := range Check(g, nil) {
		if i.Severity == SeverityError {
			errs = append(errs, i.String())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
	}
	return nil
}
