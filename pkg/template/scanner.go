// Package template finds {{nodeId.field}} variable references in prompt text.
//
// Scanning is lexical only: references are not checked against the graph.
// A reference to a missing node or field resolves to nothing at run time.
package template

import (
	"regexp"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

var placeholder = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Variable is one reference found in a text.
type Variable struct {
	Ref    domain.VariableReference `json:"variable"`
	NodeID string                   `json:"nodeId"`
	Field  string                   `json:"field"`
}

// Scan returns the distinct references in texts, in order of first appearance.
// The texts are scanned as if joined by a single space.
func Scan(texts ...string) []Variable {
	var out []Variable
	seen := make(map[domain.VariableReference]bool)
	for _, m := range placeholder.FindAllStringSubmatch(strings.Join(texts, " "), -1) {
		ref := domain.VariableReference(strings.TrimSpace(m[1]))
		if seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, Variable{Ref: ref, NodeID: ref.NodeID(), Field: ref.Field()})
	}
	return out
}

// ScanNode returns the references in the node's system and user prompts.
func ScanNode(n domain.Node) []Variable {
	return Scan(n.Prompts())
}

// References returns only the reference strings of Scan.
func References(texts ...string) []domain.VariableReference {
	vars := Scan(texts...)
	out := make([]domain.VariableReference, len(vars))
	for i, v := range vars {
		out[i] = v.Ref
	}
	return out
}
