package domain

import "strings"

// VariableReference is a dot path "nodeId.field[.subfield...]" naming a value
// produced by a node. A segment may carry a "[]" suffix ("leads[].email")
// meaning the field is itself a list.
type VariableReference string

// NewReference joins a node id and a field path.
func NewReference(nodeID, field string) VariableReference {
	if field == "" {
		return VariableReference(nodeID)
	}
	return VariableReference(nodeID + "." + field)
}

// NodeID is the text before the first dot.
func (r VariableReference) NodeID() string {
	id, _, _ := strings.Cut(string(r), ".")
	return id
}

// Field is the text after the first dot, or "" when there is none.
func (r VariableReference) Field() string {
	_, field, _ := strings.Cut(string(r), ".")
	return field
}

// String implements fmt.Stringer.
func (r VariableReference) String() string {
	return string(r)
}

// Segment is one element of a field path.
type Segment struct {
	Name string
	List bool // the segment was written with a "[]" suffix
}

// Segments splits the field path (node id excluded) into its segments.
func (r VariableReference) Segments() []Segment {
	field := r.Field()
	if field == "" {
		return nil
	}
	parts := strings.Split(field, ".")
	segs := make([]Segment, len(parts))
	for i, p := range parts {
		name, list := strings.CutSuffix(p, "[]")
		segs[i] = Segment{Name: name, List: list}
	}
	return segs
}

// RequiredInput is a variable that must be supplied by the caller because its
// source node is outside the run selection.
type RequiredInput struct {
	Variable    VariableReference `json:"variable"`
	DisplayName string            `json:"displayName"`
	NodeLabel   string            `json:"nodeLabel"`
}
