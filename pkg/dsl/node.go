package dsl

import (
	"fmt"

	"github.com/aretw0/weft/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	builder *Builder
}

// Label sets the display name.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Label = label
	return n
}

// Type sets the node kind explicitly.
func (n *NodeBuilder) Type(kind domain.NodeKind) *NodeBuilder {
	n.node.Type = kind
	return n
}

// JSON makes the node a static JSON source.
func (n *NodeBuilder) JSON(text string) *NodeBuilder {
	n.node.Type = domain.KindJSON
	n.node.JSON = text
	return n
}

// CSV makes the node a CSV input; the first line holds the headers.
func (n *NodeBuilder) CSV(content string) *NodeBuilder {
	n.node.Type = domain.KindCSVInput
	n.node.CSV = content
	return n
}

// LLM makes the node a language model call with the given prompts.
func (n *NodeBuilder) LLM(system, user string) *NodeBuilder {
	n.node.Type = domain.KindLLM
	n.node.SystemPrompt = system
	n.node.UserPrompt = user
	return n
}

// Model sets the model name sent to the execution service.
func (n *NodeBuilder) Model(model string) *NodeBuilder {
	n.node.Model = model
	return n
}

// Temperature sets the sampling temperature.
func (n *NodeBuilder) Temperature(t float64) *NodeBuilder {
	n.node.Temperature = &t
	return n
}

// Schema sets the output schema as JSON text.
func (n *NodeBuilder) Schema(text string) *NodeBuilder {
	n.node.Schema = domain.TextPayload(text)
	n.node.OutputMode = "structured"
	return n
}

// StructuredSchema sets the output schema from a Go value.
func (n *NodeBuilder) StructuredSchema(v any) *NodeBuilder {
	p, err := domain.StructuredPayload(v)
	if err != nil {
		n.builder.errs = append(n.builder.errs, fmt.Errorf("node %s schema: %w", n.node.ID, err))
		return n
	}
	n.node.Schema = p
	n.node.OutputMode = "structured"
	return n
}

// Outputs declares output names for nodes without a schema.
func (n *NodeBuilder) Outputs(names ...string) *NodeBuilder {
	n.node.Outputs = append(n.node.Outputs, names...)
	return n
}

// TestCase attaches a saved test case.
func (n *NodeBuilder) TestCase(tc domain.TestCase) *NodeBuilder {
	n.node.TestCases = append(n.node.TestCases, tc)
	return n
}

// Go adds an edge from this node to target.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.builder.Edge(n.node.ID, target)
	return n
}

// From adds an edge from source to this node.
func (n *NodeBuilder) From(source string) *NodeBuilder {
	n.builder.Edge(source, n.node.ID)
	return n
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node
}
