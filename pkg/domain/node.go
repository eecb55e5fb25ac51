package domain

// NodeKind is the type tag of a node. It decides which Config fields are meaningful.
type NodeKind string

// Node kinds known to the field extractor. Any other value is treated as a
// generic node whose fields come from its schema or declared outputs.
const (
	KindJSON        NodeKind = "JSON"
	KindJSONBuilder NodeKind = "JSON_BUILDER"
	KindCSVInput    NodeKind = "CSV_INPUT"
	KindLeadInput   NodeKind = "LEAD_INPUT"
	KindBox1Input   NodeKind = "BOX1_INPUT"
	KindLLM         NodeKind = "LLM"
)

// Node represents a logical unit in the workflow graph.
// The ID is immutable once created.
type Node struct {
	ID    string   `json:"id"`
	Type  NodeKind `json:"type"`
	Label string   `json:"label,omitempty"`

	// Config is flattened into the node object on the wire, matching the editor export.
	Config
}

// Config holds the type-specific payload of a node.
type Config struct {
	// Static data sources (JSON / JSON_BUILDER / CSV_INPUT).
	JSON string `json:"json,omitempty"`
	CSV  string `json:"csv,omitempty"`

	// LLM configuration.
	SystemPrompt string   `json:"systemPrompt,omitempty"`
	UserPrompt   string   `json:"userPrompt,omitempty"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	OutputMode   string   `json:"outputMode,omitempty"` // "structured" or "free"

	// Schema describes the structured output of the node (string or object).
	Schema Payload `json:"schema,omitzero"`

	// Outputs is the statically declared list of output names.
	Outputs []string `json:"outputs,omitempty"`

	// TestCases are saved expectations for this node, run by RunTestCases.
	TestCases []TestCase `json:"testCases,omitempty"`
}

// Prompts returns the free-text fields that may contain variable references,
// joined the way the editor scans them.
func (n Node) Prompts() string {
	return n.SystemPrompt + " " + n.UserPrompt
}

// DisplayName returns the label, or the id when the node has no label.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}
