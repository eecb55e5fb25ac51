package domain

// ExecutionContext maps a node id to the last output that node produced.
// It is immutable: With and Merge return new contexts.
type ExecutionContext struct {
	values map[string]any
}

// NewExecutionContext returns an empty context.
func NewExecutionContext() ExecutionContext {
	return ExecutionContext{}
}

// ContextFromInputs groups manually supplied values back into one object per
// source node: "NodeX.email" = "a@b" becomes {"NodeX": {"email": "a@b"}}.
// The field path is kept as a single key.
func ContextFromInputs(inputs map[VariableReference]string) ExecutionContext {
	if len(inputs) == 0 {
		return ExecutionContext{}
	}
	grouped := make(map[string]any)
	for ref, value := range inputs {
		id := ref.NodeID()
		group, ok := grouped[id].(map[string]any)
		if !ok {
			group = make(map[string]any)
			grouped[id] = group
		}
		group[ref.Field()] = value
	}
	return ExecutionContext{values: grouped}
}

// With returns a copy of the context where nodeID maps to output.
func (c ExecutionContext) With(nodeID string, output any) ExecutionContext {
	next := make(map[string]any, len(c.values)+1)
	for k, v := range c.values {
		next[k] = v
	}
	next[nodeID] = output
	return ExecutionContext{values: next}
}

// Merge returns a copy of c overlaid with other. Entries of other win.
func (c ExecutionContext) Merge(other ExecutionContext) ExecutionContext {
	if len(other.values) == 0 {
		return c
	}
	next := make(map[string]any, len(c.values)+len(other.values))
	for k, v := range c.values {
		next[k] = v
	}
	for k, v := range other.values {
		next[k] = v
	}
	return ExecutionContext{values: next}
}

// Get returns the output stored for nodeID.
func (c ExecutionContext) Get(nodeID string) (any, bool) {
	v, ok := c.values[nodeID]
	return v, ok
}

// Len returns the number of entries.
func (c ExecutionContext) Len() int {
	return len(c.values)
}

// Map returns a shallow copy suitable for serialization.
func (c ExecutionContext) Map() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
