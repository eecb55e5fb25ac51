package domain

import (
	"slices"
	"time"
)

// Selection is the set of nodes chosen for a test run plus the values the
// caller supplies for variables whose source is outside the selection.
// A Selection is built fresh for every run configuration.
type Selection struct {
	NodeIDs []string                     `json:"nodeIds"`
	Inputs  map[VariableReference]string `json:"inputs,omitempty"`
}

// NewSelection creates a selection without manual inputs.
func NewSelection(ids ...string) Selection {
	return Selection{NodeIDs: ids}
}

// Contains reports whether id is selected.
func (s Selection) Contains(id string) bool {
	return slices.Contains(s.NodeIDs, id)
}

// Set returns the selected ids as a set.
func (s Selection) Set() NodeSet {
	set := make(NodeSet, len(s.NodeIDs))
	for _, id := range s.NodeIDs {
		set.Add(id)
	}
	return set
}

// RunPhase is the state of a run as a whole.
type RunPhase string

const (
	PhaseConfiguring RunPhase = "configuring"
	PhaseRunning     RunPhase = "running"
	PhaseComplete    RunPhase = "complete"
)

// RunReport is the record of one test run. Once Phase is complete the
// report is never modified again.
type RunReport struct {
	ID         string                    `json:"id"`
	Phase      RunPhase                  `json:"phase"`
	Order      []string                  `json:"order"`
	Omitted    []string                  `json:"omitted,omitempty"`
	Results    map[string]NodeTestResult `json:"results"`
	Canceled   bool                      `json:"canceled,omitempty"`
	StartedAt  time.Time                 `json:"startedAt"`
	FinishedAt time.Time                 `json:"finishedAt,omitzero"`

	// Sealed holds the encrypted report when it went through an encrypting store.
	Sealed []byte `json:"sealed,omitempty"`
}

// Counts returns how many results ended in success and in error.
func (r *RunReport) Counts() (succeeded, failed int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusSuccess:
			succeeded++
		case StatusError:
			failed++
		}
	}
	return succeeded, failed
}

// Clone returns a deep enough copy for readers: slices and the results map
// are copied, outputs are shared.
func (r *RunReport) Clone() *RunReport {
	cp := *r
	cp.Order = slices.Clone(r.Order)
	cp.Omitted = slices.Clone(r.Omitted)
	cp.Sealed = slices.Clone(r.Sealed)
	cp.Results = make(map[string]NodeTestResult, len(r.Results))
	for k, v := range r.Results {
		cp.Results[k] = v
	}
	return &cp
}

// ExecutionRequest is what the node execution service receives: one node's
// configuration and the context visible to it.
type ExecutionRequest struct {
	Node    Node           `json:"node"`
	Context map[string]any `json:"context"`
}

// ExecutionResponse is the service answer. Success=false carries Error.
type ExecutionResponse struct {
	Success bool   `json:"success"`
	Output  any    `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}
