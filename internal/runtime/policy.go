package runtime

import "fmt"

// FailurePolicy decides what happens to nodes that reference a failed node.
type FailurePolicy string

const (
	// FailureContinue dispatches every node regardless of earlier failures.
	FailureContinue FailurePolicy = "continue"
	// FailureSkipDependents fails, without dispatch, any node whose prompts
	// reference a node that failed or was skipped earlier in the run.
	FailureSkipDependents FailurePolicy = "skip-dependents"
)

// CyclePolicy decides what happens when the selection contains a cycle.
type CyclePolicy string

const (
	// CycleDrop reports cycle members as errors and runs the rest.
	CycleDrop CyclePolicy = "drop"
	// CycleReject refuses to start the run.
	CycleReject CyclePolicy = "reject"
)

// ParseFailurePolicy converts a configuration string. Empty means FailureContinue.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "", FailureContinue:
		return FailureContinue, nil
	case FailureSkipDependents:
		return FailureSkipDependents, nil
	}
	return "", fmt.Errorf("unknown failure policy %q", s)
}

// ParseCyclePolicy converts a configuration string. Empty means CycleDrop.
func ParseCyclePolicy(s string) (CyclePolicy, error) {
	switch CyclePolicy(s) {
	case "", CycleDrop:
		return CycleDrop, nil
	case CycleReject:
		return CycleReject, nil
	}
	return "", fmt.Errorf("unknown cycle policy %q", s)
}
