package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle position of a node inside a test run.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// NodeTestResult is the outcome of one node in a run.
type NodeTestResult struct {
	NodeID     string `json:"nodeId"`
	Status     Status `json:"status"`
	Output     any    `json:"output,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

// NewPendingResult creates the initial record for a node.
func NewPendingResult(nodeID string) NodeTestResult {
	return NodeTestResult{NodeID: nodeID, Status: StatusPending}
}

// Advance moves the result to next. Allowed moves are pending -> running,
// running -> success|error, and pending -> error for nodes that were never
// dispatched. Anything else returns ErrInvalidTransition.
func (r NodeTestResult) Advance(next Status) (NodeTestResult, error) {
	ok := false
	switch r.Status {
	case StatusPending:
		ok = next == StatusRunning || next == StatusError
	case StatusRunning:
		ok = next.Terminal()
	}
	if !ok {
		return r, fmt.Errorf("%w: %s -> %s (node %s)", ErrInvalidTransition, r.Status, next, r.NodeID)
	}
	r.Status = next
	return r, nil
}

// Succeed is a shorthand to move a running result to success.
func (r NodeTestResult) Succeed(output any, d time.Duration) (NodeTestResult, error) {
	next, err := r.Advance(StatusSuccess)
	if err != nil {
		return r, err
	}
	next.Output = output
	next.DurationMs = d.Milliseconds()
	return next, nil
}

// Fail is a shorthand to move a result to error.
func (r NodeTestResult) Fail(msg string, d time.Duration) (NodeTestResult, error) {
	next, err := r.Advance(StatusError)
	if err != nil {
		return r, err
	}
	next.Error = msg
	next.DurationMs = d.Milliseconds()
	return next, nil
}
