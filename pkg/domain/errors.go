package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNodeNotFound is returned when an id does not name a node of the graph.
var ErrNodeNotFound = errors.New("node not found")

// ErrRunNotFound is returned when a run id cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")

// ErrInvalidTransition is returned when a result would revert or skip a lifecycle step.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrMalformedPayload marks a configuration value that could not be parsed.
var ErrMalformedPayload = errors.New("malformed payload")

// ErrNoExecutor is returned when a run is requested without a node executor.
var ErrNoExecutor = errors.New("no node executor configured")

// ErrUpstreamFailed marks a node skipped because a node it references failed.
var ErrUpstreamFailed = errors.New("upstream node failed")

// ErrRunCanceled marks nodes that never started because the run was canceled.
var ErrRunCanceled = errors.New("run canceled")

// CycleError lists the nodes that could not be ordered because they sit on a cycle.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among nodes: %s", strings.Join(e.Nodes, ", "))
}
