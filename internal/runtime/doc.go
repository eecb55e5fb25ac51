// Package runtime executes node test runs.
//
// A run takes a selection of nodes, orders it with the topology package,
// dispatches each node to a ports.NodeExecutor one at a time and records a
// domain.NodeTestResult per node. A node failure never aborts the run.
package runtime
