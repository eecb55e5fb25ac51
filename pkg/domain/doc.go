/*
Package domain contains the core models of the weft test bench.

It defines the workflow graph as the editor hands it over (Nodes and Edges),
the variable references that prompts use to read upstream outputs, and the
records produced by a test run. This package is kept pure and free of I/O so
that analysis and execution can be shared by every adapter.

# Key Entities

  - Graph: Read-only holder of nodes and directed edges with id lookup.
  - Node: A unit of work (LLM call, static JSON/CSV, lead input, ...) and its Config.
  - Payload: A configuration value that is either raw text pending parse or already structured.
  - VariableReference: A "nodeId.field" path used inside {{ }} placeholders.
  - ExecutionContext: The immutable, run-scoped mapping of node id to output.
  - NodeTestResult: The per-node outcome of a run, with an enforced lifecycle.
  - RunReport: The terminal map of results plus the order the run used.
*/
package domain
