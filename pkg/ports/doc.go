/*
Package ports defines the driven ports (interfaces) for the weft test bench.

These interfaces decouple the test engine from the node execution service,
the graph source and the run persistence backend.

# Key Interfaces

  - NodeExecutor: Runs a single node against the execution service (HTTP, local process, memory).
  - GraphLoader: Provides the workflow graph (editor export file, memory).
  - RunStore: Persists run reports so asynchronous runs can be polled and listed.
*/
package ports
