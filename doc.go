/*
Package weft is a test bench for visual workflow graphs: it runs a chosen
subset of nodes against a node execution service and reports, per node,
whether it worked.

A workflow graph is edited elsewhere (a canvas editor) and exported as
nodes and edges. weft answers the questions a test run needs: which fields
each node exposes, which nodes sit upstream of a node, which variables the
selection reads from nodes outside it, and in which order the selection can
run. It then dispatches the nodes one at a time, feeding every later node
the outputs of the earlier ones.

# Key Features

  - Field discovery per node kind (static JSON, CSV headers, lead catalog, output schemas).
  - Deterministic ordering: Kahn's algorithm seeded in declared node order; cycles are reported, not looped on.
  - Independent results: a failing node never aborts the run.
  - Pluggable execution: HTTP service, local process or in-memory script (see pkg/adapters).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/weft"
		"github.com/aretw0/weft/pkg/adapters/remote"
		"github.com/aretw0/weft/pkg/domain"
	)

	func main() {
		eng, err := weft.New(weft.WithExecutor(remote.New("http://localhost:3001")))
		if err != nil {
			log.Fatal(err)
		}

		g := domain.NewGraph(nodes, edges)
		sel := domain.NewSelection("summarize", "draft")

		for _, in := range eng.RequiredInputs(g, sel.NodeIDs) {
			fmt.Println("needs", in.DisplayName)
		}

		report, err := eng.Run(context.Background(), g, sel)
		if err != nil {
			log.Fatal(err)
		}
		ok, failed := report.Counts()
		fmt.Println(ok, "passed,", failed, "failed")
	}
*/
package weft
