// Package graph renders workflow graphs as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/weft/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of g. Shapes follow the node
// kind:
//   - input kinds (JSON, CSV, lead catalogs): [/Parallelogram/]
//   - LLM: [[Subroutine]]
//   - anything else: [Rectangle]
//
// When report is not nil every node it holds a result for is styled with its
// status, and cycle members it omitted are marked as such.
func GenerateMermaid(g *domain.Graph, report *domain.RunReport) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		opener, closer := shape(node.Type)
		label := escape(node.DisplayName())
		if node.Type != "" {
			label = fmt.Sprintf("%s <br/> <small>%s</small>", label, escape(string(node.Type)))
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeMermaidID(node.ID), opener, label, closer)
	}

	for _, e := range g.Edges() {
		arrow := "-->"
		if !g.Has(e.Source) || !g.Has(e.Target) {
			// Dangling edge.
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target))
	}

	if report != nil {
		writeOverlay(&sb, g, report)
	}
	return sb.String()
}

func writeOverlay(sb *strings.Builder, g *domain.Graph, report *domain.RunReport) {
	sb.WriteString("\n    %% Run Overlay\n")
	// Force black text (color:#000) for contrast on light fills in both themes.
	sb.WriteString("    classDef pending fill:#eceff1,stroke:#90a4ae,color:#000;\n")
	sb.WriteString("    classDef running fill:#fff9c4,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
	sb.WriteString("    classDef success fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef error fill:#ffcdd2,stroke:#c62828,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef omitted fill:#ffcdd2,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")

	omitted := make(map[string]bool, len(report.Omitted))
	for _, id := range report.Omitted {
		omitted[id] = true
	}
	for _, id := range g.NodeIDs() {
		res, ok := report.Results[id]
		if !ok {
			continue
		}
		class := string(res.Status)
		if omitted[id] {
			class = "omitted"
		}
		fmt.Fprintf(sb, "    class %s %s;\n", sanitizeMermaidID(id), class)
	}
}

func shape(kind domain.NodeKind) (string, string) {
	switch kind {
	case domain.KindJSON, domain.KindJSONBuilder, domain.KindCSVInput, domain.KindLeadInput, domain.KindBox1Input:
		return "[/", "/]"
	case domain.KindLLM:
		return "[[", "]]"
	}
	return "[", "]"
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
