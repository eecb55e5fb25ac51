package tui

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/weft/internal/runtime"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// maxOutput is how much of a node output the report shows.
const maxOutput = 120

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// ReportMarkdown formats report as a markdown document: a summary line and
// one table row per node in execution order, unknown and omitted nodes last.
func ReportMarkdown(g *domain.Graph, report *domain.RunReport) string {
	var sb strings.Builder
	succeeded, failed := report.Counts()

	fmt.Fprintf(&sb, "# Run `%s`\n\n", report.ID)
	fmt.Fprintf(&sb, "**%d** succeeded, **%d** failed", succeeded, failed)
	if report.Canceled {
		sb.WriteString(", canceled")
	}
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(&sb, " in %s", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	}
	sb.WriteString("\n\n")

	sb.WriteString("| # | Node | Status | Duration | Result |\n")
	sb.WriteString("|---|------|--------|----------|--------|\n")
	for i, id := range ReportRows(report) {
		res := report.Results[id]
		name := id
		if n, ok := g.Node(id); ok {
			name = n.DisplayName()
		}
		detail := res.Error
		if res.Status == domain.StatusSuccess {
			detail = "`" + truncate(runtime.OutputText(res.Output)) + "`"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %dms | %s |\n", i+1, cell(name), res.Status, res.DurationMs, cell(detail))
	}
	return sb.String()
}

// ReportRows lists the node ids of report: execution order first, then
// omitted cycle members, then any other id (unknown nodes) sorted.
func ReportRows(report *domain.RunReport) []string {
	seen := make(map[string]bool, len(report.Results))
	rows := make([]string, 0, len(report.Results))
	add := func(id string) {
		if _, ok := report.Results[id]; ok && !seen[id] {
			seen[id] = true
			rows = append(rows, id)
		}
	}
	for _, id := range report.Order {
		add(id)
	}
	for _, id := range report.Omitted {
		add(id)
	}
	var rest []string
	for id := range report.Results {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	slices.Sort(rest)
	for _, id := range rest {
		add(id)
	}
	return rows
}

// PrintReport writes report to w, through glamour when rich is set and as
// aligned plain text otherwise.
func PrintReport(w io.Writer, g *domain.Graph, report *domain.RunReport, rich bool) error {
	if rich {
		out, err := NewRenderer()(ReportMarkdown(g, report))
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}

	for _, id := range ReportRows(report) {
		res := report.Results[id]
		line := fmt.Sprintf("%-9s %-24s %6dms", Badge(res.Status, false), id, res.DurationMs)
		if res.Error != "" {
			line += "  " + res.Error
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	succeeded, failed := report.Counts()
	_, err := fmt.Fprintf(w, "%d succeeded, %d failed\n", succeeded, failed)
	return err
}

func truncate(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) > maxOutput {
		return string([]rune(s)[:maxOutput]) + "…"
	}
	return s
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
