package render

import (
	"strings"

	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

// Report assembles the full Markdown incident report. Section order is
// fixed: basic info, compact tree, detailed diagram, attack summary,
// node details, edge table.
func (r *Renderer) Report(inc *models.Incident, g *graph.Graph, chains []Chain) string {
	var b strings.Builder

	b.WriteString("# Attack Chain Report\n\n")

	b.WriteString("## Basic Information\n\n")
	b.WriteString(r.BasicInfo(inc, g))
	b.WriteString("\n")

	b.WriteString("## Process Chain\n\n")
	b.WriteString("```\n")
	b.WriteString(r.Tree(g))
	b.WriteString("```\n\n")

	b.WriteString("## Detailed Chain View\n\n")
	b.WriteString("```\n")
	b.WriteString(r.Diagram(g, chains))
	b.WriteString("```\n\n")

	b.WriteString("## Attack Summary\n\n")
	b.WriteString(r.AttackSummary(g))
	b.WriteString("\n")

	b.WriteString("## Node Details\n\n")
	b.WriteString(r.NodeDetails(g))

	b.WriteString("## Edges\n\n")
	b.WriteString(r.EdgeTable(g))

	return b.String()
}
