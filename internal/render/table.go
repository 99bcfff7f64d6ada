package render

import (
	"fmt"
	"sort"
	"strings"

	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

// EdgeTable renders every graph edge as a Markdown table row, in input
// order. Endpoints missing from the node index print as <missing>.
func (r *Renderer) EdgeTable(g *graph.Graph) string {
	var b strings.Builder
	b.WriteString("| source | target | relation |\n")
	b.WriteString("|--------|--------|----------|\n")
	for _, e := range g.Edges() {
		label := e.Label
		if label == "" {
			label = "-"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n",
			g.Node(e.Source).DisplayName(),
			g.Node(e.Target).DisplayName(),
			label)
	}
	return b.String()
}

// BasicInfo renders the incident header block.
func (r *Renderer) BasicInfo(inc *models.Incident, g *graph.Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- trace ids: %s\n", joinOrNA(inc.TraceIDs))
	fmt.Fprintf(&b, "- hosts: %s\n", joinOrNA(inc.HostAddresses))
	fmt.Fprintf(&b, "- threat severity: %s\n", inc.RollupSeverity().String())
	fmt.Fprintf(&b, "- nodes: %d\n", g.Len())
	fmt.Fprintf(&b, "- edges: %d\n", len(g.Edges()))
	return b.String()
}

// AttackSummary lists the network origins and alarm-flagged nodes.
func (r *Renderer) AttackSummary(g *graph.Graph) string {
	var b strings.Builder
	for _, n := range g.Nodes() {
		if n.Kind != models.KindNetwork {
			continue
		}
		target, ok := g.BridgeTarget(n.NodeID)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- network origin %s bridges to %s\n",
			n.NodeID, g.Node(target).DisplayName())
	}
	for _, n := range g.Nodes() {
		if !n.IsAlarm() {
			continue
		}
		line := "- alarm on " + n.DisplayName()
		if a := n.Chain.Alarm; a != nil && a.Name != "" {
			line += ": " + a.Name
		}
		fmt.Fprintf(&b, "%s [%s]\n", line, n.ThreatSeverity.String())
	}
	if b.Len() == 0 {
		return "- no network origins or alarms detected\n"
	}
	return b.String()
}

// NodeDetails renders per-node attribute lists grouped by kind, in the
// fixed order network, process, file, other. Detail views use N/A for
// absent attributes rather than the SYSTEM default of the tree.
func (r *Renderer) NodeDetails(g *graph.Graph) string {
	var b strings.Builder
	groups := []struct {
		kind  models.NodeKind
		title string
	}{
		{models.KindNetwork, "Network"},
		{models.KindProcess, "Processes"},
		{models.KindFile, "Files"},
		{models.KindOther, "Other"},
	}
	for _, grp := range groups {
		var section strings.Builder
		for _, n := range g.Nodes() {
			if n.Kind != grp.kind {
				continue
			}
			r.nodeDetail(&section, n)
		}
		if section.Len() > 0 {
			fmt.Fprintf(&b, "### %s\n\n", grp.title)
			b.WriteString(section.String())
		}
	}
	return b.String()
}

func (r *Renderer) nodeDetail(b *strings.Builder, n *models.Node) {
	fmt.Fprintf(b, "**%s**\n\n", n.DisplayName())
	switch {
	case n.Process() != nil:
		p := n.Process()
		fmt.Fprintf(b, "- guid: %s\n", orNA(p.ProcessGuid))
		fmt.Fprintf(b, "- user: %s\n", orNA(p.ProcessUserName))
		fmt.Fprintf(b, "- image: %s\n", orNA(p.Image))
		fmt.Fprintf(b, "- command line: %s\n", orNA(p.CommandLine))
		fmt.Fprintf(b, "- md5: %s\n", orNA(p.ProcessMd5))
		fmt.Fprintf(b, "- started: %s\n", orNA(p.ProcessStartTime))
		if a := n.Chain.Alarm; a != nil {
			fmt.Fprintf(b, "- alarm: %s\n", orNA(a.Name))
			fmt.Fprintf(b, "- rule: %s\n", orNA(a.RuleName))
		}
	case n.Network != nil:
		net := n.Network
		fmt.Fprintf(b, "- source: %s\n", hostPort(net.SrcAddress, net.SrcPort))
		fmt.Fprintf(b, "- destination: %s\n", hostPort(net.DestAddress, net.DestPort))
		fmt.Fprintf(b, "- protocol: %s\n", orNA(net.Protocol))
		fmt.Fprintf(b, "- url: %s\n", orNA(net.URL))
		fmt.Fprintf(b, "- rule: %s\n", orNA(net.RuleName))
		fmt.Fprintf(b, "- attack type: %s\n", orNA(net.AttackType))
	case n.File != nil:
		f := n.File
		fmt.Fprintf(b, "- name: %s\n", orNA(f.FileName))
		fmt.Fprintf(b, "- path: %s\n", orNA(f.FilePath))
		fmt.Fprintf(b, "- md5: %s\n", orNA(f.FileMd5))
		fmt.Fprintf(b, "- virus: %s\n", orNA(f.VirusName))
	default:
		for _, k := range sortedKeys(n.Extra) {
			fmt.Fprintf(b, "- %s: %s\n", k, orNA(n.Extra[k]))
		}
		if len(n.Extra) == 0 {
			fmt.Fprintf(b, "- id: %s\n", n.NodeID)
		}
	}
	fmt.Fprintf(b, "- severity: %s\n\n", n.ThreatSeverity.String())
}

func joinOrNA(vals []string) string {
	if len(vals) == 0 {
		return placeholder
	}
	return strings.Join(vals, ", ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
