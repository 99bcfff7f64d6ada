package render

import (
	"fmt"
	"strings"

	"chaingraph/internal/chain"
	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

// Chain pairs one resolved chain's walk with the network origin that
// reached it, if any. The pipeline assembles one Chain per origin.
type Chain struct {
	// Network is the origin node bridging into the endpoint, or nil
	// for chains that start at an endpoint process.
	Network *models.Node
	Steps   []chain.Step
}

// Diagram renders the detailed boxed view of the given chains.
func (r *Renderer) Diagram(g *graph.Graph, chains []Chain) string {
	var b strings.Builder
	r.banner(&b, "ATTACK CHAIN VIEW")
	b.WriteString("\n")

	if len(chains) > 1 {
		fmt.Fprintf(&b, "Detected %d independent attack chains\n\n", len(chains))
	}
	for i, c := range chains {
		if len(chains) > 1 {
			fmt.Fprintf(&b, "%s--- chain %d ---\n\n", r.style.Indent, i+1)
		}
		r.drawChain(&b, g, c)
		if i < len(chains)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (r *Renderer) drawChain(b *strings.Builder, g *graph.Graph, c Chain) {
	bridgeTarget := ""
	if c.Network != nil {
		bridgeTarget, _ = g.BridgeTarget(c.Network.NodeID)
	}
	bannerDrawn := false

	prevDepth := -1
	for _, step := range c.Steps {
		if step.Truncated {
			b.WriteString(r.style.Indent + "║\n")
			b.WriteString(r.style.Indent + "... depth limit reached (TOO_DEEP)\n")
			prevDepth = step.Depth
			continue
		}
		if step.Node != nil && step.Node.NodeID == bridgeTarget && !bannerDrawn {
			r.networkBanner(b, c.Network)
			bannerDrawn = true
		} else if prevDepth >= 0 {
			r.connector(b, step.Depth, prevDepth, step.Label)
		}
		r.card(b, step.Node)
		prevDepth = step.Depth
	}
}

// connector draws the link between two consecutive cards. A step that
// does not descend belongs to a sibling branch of an earlier node.
func (r *Renderer) connector(b *strings.Builder, depth, prevDepth int, label string) {
	in := r.style.Indent
	if depth <= prevDepth {
		fmt.Fprintf(b, "%s╠══ branch (depth %d) ══\n", in, depth)
	}
	b.WriteString(in + "║\n")
	if label != "" {
		b.WriteString(in + "▼ " + label + "\n")
	} else {
		b.WriteString(in + "▼\n")
	}
}

// banner draws the heavy double-line section header.
func (r *Renderer) banner(b *strings.Builder, title string) {
	w := r.style.BoxWidth
	line := strings.Repeat("═", w)
	b.WriteString(line + "\n")
	pad := (w - len(title)) / 2
	if pad < 0 {
		pad = 0
	}
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(line + "\n")
}

// networkBanner draws the intrusion box ahead of the process the
// network origin bridged into.
func (r *Renderer) networkBanner(b *strings.Builder, n *models.Node) {
	in := r.style.Indent
	w := r.style.BoxWidth
	b.WriteString(in + "╔" + strings.Repeat("═", w) + "╗\n")

	write := func(s string) {
		b.WriteString(in + "║ " + pad(s, w-2) + " ║\n")
	}
	write("NETWORK INTRUSION")
	if net := payloadOf(n); net != nil {
		write("attacker:  " + hostPort(net.SrcAddress, net.SrcPort))
		write("target:    " + hostPort(net.DestAddress, net.DestPort))
		if net.Protocol != "" {
			write("protocol:  " + strings.ToUpper(net.Protocol))
		}
		if net.URL != "" {
			write("url:       " + truncate(net.URL, w-13))
		}
		if net.RuleName != "" {
			write("detection: " + truncate(net.RuleName, w-13))
		}
		if net.AttackType != "" {
			write("attack:    " + net.AttackType)
		}
	} else if n != nil {
		write("origin:    " + n.NodeID)
	}
	b.WriteString(in + "╚" + strings.Repeat("═", w) + "╝\n")
	b.WriteString(in + "║\n")
	b.WriteString(in + "▼ bridges to endpoint process\n")
}

func payloadOf(n *models.Node) *models.NetworkPayload {
	if n == nil {
		return nil
	}
	return n.Network
}

// card draws one node as a fixed-width box. Alarm nodes get the heavy
// border.
func (r *Renderer) card(b *strings.Builder, n *models.Node) {
	if n == nil {
		return
	}
	in := r.style.Indent
	w := r.style.BoxWidth
	border := r.style.NormalBorder
	if n.IsAlarm() {
		border = r.style.AlarmBorder
	}

	b.WriteString(in + "┏" + strings.Repeat(border, w) + "┓\n")
	write := func(s string) {
		b.WriteString(in + "┃ " + pad(truncate(s, w-2), w-2) + " ┃\n")
	}

	write(cardTitle(n))
	switch {
	case n.Process() != nil:
		p := n.Process()
		write("user:    " + p.SimpleUserName())
		if p.Image != "" {
			write("image:   " + truncate(p.Image, w-11))
		}
		if p.CommandLine != "" {
			write("cmdline: " + truncate(p.CommandLine, w-11))
		}
		if p.ProcessStartTime != "" {
			write("started: " + p.ProcessStartTime)
		}
		write("threat:  " + n.ThreatSeverity.String())
		if a := n.Chain.Alarm; a != nil {
			write(strings.Repeat(border, w-2))
			write("alarm:   " + orNA(a.Name))
			if a.RuleName != "" {
				write("rule:    " + truncate(a.RuleName, w-11))
			}
			if a.Tactic != "" {
				write("tactic:  " + a.Tactic)
			}
		}
	case n.Kind == models.KindFile && n.File != nil:
		f := n.File
		if f.FilePath != "" {
			write("path:    " + truncate(f.FilePath, w-11))
		}
		if f.FileMd5 != "" {
			write("md5:     " + f.FileMd5)
		}
		if f.VirusName != "" {
			write("virus:   " + f.VirusName)
		}
		write("threat:  " + n.ThreatSeverity.String())
	case n.Kind == models.KindNetwork && n.Network != nil:
		net := n.Network
		write("from:    " + hostPort(net.SrcAddress, net.SrcPort))
		write("to:      " + hostPort(net.DestAddress, net.DestPort))
		write("threat:  " + n.ThreatSeverity.String())
	default:
		write("threat:  " + n.ThreatSeverity.String())
	}
	b.WriteString(in + "┗" + strings.Repeat(border, w) + "┛\n")
}

func cardTitle(n *models.Node) string {
	if n == nil {
		return "<missing>"
	}
	title := n.DisplayName()
	if n.Chain != nil {
		var marks []string
		if n.Chain.IsRoot {
			marks = append(marks, "[ROOT]")
		}
		if n.Chain.IsAlarm {
			marks = append(marks, "[ALARM]")
		}
		if n.Chain.IsExtension {
			marks = append(marks, "[EXTEND]")
		}
		if n.Chain.IsBroken {
			marks = append(marks, "[BROKEN]")
		}
		if len(marks) > 0 {
			title += " " + strings.Join(marks, " ")
		}
	}
	return title
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
