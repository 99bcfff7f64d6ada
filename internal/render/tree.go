package render

import (
	"strings"

	"chaingraph/internal/chain"
	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

// Tree renders the compact indented view of the whole graph. Network
// origins come first, then the remaining top-level nodes in input
// order. A visited set shared across all top-levels guarantees every
// node prints at most once even when edges form cycles.
func (r *Renderer) Tree(g *graph.Graph) string {
	var b strings.Builder
	visited := make(map[string]bool, g.Len())

	for _, top := range r.topLevels(g) {
		r.drawSubtree(&b, g, top, "", true, 0, visited)
	}
	// A cycle with no entry point has no top-level node; surface it
	// from its first node in input order.
	for _, n := range g.Nodes() {
		if !visited[n.NodeID] {
			r.drawSubtree(&b, g, n.NodeID, "", true, 0, visited)
		}
	}
	return b.String()
}

// topLevels returns the ids of nodes with no structural parent,
// network nodes first.
func (r *Renderer) topLevels(g *graph.Graph) []string {
	var nets, rest []string
	for _, n := range g.Nodes() {
		if _, ok := g.Parent(n.NodeID); ok {
			continue
		}
		if n.Kind == models.KindNetwork {
			nets = append(nets, n.NodeID)
		} else {
			rest = append(rest, n.NodeID)
		}
	}
	return append(nets, rest...)
}

func (r *Renderer) drawSubtree(b *strings.Builder, g *graph.Graph, id, prefix string, isLast bool, depth int, visited map[string]bool) {
	connector := "├── "
	childPrefix := prefix + "│   "
	if isLast {
		connector = "└── "
		childPrefix = prefix + "    "
	}
	if depth == 0 {
		connector = ""
		childPrefix = ""
	}

	node := g.Node(id)
	if visited[id] {
		b.WriteString(prefix + connector + "[CIRCULAR] " + node.DisplayName() + " - already visited\n")
		return
	}
	visited[id] = true

	if depth > r.maxDepth {
		b.WriteString(prefix + connector + "[TOO_DEEP] " + node.DisplayName() + " - depth limit reached\n")
		return
	}

	b.WriteString(prefix + connector + treeLabel(node) + "\n")

	// A network origin shows a parentless bridged process as a child
	// even when the bridge edge lost structural parentage. Processes
	// already anchored in a spawn lineage render under that lineage.
	children := chain.OrderedChildren(g, id)
	if target, ok := g.BridgeTarget(id); ok && !contains(children, target) {
		if _, anchored := g.Parent(target); !anchored {
			children = append([]string{target}, children...)
		}
	}
	for i, child := range children {
		r.drawSubtree(b, g, child, childPrefix, i == len(children)-1, depth+1, visited)
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
