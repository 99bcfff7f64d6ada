package graph

import (
	"chaingraph/internal/logger"
	"chaingraph/pkg/models"
)

// Graph is the node index plus adjacency for one incident. Adjacency is
// always derived from the normalized edge set; a node has at most one
// structural parent.
type Graph struct {
	nodes    map[string]*models.Node
	order    []string
	edges    []*models.Edge
	children map[string][]string
	parent   map[string]string
	bridges  map[string]string
}

// BuildStats counts structural anomalies absorbed during the build.
type BuildStats struct {
	DuplicateNodes  int
	DanglingParents int
	DanglingEdges   int
	ParentConflicts int
	ImplicitEdges   int
}

// structuralRank orders competing parent links for one child. Process
// lineage binds tighter than entity relations; a bridge never displaces
// a spawn parent, it stays available as a bridge link instead.
func structuralRank(t models.EdgeType) int {
	switch t {
	case models.EdgeSpawn:
		return 0
	case models.EdgeSegment:
		return 1
	case models.EdgeDrop:
		return 2
	case models.EdgeBridge:
		return 4
	default:
		return 3
	}
}

// Build assembles a graph from canonical nodes and explicit edges.
// Duplicate node ids are last-write-wins. Implicit parent edges are
// synthesized from process parent references only when the parent id
// resolves; a dangling reference leaves the node parentless and marks
// its chain broken. When an explicit edge and an implicit parent
// reference cover the same pair, the explicit edge wins.
func Build(nodes []*models.Node, explicit []*models.Edge) (*Graph, BuildStats) {
	g := &Graph{
		nodes:    make(map[string]*models.Node, len(nodes)),
		order:    make([]string, 0, len(nodes)),
		children: make(map[string][]string),
		parent:   make(map[string]string),
		bridges:  make(map[string]string),
	}
	var stats BuildStats

	for _, node := range nodes {
		if node == nil || node.NodeID == "" {
			continue
		}
		if _, seen := g.nodes[node.NodeID]; seen {
			stats.DuplicateNodes++
			logger.Warnf("Duplicate node id %s: keeping last record", node.NodeID)
		} else {
			g.order = append(g.order, node.NodeID)
		}
		g.nodes[node.NodeID] = node
	}

	// Normalize both edge representations into one set before anything
	// downstream runs. Explicit edges keep input order and win over an
	// implicit parent reference covering the same pair.
	covered := make(map[[2]string]bool, len(explicit))
	resolvable := make([]*models.Edge, 0, len(explicit))
	for _, edge := range explicit {
		if edge == nil || edge.Source == "" || edge.Target == "" {
			continue
		}
		g.edges = append(g.edges, edge)
		covered[[2]string{edge.Source, edge.Target}] = true

		if _, ok := g.nodes[edge.Source]; !ok {
			stats.DanglingEdges++
			logger.Warnf("Edge %s -> %s: source not in index, excluded from adjacency", edge.Source, edge.Target)
			continue
		}
		if _, ok := g.nodes[edge.Target]; !ok {
			stats.DanglingEdges++
			logger.Warnf("Edge %s -> %s: target not in index, excluded from adjacency", edge.Source, edge.Target)
			continue
		}
		resolvable = append(resolvable, edge)
	}

	for _, id := range g.order {
		node := g.nodes[id]
		proc := node.Process()
		if proc == nil || proc.ParentProcessGuid == "" || proc.ParentProcessGuid == id {
			continue
		}
		if covered[[2]string{proc.ParentProcessGuid, id}] {
			continue
		}
		if _, ok := g.nodes[proc.ParentProcessGuid]; !ok {
			stats.DanglingParents++
			if node.Chain != nil {
				node.Chain.IsBroken = true
			}
			logger.Warnf("Node %s: parent %s not in index, treating as chain origin", id, proc.ParentProcessGuid)
			continue
		}
		edge := &models.Edge{
			Source:   proc.ParentProcessGuid,
			Target:   id,
			Label:    "spawns",
			Type:     models.EdgeSpawn,
			Implicit: true,
		}
		g.edges = append(g.edges, edge)
		stats.ImplicitEdges++
		resolvable = append(resolvable, edge)
	}

	g.buildAdjacency(resolvable, &stats)
	return g, stats
}

// buildAdjacency selects the structural parent for every child among
// competing links and records network-to-process bridge links.
func (g *Graph) buildAdjacency(edges []*models.Edge, stats *BuildStats) {
	best := make(map[string]*models.Edge, len(edges))
	for _, edge := range edges {
		if src := g.nodes[edge.Source]; src != nil && src.Kind == models.KindNetwork {
			if dst := g.nodes[edge.Target]; dst != nil && dst.Kind == models.KindProcess {
				if _, seen := g.bridges[edge.Source]; !seen {
					g.bridges[edge.Source] = edge.Target
				}
			}
		}

		cur, ok := best[edge.Target]
		if !ok {
			best[edge.Target] = edge
			continue
		}
		if structuralRank(edge.Type) < structuralRank(cur.Type) {
			// Lineage displaces a weaker earlier link.
			if structuralRank(cur.Type) < structuralRank(models.EdgeBridge) {
				stats.ParentConflicts++
				logger.Warnf("Node %s: parent link from %s displaced by %s", edge.Target, cur.Source, edge.Source)
			}
			best[edge.Target] = edge
			continue
		}
		if structuralRank(edge.Type) < structuralRank(models.EdgeBridge) {
			stats.ParentConflicts++
			logger.Warnf("Node %s already has parent %s, ignoring duplicate link from %s", edge.Target, cur.Source, edge.Source)
		}
	}

	// Attach in edge input order so sibling order stays deterministic.
	for _, edge := range edges {
		if best[edge.Target] != edge {
			continue
		}
		g.parent[edge.Target] = edge.Source
		g.children[edge.Source] = append(g.children[edge.Source], edge.Target)
	}
}

// Node returns the indexed node or nil.
func (g *Graph) Node(id string) *models.Node {
	return g.nodes[id]
}

// Nodes returns all nodes in input order.
func (g *Graph) Nodes() []*models.Node {
	out := make([]*models.Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns the normalized edge set, explicit before implicit.
func (g *Graph) Edges() []*models.Edge {
	return g.edges
}

// Children returns the ordered child ids of a node.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// Parent returns the structural parent id, if any.
func (g *Graph) Parent(id string) (string, bool) {
	p, ok := g.parent[id]
	return p, ok
}

// BridgeTarget returns the first process node a network origin edges
// into, whether or not that edge became structural.
func (g *Graph) BridgeTarget(networkID string) (string, bool) {
	t, ok := g.bridges[networkID]
	return t, ok
}

// EdgeBetween returns the first edge connecting source to target.
func (g *Graph) EdgeBetween(source, target string) *models.Edge {
	for _, e := range g.edges {
		if e.Source == source && e.Target == target {
			return e
		}
	}
	return nil
}

// Len returns the number of indexed nodes.
func (g *Graph) Len() int {
	return len(g.order)
}
