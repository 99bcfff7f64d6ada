package graph

import (
	"errors"

	"chaingraph/pkg/models"
)

// ErrNoRoot is returned when no resolution tier yields a candidate;
// callers must treat the graph as unrenderable.
var ErrNoRoot = errors.New("no root candidate resolved")

// ResolveRoots identifies the attack root candidates. Tiers, first
// non-empty wins:
//
//  1. chain nodes flagged both alarm and root
//  2. in-degree-0 NETWORK nodes with outgoing edges
//  3. all in-degree-0 nodes
//  4. the single HIGH-severity node, best effort
//
// Ties keep input order, never id order.
func ResolveRoots(g *Graph) ([]*models.Node, error) {
	if g == nil || g.Len() == 0 {
		return nil, ErrNoRoot
	}

	var flagged []*models.Node
	for _, id := range g.order {
		node := g.nodes[id]
		if node.IsRoot() && node.IsAlarm() {
			flagged = append(flagged, node)
		}
	}
	if len(flagged) > 0 {
		return flagged, nil
	}

	var netOrigins []*models.Node
	var orphans []*models.Node
	for _, id := range g.order {
		node := g.nodes[id]
		if _, hasParent := g.parent[id]; hasParent {
			continue
		}
		orphans = append(orphans, node)
		if node.Kind == models.KindNetwork && (len(g.children[id]) > 0 || g.bridges[id] != "") {
			netOrigins = append(netOrigins, node)
		}
	}
	if len(netOrigins) > 0 {
		return netOrigins, nil
	}
	if len(orphans) > 0 {
		return orphans, nil
	}

	var high *models.Node
	for _, id := range g.order {
		node := g.nodes[id]
		if node.ThreatSeverity != models.SeverityHigh {
			continue
		}
		if high != nil {
			// Ambiguous best-effort tier: more than one HIGH node
			// is no root signal at all.
			return nil, ErrNoRoot
		}
		high = node
	}
	if high != nil {
		return []*models.Node{high}, nil
	}

	return nil, ErrNoRoot
}
