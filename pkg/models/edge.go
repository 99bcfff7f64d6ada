package models

// EdgeType classifies the relation an edge models.
type EdgeType string

const (
	EdgeBridge  EdgeType = "bridge"  // network origin into the endpoint chain
	EdgeSpawn   EdgeType = "spawn"   // process parent -> child
	EdgeDrop    EdgeType = "drop"    // process -> file write
	EdgeSegment EdgeType = "segment" // continuation of a split chain
	EdgeGeneric EdgeType = "generic"
)

// Edge is a directed relation between two nodes. Implicit edges are
// synthesized from a node's parent-reference field; explicit edges come
// from the input edge list and win over implicit ones for the same pair.
type Edge struct {
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Label    string   `json:"val,omitempty"`
	Type     EdgeType `json:"edgeType,omitempty"`
	Implicit bool     `json:"-"`
}

// Priority orders sibling edges at a branch point: bridge and segment
// continuations surface the primary attack path before secondary
// branches; everything else keeps input order.
func (e *Edge) Priority() int {
	switch e.Type {
	case EdgeBridge:
		return 0
	case EdgeSegment:
		return 1
	default:
		return 2
	}
}
