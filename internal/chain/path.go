package chain

import (
	"sort"

	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

// DefaultMaxDepth bounds traversal against runaway or adversarial
// input. Exceeding it truncates the branch, never crashes the build.
const DefaultMaxDepth = 100

// Step is one entry in a resolved traversal: the node plus the label of
// the edge that led to it. Truncated marks the depth-limit sentinel.
type Step struct {
	Node      *models.Node
	Label     string
	Depth     int
	Truncated bool
}

// Options controls traversal behavior.
type Options struct {
	// MaxDepth caps traversal depth; 0 means DefaultMaxDepth.
	MaxDepth int
	// SingleChain carries one visited set across all roots, so a node
	// reachable from two roots appears only once. The default treats
	// each root as an independent chain with a fresh visited set.
	SingleChain bool
}

// Path is the ordered, branch-aware traversal result. Bridge links are
// kept on the graph itself (see graph.BridgeTarget); the renderer
// queries them to insert the bridge annotation exactly once per chain.
type Path struct {
	Steps      []Step
	CycleHits  int
	Truncation int
}

type frame struct {
	id    string
	label string
	depth int
}

// Build walks the graph depth-first from the resolved roots using an
// explicit work stack. Re-encountering a visited id terminates that
// branch; sibling edges are ordered bridge and segment continuations
// first, then input order.
func Build(g *graph.Graph, roots []*models.Node, opts Options) *Path {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	path := &Path{}
	shared := make(map[string]bool)

	for _, root := range roots {
		if root == nil {
			continue
		}
		visited := shared
		if !opts.SingleChain {
			visited = make(map[string]bool)
		}
		walk(g, root.NodeID, maxDepth, visited, path)
	}

	return path
}

func walk(g *graph.Graph, rootID string, maxDepth int, visited map[string]bool, path *Path) {
	stack := []frame{{id: rootID}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := g.Node(cur.id)
		if node == nil {
			continue
		}
		if visited[cur.id] {
			path.CycleHits++
			continue
		}
		visited[cur.id] = true
		path.Steps = append(path.Steps, Step{Node: node, Label: cur.label, Depth: cur.depth})

		children := OrderedChildren(g, cur.id)
		if len(children) == 0 {
			continue
		}

		if cur.depth >= maxDepth {
			// Truncate the branch with a single sentinel for the
			// first unexpanded child.
			path.Truncation++
			path.Steps = append(path.Steps, Step{
				Node:      g.Node(children[0]),
				Label:     "depth-limit",
				Depth:     cur.depth + 1,
				Truncated: true,
			})
			continue
		}

		// Push in reverse so the highest-priority child pops first.
		for i := len(children) - 1; i >= 0; i-- {
			label := ""
			if e := g.EdgeBetween(cur.id, children[i]); e != nil {
				label = e.Label
			}
			stack = append(stack, frame{id: children[i], label: label, depth: cur.depth + 1})
		}
	}
}

// Origin ascends parent links from a resolved root to the topmost
// ancestor of its chain. The ascent is cycle-safe and depth-capped like
// the downward walk.
func Origin(g *graph.Graph, rootID string, maxDepth int) string {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	visited := map[string]bool{rootID: true}
	cur := rootID
	for depth := 0; depth < maxDepth; depth++ {
		parent, ok := g.Parent(cur)
		if !ok || visited[parent] || g.Node(parent) == nil {
			break
		}
		visited[parent] = true
		cur = parent
	}
	return cur
}

// OrderedChildren returns a node's children with bridge and segment
// edges first; other edges keep their input order. The renderer uses
// the same ordering so tree and diagram views agree on branch order.
func OrderedChildren(g *graph.Graph, id string) []string {
	children := g.Children(id)
	if len(children) < 2 {
		return children
	}
	out := append([]string(nil), children...)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := 2, 2
		if e := g.EdgeBetween(id, out[i]); e != nil {
			pi = e.Priority()
		}
		if e := g.EdgeBetween(id, out[j]); e != nil {
			pj = e.Priority()
		}
		return pi < pj
	})
	return out
}
