package chain

import (
	"fmt"
	"testing"

	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

func procNode(id, parent string) *models.Node {
	return &models.Node{
		NodeID:      id,
		Kind:        models.KindProcess,
		IsChainNode: true,
		Chain: &models.ChainNode{
			Process: &models.ProcessPayload{ProcessGuid: id, ParentProcessGuid: parent, ProcessName: id + ".exe", ProcessID: 7},
		},
	}
}

func TestBuildWalksLineageInOrder(t *testing.T) {
	g, _ := graph.Build([]*models.Node{
		procNode("root", ""),
		procNode("child", "root"),
		procNode("grandchild", "child"),
	}, nil)

	path := Build(g, []*models.Node{g.Node("root")}, Options{})
	if len(path.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(path.Steps))
	}
	want := []string{"root", "child", "grandchild"}
	for i, id := range want {
		if path.Steps[i].Node.NodeID != id {
			t.Fatalf("step %d: expected %s, got %s", i, id, path.Steps[i].Node.NodeID)
		}
		if path.Steps[i].Depth != i {
			t.Fatalf("step %d: expected depth %d, got %d", i, i, path.Steps[i].Depth)
		}
	}
	if path.Steps[1].Label != "spawns" {
		t.Fatalf("expected spawn label on step 1, got %q", path.Steps[1].Label)
	}
}

func TestBuildTerminatesOnCycle(t *testing.T) {
	edges := []*models.Edge{
		{Source: "a", Target: "b", Type: models.EdgeGeneric},
		{Source: "b", Target: "a", Type: models.EdgeGeneric},
	}
	g, _ := graph.Build([]*models.Node{procNode("a", ""), procNode("b", "")}, edges)

	path := Build(g, []*models.Node{g.Node("a")}, Options{})
	if path.CycleHits != 1 {
		t.Fatalf("expected 1 cycle hit, got %d", path.CycleHits)
	}
	if len(path.Steps) != 2 {
		t.Fatalf("expected each node once, got %d steps", len(path.Steps))
	}
}

func TestBuildTruncatesAtDepthCapWithSingleSentinel(t *testing.T) {
	nodes := make([]*models.Node, 0, 150)
	parent := ""
	for i := 0; i < 150; i++ {
		id := fmt.Sprintf("p%03d", i)
		nodes = append(nodes, procNode(id, parent))
		parent = id
	}
	g, _ := graph.Build(nodes, nil)

	path := Build(g, []*models.Node{g.Node("p000")}, Options{})
	if path.Truncation != 1 {
		t.Fatalf("expected 1 truncation, got %d", path.Truncation)
	}
	// Steps 0..100 expand, plus exactly one sentinel.
	if len(path.Steps) != DefaultMaxDepth+2 {
		t.Fatalf("expected %d steps, got %d", DefaultMaxDepth+2, len(path.Steps))
	}
	sentinels := 0
	for _, s := range path.Steps {
		if s.Truncated {
			sentinels++
		}
	}
	if sentinels != 1 {
		t.Fatalf("expected exactly one sentinel step, got %d", sentinels)
	}
	last := path.Steps[len(path.Steps)-1]
	if !last.Truncated || last.Label != "depth-limit" {
		t.Fatalf("expected trailing depth-limit sentinel, got %+v", last)
	}
}

func TestBuildIndependentRootsGetFreshVisitedSets(t *testing.T) {
	g, _ := graph.Build([]*models.Node{
		procNode("top", ""),
		procNode("shared", "top"),
	}, nil)

	roots := []*models.Node{g.Node("top"), g.Node("top")}
	independent := Build(g, roots, Options{})
	if len(independent.Steps) != 4 {
		t.Fatalf("expected both walks to expand, got %d steps", len(independent.Steps))
	}

	single := Build(g, roots, Options{SingleChain: true})
	if len(single.Steps) != 2 {
		t.Fatalf("expected shared visited set to dedupe, got %d steps", len(single.Steps))
	}
	if single.CycleHits != 1 {
		t.Fatalf("expected revisit counted, got %d", single.CycleHits)
	}
}

func TestOriginAscendsToTopmostAncestor(t *testing.T) {
	g, _ := graph.Build([]*models.Node{
		procNode("top", ""),
		procNode("mid", "top"),
		procNode("leaf", "mid"),
	}, nil)

	if got := Origin(g, "leaf", 0); got != "top" {
		t.Fatalf("expected top, got %s", got)
	}
}

func TestOriginIsCycleSafe(t *testing.T) {
	g, _ := graph.Build([]*models.Node{
		procNode("a", "b"),
		procNode("b", "a"),
	}, nil)

	got := Origin(g, "a", 0)
	if got != "b" && got != "a" {
		t.Fatalf("expected ascent to stop inside the cycle, got %s", got)
	}
}

func TestOrderedChildrenPutsSegmentContinuationFirst(t *testing.T) {
	edges := []*models.Edge{
		{Source: "root", Target: "file-1", Label: "creates", Type: models.EdgeDrop},
		{Source: "root", Target: "next", Label: "continues", Type: models.EdgeSegment},
	}
	fileNode := &models.Node{NodeID: "file-1", Kind: models.KindFile, File: &models.FilePayload{}}
	g, _ := graph.Build([]*models.Node{procNode("root", ""), fileNode, procNode("next", "")}, edges)

	children := OrderedChildren(g, "root")
	if len(children) != 2 || children[0] != "next" || children[1] != "file-1" {
		t.Fatalf("expected segment continuation first, got %v", children)
	}
}
