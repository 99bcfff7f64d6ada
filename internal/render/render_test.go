package render

import (
	"strings"
	"testing"

	"chaingraph/internal/chain"
	"chaingraph/internal/graph"
	"chaingraph/pkg/models"
)

func procNode(id, parent, name string, pid int) *models.Node {
	return &models.Node{
		NodeID:      id,
		Kind:        models.KindProcess,
		IsChainNode: true,
		Chain: &models.ChainNode{
			Process: &models.ProcessPayload{
				ProcessGuid:       id,
				ParentProcessGuid: parent,
				ProcessName:       name,
				ProcessID:         pid,
			},
		},
	}
}

// intrusionFixture models one web intrusion: an external alert bridging
// into a traced process at the bottom of a three-deep spawn lineage,
// which drops a webshell file.
func intrusionFixture() (*graph.Graph, []Chain) {
	net := &models.Node{
		NodeID:         "network-1",
		Kind:           models.KindNetwork,
		ThreatSeverity: models.SeverityHigh,
		Network: &models.NetworkPayload{
			SrcAddress:  "203.0.113.9",
			SrcPort:     51544,
			DestAddress: "10.0.0.5",
			DestPort:    8080,
			Protocol:    "http",
			AttackType:  "webshell_upload",
		},
	}
	p1 := procNode("guid-p1", "", "services.exe", 612)
	p2 := procNode("guid-p2", "guid-p1", "w3wp.exe", 2204)
	root := procNode("guid-root", "guid-p2", "cmd.exe", 3388)
	root.Chain.IsRoot = true
	root.Chain.IsAlarm = true
	root.ThreatSeverity = models.SeverityHigh
	file := &models.Node{
		NodeID:         "file-1",
		Kind:           models.KindFile,
		ThreatSeverity: models.SeverityHigh,
		File:           &models.FilePayload{FileName: "shell.aspx", VirusName: "Webshell.ASP.Gen"},
	}

	edges := []*models.Edge{
		{Source: "network-1", Target: "guid-root", Label: "bridges-to", Type: models.EdgeBridge},
		{Source: "guid-root", Target: "file-1", Label: "creates", Type: models.EdgeDrop},
	}
	g, _ := graph.Build([]*models.Node{net, p1, p2, root, file}, edges)

	path := chain.Build(g, []*models.Node{g.Node("guid-p1")}, chain.Options{})
	return g, []Chain{{Network: net, Steps: path.Steps}}
}

func TestTreeOrdersNetworkOriginsBeforeLineage(t *testing.T) {
	g, _ := intrusionFixture()
	tree := New(DefaultStyle(), 0).Tree(g)

	lines := strings.Split(strings.TrimRight(tree, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 tree lines, got %d:\n%s", len(lines), tree)
	}
	wantOrder := []string{"webshell_upload", "services.exe", "w3wp.exe", "cmd.exe", "shell.aspx"}
	for i, want := range wantOrder {
		if !strings.Contains(lines[i], want) {
			t.Fatalf("line %d: expected %q in %q", i, want, lines[i])
		}
	}
	if !strings.Contains(lines[3], "[ROOT,ALARM]") {
		t.Fatalf("expected root tags on cmd.exe line, got %q", lines[3])
	}
	if !strings.Contains(lines[1], "- SYSTEM") {
		t.Fatalf("expected SYSTEM default user, got %q", lines[1])
	}
	// Depth grows one indent per lineage level.
	if !strings.HasPrefix(lines[2], "└── ") || !strings.HasPrefix(lines[3], "    └── ") {
		t.Fatalf("unexpected indentation:\n%s", tree)
	}
}

func TestTreeMarksCyclesInsteadOfLooping(t *testing.T) {
	edges := []*models.Edge{
		{Source: "a", Target: "b", Type: models.EdgeGeneric},
		{Source: "b", Target: "a", Type: models.EdgeGeneric},
	}
	g, _ := graph.Build([]*models.Node{
		procNode("a", "", "a.exe", 1),
		procNode("b", "", "b.exe", 2),
	}, edges)

	tree := New(DefaultStyle(), 0).Tree(g)
	if strings.Count(tree, "[CIRCULAR]") != 1 {
		t.Fatalf("expected exactly one CIRCULAR marker:\n%s", tree)
	}
	if strings.Count(tree, "a.exe") != 2 {
		// Once as a node line, once inside the CIRCULAR marker.
		t.Fatalf("expected a.exe to appear twice:\n%s", tree)
	}
}

func TestTreeShowsBrokenChainAsTopLevel(t *testing.T) {
	orphan := procNode("x", "ghost", "orphan.exe", 9)
	g, _ := graph.Build([]*models.Node{procNode("a", "", "a.exe", 1), orphan}, nil)

	tree := New(DefaultStyle(), 0).Tree(g)
	lines := strings.Split(strings.TrimRight(tree, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two top-level lines, got:\n%s", tree)
	}
	if !strings.Contains(lines[1], "[BROKEN]") || !strings.Contains(lines[1], "orphan.exe") {
		t.Fatalf("expected broken orphan at top level, got %q", lines[1])
	}
}

func TestDiagramInsertsBridgeBannerOnceBeforeTarget(t *testing.T) {
	g, chains := intrusionFixture()
	out := New(DefaultStyle(), 0).Diagram(g, chains)

	if strings.Count(out, "NETWORK INTRUSION") != 1 {
		t.Fatalf("expected exactly one intrusion banner:\n%s", out)
	}
	banner := strings.Index(out, "NETWORK INTRUSION")
	target := strings.Index(out, "cmd.exe(3388)")
	if target < 0 || banner < 0 || banner > target {
		t.Fatalf("expected banner before the bridged process card:\n%s", out)
	}
	if !strings.Contains(out, "▼ bridges to endpoint process") {
		t.Fatalf("expected bridge connector:\n%s", out)
	}
	if !strings.Contains(out, "cmd.exe(3388) [ROOT] [ALARM]") {
		t.Fatalf("expected root markers on the card title:\n%s", out)
	}
}

func TestDiagramMultiChainSections(t *testing.T) {
	g, chains := intrusionFixture()
	second := Chain{Steps: chains[0].Steps}
	out := New(DefaultStyle(), 0).Diagram(g, append(chains, second))

	if !strings.Contains(out, "Detected 2 independent attack chains") {
		t.Fatalf("expected multi-chain header:\n%s", out)
	}
	if strings.Count(out, "--- chain ") != 2 {
		t.Fatalf("expected two chain sections:\n%s", out)
	}
}

func TestEdgeTableUsesDisplayNamesAndPlaceholders(t *testing.T) {
	g, _ := intrusionFixture()
	table := New(DefaultStyle(), 0).EdgeTable(g)

	if !strings.Contains(table, "| source | target | relation |") {
		t.Fatalf("missing header:\n%s", table)
	}
	if !strings.Contains(table, "| network-1 | cmd.exe(3388) | bridges-to |") {
		t.Fatalf("missing bridge row:\n%s", table)
	}
	if !strings.Contains(table, "| cmd.exe(3388) | file-1 | creates |") {
		t.Fatalf("missing drop row:\n%s", table)
	}
}

func TestEdgeTableMissingEndpointPlaceholder(t *testing.T) {
	edges := []*models.Edge{{Source: "a", Target: "gone", Type: models.EdgeGeneric}}
	g, _ := graph.Build([]*models.Node{procNode("a", "", "a.exe", 1)}, edges)

	table := New(DefaultStyle(), 0).EdgeTable(g)
	if !strings.Contains(table, "| a.exe(1) | <missing> | - |") {
		t.Fatalf("expected <missing> placeholder and dash label:\n%s", table)
	}
}

func TestReportIsByteIdenticalAcrossRuns(t *testing.T) {
	g, chains := intrusionFixture()
	inc := &models.Incident{
		TraceIDs:      []string{"guid-root"},
		HostAddresses: []string{"10.0.0.5"},
		Nodes:         g.Nodes(),
		Edges:         g.Edges(),
	}
	r := New(DefaultStyle(), 0)
	first := r.Report(inc, g, chains)
	second := r.Report(inc, g, chains)
	if first != second {
		t.Fatalf("report rendering is not deterministic")
	}

	for _, section := range []string{
		"## Basic Information",
		"## Process Chain",
		"## Detailed Chain View",
		"## Attack Summary",
		"## Node Details",
		"## Edges",
	} {
		if !strings.Contains(first, section) {
			t.Fatalf("missing section %q", section)
		}
	}
	if strings.Index(first, "## Process Chain") > strings.Index(first, "## Detailed Chain View") {
		t.Fatalf("sections out of order")
	}
	if !strings.Contains(first, "- threat severity: HIGH") {
		t.Fatalf("expected severity roll-up in header:\n%s", first)
	}
}

func TestNodeDetailsUseNAForAbsentAttributes(t *testing.T) {
	g, _ := graph.Build([]*models.Node{procNode("a", "", "a.exe", 1)}, nil)
	details := New(DefaultStyle(), 0).NodeDetails(g)

	if !strings.Contains(details, "- user: N/A") {
		t.Fatalf("expected N/A user in detail view:\n%s", details)
	}
	if !strings.Contains(details, "- md5: N/A") {
		t.Fatalf("expected N/A md5 in detail view:\n%s", details)
	}
}
