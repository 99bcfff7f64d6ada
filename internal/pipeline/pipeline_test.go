package pipeline

import (
	"errors"
	"strings"
	"testing"

	"chaingraph/internal/graph"
	"chaingraph/internal/metrics"
	"chaingraph/pkg/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func intrusionRecords() []map[string]interface{} {
	return []map[string]interface{}{
		{
			"logType":     "alert",
			"srcAddress":  "203.0.113.9",
			"srcPort":     51544,
			"destAddress": "10.0.0.5",
			"destPort":    8080,
			"name":        "Webshell upload detected",
		},
		{"logType": "process", "processGuid": "guid-p1", "processName": "services.exe", "processId": 612},
		{"logType": "process", "processGuid": "guid-p2", "parentProcessGuid": "guid-p1", "processName": "w3wp.exe", "processId": 2204},
		{"logType": "process", "processGuid": "guid-root", "parentProcessGuid": "guid-p2", "processName": "cmd.exe", "processId": 3388},
		{"logType": "file", "fileName": "shell.aspx", "creatorProcessGuid": "guid-root", "virusName": "Webshell.ASP.Gen"},
	}
}

func TestRunRecordsEndToEnd(t *testing.T) {
	m := metrics.New()
	pipe := New(Config{Metrics: m})

	res, err := pipe.RunRecords("guid-root", intrusionRecords(), []string{"10.0.0.5"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Graph.Len() != 5 {
		t.Fatalf("expected 5 nodes, got %d", res.Graph.Len())
	}
	if len(res.Roots) != 1 || res.Roots[0].NodeID != "guid-root" {
		t.Fatalf("expected traced root, got %+v", res.Roots)
	}
	if len(res.Chains) != 1 {
		t.Fatalf("expected one chain, got %d", len(res.Chains))
	}
	if res.Chains[0].Network == nil || res.Chains[0].Network.NodeID != "network-1" {
		t.Fatalf("expected the alert fronting the chain, got %+v", res.Chains[0].Network)
	}
	// The chain is walked from the topmost ancestor, not the root node.
	if first := res.Chains[0].Steps[0].Node.NodeID; first != "guid-p1" {
		t.Fatalf("expected walk from guid-p1, got %s", first)
	}

	if !strings.Contains(res.Report, "# Attack Chain Report") {
		t.Fatalf("expected report markdown, got:\n%s", res.Report)
	}
	if !strings.Contains(res.Report, "NETWORK INTRUSION") {
		t.Fatalf("expected bridge banner in report")
	}

	if got := testutil.ToFloat64(m.RunsTotal); got != 1 {
		t.Fatalf("expected runs counter incremented, got %v", got)
	}
	if got := testutil.ToFloat64(m.RecordsTotal); got != 5 {
		t.Fatalf("expected 5 records counted, got %v", got)
	}
}

func TestRunRecordsIsDeterministic(t *testing.T) {
	pipe := New(Config{})
	first, err := pipe.RunRecords("guid-root", intrusionRecords(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := pipe.RunRecords("guid-root", intrusionRecords(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Report != second.Report {
		t.Fatalf("expected byte-identical reports across runs")
	}
}

func TestRunIncidentWithoutRootSignalFails(t *testing.T) {
	inc := &models.Incident{
		Nodes: []*models.Node{
			{NodeID: "a", Kind: models.KindProcess, ThreatSeverity: models.SeverityHigh,
				Chain: &models.ChainNode{Process: &models.ProcessPayload{ProcessGuid: "a", ParentProcessGuid: "b"}}},
			{NodeID: "b", Kind: models.KindProcess, ThreatSeverity: models.SeverityHigh,
				Chain: &models.ChainNode{Process: &models.ProcessPayload{ProcessGuid: "b", ParentProcessGuid: "a"}}},
		},
	}
	pipe := New(Config{})
	_, err := pipe.RunIncident(inc)
	if !errors.Is(err, graph.ErrNoRoot) {
		t.Fatalf("expected ErrNoRoot, got %v", err)
	}
}

func TestRunRecordsCountsNormalizationSkips(t *testing.T) {
	records := append(intrusionRecords(), map[string]interface{}{"garbage": true})
	pipe := New(Config{})
	res, err := pipe.RunRecords("guid-root", records, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.NormalizeStats.Skipped != 1 {
		t.Fatalf("expected 1 skipped record, got %d", res.NormalizeStats.Skipped)
	}
	if res.Graph.Len() != 5 {
		t.Fatalf("expected skip to leave graph intact, got %d nodes", res.Graph.Len())
	}
}
