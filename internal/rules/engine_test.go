package rules

import (
	"strings"
	"testing"

	sigma "github.com/bradleyjkemp/sigma-go"

	"chaingraph/pkg/models"
)

func sigmaRuleFixture() sigma.Rule {
	return sigma.Rule{
		ID:    "rule-1",
		Title: "Suspicious Whoami",
		Level: "high",
		Tags:  []string{"attack.discovery", "attack.t1033"},
	}
}

type stubEngine struct {
	match string
	alarm models.AlarmInfo
}

func (s *stubEngine) Apply(node *models.Node) []models.AlarmInfo {
	p := node.Process()
	if p == nil || !strings.Contains(p.CommandLine, s.match) {
		return nil
	}
	return []models.AlarmInfo{s.alarm}
}

func TestAnnotateFlagsMatchedNodesAndPromotesSeverity(t *testing.T) {
	nodes := []*models.Node{
		{
			NodeID: "p1",
			Kind:   models.KindProcess,
			Chain: &models.ChainNode{
				Process: &models.ProcessPayload{CommandLine: "whoami /all"},
			},
		},
		{
			NodeID: "p2",
			Kind:   models.KindProcess,
			Chain: &models.ChainNode{
				Process: &models.ProcessPayload{CommandLine: "notepad.exe"},
			},
		},
	}

	engine := &stubEngine{
		match: "whoami",
		alarm: models.AlarmInfo{Name: "Recon via whoami", Severity: "high"},
	}
	flagged := Annotate(engine, nodes)
	if flagged != 1 {
		t.Fatalf("expected 1 flagged node, got %d", flagged)
	}
	if !nodes[0].IsAlarm() || nodes[0].Chain.Alarm == nil {
		t.Fatalf("expected alarm attached to p1: %+v", nodes[0].Chain)
	}
	if nodes[0].ThreatSeverity != models.SeverityHigh {
		t.Fatalf("expected severity promoted to HIGH, got %s", nodes[0].ThreatSeverity)
	}
	if nodes[1].IsAlarm() {
		t.Fatalf("p2 must stay unflagged")
	}
}

func TestAnnotateNeverDowngradesSeverity(t *testing.T) {
	node := &models.Node{
		NodeID:         "p1",
		Kind:           models.KindProcess,
		ThreatSeverity: models.SeverityCritical,
		Chain: &models.ChainNode{
			Process: &models.ProcessPayload{CommandLine: "whoami"},
		},
	}
	engine := &stubEngine{match: "whoami", alarm: models.AlarmInfo{Name: "x", Severity: "low"}}
	Annotate(engine, []*models.Node{node})
	if node.ThreatSeverity != models.SeverityCritical {
		t.Fatalf("expected CRITICAL preserved, got %s", node.ThreatSeverity)
	}
}

func TestAlarmFromRuleDerivesAttackMetadata(t *testing.T) {
	alarm := alarmFromRule(sigmaRuleFixture())
	if alarm.Name != "Suspicious Whoami" || alarm.RuleType != "sigma" {
		t.Fatalf("unexpected alarm: %+v", alarm)
	}
	if alarm.Tactic != "discovery" {
		t.Fatalf("expected tactic discovery, got %q", alarm.Tactic)
	}
	if alarm.Technique != "T1033" {
		t.Fatalf("expected technique T1033, got %q", alarm.Technique)
	}
	if alarm.Severity != "high" {
		t.Fatalf("expected level carried over, got %q", alarm.Severity)
	}
}
