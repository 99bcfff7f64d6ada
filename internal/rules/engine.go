package rules

import "chaingraph/pkg/models"

// Engine tags nodes with the detections that match them.
type Engine interface {
	Apply(node *models.Node) []models.AlarmInfo
}

// NoopEngine matches nothing.
type NoopEngine struct{}

// Apply returns an empty alarm list.
func (n *NoopEngine) Apply(node *models.Node) []models.AlarmInfo {
	return nil
}

// Annotate runs the engine over every node and attaches the first
// matching alarm, raising the node's severity to at least the alarm's
// level. It returns the number of nodes flagged.
func Annotate(e Engine, nodes []*models.Node) int {
	if e == nil {
		return 0
	}
	flagged := 0
	for _, node := range nodes {
		alarms := e.Apply(node)
		if len(alarms) == 0 {
			continue
		}
		flagged++
		if node.Chain == nil {
			node.Chain = &models.ChainNode{}
		}
		node.Chain.IsAlarm = true
		if node.Chain.Alarm == nil {
			alarm := alarms[0]
			node.Chain.Alarm = &alarm
		}
		for _, a := range alarms {
			node.ThreatSeverity = models.MaxSeverity(
				node.ThreatSeverity, models.ParseSeverity(a.Severity))
		}
	}
	return flagged
}
