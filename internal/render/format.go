package render

import (
	"fmt"
	"strings"

	"chaingraph/pkg/models"
)

const placeholder = "N/A"

func orNA(s string) string {
	if s == "" {
		return placeholder
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

// nodeTags returns the bracketed status tags of a chain node in a
// fixed order so output stays deterministic.
func nodeTags(n *models.Node) string {
	if n == nil || n.Chain == nil {
		return ""
	}
	var tags []string
	if n.Chain.IsRoot {
		tags = append(tags, "ROOT")
	}
	if n.Chain.IsAlarm {
		tags = append(tags, "ALARM")
	}
	if n.Chain.IsBroken {
		tags = append(tags, "BROKEN")
	}
	if n.Chain.IsExtension {
		tags = append(tags, "EXTEND")
	}
	if len(tags) == 0 {
		return ""
	}
	return "[" + strings.Join(tags, ",") + "] "
}

// treeLabel is the one-line form of a node used by the compact tree.
func treeLabel(n *models.Node) string {
	if n == nil {
		return "<missing>"
	}
	switch n.Kind {
	case models.KindProcess:
		p := n.Process()
		if p == nil {
			return nodeTags(n) + n.NodeID + severitySuffix(n)
		}
		line := nodeTags(n) + orNA(p.ProcessName)
		if p.ProcessID > 0 {
			line += fmt.Sprintf(" (PID:%d)", p.ProcessID)
		}
		line += " - " + p.SimpleUserName()
		return line + severitySuffix(n)
	case models.KindNetwork:
		net := n.Network
		if net == nil {
			return "[network] " + n.NodeID + severitySuffix(n)
		}
		attack := net.AttackType
		if attack == "" {
			attack = "network_attack"
		}
		line := fmt.Sprintf("[%s] %s -> %s", attack,
			hostPort(net.SrcAddress, net.SrcPort),
			hostPort(net.DestAddress, net.DestPort))
		if net.Protocol != "" {
			line += " (" + strings.ToUpper(net.Protocol) + ")"
		}
		return line + severitySuffix(n)
	case models.KindFile:
		f := n.File
		if f == nil {
			return "[file] " + n.NodeID + severitySuffix(n)
		}
		line := "[file] " + orNA(f.FileName)
		if f.VirusName != "" {
			line += " (" + f.VirusName + ")"
		}
		return line + severitySuffix(n)
	default:
		kind := strings.ToLower(string(n.Kind))
		if st, ok := n.Extra["storyType"]; ok && st != "" {
			kind = st
		}
		return "[" + kind + "] " + n.NodeID + severitySuffix(n)
	}
}

func severitySuffix(n *models.Node) string {
	sev := n.ThreatSeverity
	if sev == "" || sev == models.SeverityUnknown {
		return ""
	}
	return " [" + string(sev) + "]"
}

func hostPort(host string, port int) string {
	if host == "" {
		host = placeholder
	}
	if port <= 0 {
		return host
	}
	return fmt.Sprintf("%s:%d", host, port)
}
