// Package incident decodes wrapped incident snapshot documents.
package incident

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"chaingraph/pkg/models"
)

// ErrMissingData marks a snapshot document without a data envelope.
var ErrMissingData = fmt.Errorf("snapshot document has no data field")

// document is the wire envelope around one incident snapshot.
type document struct {
	Data *snapshot `json:"data"`
}

type snapshot struct {
	TraceIDs       []string   `json:"traceIds"`
	HostAddresses  []string   `json:"hostAddresses"`
	ThreatSeverity string     `json:"threatSeverity"`
	Nodes          []wireNode `json:"nodes"`
	Edges          []wireEdge `json:"edges"`
}

type wireNode struct {
	NodeID         string            `json:"nodeId"`
	LogType        string            `json:"logType"`
	ThreatSeverity string            `json:"nodeThreatSeverity"`
	IsChainNode    bool              `json:"isChainNode"`
	ChainNode      *models.ChainNode `json:"chainNode"`
	StoryNode      *wireStory        `json:"storyNode"`
}

// wireStory carries non-process payloads as a loose key/value bag.
type wireStory struct {
	StoryType string            `json:"storyType"`
	Other     map[string]string `json:"other"`
}

type wireEdge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Label    string `json:"val"`
	EdgeType string `json:"edgeType"`
}

// Parse decodes one wrapped snapshot document into an incident.
func Parse(raw []byte) (*models.Incident, error) {
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot document: %w", err)
	}
	if doc.Data == nil {
		return nil, ErrMissingData
	}

	snap := doc.Data
	inc := &models.Incident{
		TraceIDs:       snap.TraceIDs,
		HostAddresses:  snap.HostAddresses,
		ThreatSeverity: models.ParseSeverity(snap.ThreatSeverity),
	}
	for i := range snap.Nodes {
		inc.Nodes = append(inc.Nodes, convertNode(&snap.Nodes[i]))
	}
	for i := range snap.Edges {
		inc.Edges = append(inc.Edges, convertEdge(&snap.Edges[i]))
	}
	return inc, nil
}

// Load reads and parses a snapshot document from disk.
func Load(path string) (*models.Incident, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}
	inc, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return inc, nil
}

func convertNode(w *wireNode) *models.Node {
	node := &models.Node{
		NodeID:         w.NodeID,
		Kind:           models.ParseNodeKind(w.LogType),
		ThreatSeverity: models.ParseSeverity(w.ThreatSeverity),
		IsChainNode:    w.IsChainNode,
		Chain:          w.ChainNode,
	}
	if w.StoryNode == nil {
		return node
	}
	other := w.StoryNode.Other
	switch node.Kind {
	case models.KindNetwork:
		node.Network = &models.NetworkPayload{
			SrcAddress:  other["srcAddress"],
			SrcPort:     atoi(other["srcPort"]),
			DestAddress: other["destAddress"],
			DestPort:    atoi(other["destPort"]),
			Protocol:    other["protocol"],
			AppProtocol: other["appProtocol"],
			Method:      other["method"],
			URL:         other["url"],
			RuleName:    other["ruleName"],
			AttackType:  other["attackType"],
		}
	case models.KindFile:
		node.File = &models.FilePayload{
			FileName:  other["fileName"],
			FilePath:  other["filePath"],
			FileMd5:   other["fileMd5"],
			VirusName: other["virusName"],
			Operation: other["operation"],
		}
	default:
		if len(other) > 0 || w.StoryNode.StoryType != "" {
			node.Extra = make(map[string]string, len(other)+1)
			for k, v := range other {
				node.Extra[k] = v
			}
			if w.StoryNode.StoryType != "" {
				node.Extra["storyType"] = w.StoryNode.StoryType
			}
		}
	}
	return node
}

func convertEdge(w *wireEdge) *models.Edge {
	return &models.Edge{
		Source: w.Source,
		Target: w.Target,
		Label:  w.Label,
		Type:   classifyEdge(w.EdgeType, w.Label),
	}
}

// classifyEdge maps the wire relation onto a canonical edge type. The
// explicit edgeType field wins; older snapshots only carry a label.
func classifyEdge(edgeType, label string) models.EdgeType {
	switch edgeType {
	case string(models.EdgeBridge), string(models.EdgeSpawn),
		string(models.EdgeDrop), string(models.EdgeSegment):
		return models.EdgeType(edgeType)
	}
	switch label {
	case "bridges-to", "attacks":
		return models.EdgeBridge
	case "spawns", "creates-process":
		return models.EdgeSpawn
	case "creates", "drops", "writes":
		return models.EdgeDrop
	case "continues", "segment":
		return models.EdgeSegment
	}
	return models.EdgeGeneric
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
