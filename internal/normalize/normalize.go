package normalize

import (
	"fmt"
	"strings"

	"chaingraph/internal/logger"
	"chaingraph/pkg/models"
)

// MalformedRecordError reports a record whose discriminator is missing
// or unrecognized. Such records are skipped and counted, never abort
// the batch.
type MalformedRecordError struct {
	LogType string
}

func (e *MalformedRecordError) Error() string {
	if e.LogType == "" {
		return "record has no logType discriminator"
	}
	return fmt.Sprintf("unrecognized logType %q", e.LogType)
}

// Stats summarizes one normalization pass.
type Stats struct {
	Records int
	Nodes   int
	Edges   int
	Skipped int
}

// Normalizer maps loosely typed incident records into canonical nodes
// and explicit edges. Synthesized node ids are deterministic
// (kind plus ordinal), never random, so output stays reproducible.
type Normalizer struct {
	traceID  string
	ordinals map[models.NodeKind]int
}

// New creates a normalizer for one incident batch. The trace id is the
// primary root signal: a process whose guid equals it becomes the root.
func New(traceID string) *Normalizer {
	return &Normalizer{
		traceID:  traceID,
		ordinals: make(map[models.NodeKind]int),
	}
}

// Batch normalizes a slice of records in input order. Malformed records
// are skipped with a warning; the rest of the batch continues.
func (n *Normalizer) Batch(records []map[string]interface{}) ([]*models.Node, []*models.Edge, Stats) {
	stats := Stats{Records: len(records)}
	nodes := make([]*models.Node, 0, len(records))
	edges := make([]*models.Edge, 0, 4)

	for _, raw := range records {
		node, extra, err := n.Record(raw)
		if err != nil {
			stats.Skipped++
			logger.Warnf("Skipping record: %v", err)
			continue
		}
		nodes = append(nodes, node)
		edges = append(edges, extra...)
	}

	stats.Nodes = len(nodes)
	stats.Edges = len(edges)
	return nodes, edges, stats
}

// Record normalizes a single record into a node plus zero or more
// explicit edges (file-create and network-bridge relations).
func (n *Normalizer) Record(raw map[string]interface{}) (*models.Node, []*models.Edge, error) {
	logType := getString(raw, "logType", "log_type", "storyType")
	if logType == "" {
		return nil, nil, &MalformedRecordError{}
	}

	switch strings.ToLower(logType) {
	case "process":
		return n.processNode(raw)
	case "network", "alert":
		return n.networkNode(raw)
	case "file":
		return n.fileNode(raw)
	case "domain", "registry", "entity", "story":
		return n.otherNode(raw, logType)
	default:
		return nil, nil, &MalformedRecordError{LogType: logType}
	}
}

func (n *Normalizer) processNode(raw map[string]interface{}) (*models.Node, []*models.Edge, error) {
	proc := &models.ProcessPayload{
		ProcessGuid:       getString(raw, "processGuid"),
		ParentProcessGuid: getString(raw, "parentProcessGuid"),
		ProcessName:       getString(raw, "processName"),
		ProcessID:         getInt(raw, "processId"),
		ParentProcessID:   getInt(raw, "parentProcessId"),
		ParentProcessName: getString(raw, "parentProcessName"),
		CommandLine:       getString(raw, "commandLine"),
		Image:             getString(raw, "image"),
		ProcessMd5:        getString(raw, "processMd5", "md5"),
		ProcessUserName:   getString(raw, "processUserName"),
		ProcessStartTime:  getString(raw, "processStartTime", "startTime"),
	}
	if proc.ProcessGuid == "" {
		proc.ProcessGuid = n.nextID(models.KindProcess)
	}

	node := &models.Node{
		NodeID:         proc.ProcessGuid,
		Kind:           models.KindProcess,
		ThreatSeverity: models.ParseSeverity(getString(raw, "threatLevel", "threatSeverity")),
		IsChainNode:    true,
		Chain:          &models.ChainNode{Process: proc},
	}

	// Primary root signal: the process whose guid equals the batch
	// trace identifier is the alarm root.
	if n.traceID != "" && proc.ProcessGuid == n.traceID {
		node.Chain.IsRoot = true
		node.Chain.IsAlarm = true
		node.ThreatSeverity = models.SeverityHigh
	}

	return node, nil, nil
}

func (n *Normalizer) networkNode(raw map[string]interface{}) (*models.Node, []*models.Edge, error) {
	payload := &models.NetworkPayload{
		SrcAddress:  getString(raw, "srcAddress"),
		SrcPort:     getInt(raw, "srcPort"),
		DestAddress: getString(raw, "destAddress"),
		DestPort:    getInt(raw, "destPort"),
		Protocol:    strings.ToUpper(getString(raw, "appProtocol", "protocol")),
		Method:      getString(raw, "method"),
		URL:         getString(raw, "url"),
		RuleName:    getString(raw, "ruleName", "name"),
		AttackType:  attackType(raw),
	}

	node := &models.Node{
		NodeID:         n.nextID(models.KindNetwork),
		Kind:           models.KindNetwork,
		ThreatSeverity: severityOrDefault(raw, models.SeverityHigh),
		Network:        payload,
	}

	// A network alert correlated to a known trace bridges into the
	// endpoint chain at the traced process.
	var edges []*models.Edge
	target := getString(raw, "targetProcessGuid")
	if target == "" {
		target = n.traceID
	}
	if target != "" {
		edges = append(edges, &models.Edge{
			Source: node.NodeID,
			Target: target,
			Label:  "bridges-to",
			Type:   models.EdgeBridge,
		})
	}

	return node, edges, nil
}

func (n *Normalizer) fileNode(raw map[string]interface{}) (*models.Node, []*models.Edge, error) {
	payload := &models.FilePayload{
		FileName:  getString(raw, "fileName"),
		FilePath:  getString(raw, "filePath"),
		FileMd5:   getString(raw, "fileMd5", "md5"),
		VirusName: getString(raw, "virusName"),
		Operation: getString(raw, "opType", "operation"),
	}

	node := &models.Node{
		NodeID:         n.nextID(models.KindFile),
		Kind:           models.KindFile,
		ThreatSeverity: severityOrDefault(raw, models.SeverityHigh),
		File:           payload,
	}

	var edges []*models.Edge
	if creator := getString(raw, "creatorProcessGuid", "processGuid"); creator != "" {
		edges = append(edges, &models.Edge{
			Source: creator,
			Target: node.NodeID,
			Label:  "creates",
			Type:   models.EdgeDrop,
		})
	}

	return node, edges, nil
}

func (n *Normalizer) otherNode(raw map[string]interface{}, logType string) (*models.Node, []*models.Edge, error) {
	extra := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "logType" {
			continue
		}
		if s := asString(v); s != "" {
			extra[k] = s
		}
	}

	node := &models.Node{
		NodeID:         n.nextID(models.KindOther),
		Kind:           models.KindOther,
		ThreatSeverity: severityOrDefault(raw, models.SeverityUnknown),
		Extra:          extra,
	}
	if len(node.Extra) == 0 {
		node.Extra = map[string]string{"storyType": logType}
	} else {
		node.Extra["storyType"] = logType
	}

	return node, nil, nil
}

func (n *Normalizer) nextID(kind models.NodeKind) string {
	n.ordinals[kind]++
	return fmt.Sprintf("%s-%d", strings.ToLower(string(kind)), n.ordinals[kind])
}

func severityOrDefault(raw map[string]interface{}, def models.Severity) models.Severity {
	if v := getString(raw, "threatLevel", "threatSeverity"); v != "" {
		if sev := models.ParseSeverity(v); sev != models.SeverityUnknown {
			return sev
		}
	}
	return def
}

// attackType derives a short classification from the alert rule name.
func attackType(raw map[string]interface{}) string {
	if v := getString(raw, "attackType"); v != "" {
		return v
	}
	name := strings.ToLower(getString(raw, "name", "ruleName"))
	switch {
	case strings.Contains(name, "command"):
		return "command_execution"
	case strings.Contains(name, "mining"), strings.Contains(name, "pool"):
		return "mining_pool"
	case strings.Contains(name, "webshell"):
		return "webshell_upload"
	default:
		return "network_attack"
	}
}

func getString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s := asString(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func getInt(raw map[string]interface{}, keys ...string) int {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			var parsed int
			if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%f", val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}
