package models

import "strconv"

// NodeKind discriminates the canonical node types.
type NodeKind string

const (
	KindProcess NodeKind = "PROCESS"
	KindNetwork NodeKind = "NETWORK"
	KindFile    NodeKind = "FILE"
	KindOther   NodeKind = "OTHER"
)

// ParseNodeKind maps a record discriminator to a canonical kind.
// Unrecognized non-empty values map to OTHER; the empty string is not
// a valid kind and is rejected by the normalizer before this point.
func ParseNodeKind(raw string) NodeKind {
	switch raw {
	case "process", "PROCESS":
		return KindProcess
	case "network", "alert", "NETWORK":
		return KindNetwork
	case "file", "FILE":
		return KindFile
	default:
		return KindOther
	}
}

// Node is the canonical unit of the incident graph. A node is owned by
// the graph it was indexed into and is discarded with it.
type Node struct {
	NodeID         string   `json:"nodeId"`
	Kind           NodeKind `json:"logType"`
	ThreatSeverity Severity `json:"nodeThreatSeverity"`

	// IsChainNode marks nodes carrying process-lineage metadata.
	IsChainNode bool       `json:"isChainNode"`
	Chain       *ChainNode `json:"chainNode,omitempty"`

	// Typed story payloads for non-process nodes. At most one is set,
	// selected by Kind.
	Network *NetworkPayload   `json:"networkPayload,omitempty"`
	File    *FilePayload      `json:"filePayload,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// ChainNode holds process-lineage metadata for chain nodes.
type ChainNode struct {
	IsRoot         bool            `json:"isRoot"`
	IsAlarm        bool            `json:"isAlarm"`
	IsBroken       bool            `json:"isBroken"`
	IsExtension    bool            `json:"isExtensionNode"`
	ExtensionDepth int             `json:"extensionDepth,omitempty"`
	Process        *ProcessPayload `json:"processEntity,omitempty"`
	Alarm          *AlarmInfo      `json:"alarmNodeInfo,omitempty"`
}

// ProcessPayload is the endpoint process entity.
type ProcessPayload struct {
	ProcessGuid       string `json:"processGuid"`
	ParentProcessGuid string `json:"parentProcessGuid,omitempty"`
	ProcessName       string `json:"processName"`
	ProcessID         int    `json:"processId"`
	ParentProcessID   int    `json:"parentProcessId,omitempty"`
	ParentProcessName string `json:"parentProcessName,omitempty"`
	CommandLine       string `json:"commandLine,omitempty"`
	Image             string `json:"image,omitempty"`
	ProcessMd5        string `json:"processMd5,omitempty"`
	ProcessUserName   string `json:"processUserName,omitempty"`
	ProcessStartTime  string `json:"processStartTime,omitempty"`
}

// SimpleUserName strips a DOMAIN\ prefix from the account name.
// Process records without a user default to SYSTEM.
func (p *ProcessPayload) SimpleUserName() string {
	if p == nil || p.ProcessUserName == "" {
		return "SYSTEM"
	}
	name := p.ProcessUserName
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '\\' {
			return name[i+1:]
		}
	}
	return name
}

// NetworkPayload is the network 5-tuple plus detection context.
type NetworkPayload struct {
	SrcAddress  string `json:"srcAddress"`
	SrcPort     int    `json:"srcPort"`
	DestAddress string `json:"destAddress"`
	DestPort    int    `json:"destPort"`
	Protocol    string `json:"protocol,omitempty"`
	AppProtocol string `json:"appProtocol,omitempty"`
	Method      string `json:"method,omitempty"`
	URL         string `json:"url,omitempty"`
	RuleName    string `json:"ruleName,omitempty"`
	AttackType  string `json:"attackType,omitempty"`
}

// FilePayload describes a file-drop event.
type FilePayload struct {
	FileName  string `json:"fileName"`
	FilePath  string `json:"filePath,omitempty"`
	FileMd5   string `json:"fileMd5,omitempty"`
	VirusName string `json:"virusName,omitempty"`
	Operation string `json:"operation,omitempty"`
}

// AlarmInfo describes the detection that flagged a node.
type AlarmInfo struct {
	Name      string `json:"name"`
	RuleName  string `json:"ruleName,omitempty"`
	RuleType  string `json:"ruleType,omitempty"`
	Message   string `json:"message,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Tactic    string `json:"tactic,omitempty"`
	Technique string `json:"technique,omitempty"`
}

// IsRoot reports whether the node carries the root flag.
func (n *Node) IsRoot() bool {
	return n != nil && n.Chain != nil && n.Chain.IsRoot
}

// IsAlarm reports whether the node carries the alarm flag.
func (n *Node) IsAlarm() bool {
	return n != nil && n.Chain != nil && n.Chain.IsAlarm
}

// Process returns the process entity, or nil for non-chain nodes.
func (n *Node) Process() *ProcessPayload {
	if n == nil || n.Chain == nil {
		return nil
	}
	return n.Chain.Process
}

// DisplayName resolves a short human label: name(pid) for process
// nodes, the raw node id otherwise.
func (n *Node) DisplayName() string {
	if n == nil {
		return "<missing>"
	}
	if p := n.Process(); p != nil && p.ProcessName != "" {
		return p.ProcessName + "(" + strconv.Itoa(p.ProcessID) + ")"
	}
	return n.NodeID
}
