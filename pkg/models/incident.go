package models

// Incident is one incident snapshot: all nodes and edges correlated by
// the trace identifiers, plus host and severity roll-up metadata.
type Incident struct {
	TraceIDs       []string `json:"traceIds"`
	HostAddresses  []string `json:"hostAddresses"`
	ThreatSeverity Severity `json:"threatSeverity"`
	Nodes          []*Node  `json:"nodes"`
	Edges          []*Edge  `json:"edges"`
}

// RollupSeverity returns the declared incident severity, or the highest
// node severity when the snapshot does not carry one.
func (in *Incident) RollupSeverity() Severity {
	if in == nil {
		return SeverityUnknown
	}
	if in.ThreatSeverity != "" && in.ThreatSeverity != SeverityUnknown {
		return in.ThreatSeverity
	}
	max := SeverityUnknown
	for _, n := range in.Nodes {
		if n == nil {
			continue
		}
		max = MaxSeverity(max, n.ThreatSeverity)
	}
	return max
}
