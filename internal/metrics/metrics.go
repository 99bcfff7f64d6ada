// Package metrics exposes run counters for the reconstruction
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics owns a private registry so independent pipelines never
// collide on collector registration.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal        prometheus.Counter
	RecordsTotal     prometheus.Counter
	MalformedRecords prometheus.Counter
	DuplicateNodes   prometheus.Counter
	DanglingParents  prometheus.Counter
	CycleHits        prometheus.Counter
	DepthTruncations prometheus.Counter
	AlarmsFlagged    prometheus.Counter
}

// New registers all pipeline counters on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RunsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "runs_total",
			Help:      "Completed reconstruction runs.",
		}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "records_total",
			Help:      "Raw records offered to the normalizer.",
		}),
		MalformedRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "malformed_records_total",
			Help:      "Records skipped for a missing or unknown log type.",
		}),
		DuplicateNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "duplicate_nodes_total",
			Help:      "Node ids indexed more than once.",
		}),
		DanglingParents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "dangling_parents_total",
			Help:      "Parent references pointing outside the graph.",
		}),
		CycleHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "cycle_hits_total",
			Help:      "Chain walk branches terminated on a revisited node.",
		}),
		DepthTruncations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "depth_truncations_total",
			Help:      "Chain walks cut at the depth cap.",
		}),
		AlarmsFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chaingraph",
			Name:      "alarms_flagged_total",
			Help:      "Nodes flagged by detection rules.",
		}),
	}
	reg.MustRegister(
		m.RunsTotal,
		m.RecordsTotal,
		m.MalformedRecords,
		m.DuplicateNodes,
		m.DanglingParents,
		m.CycleHits,
		m.DepthTruncations,
		m.AlarmsFlagged,
	)
	return m
}

// Registry returns the backing registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
