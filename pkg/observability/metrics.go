package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MergeMetrics holds the Prometheus metrics of the merge engine.
// A nil *MergeMetrics is valid and records nothing.
type MergeMetrics struct {
	MergesTotal          *prometheus.CounterVec
	MergeDuration        prometheus.Histogram
	FieldConflictsTotal  *prometheus.CounterVec
	OneofConflictsTotal  *prometheus.CounterVec
	BreakingChangesTotal *prometheus.CounterVec
}

// NewMergeMetrics creates and registers the merge metrics on registry
func NewMergeMetrics(registry *prometheus.Registry) *MergeMetrics {
	m := &MergeMetrics{
		MergesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protomerge_merges_total",
				Help: "Total number of merge runs",
			},
			[]string{"status"},
		),
		MergeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protomerge_merge_duration_seconds",
				Help:    "Merge run duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5},
			},
		),
		FieldConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protomerge_field_conflicts_total",
				Help: "Total number of field conflicts detected, by conflict type",
			},
			[]string{"type"},
		),
		OneofConflictsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protomerge_oneof_conflicts_total",
				Help: "Total number of oneof conflicts detected, by conflict type",
			},
			[]string{"type"},
		),
		BreakingChangesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protomerge_breaking_changes_total",
				Help: "Total number of breaking changes reported by diff, by change type",
			},
			[]string{"change_type"},
		),
	}

	registry.MustRegister(
		m.MergesTotal,
		m.MergeDuration,
		m.FieldConflictsTotal,
		m.OneofConflictsTotal,
		m.BreakingChangesTotal,
	)

	return m
}

// ObserveMerge records the outcome and duration of one merge run
func (m *MergeMetrics) ObserveMerge(d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.MergesTotal.WithLabelValues(status).Inc()
	m.MergeDuration.Observe(d.Seconds())
}

// RecordFieldConflict counts one field conflict
func (m *MergeMetrics) RecordFieldConflict(conflictType string) {
	if m == nil {
		return
	}
	m.FieldConflictsTotal.WithLabelValues(conflictType).Inc()
}

// RecordOneofConflict counts one oneof conflict
func (m *MergeMetrics) RecordOneofConflict(conflictType string) {
	if m == nil {
		return
	}
	m.OneofConflictsTotal.WithLabelValues(conflictType).Inc()
}

// RecordBreakingChange counts one breaking change found by diff
func (m *MergeMetrics) RecordBreakingChange(changeType string) {
	if m == nil {
		return
	}
	m.BreakingChangesTotal.WithLabelValues(changeType).Inc()
}
