// Package observability holds the service's prometheus metrics and the
// OpenTelemetry tracer provider setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts distribution runs by profile and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yggdrasil_distribution_runs_total",
		Help: "Distribution runs by profile and outcome",
	}, []string{"profile", "outcome"})

	// RunDuration tracks end-to-end run latency.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yggdrasil_distribution_run_duration_seconds",
		Help:    "Distribution run duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
	}, []string{"profile"})

	// StageDuration tracks per-stage latency.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yggdrasil_distribution_stage_duration_seconds",
		Help:    "Distribution stage duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
	}, []string{"profile", "stage"})

	// CopiedTriples counts triples copied into target graphs by delta copy.
	CopiedTriples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yggdrasil_distribution_copied_triples_total",
		Help: "Triples copied from scratch into target graphs",
	}, []string{"profile"})

	// PurgedResources counts resources and lineage edges removed from
	// target graphs during reconciliation.
	PurgedResources = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yggdrasil_distribution_purged_total",
		Help: "Resources or lineage edges removed during reconciliation",
	}, []string{"profile", "kind"})

	// DeltaSubjects counts subjects accumulated from change notifications.
	DeltaSubjects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yggdrasil_delta_subjects_total",
		Help: "Subjects accumulated from change notifications",
	})

	// CoalescerPasses counts processing passes by outcome.
	CoalescerPasses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yggdrasil_delta_passes_total",
		Help: "Change processing passes by outcome",
	}, []string{"outcome"})

	// ResolvedAgendas tracks how many agendas one pass resolves to.
	ResolvedAgendas = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "yggdrasil_resolved_agendas",
		Help:    "Agendas affected per processing pass",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBusy    = "busy"
)
