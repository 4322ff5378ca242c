// Package metrics exposes Prometheus counters and histograms for
// reconciliation runs and remote ledger calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the reconciler.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	unmatchedTotal   *prometheus.CounterVec
	entriesCreated   *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	remoteCalls      *prometheus.CounterVec
	remoteCallTiming *prometheus.HistogramVec
}

// New creates a private registry and registers all metrics in it.
// A private registry lets tests build as many instances as they like.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_runs_total",
				Help:      "Reconciliation runs by kind and outcome.",
			},
			[]string{"kind", "status"},
		),
		unmatchedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_unmatched_total",
				Help:      "Unmatched records found, by kind and side.",
			},
			[]string{"kind", "side"},
		),
		entriesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_entries_created_total",
				Help:      "Corrective entries pushed to the ledger.",
			},
			[]string{"kind"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reconcile_run_duration_seconds",
				Help:      "Duration of reconciliation runs.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		remoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_calls_total",
				Help:      "Calls to the remote ledger by operation and outcome.",
			},
			[]string{"operation", "status"},
		),
		remoteCallTiming: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_call_duration_seconds",
				Help:      "Latency of calls to the remote ledger.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordRun records a finished reconciliation run.
func (m *Metrics) RecordRun(kind, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(kind, status).Inc()
	m.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordUnmatched adds n unmatched records on one side of a comparison.
func (m *Metrics) RecordUnmatched(kind, side string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unmatchedTotal.WithLabelValues(kind, side).Add(float64(n))
}

// RecordEntriesCreated adds n corrective entries.
func (m *Metrics) RecordEntriesCreated(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.entriesCreated.WithLabelValues(kind).Add(float64(n))
}

// RecordRemoteCall records one call to the remote ledger.
func (m *Metrics) RecordRemoteCall(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.remoteCalls.WithLabelValues(operation, status).Inc()
	m.remoteCallTiming.WithLabelValues(operation).Observe(d.Seconds())
}
