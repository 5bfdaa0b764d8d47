// Package metrics exposes Prometheus collectors for session storage activity.
//
// A nil *Metrics is valid and records nothing, so components take one
// unconditionally and callers that disable metrics pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "coven_session"

// Metrics holds the collectors shared by the session manager, the store's
// migration hook and sequence generators.
type Metrics struct {
	opens             *prometheus.CounterVec
	openErrors        prometheus.Counter
	migrationSteps    *prometheus.CounterVec
	migrationDuration prometheus.Histogram
	vacuumDuration    prometheus.Histogram
	deletes           prometheus.Counter
	seqIssued         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		opens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "opens_total",
			Help:      "Session opens by outcome (created, migrated, current).",
		}, []string{"outcome"}),
		openErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "open_errors_total",
			Help:      "Session opens that failed.",
		}),
		migrationSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "migration_steps_total",
			Help:      "Migration steps attempted by step name and result.",
		}, []string{"step", "result"}),
		migrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "migration_step_duration_seconds",
			Help:      "Time spent applying a single migration step.",
			Buckets:   prometheus.DefBuckets,
		}),
		vacuumDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vacuum_duration_seconds",
			Help:      "Time spent compacting a session file on open.",
			Buckets:   prometheus.DefBuckets,
		}),
		deletes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletes_total",
			Help:      "Session files deleted.",
		}),
		seqIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seq_numbers_issued_total",
			Help:      "Sequence numbers handed out by kind (content, ack).",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.opens,
		m.openErrors,
		m.migrationSteps,
		m.migrationDuration,
		m.vacuumDuration,
		m.deletes,
		m.seqIssued,
	)
	return m
}

// SessionOpened counts a successful open with its outcome
func (m *Metrics) SessionOpened(outcome string) {
	if m == nil {
		return
	}
	m.opens.WithLabelValues(outcome).Inc()
}

// SessionOpenFailed counts a failed open
func (m *Metrics) SessionOpenFailed() {
	if m == nil {
		return
	}
	m.openErrors.Inc()
}

// MigrationStep records one attempted step; it matches store.MigrationHook.
func (m *Metrics) MigrationStep(from, to int, name string, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.migrationSteps.WithLabelValues(name, result).Inc()
	m.migrationDuration.Observe(took.Seconds())
}

// Vacuumed records how long a compaction pass took
func (m *Metrics) Vacuumed(took time.Duration) {
	if m == nil {
		return
	}
	m.vacuumDuration.Observe(took.Seconds())
}

// SessionDeleted counts a removed session file
func (m *Metrics) SessionDeleted() {
	if m == nil {
		return
	}
	m.deletes.Inc()
}

// SequenceIssued counts a sequence number; it matches seqno.Observer.
func (m *Metrics) SequenceIssued(_ uint64, contentRelated bool) {
	if m == nil {
		return
	}
	kind := "ack"
	if contentRelated {
		kind = "content"
	}
	m.seqIssued.WithLabelValues(kind).Inc()
}
