package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics records outcomes of gateway event processing.
type IngestMetrics struct {
	outcomes        *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	deferredFailed  *prometheus.CounterVec
	deferredDrained prometheus.Counter
}

// NewIngestMetrics registers the ingestion metrics on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_events_total",
		Help: "Processed gateway events by outcome and event type.",
	}, []string{"outcome", "event_type"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_process_duration_seconds",
		Help:    "Duration of the claim-and-apply transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"event_type"})
	deferredFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_deferred_action_failures_total",
		Help: "Deferred side-effect actions that failed after commit.",
	}, []string{"action"})
	deferredDrained := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_deferred_actions_total",
		Help: "Deferred side-effect actions executed after commit.",
	})
	reg.MustRegister(outcomes, duration, deferredFailed, deferredDrained)
	return &IngestMetrics{
		outcomes:        outcomes,
		duration:        duration,
		deferredFailed:  deferredFailed,
		deferredDrained: deferredDrained,
	}
}

// ObserveOutcome counts a processed event by outcome.
func (m *IngestMetrics) ObserveOutcome(outcome, eventType string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome), normalizeLabel(eventType)).Inc()
}

// ObserveDuration records how long the claim transaction took.
func (m *IngestMetrics) ObserveDuration(eventType string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(eventType)).Observe(duration.Seconds())
}

// IncDeferredFailure counts a failed deferred action by name.
func (m *IngestMetrics) IncDeferredFailure(action string) {
	if m == nil || m.deferredFailed == nil {
		return
	}
	m.deferredFailed.WithLabelValues(normalizeLabel(action)).Inc()
}

// IncDeferredDrained counts an executed deferred action.
func (m *IngestMetrics) IncDeferredDrained() {
	if m == nil || m.deferredDrained == nil {
		return
	}
	m.deferredDrained.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
