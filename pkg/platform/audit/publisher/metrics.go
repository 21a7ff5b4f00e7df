package publisher

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	audit "pcms/pkg/platform/audit"
)

// Metrics holds Prometheus metrics for audit emission.
type Metrics struct {
	EventsEmitted   *prometheus.CounterVec
	PersistFailures prometheus.Counter
	PersistDuration prometheus.Histogram
}

// NewMetrics registers audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pcms_audit_events_emitted_total",
			Help: "Total number of audit events persisted, by category",
		}, []string{"category"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "pcms_audit_persist_failures_total",
			Help: "Total number of audit event persistence failures",
		}),
		PersistDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pcms_audit_persist_duration_seconds",
			Help:    "Duration of synchronous audit writes",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}

func (m *Metrics) IncEventsEmitted(category audit.EventCategory) {
	m.EventsEmitted.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) IncPersistFailures() {
	m.PersistFailures.Inc()
}

// ObservePersistDuration records a write that began at start.
func (m *Metrics) ObservePersistDuration(start time.Time) {
	m.PersistDuration.Observe(time.Since(start).Seconds())
}
