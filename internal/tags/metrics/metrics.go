package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for tag linking.
type Metrics struct {
	Outcomes          *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pcms_tag_operations_total",
			Help: "Tag link, unlink and delete calls by outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pcms_tag_operation_duration_seconds",
			Help:    "Duration of tag operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementOutcome(op, outcome string) {
	m.Outcomes.WithLabelValues(op, outcome).Inc()
}

// ObserveOperation records how long op took.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
