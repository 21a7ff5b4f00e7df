package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the case lifecycle module.
type Metrics struct {
	CasesCreated      prometheus.Counter
	CasesDeleted      prometheus.Counter
	MintCollisions    prometheus.Counter
	MintExhausted     prometheus.Counter
	OperationDuration *prometheus.HistogramVec
}

// New registers the case metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CasesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "pcms_cases_created_total",
			Help: "Total number of cases created",
		}),
		CasesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pcms_cases_deleted_total",
			Help: "Total number of cases deleted",
		}),
		MintCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "pcms_case_number_collisions_total",
			Help: "Minted case numbers rejected because they were already registered",
		}),
		MintExhausted: factory.NewCounter(prometheus.CounterOpts{
			Name: "pcms_case_number_exhausted_total",
			Help: "Case creations that ran out of mint attempts",
		}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pcms_case_operation_duration_seconds",
			Help:    "Duration of case lifecycle operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

func (m *Metrics) IncrementCaseCreated() {
	m.CasesCreated.Inc()
}

func (m *Metrics) IncrementCaseDeleted() {
	m.CasesDeleted.Inc()
}

func (m *Metrics) IncrementMintCollision() {
	m.MintCollisions.Inc()
}

func (m *Metrics) IncrementMintExhausted() {
	m.MintExhausted.Inc()
}

// ObserveOperation records how long op took.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time) {
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
