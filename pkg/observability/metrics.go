package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/formwork/pkg/domain"
)

// Metrics holds the Prometheus collectors of the engine.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EvaluationsTotal      *prometheus.CounterVec
	ValidationsTotal      *prometheus.CounterVec
	MutationsTotal        *prometheus.CounterVec
	StoreOperationsTotal  *prometheus.CounterVec
	StoreOperationSeconds *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to expose them on the default /metrics handler.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formwork_evaluations_total",
				Help: "Total number of conditional logic evaluations",
			},
			[]string{"outcome"},
		),
		ValidationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formwork_validations_total",
				Help: "Total number of response validations",
			},
			[]string{"outcome"},
		),
		MutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formwork_mutations_total",
				Help: "Total number of template mutations",
			},
			[]string{"operation", "outcome"},
		),
		StoreOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formwork_store_operations_total",
				Help: "Total number of template store operations",
			},
			[]string{"operation", "outcome"},
		),
		StoreOperationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formwork_store_operation_duration_seconds",
				Help:    "Duration of template store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Outcome labels an error by its boundary code, or "ok".
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.CodeOf(err))
}

// ObserveEvaluation counts an evaluation.
func (m *Metrics) ObserveEvaluation(err error) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(Outcome(err)).Inc()
}

// ObserveValidation counts a validation by result.
func (m *Metrics) ObserveValidation(valid bool) {
	if m == nil {
		return
	}
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.ValidationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMutation counts a template mutation.
func (m *Metrics) ObserveMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveStore records a store call.
func (m *Metrics) ObserveStore(operation string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreOperationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	m.StoreOperationSeconds.WithLabelValues(operation).Observe(took.Seconds())
}
