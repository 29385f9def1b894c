package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lifecycle engine.
// Tracks committed transitions, rejections by error code and quorum auto-advances.
type Metrics struct {
	TransitionsCommitted *prometheus.CounterVec
	TransitionsRejected  *prometheus.CounterVec
	TransitionDuration   *prometheus.HistogramVec
	QuorumAdvances       prometheus.Counter
	ObserverFailures     *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsCommitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "artpriv_lifecycle_transitions_total",
			Help: "Total number of committed lifecycle transitions",
		}, []string{"kind", "from", "to"}),
		TransitionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "artpriv_lifecycle_transitions_rejected_total",
			Help: "Total number of rejected transition requests by error code",
		}, []string{"kind", "code"}),
		TransitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "artpriv_lifecycle_transition_duration_seconds",
			Help:    "Duration of transition units of work, lock wait included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}, []string{"kind"}),
		QuorumAdvances: factory.NewCounter(prometheus.CounterOpts{
			Name: "artpriv_lifecycle_quorum_advances_total",
			Help: "Total number of donors advanced automatically on consent quorum",
		}),
		ObserverFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "artpriv_lifecycle_observer_failures_total",
			Help: "Total number of post-commit observer errors by event",
		}, []string{"event"}),
	}
}

// IncrementCommitted records a committed transition.
func (m *Metrics) IncrementCommitted(kind, from, to string) {
	m.TransitionsCommitted.WithLabelValues(kind, from, to).Inc()
}

// IncrementRejected records a rejected request.
func (m *Metrics) IncrementRejected(kind, code string) {
	m.TransitionsRejected.WithLabelValues(kind, code).Inc()
}

// ObserveTransition records the duration of a unit of work.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveTransition(kind string, start time.Time) {
	m.TransitionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

// IncrementQuorumAdvance records an automatic consent-quorum advance.
func (m *Metrics) IncrementQuorumAdvance() {
	m.QuorumAdvances.Inc()
}

// IncrementObserverFailure records an observer error for event.
func (m *Metrics) IncrementObserverFailure(event string) {
	m.ObserverFailures.WithLabelValues(event).Inc()
}
