package outbox

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks outbox relay throughput and failures.
type Metrics struct {
	Published prometheus.Counter
	Failures  prometheus.Counter
	Lag       prometheus.Histogram
}

// NewMetrics registers the relay metrics with reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "artpriv_outbox_published_total",
			Help: "Total number of outbox entries published to the broker",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "artpriv_outbox_failures_total",
			Help: "Total number of failed relay batches",
		}),
		Lag: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "artpriv_outbox_lag_seconds",
			Help:    "Age of the oldest entry of each published batch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}),
	}
}

func (m *Metrics) AddPublished(n int) {
	m.Published.Add(float64(n))
}

func (m *Metrics) IncrementFailures() {
	m.Failures.Inc()
}

func (m *Metrics) ObserveLag(d time.Duration) {
	m.Lag.Observe(d.Seconds())
}
