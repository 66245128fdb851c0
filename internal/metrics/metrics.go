package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the pre-qualification flow. All observe
// methods are nil-safe so wiring metrics stays optional in tests.
type Metrics struct {
	// Bureau fetches by endpoint and normalized outcome
	BureauFetches *prometheus.CounterVec

	// Bureau fetch latency by endpoint
	BureauLatency *prometheus.HistogramVec

	// Assessment outcomes by eligibility status
	AssessmentOutcome *prometheus.CounterVec

	// Report exports started
	ExportsStarted prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		BureauFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aptocheck_bureau_fetches_total",
			Help: "Total BCRA fetches by endpoint and outcome",
		}, []string{"endpoint", "outcome"}), // endpoint: "deudas", "historicas"

		BureauLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aptocheck_bureau_fetch_duration_seconds",
			Help:    "Duration of BCRA fetches by endpoint",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),

		AssessmentOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "aptocheck_assessment_outcomes_total",
			Help: "Total eligibility verdicts by status",
		}, []string{"status"}),

		ExportsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "aptocheck_exports_started_total",
			Help: "Total report exports started",
		}),
	}
}

// ObserveBureauFetch records one bureau call.
func (m *Metrics) ObserveBureauFetch(endpoint, outcome string, d time.Duration) {
	if m != nil {
		m.BureauFetches.WithLabelValues(endpoint, outcome).Inc()
		m.BureauLatency.WithLabelValues(endpoint).Observe(d.Seconds())
	}
}

// IncrementOutcome records one eligibility verdict.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.AssessmentOutcome.WithLabelValues(status).Inc()
	}
}

// IncrementExports records one started export.
func (m *Metrics) IncrementExports() {
	if m != nil {
		m.ExportsStarted.Inc()
	}
}
