package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the client-side collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	proofOutcomes   *prometheus.CounterVec
	liveAssets      prometheus.Gauge
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_client_requests_total",
				Help: "Total number of storefront API requests",
			},
			[]string{"operation", "outcome"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_client_request_duration_seconds",
				Help:    "Duration of storefront API requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		proofOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_client_payment_proof_total",
				Help: "Payment proof round trips by outcome",
			},
			[]string{"outcome"},
		),
		liveAssets: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_client_asset_handles",
				Help: "Authorized asset handles currently held",
			},
		),
	}
}

func (m *Metrics) ObserveRequest(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(operation, outcome).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) ProofOutcome(outcome string) {
	if m == nil {
		return
	}
	m.proofOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AssetAcquired() {
	if m == nil {
		return
	}
	m.liveAssets.Inc()
}

func (m *Metrics) AssetReleased() {
	if m == nil {
		return
	}
	m.liveAssets.Dec()
}
