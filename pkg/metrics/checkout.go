package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout attempt outcomes.
const (
	OutcomeSettled      = "settled"
	OutcomeDeclined     = "declined"
	OutcomeGatewayError = "gateway_error"
	OutcomeRejected     = "rejected"
	OutcomeRecordFailed = "record_failed"
)

// CheckoutMetrics records checkout attempts and payment authorization latency.
type CheckoutMetrics struct {
	attempts      *prometheus.CounterVec
	authorization *prometheus.HistogramVec
	inFlight      prometheus.Gauge
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	authorization := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "payment_authorization_duration_seconds",
		Help:      "Latency of payment authorization calls.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10, 30},
	}, []string{"outcome"})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "checkout_in_flight",
		Help:      "Checkout attempts currently awaiting authorization.",
	})
	reg.MustRegister(attempts, authorization, inFlight)
	return &CheckoutMetrics{attempts: attempts, authorization: authorization, inFlight: inFlight}
}

func (m *CheckoutMetrics) IncAttempt(outcome string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) ObserveAuthorization(outcome string, d time.Duration) {
	if m == nil || m.authorization == nil {
		return
	}
	m.authorization.WithLabelValues(normalizeLabel(outcome)).Observe(d.Seconds())
}

// TrackInFlight bumps the gauge and returns the matching decrement.
func (m *CheckoutMetrics) TrackInFlight() func() {
	if m == nil || m.inFlight == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}
