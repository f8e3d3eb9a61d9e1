package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CheckoutMetrics struct {
	Attempts      *prometheus.CounterVec
	Duration      *prometheus.HistogramVec
	Compensations *prometheus.CounterVec
}

// NewCheckoutMetrics builds the collectors and registers them on reg.
// Tests pass a fresh prometheus.NewRegistry().
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tecnoshop",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tecnoshop",
		Subsystem: "checkout",
		Name:      "duration_seconds",
		Help:      "Checkout latency in seconds.",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"payment_method"})
	compensations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tecnoshop",
		Subsystem: "checkout",
		Name:      "compensations_total",
		Help:      "Compensation steps executed, by step and result.",
	}, []string{"step", "result"})

	reg.MustRegister(attempts, duration, compensations)
	return &CheckoutMetrics{Attempts: attempts, Duration: duration, Compensations: compensations}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
