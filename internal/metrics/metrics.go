package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
	Checkout  *prometheus.CounterVec
}

// NewServerMetrics builds the collectors and registers them on reg.
func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	checkout := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: service,
		Name:      "checkout_total",
		Help:      "Checkout steps by outcome.",
	}, []string{"step", "outcome"})

	reg.MustRegister(requests, latency, checkout)
	return &ServerMetrics{Requests: requests, LatencyMS: latency, Checkout: checkout}
}

// CheckoutStep counts one checkout step. Safe on a nil receiver.
func (m *ServerMetrics) CheckoutStep(step, outcome string) {
	if m == nil {
		return
	}
	m.Checkout.WithLabelValues(step, outcome).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
