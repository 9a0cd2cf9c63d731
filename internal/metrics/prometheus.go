// Package metrics exposes Prometheus counters for outbound Pricemind traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	outboundRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricemind_outbound_requests_total",
			Help: "Total number of outbound Pricemind requests.",
		},
		[]string{"method", "status"},
	)
	outboundRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricemind_outbound_request_duration_seconds",
			Help:    "Histogram of outbound Pricemind request durations.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "status"},
	)
	priceDispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricemind_price_dispatch_total",
			Help: "Price change dispatches by kind and result.",
		},
		[]string{"kind", "result"},
	)
	failedRequestsPersisted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricemind_failed_requests_persisted_total",
			Help: "Failed outbound requests written to the failure store.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(outboundRequestsTotal)
	prometheus.MustRegister(outboundRequestDuration)
	prometheus.MustRegister(priceDispatchTotal)
	prometheus.MustRegister(failedRequestsPersisted)
}

// RecordOutbound records one outbound call. A nil status means no response
// was received.
func RecordOutbound(method string, status *int, duration time.Duration) {
	class := "error"
	if status != nil {
		class = ClassifyStatus(*status)
	}
	outboundRequestsTotal.WithLabelValues(method, class).Inc()
	outboundRequestDuration.WithLabelValues(method, class).Observe(duration.Seconds())
}

// RecordDispatch counts a price, special_from or special_to dispatch.
func RecordDispatch(kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	priceDispatchTotal.WithLabelValues(kind, result).Inc()
}

// RecordFailurePersisted counts failure store writes.
func RecordFailurePersisted(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	failedRequestsPersisted.WithLabelValues(result).Inc()
}

// ClassifyStatus maps an HTTP status code to its class label.
func ClassifyStatus(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "2xx"
	case statusCode >= 300 && statusCode < 400:
		return "3xx"
	case statusCode >= 400 && statusCode < 500:
		return "4xx"
	case statusCode >= 500 && statusCode < 600:
		return "5xx"
	}
	return "unknown"
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
