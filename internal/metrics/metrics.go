package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_ironpay_requests_total",
		Help: "Requests sent to the IronPay API by operation and outcome",
	}, []string{"operation", "outcome"})

	remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storesync_ironpay_request_duration_seconds",
		Help:    "Latency of IronPay API requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	productSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_product_sync_total",
		Help: "Product reconciliations by action and result",
	}, []string{"action", "result"})

	syncFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_product_sync_fallback_total",
		Help: "Updates that fell back to creating a new gateway product",
	}, []string{"reason"})

	checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_checkout_total",
		Help: "Checkout attempts by payment method and outcome",
	}, []string{"payment_method", "outcome"})

	workerMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_worker_messages_processed_total",
		Help: "Sync messages consumed by the worker",
	}, []string{"type", "status"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storesync_http_requests_total",
		Help: "HTTP requests by method, route and status class",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storesync_http_request_duration_seconds",
		Help:    "Latency of HTTP requests",
		Buckets: []float64{
			0.005,
			0.01, // 10ms
			0.05,
			0.1, // 100 ms
			0.5,
			1.0, // 1s
			2.0,
			5.0,
			10.0,
			30.0,
		},
	}, []string{"method", "route"})
)

func ObserveRemoteCall(operation, outcome string, elapsed time.Duration) {
	remoteRequests.WithLabelValues(operation, outcome).Inc()
	remoteRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func ObserveSync(action string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	productSyncs.WithLabelValues(action, result).Inc()
}

func ObserveFallback(reason string) {
	syncFallbacks.WithLabelValues(reason).Inc()
}

func ObserveCheckout(paymentMethod, outcome string) {
	checkouts.WithLabelValues(paymentMethod, outcome).Inc()
}

func ObserveWorkerMessage(eventType, status string) {
	workerMessages.WithLabelValues(eventType, status).Inc()
}

func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	}
	return "5xx"
}
