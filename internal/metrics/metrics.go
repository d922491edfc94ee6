package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// OrderMetrics tracks order outcomes of the storefront service
type OrderMetrics struct {
	Orders      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	RPCRequests *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_total",
		Help:      "Processed orders by outcome and abort reason.",
	}, []string{"outcome", "reason"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "order_duration_seconds",
		Help:      "Time spent processing an order.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"outcome"})
	rpc := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "Handled gRPC requests by method and status code.",
	}, []string{"method", "code"})

	reg.MustRegister(orders, duration, rpc)
	return &OrderMetrics{Orders: orders, Duration: duration, RPCRequests: rpc}
}

// ObserveOrder records one finished processOrder call
func (m *OrderMetrics) ObserveOrder(outcome, reason string, elapsed time.Duration) {
	m.Orders.WithLabelValues(outcome, reason).Inc()
	m.Duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func (m *OrderMetrics) ObserveRPC(method, code string) {
	m.RPCRequests.WithLabelValues(method, code).Inc()
}

// HTTPMetrics tracks requests served by the gateway
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gateway",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gateway",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	reg.MustRegister(requests, latency)
	return &HTTPMetrics{Requests: requests, Latency: latency}
}

func (m *HTTPMetrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.Latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the metrics of the given gatherer
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
