package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Boundary call outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeTimeout     = "timeout"
	OutcomeUnavailable = "unavailable"
)

type Metrics struct {
	BoundaryCalls   *prometheus.CounterVec
	BoundaryLatency *prometheus.HistogramVec
	OrdersPlaced    prometheus.Counter
	OrdersFailed    *prometheus.CounterVec
	Compensations   *prometheus.CounterVec
	Requests        *prometheus.CounterVec
	LatencyMS       *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry
// so that repeated construction does not panic on duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		BoundaryCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "boundary_calls_total",
			Help:      "Calls to external collaborators by outcome.",
		}, []string{"boundary", "op", "outcome"}),
		BoundaryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "boundary_call_duration_ms",
			Help:      "Latency of calls to external collaborators in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"boundary", "op"}),
		OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "orders_placed_total",
			Help:      "Orders persisted.",
		}),
		OrdersFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "orders_failed_total",
			Help:      "Order placements that failed, by reason.",
		}, []string{"reason"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "compensations_total",
			Help:      "Inventory restocks issued to unwind failed placements.",
		}, []string{"outcome"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookstore",
			Subsystem: "orders",
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.BoundaryCalls, m.BoundaryLatency,
		m.OrdersPlaced, m.OrdersFailed, m.Compensations,
		m.Requests, m.LatencyMS,
	)
	return m
}

// NewNop returns metrics bound to a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
