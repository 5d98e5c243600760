package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3200},
		},
		[]string{"method", "path"},
	)

	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart store mutations by operation and result",
		},
		[]string{"op", "result"},
	)

	CartLoadFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cart_load_failures_total",
			Help: "Persisted carts that could not be read and were treated as empty",
		},
	)

	CheckoutTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkout_transitions_total",
			Help: "Checkout state machine transitions",
		},
		[]string{"from", "to"},
	)

	SettlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_settlement_duration_ms",
			Help:    "Payment dispatch plus settlement round-trip in ms",
			Buckets: []float64{50, 100, 250, 500, 1000, 1500, 2500, 5000, 10000},
		},
		[]string{"method", "outcome"},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	OrdersAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_orders_total",
			Help: "Orders handled by the order endpoint by payment method and result",
		},
		[]string{"method", "result"},
	)
)
