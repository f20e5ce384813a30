package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketplaceMetrics records checkout and order lifecycle activity.
type MarketplaceMetrics struct {
	ordersPlaced      prometheus.Counter
	statusTransitions *prometheus.CounterVec
	couponAttempts    *prometheus.CounterVec
	gateRejections    *prometheus.CounterVec
	placementDuration prometheus.Histogram
}

// NewMarketplaceMetrics registers the marketplace metrics on the provided registerer.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders finalized at checkout.",
	})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes by target status.",
	}, []string{"status"})
	couponAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_attempts_total",
		Help: "Coupon applications by result.",
	}, []string{"result"})
	gateRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_gate_rejections_total",
		Help: "Checkout transitions blocked by validation, by step.",
	}, []string{"step"})
	placementDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Time spent finalizing an order, including the simulated processing delay.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(ordersPlaced, statusTransitions, couponAttempts, gateRejections, placementDuration)
	return &MarketplaceMetrics{
		ordersPlaced:      ordersPlaced,
		statusTransitions: statusTransitions,
		couponAttempts:    couponAttempts,
		gateRejections:    gateRejections,
		placementDuration: placementDuration,
	}
}

// OrderPlaced counts a finalized order and its placement latency.
func (m *MarketplaceMetrics) OrderPlaced(duration time.Duration) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.placementDuration.Observe(duration.Seconds())
}

// StatusChanged counts an order moving to status.
func (m *MarketplaceMetrics) StatusChanged(status string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// CouponAttempt counts a coupon application with its outcome.
func (m *MarketplaceMetrics) CouponAttempt(result string) {
	if m == nil || m.couponAttempts == nil {
		return
	}
	m.couponAttempts.WithLabelValues(normalizeLabel(result)).Inc()
}

// GateRejected counts a checkout step that failed validation.
func (m *MarketplaceMetrics) GateRejected(step string) {
	if m == nil || m.gateRejections == nil {
		return
	}
	m.gateRejections.WithLabelValues(normalizeLabel(step)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
