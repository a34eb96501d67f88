package observ

import (
	"github.com/GTRcubautos/https-github.com-gwxpgvsgsn-byte-VentaGlobal-sub001/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports storefront domain counters to Prometheus.
type Metrics struct {
	ordersPlaced   *prometheus.CounterVec
	checkoutFailed *prometheus.CounterVec
	pointsCredited *prometheus.CounterVec
}

var _ usecase.Metrics = (*Metrics)(nil)

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ordersPlaced: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "orders_placed_total",
			Help:      "Orders acknowledged by the order service, by payment method.",
		}, []string{"method"}),
		checkoutFailed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "checkout_failures_total",
			Help:      "Checkout attempts that failed, by step.",
		}, []string{"step"}),
		pointsCredited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "points_credited_total",
			Help:      "Loyalty points credited, by reason.",
		}, []string{"reason"}),
	}
}

func (m *Metrics) OrderPlaced(method string) {
	m.ordersPlaced.WithLabelValues(method).Inc()
}

func (m *Metrics) CheckoutFailed(step string) {
	m.checkoutFailed.WithLabelValues(step).Inc()
}

func (m *Metrics) PointsCredited(reason string, amount int64) {
	if amount <= 0 {
		return
	}
	m.pointsCredited.WithLabelValues(reason).Add(float64(amount))
}
