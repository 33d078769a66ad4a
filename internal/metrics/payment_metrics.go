package metrics

import (
	"github.com/nghia193193/recruitment-payment-service/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PaymentMetrics records payment pipeline activity
type PaymentMetrics interface {
	IncOrderCreated(pkg string)
	IncCallbackResult(code string)
	IncOrderStatus(status string)
	ObserveRefundAmount(amount float64)
}

type paymentMetrics struct {
	log             *logger.Logger
	ordersCreated   *prometheus.CounterVec
	callbackResults *prometheus.CounterVec
	orderStatus     *prometheus.CounterVec
	refundAmounts   prometheus.Histogram
}

// NewPaymentMetrics registers the payment metrics on the given registry
func NewPaymentMetrics(registry *prometheus.Registry, log *logger.Logger) PaymentMetrics {
	ordersCreated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_orders_created_total",
			Help: "The total number of created premium orders",
		},
		[]string{"package"},
	)

	callbackResults := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_callbacks_total",
			Help: "The total number of gateway callbacks by IPN result code",
		},
		[]string{"code"},
	)

	orderStatus := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "premium_orders_status_total",
			Help: "The total number of order status transitions",
		},
		[]string{"status"},
	)

	refundAmounts := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "premium_refund_amount_vnd",
			Help:    "Prorated refund amounts in VND",
			Buckets: prometheus.ExponentialBuckets(10000, 4, 6),
		},
	)

	return &paymentMetrics{
		log:             log,
		ordersCreated:   ordersCreated,
		callbackResults: callbackResults,
		orderStatus:     orderStatus,
		refundAmounts:   refundAmounts,
	}
}

// IncOrderCreated increments the created orders counter
func (m *paymentMetrics) IncOrderCreated(pkg string) {
	m.ordersCreated.WithLabelValues(pkg).Inc()
}

// IncCallbackResult increments the callback counter for an IPN code
func (m *paymentMetrics) IncCallbackResult(code string) {
	m.callbackResults.WithLabelValues(code).Inc()
}

// IncOrderStatus increments the status transition counter
func (m *paymentMetrics) IncOrderStatus(status string) {
	m.orderStatus.WithLabelValues(status).Inc()
}

// ObserveRefundAmount records a refund amount
func (m *paymentMetrics) ObserveRefundAmount(amount float64) {
	m.refundAmounts.Observe(amount)
}
