package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records counters for the order creation path.
type OrderMetrics struct {
	created       *prometheus.CounterVec
	stockRejected *prometheus.CounterVec
	snapFailed    prometheus.Counter
	duration      prometheus.Histogram
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created, by egg grade.",
	}, []string{"grade"})
	stockRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_stock_total",
		Help: "Orders rejected for insufficient stock, by egg grade.",
	}, []string{"grade"})
	snapFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "snap_sessions_failed_total",
		Help: "Snap payment sessions that failed after order commit.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_create_duration_seconds",
		Help:    "Duration of order creation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(created, stockRejected, snapFailed, duration)
	return &OrderMetrics{
		created:       created,
		stockRejected: stockRejected,
		snapFailed:    snapFailed,
		duration:      duration,
	}
}

// IncCreated increments the created counter for the given grade.
func (m *OrderMetrics) IncCreated(grade string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(grade)).Inc()
}

// IncStockRejected increments the insufficient-stock counter for the given grade.
func (m *OrderMetrics) IncStockRejected(grade string) {
	if m == nil || m.stockRejected == nil {
		return
	}
	m.stockRejected.WithLabelValues(normalizeLabel(grade)).Inc()
}

// IncSnapFailed increments the failed payment session counter.
func (m *OrderMetrics) IncSnapFailed() {
	if m == nil || m.snapFailed == nil {
		return
	}
	m.snapFailed.Inc()
}

// ObserveCreateDuration records the duration of one order creation.
func (m *OrderMetrics) ObserveCreateDuration(duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
