package metrics

import "github.com/prometheus/client_golang/prometheus"

// InventoryMetrics tracks stock mutations and low-stock detection.
type InventoryMetrics struct {
	mutations  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	alerts     *prometheus.CounterVec
	lowStock   prometheus.Gauge
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "stock_mutations_total",
		Help:      "Stock entries recorded, by source.",
	}, []string{"source"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "stock_rejections_total",
		Help:      "Stock mutations rejected before touching the ledger, by reason.",
	}, []string{"reason"})
	alerts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "low_stock_alerts_total",
		Help:      "Low-stock alerts emitted, by trigger.",
	}, []string{"trigger"})
	lowStock := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "inventory",
		Name:      "low_stock_items",
		Help:      "Items at or below their low-stock threshold at the last scan.",
	})
	reg.MustRegister(mutations, rejections, alerts, lowStock)
	return &InventoryMetrics{
		mutations:  mutations,
		rejections: rejections,
		alerts:     alerts,
		lowStock:   lowStock,
	}
}

// IncMutation counts a committed stock entry.
func (m *InventoryMetrics) IncMutation(source string) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncRejection counts a stock mutation refused by validation.
func (m *InventoryMetrics) IncRejection(reason string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncAlert counts an emitted low-stock alert.
func (m *InventoryMetrics) IncAlert(trigger string) {
	if m == nil || m.alerts == nil {
		return
	}
	m.alerts.WithLabelValues(normalizeLabel(trigger)).Inc()
}

// SetLowStockItems records the size of the latest low-stock report.
func (m *InventoryMetrics) SetLowStockItems(count int) {
	if m == nil || m.lowStock == nil {
		return
	}
	m.lowStock.Set(float64(count))
}
