// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 订单与库存热路径上的业务指标。注册放在包初始化里，
// 各 service 直接引用计数器即可。
var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "minimart",
		Subsystem: "order",
		Name:      "created_total",
		Help:      "Total number of successfully created orders.",
	})

	OrderCreateFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minimart",
		Subsystem: "order",
		Name:      "create_failures_total",
		Help:      "Order creations rejected, by reason.",
	}, []string{"reason"})

	OrdersCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "minimart",
		Subsystem: "order",
		Name:      "cancelled_total",
		Help:      "Total number of orders transitioned into cancelled.",
	})

	StockConflictRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "minimart",
		Subsystem: "inventory",
		Name:      "stock_conflict_retries_total",
		Help:      "Deduction attempts re-run after losing a stock race.",
	})

	RestoreSkippedItems = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "minimart",
		Subsystem: "inventory",
		Name:      "restore_skipped_items_total",
		Help:      "Order lines whose inventory record vanished before restoration.",
	})
)

func init() {
	prometheus.MustRegister(
		OrdersCreated,
		OrderCreateFailures,
		OrdersCancelled,
		StockConflictRetries,
		RestoreSkippedItems,
	)
}
