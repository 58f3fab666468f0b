// Package metrics exposes Prometheus instrumentation for ledger operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts ledger operations by outcome and tracks their latency.
type Collector struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
}

// NewCollector creates a collector under the given namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_operations_total",
				Help:      "Total ledger operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_operation_duration_seconds",
				Help:      "Ledger operation latency by operation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// Register registers the collector's metrics with a registry.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if err := reg.Register(c.operations); err != nil {
		return err
	}
	return reg.Register(c.latency)
}

// ObserveOperation records one completed operation.
func (c *Collector) ObserveOperation(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.operations.WithLabelValues(operation, status).Inc()
	c.latency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
