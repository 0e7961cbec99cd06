// Package metrics exposes the pool engine's operational counters to
// Prometheus: one package-level singleton registered once, a thin method
// per gauge/counter, all safe to call on a nil receiver.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics implements pool.MetricsRecorder.
type PoolMetrics struct {
	operations      *prometheus.CounterVec
	queueDepth      prometheus.Gauge
	accumulatedFees prometheus.Gauge
}

var (
	once     sync.Once
	registry *PoolMetrics
)

// Pool returns the process-wide PoolMetrics singleton, registering its
// collectors with the default Prometheus registry on first use.
func Pool() *PoolMetrics {
	once.Do(func() {
		registry = &PoolMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "iptpool_operations_total",
				Help: "Count of pool operations by name and outcome.",
			}, []string{"operation", "outcome"}),
			queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "iptpool_queue_depth",
				Help: "Current length of the pending withdrawal queue.",
			}),
			accumulatedFees: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "iptpool_accumulated_fees",
				Help: "Current total_accumulated_fees balance in raw reserve units.",
			}),
		}
		prometheus.MustRegister(registry.operations, registry.queueDepth, registry.accumulatedFees)
	})
	return registry
}

// ObserveOperation records one invocation of the named operation.
func (m *PoolMetrics) ObserveOperation(name string, ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.operations.WithLabelValues(name, outcome).Inc()
}

// SetQueueDepth records the queue's current length.
func (m *PoolMetrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// SetAccumulatedFees records the pool's current fee balance.
func (m *PoolMetrics) SetAccumulatedFees(amount uint64) {
	if m == nil {
		return
	}
	m.accumulatedFees.Set(float64(amount))
}
