// Package toolmetrics wires the registry and coordinator's counters
// into Prometheus, on a private registry scraped over its own
// listener — never the global prometheus.DefaultRegisterer, so a
// binary embedding this package never collides with another
// component's metric names.
package toolmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rcourtman/toolmesh-go/internal/manager"
)

// Metrics owns the private registry and the collectors sourced from a
// Manager's registry and coordinator.
type Metrics struct {
	registry *prometheus.Registry

	toolsTotal        prometheus.Gauge
	executionsTotal   *prometheus.CounterVec
	queueSize         prometheus.Gauge
	runningCount      prometheus.Gauge
	executionDuration prometheus.Histogram

	mgr *manager.Manager

	lastCompleted int64
	lastFailed    int64
}

// New builds the collector set and registers them on a fresh, private
// registry. The returned Metrics has no Manager attached yet — call
// Attach once the manager exists, which in this codebase's wiring
// order is after the coordinator (and therefore after any
// ObservingExecutor wrapping it needs) has already been constructed.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toolmesh_tools_total",
			Help: "Number of tools currently in the registry catalog.",
		}),
		executionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toolmesh_executions_total",
			Help: "Total tool executions observed, partitioned by terminal status.",
		}, []string{"status"}),
		queueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toolmesh_queue_size",
			Help: "Current number of executions waiting in the coordinator's pending queue.",
		}),
		runningCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toolmesh_running_count",
			Help: "Current number of executions running under the coordinator's semaphore.",
		}),
		executionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "toolmesh_execution_duration_seconds",
			Help:    "Observed wall-clock duration of completed tool executions.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.toolsTotal,
		m.executionsTotal,
		m.queueSize,
		m.runningCount,
		m.executionDuration,
	)
	return m
}

// Attach points Metrics at the manager whose registry/coordinator it
// should read on each Collect. Must be called before the first
// Collect; Collect is a no-op until it is.
func (m *Metrics) Attach(mgr *manager.Manager) {
	m.mgr = mgr
}

// Collect refreshes the gauges from the manager's current registry and
// coordinator stats, and accounts any newly-terminal executions into
// the counters since the previous call. The duration histogram is fed
// by ObserveDuration, not by Collect.
func (m *Metrics) Collect() {
	if m.mgr == nil {
		return
	}
	regStats := m.mgr.Registry().Stats()
	m.toolsTotal.Set(float64(regStats.TotalTools))

	coordStats := m.mgr.Coordinator().Stats()
	m.queueSize.Set(float64(coordStats.CurrentQueueSize))
	m.runningCount.Set(float64(coordStats.CurrentRunningCount))

	if delta := coordStats.CompletedExecutions - m.lastCompleted; delta > 0 {
		m.executionsTotal.WithLabelValues("completed").Add(float64(delta))
		m.lastCompleted = coordStats.CompletedExecutions
	}
	if delta := coordStats.FailedExecutions - m.lastFailed; delta > 0 {
		m.executionsTotal.WithLabelValues("failed").Add(float64(delta))
		m.lastFailed = coordStats.FailedExecutions
	}
}

// ObserveDuration records one completed execution's duration. Callers
// (the coordinator's caller, or a wrapper Executor) feed this directly
// rather than waiting for the next Collect tick, since the histogram
// needs per-execution samples, not a periodic snapshot.
func (m *Metrics) ObserveDuration(seconds float64) {
	m.executionDuration.Observe(seconds)
}

// Handler returns the promhttp handler for this registry, meant to be
// served on a dedicated listener separate from the bridge's REST/WS
// traffic.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
