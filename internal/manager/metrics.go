package manager

import (
	"time"

	"github.com/rcourtman/toolmesh-go/internal/registry"
)

// MetricsSample is one entry in the manager's fixed-size metrics ring
// (spec.md §4.5: "a ring of the last 100 samples").
type MetricsSample struct {
	Timestamp     time.Time      `json:"timestamp"`
	RegistryStats registry.Stats `json:"registry_stats"`
	Health        HealthRecord   `json:"health"`
	ConfigDigest  string         `json:"config_digest"`
}

func (m *Manager) metricsLoop() {
	defer m.wg.Done()
	interval := time.Duration(m.cfg.MetricsCollectionIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.collectMetrics()
		}
	}
}

func (m *Manager) collectMetrics() {
	sample := MetricsSample{
		Timestamp:     time.Now(),
		RegistryStats: m.registry.Stats(),
		Health:        m.GetHealthStatus(),
		ConfigDigest:  m.cfg.ConfigDigest(),
	}

	m.metricsMu.Lock()
	m.metrics = append(m.metrics, sample)
	if len(m.metrics) > metricsRingCap {
		m.metrics = m.metrics[len(m.metrics)-metricsRingCap:]
	}
	m.metricsMu.Unlock()
}

// latestMetrics returns the most recent sample, or nil if the metrics
// loop has not run yet (e.g. EnableMetrics is false, or no tick has
// elapsed since Initialize).
func (m *Manager) latestMetrics() *MetricsSample {
	m.metricsMu.Lock()
	defer m.metricsMu.Unlock()
	if len(m.metrics) == 0 {
		return nil
	}
	sample := m.metrics[len(m.metrics)-1]
	return &sample
}
