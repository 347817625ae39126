package manager

import (
	"time"

	"github.com/rs/zerolog/log"
)

// HealthRecord is the outcome of one health check (spec.md §4.5).
type HealthRecord struct {
	Healthy   bool      `json:"healthy"`
	LastCheck time.Time `json:"last_check"`
	Issues    []string  `json:"issues"`
}

func (m *Manager) healthLoop() {
	defer m.wg.Done()
	interval := time.Duration(m.cfg.HealthCheckIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.runHealthCheck()
		}
	}
}

// runHealthCheck verifies the registry is initialized and has at
// least one framework and one tool. Degraded (non-empty issues) is
// logged as a warning, not treated as fatal — callers still get
// service, just a health record that says so.
func (m *Manager) runHealthCheck() {
	var issues []string

	if !m.registry.Initialized() {
		issues = append(issues, "Registry not initialized")
	}
	stats := m.registry.Stats()
	if stats.FrameworksCount == 0 {
		issues = append(issues, "No frameworks registered")
	}
	if stats.TotalTools == 0 {
		issues = append(issues, "No tools registered")
	}

	record := HealthRecord{
		Healthy:   len(issues) == 0,
		LastCheck: time.Now(),
		Issues:    issues,
	}

	m.healthMu.Lock()
	m.health = record
	m.healthMu.Unlock()

	if !record.Healthy {
		log.Warn().Strs("issues", issues).Msg("registry health degraded")
	}
}

// GetHealthStatus returns the most recent health record.
func (m *Manager) GetHealthStatus() HealthRecord {
	m.healthMu.RLock()
	defer m.healthMu.RUnlock()
	return m.health
}
