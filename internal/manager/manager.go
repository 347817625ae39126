// Package manager implements the Registry Manager: the top-level
// lifecycle owner that brings the registry and coordinator up in
// order, runs health and metrics loops while ready, and exposes a
// single composed status view to the API bridge.
package manager

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rcourtman/toolmesh-go/internal/coordinator"
	"github.com/rcourtman/toolmesh-go/internal/registry"
	"github.com/rs/zerolog/log"
)

// State is a Manager lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateError         State = "error"
	StateShutdown      State = "shutdown"
)

// ErrInitTimeout is returned when registry initialization does not
// complete within Config.AdapterInitializationTimeoutSeconds.
var ErrInitTimeout = errors.New("manager: adapter initialization timed out")

// Config mirrors the recognized options in spec.md §6. Zero values
// fall back to the documented defaults via withDefaults.
type Config struct {
	AutoInitialize                      bool
	EnableHealthCheck                   bool
	HealthCheckIntervalSeconds          int
	MaxConcurrentExecutions             int
	ExecutionTimeoutSeconds             int
	AdapterInitializationTimeoutSeconds int
	EnableToolCache                     bool
	CacheTTLSeconds                     int
	LogLevel                            string
	EnableExecutionLogging              bool
	EnableMetrics                       bool
	MetricsCollectionIntervalSeconds    int
}

func (c Config) withDefaults() Config {
	if c.HealthCheckIntervalSeconds <= 0 {
		c.HealthCheckIntervalSeconds = 60
	}
	if c.MaxConcurrentExecutions <= 0 {
		c.MaxConcurrentExecutions = 50
	}
	if c.ExecutionTimeoutSeconds <= 0 {
		c.ExecutionTimeoutSeconds = 300
	}
	if c.AdapterInitializationTimeoutSeconds <= 0 {
		c.AdapterInitializationTimeoutSeconds = 30
	}
	if c.MetricsCollectionIntervalSeconds <= 0 {
		c.MetricsCollectionIntervalSeconds = 30
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// ConfigDigest is a stable short fingerprint of the active config, so
// the status API can reveal whether two processes are running the
// same settings without dumping secrets or the full struct.
func (c Config) ConfigDigest() string {
	b, _ := json.Marshal(c)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}

const metricsRingCap = 100

// Manager is the Registry Manager (component E).
type Manager struct {
	cfg         Config
	registry    *registry.Registry
	coordinator *coordinator.Coordinator

	mu        sync.RWMutex
	state     State
	startedAt time.Time

	healthMu sync.RWMutex
	health   HealthRecord

	metricsMu sync.Mutex
	metrics   []MetricsSample

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Manager over an already-wired registry and
// coordinator. Neither is initialized until Initialize is called.
func New(cfg Config, reg *registry.Registry, coord *coordinator.Coordinator) *Manager {
	return &Manager{
		cfg:         cfg.withDefaults(),
		registry:    reg,
		coordinator: coord,
		state:       StateUninitialized,
	}
}

// Initialize brings the registry to ready within the configured
// deadline, starts the coordinator, and — if enabled — the health and
// metrics loops. Exceeding the deadline is a fatal ErrInitTimeout; any
// other registry failure is wrapped and returned as-is.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	m.state = StateInitializing
	m.mu.Unlock()

	deadline := time.Duration(m.cfg.AdapterInitializationTimeoutSeconds) * time.Second
	initCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- m.registry.Initialize(initCtx) }()
	var err error
	select {
	case err = <-errCh:
	case <-initCtx.Done():
		err = initCtx.Err()
	}
	if err != nil {
		m.mu.Lock()
		m.state = StateError
		m.mu.Unlock()
		if errors.Is(initCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("initialize: %w", ErrInitTimeout)
		}
		return fmt.Errorf("initialize: %w", err)
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.coordinator.Start(m.ctx)

	m.mu.Lock()
	m.state = StateReady
	m.startedAt = time.Now()
	m.mu.Unlock()

	// Run one health check synchronously so a caller that immediately
	// asks for comprehensive status sees a real record, not the zero
	// value, even before the first loop tick.
	m.runHealthCheck()

	if m.cfg.EnableHealthCheck {
		m.wg.Add(1)
		go m.healthLoop()
	}
	if m.cfg.EnableMetrics {
		m.wg.Add(1)
		go m.metricsLoop()
	}

	log.Info().Str("state", string(StateReady)).Msg("manager initialized")
	return nil
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Uptime returns time since Initialize completed, or zero if never
// initialized.
func (m *Manager) Uptime() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.startedAt.IsZero() {
		return 0
	}
	return time.Since(m.startedAt)
}

// ComprehensiveStatus is the Status API response (spec.md §4.5).
type ComprehensiveStatus struct {
	State         State          `json:"state"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Health        HealthRecord   `json:"health"`
	RegistryStats registry.Stats `json:"registry_stats"`
	LatestMetrics *MetricsSample `json:"latest_metrics,omitempty"`
	ConfigDigest  string         `json:"config_digest"`
}

// GetComprehensiveStatus composes the manager state, health, registry
// stats, latest metrics sample, and config digest into one view.
func (m *Manager) GetComprehensiveStatus() ComprehensiveStatus {
	return ComprehensiveStatus{
		State:         m.State(),
		UptimeSeconds: m.Uptime().Seconds(),
		Health:        m.GetHealthStatus(),
		RegistryStats: m.registry.Stats(),
		LatestMetrics: m.latestMetrics(),
		ConfigDigest:  m.cfg.ConfigDigest(),
	}
}

// Registry exposes the underlying registry for components (the
// bridge) that need direct access beyond the composed status view.
func (m *Manager) Registry() *registry.Registry { return m.registry }

// Coordinator exposes the underlying coordinator for the same reason.
func (m *Manager) Coordinator() *coordinator.Coordinator { return m.coordinator }

// ExecutionTimeoutSeconds is the configured default per-execution
// timeout, used by the bridge when a request doesn't override it.
func (m *Manager) ExecutionTimeoutSeconds() int { return m.cfg.ExecutionTimeoutSeconds }

// Shutdown cancels the health/metrics loops, stops the coordinator,
// releases the registry's adapters, and transitions to shutdown. It is
// idempotent: calling it again after a successful shutdown is a no-op.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateShutdown {
		m.mu.Unlock()
		return nil
	}
	m.state = StateShutdown
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	loopsDone := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(loopsDone)
	}()
	select {
	case <-loopsDone:
	case <-ctx.Done():
		log.Warn().Msg("manager shutdown: health/metrics loops did not stop before context deadline")
	}

	if err := m.coordinator.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("coordinator shutdown returned an error")
	}
	if err := m.registry.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("registry shutdown returned an error")
	}

	log.Info().Msg("manager shut down")
	return nil
}
