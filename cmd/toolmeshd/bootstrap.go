package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rcourtman/toolmesh-go/internal/adapter/demo"
	"github.com/rcourtman/toolmesh-go/internal/bridge"
	"github.com/rcourtman/toolmesh-go/internal/coordinator"
	"github.com/rcourtman/toolmesh-go/internal/manager"
	"github.com/rcourtman/toolmesh-go/internal/registry"
	"github.com/rcourtman/toolmesh-go/internal/toolmetrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// server bundles the running process's long-lived pieces so run can
// tear them down in the right order on shutdown.
type server struct {
	cfg     config
	mgr     *manager.Manager
	metrics *toolmetrics.Metrics

	httpServer    *http.Server
	metricsServer *http.Server
}

func newServer(cfg config) *server {
	reg := registry.New()
	if err := reg.RegisterAdapter("demo", demo.New(cfg.DemoAdapterDelay)); err != nil {
		log.Warn().Err(err).Msg("failed to register demo adapter")
	}

	mx := toolmetrics.New()
	observed := toolmetrics.ObservingExecutor{Executor: reg, Metrics: mx}

	coord := coordinator.New(observed, coordinator.Config{
		MaxConcurrentExecutions: int64(cfg.Manager.MaxConcurrentExecutions),
		DefaultTimeout:          time.Duration(cfg.Manager.ExecutionTimeoutSeconds) * time.Second,
	})

	mgr := manager.New(cfg.Manager, reg, coord)
	mx.Attach(mgr)

	b := bridge.New(mgr)

	return &server{
		cfg:     cfg,
		mgr:     mgr,
		metrics: mx,
		httpServer: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: b.Routes(),
		},
		metricsServer: &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: mx.Handler(),
		},
	}
}

// run brings the server up, serves until a shutdown signal or fatal
// error, then tears everything down in reverse dependency order — the
// same A→B→C→D→E leaves-first shape Initialize follows, inverted.
func run(ctx context.Context, cfg config) error {
	zerolog.SetGlobalLevel(parseLevel(cfg.Manager.LogLevel))
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	s := newServer(cfg)

	initCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Manager.AdapterInitializationTimeoutSeconds+5)*time.Second)
	defer cancel()
	if err := s.mgr.Initialize(initCtx); err != nil {
		return fmt.Errorf("toolmeshd: initialize: %w", err)
	}

	stopMetricsCollection := s.startMetricsCollection()
	defer stopMetricsCollection()

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("serving tool registry API")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info().Str("addr", s.metricsServer.Addr).Msg("serving prometheus metrics")
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		log.Error().Err(err).Msg("server error, shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	_ = s.httpServer.Shutdown(shutdownCtx)
	_ = s.metricsServer.Shutdown(shutdownCtx)
	return s.mgr.Shutdown(shutdownCtx)
}

// startMetricsCollection ticks toolmetrics.Collect on the interval the
// manager's own metrics loop uses, keeping the Prometheus gauges fresh
// without giving toolmetrics a dependency on manager's internal loop.
func (s *server) startMetricsCollection() func() {
	interval := time.Duration(s.cfg.Manager.MetricsCollectionIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.metrics.Collect()
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}

func parseLevel(level string) zerolog.Level {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
