package main

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rcourtman/toolmesh-go/internal/manager"
)

// config is the process-level configuration: Manager's Config plus the
// listener addresses and demo-adapter knobs the core doesn't know
// about. Every field is overridable by a TOOLMESH_-prefixed
// environment variable; a .env file in the working directory is
// loaded first, the way cmd/pulse loads its own .env before reading
// the process environment.
type config struct {
	HTTPAddr    string
	MetricsAddr string

	DemoAdapterDelay time.Duration

	Manager manager.Config
}

func loadConfig() config {
	_ = godotenv.Load()

	return config{
		HTTPAddr:         envString("TOOLMESH_HTTP_ADDR", ":8090"),
		MetricsAddr:      envString("TOOLMESH_METRICS_ADDR", ":9090"),
		DemoAdapterDelay: time.Duration(envInt("TOOLMESH_DEMO_ADAPTER_DELAY_MS", 0)) * time.Millisecond,
		Manager: manager.Config{
			AutoInitialize:                      envBool("TOOLMESH_AUTO_INITIALIZE", true),
			EnableHealthCheck:                   envBool("TOOLMESH_ENABLE_HEALTH_CHECK", true),
			HealthCheckIntervalSeconds:          envInt("TOOLMESH_HEALTH_CHECK_INTERVAL_SECONDS", 60),
			MaxConcurrentExecutions:             envInt("TOOLMESH_MAX_CONCURRENT_EXECUTIONS", 50),
			ExecutionTimeoutSeconds:             envInt("TOOLMESH_EXECUTION_TIMEOUT_SECONDS", 300),
			AdapterInitializationTimeoutSeconds: envInt("TOOLMESH_ADAPTER_INITIALIZATION_TIMEOUT_SECONDS", 30),
			EnableToolCache:                     envBool("TOOLMESH_ENABLE_TOOL_CACHE", true),
			CacheTTLSeconds:                     envInt("TOOLMESH_CACHE_TTL_SECONDS", 300),
			LogLevel:                            envString("TOOLMESH_LOG_LEVEL", "info"),
			EnableExecutionLogging:              envBool("TOOLMESH_ENABLE_EXECUTION_LOGGING", true),
			EnableMetrics:                       envBool("TOOLMESH_ENABLE_METRICS", true),
			MetricsCollectionIntervalSeconds:    envInt("TOOLMESH_METRICS_COLLECTION_INTERVAL_SECONDS", 30),
		},
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
