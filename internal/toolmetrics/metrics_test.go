package toolmetrics

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rcourtman/toolmesh-go/internal/adapter/demo"
	"github.com/rcourtman/toolmesh-go/internal/coordinator"
	"github.com/rcourtman/toolmesh-go/internal/execctx"
	"github.com/rcourtman/toolmesh-go/internal/manager"
	"github.com/rcourtman/toolmesh-go/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CollectAndServe(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterAdapter("demo", demo.New(0)))
	coord := coordinator.New(reg, coordinator.Config{})
	m := manager.New(manager.Config{}, reg, coord)
	require.NoError(t, m.Initialize(context.Background()))
	defer m.Shutdown(context.Background())

	mx := New()
	mx.Attach(m)
	mx.Collect()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	mx.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "toolmesh_tools_total 2")
}

func TestObservingExecutor_RecordsDuration(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.RegisterAdapter("demo", demo.New(0)))
	coord := coordinator.New(reg, coordinator.Config{})
	m := manager.New(manager.Config{}, reg, coord)
	require.NoError(t, m.Initialize(context.Background()))
	defer m.Shutdown(context.Background())

	mx := New()
	mx.Attach(m)
	observing := ObservingExecutor{Executor: reg, Metrics: mx}

	result := observing.ExecuteTool(context.Background(), "echo", map[string]interface{}{"msg": "hi"}, execctx.ToolExecutionContext{})
	assert.True(t, result.IsSuccess())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	mx.Handler().ServeHTTP(rec, req)
	assert.True(t, strings.Contains(rec.Body.String(), "toolmesh_execution_duration_seconds"))
}
