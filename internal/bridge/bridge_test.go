package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rcourtman/toolmesh-go/internal/adapter/demo"
	"github.com/rcourtman/toolmesh-go/internal/coordinator"
	"github.com/rcourtman/toolmesh-go/internal/manager"
	"github.com/rcourtman/toolmesh-go/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge(t *testing.T) (*Bridge, *manager.Manager) {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.RegisterAdapter("demo", demo.New(0)))
	coord := coordinator.New(reg, coordinator.Config{})
	m := manager.New(manager.Config{ExecutionTimeoutSeconds: 5}, reg, coord)
	require.NoError(t, m.Initialize(context.Background()))
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	return New(m), m
}

func TestBridge_Overview(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tools/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body overview
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body.State)
}

func TestBridge_DiscoverAndGetTool(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tools/discover")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var tools []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tools))
	assert.Len(t, tools, 2)

	resp2, err := http.Get(srv.URL + "/tools/echo")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)

	resp3, err := http.Get(srv.URL + "/tools/does-not-exist")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}

func TestBridge_ProvidersAndCategories(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tools/providers")
	require.NoError(t, err)
	defer resp.Body.Close()
	var providers []string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&providers))
	assert.Equal(t, []string{"demo"}, providers)

	resp2, err := http.Get(srv.URL + "/tools/categories")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var categories []string
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&categories))
	assert.Len(t, categories, 11)
}

func TestBridge_ExecuteSuccess(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"tool_name": "echo",
		"params":    map[string]interface{}{"msg": "hi"},
	})
	resp, err := http.Post(srv.URL+"/tools/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var er executeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.True(t, er.Success)
	assert.Equal(t, "echo", er.ToolName)
}

// A tool-level failure (missing required param) is still HTTP 200,
// per spec.md §7.
func TestBridge_ExecuteToolFailureIsStill200(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"tool_name": "echo",
		"params":    map[string]interface{}{},
	})
	resp, err := http.Post(srv.URL+"/tools/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var er executeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
	assert.False(t, er.Success)
	assert.Equal(t, "failed", string(er.Status))
	assert.NotEmpty(t, er.Error)
}

func TestBridge_ExecuteMalformedBodyIs400(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/tools/execute", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBridge_ExecutionStatusAndResult(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{
		"tool_name": "echo",
		"params":    map[string]interface{}{"msg": "hi"},
	})
	resp, err := http.Post(srv.URL+"/tools/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var er executeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))

	statusResp, err := http.Get(srv.URL + "/tools/executions/" + er.ExecutionID + "/status")
	require.NoError(t, err)
	defer statusResp.Body.Close()
	assert.Equal(t, http.StatusOK, statusResp.StatusCode)

	resultResp, err := http.Get(srv.URL + "/tools/executions/" + er.ExecutionID + "/result")
	require.NoError(t, err)
	defer resultResp.Body.Close()
	assert.Equal(t, http.StatusOK, resultResp.StatusCode)

	missingResp, err := http.Get(srv.URL + "/tools/executions/does-not-exist/result")
	require.NoError(t, err)
	defer missingResp.Body.Close()
	assert.Equal(t, http.StatusNotFound, missingResp.StatusCode)
}

func TestBridge_Stats(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tools/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var stats statsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Registry.TotalTools)
}

func TestBridge_Health(t *testing.T) {
	b, _ := newTestBridge(t)
	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/tools/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBridge_ExecuteNotReadyIs503(t *testing.T) {
	reg := registry.New()
	coord := coordinator.New(reg, coordinator.Config{})
	m := manager.New(manager.Config{}, reg, coord)
	b := New(m) // never Initialize()d

	srv := httptest.NewServer(b.Routes())
	defer srv.Close()

	body, _ := json.Marshal(map[string]interface{}{"tool_name": "echo"})
	resp, err := http.Post(srv.URL+"/tools/execute", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
