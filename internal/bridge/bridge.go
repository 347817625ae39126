// Package bridge is the thin API Bridge: it projects the Manager's
// surface onto HTTP, translating query strings and JSON bodies into
// calls against the registry, coordinator, and manager, and mapping
// their results back per spec.md §6/§7.
package bridge

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rcourtman/toolmesh-go/internal/manager"
	"github.com/rcourtman/toolmesh-go/internal/registry"
	"github.com/rcourtman/toolmesh-go/internal/toolspec"
	"github.com/rs/zerolog/log"
)

// Bridge projects one Manager's surface to HTTP. One Bridge per
// process, constructed at startup and shared by all request handlers
// (spec.md §9: "one Manager per process... no cross-process
// visibility").
type Bridge struct {
	manager *manager.Manager
}

// New constructs a Bridge over an already-initialized (or
// about-to-be-initialized) Manager.
func New(m *manager.Manager) *Bridge {
	return &Bridge{manager: m}
}

// Routes builds the HTTP surface described in spec.md §6, plus an
// additive WebSocket execution-stream endpoint (stream.go's
// not-in-spec extra, kept out of the REST table on purpose).
func (b *Bridge) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tools/", b.handleOverview)
	mux.HandleFunc("GET /tools/discover", b.handleDiscover)
	mux.HandleFunc("GET /tools/providers", b.handleProviders)
	mux.HandleFunc("GET /tools/categories", b.handleCategories)
	mux.HandleFunc("GET /tools/stats", b.handleStats)
	mux.HandleFunc("GET /tools/health", b.handleHealth)
	mux.HandleFunc("POST /tools/execute", b.handleExecute)
	mux.HandleFunc("GET /tools/executions/{id}/status", b.handleExecutionStatus)
	mux.HandleFunc("GET /tools/executions/{id}/result", b.handleExecutionResult)
	mux.HandleFunc("GET /tools/executions/{id}/stream", b.handleExecutionStream)
	mux.HandleFunc("GET /tools/{name}", b.handleGetTool)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("bridge: failed to encode response")
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

// overview is the GET /tools/ system snapshot.
type overview struct {
	State         string         `json:"state"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	RegistryStats registry.Stats `json:"registry_stats"`
}

func (b *Bridge) handleOverview(w http.ResponseWriter, r *http.Request) {
	status := b.manager.GetComprehensiveStatus()
	writeJSON(w, http.StatusOK, overview{
		State:         string(status.State),
		UptimeSeconds: status.UptimeSeconds,
		RegistryStats: status.RegistryStats,
	})
}

func splitCSVParams(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (b *Bridge) handleDiscover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var categories []toolspec.Category
	for _, c := range splitCSVParams(q["category"]) {
		categories = append(categories, toolspec.Category(c))
	}
	providers := splitCSVParams(q["provider"])
	tags := splitCSVParams(q["tags"])

	tools, err := b.manager.Registry().DiscoverTools(registry.DiscoverFilters{
		Categories: categories,
		Providers:  providers,
		Tags:       tags,
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

func (b *Bridge) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, b.manager.Registry().Providers())
}

func (b *Bridge) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toolspec.AllCategories())
}

func (b *Bridge) handleGetTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	spec, ok := b.manager.Registry().GetToolSpec(name)
	if !ok {
		writeError(w, http.StatusNotFound, "tool not found")
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

