package bridge

import (
	"net/http"

	"github.com/rcourtman/toolmesh-go/internal/coordinator"
	"github.com/rcourtman/toolmesh-go/internal/registry"
)

type statsResponse struct {
	Registry    registry.Stats    `json:"registry"`
	Coordinator coordinator.Stats `json:"coordinator"`
}

func (b *Bridge) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsResponse{
		Registry:    b.manager.Registry().Stats(),
		Coordinator: b.manager.Coordinator().Stats(),
	})
}

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := b.manager.GetHealthStatus()
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, health)
}
