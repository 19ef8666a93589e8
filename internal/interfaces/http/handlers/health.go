package handlers

import (
	"net/http"
	"time"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
	httpContracts "github.com/sawpanic/setuplab/internal/http"
)

// Health handles GET /health endpoint
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	response := httpContracts.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Registry: httpContracts.RegistryInfo{
			Version: grouping.RegistryVersion,
			Labels:  len(grouping.AllLabels()),
		},
	}

	if len(h.circuits) > 0 {
		response.Circuits = make(map[string]httpContracts.CircuitHealth, len(h.circuits))
		for _, c := range h.circuits {
			state := c.State()
			response.Circuits[c.Name()] = httpContracts.CircuitHealth{Name: c.Name(), State: state}
			if state != "closed" {
				response.Status = "degraded"
			}
		}
	}

	if h.database != nil {
		check := h.database.Health(r.Context())
		response.Database = &check
		if !check.Healthy {
			response.Status = "degraded"
		}
	}

	h.writeJSON(w, r, http.StatusOK, response)
}
