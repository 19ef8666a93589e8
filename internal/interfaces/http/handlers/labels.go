package handlers

import (
	"net/http"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
	httpContracts "github.com/sawpanic/setuplab/internal/http"
)

// Labels handles GET /labels
func (h *Handlers) Labels(w http.ResponseWriter, r *http.Request) {
	defs := grouping.Definitions()
	resp := httpContracts.LabelsResponse{
		Version: grouping.RegistryVersion,
		Labels:  make([]httpContracts.LabelInfo, 0, len(defs)),
	}
	for _, d := range defs {
		resp.Labels = append(resp.Labels, httpContracts.LabelInfo{
			Label:       d.Label,
			Name:        d.Name,
			Description: d.Description,
			Parent:      d.Parent,
		})
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
