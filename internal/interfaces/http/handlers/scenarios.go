package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
	"github.com/sawpanic/setuplab/internal/domain/setup"
	httpContracts "github.com/sawpanic/setuplab/internal/http"
	"github.com/sawpanic/setuplab/internal/persistence"
)

const maxHistoryLimit = 1000

// Scenarios handles GET /scenarios
func (h *Handlers) Scenarios(w http.ResponseWriter, r *http.Request) {
	names, err := h.reviewer.Scenarios(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, r, http.StatusOK, httpContracts.ScenariosResponse{
		Timestamp: time.Now().UTC(),
		Scenarios: names,
	})
}

// Groups handles GET /scenarios/{scenario}/groups
func (h *Handlers) Groups(w http.ResponseWriter, r *http.Request) {
	scenario := mux.Vars(r)["scenario"]
	result, err := h.reviewer.Classify(r.Context(), scenario)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, httpContracts.NewGroupsResponse(scenario, result, time.Now()))
}

// Group handles GET /scenarios/{scenario}/groups/{label}. A registered label
// that matched nothing returns an empty member list.
func (h *Handlers) Group(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	scenario, label := vars["scenario"], grouping.Label(vars["label"])

	if !label.Valid() {
		h.writeError(w, r, http.StatusBadRequest, "unknown_label", "Unknown group label: "+label.String())
		return
	}
	def := grouping.MustLookup(label)

	result, err := h.reviewer.Classify(r.Context(), scenario)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	members := result.Groups.Get(label)
	if label == grouping.LabelGeneralBuyStop {
		members = result.Groups.Get(grouping.LabelBuyStop)
	} else if label == grouping.LabelGeneralBuyLimit {
		members = result.Groups.Get(grouping.LabelBuyLimit)
	}
	if members == nil {
		members = []setup.Setup{}
	}

	h.writeJSON(w, r, http.StatusOK, httpContracts.GroupResponse{
		Scenario:    scenario,
		Label:       label,
		Name:        def.Name,
		Description: def.Description,
		Parent:      def.Parent,
		Count:       len(members),
		Setups:      members,
	})
}

// Tree handles GET /scenarios/{scenario}/tree
func (h *Handlers) Tree(w http.ResponseWriter, r *http.Request) {
	scenario := mux.Vars(r)["scenario"]
	result, err := h.reviewer.Classify(r.Context(), scenario)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, httpContracts.NewTreeResponse(scenario, result, time.Now()))
}

// History handles GET /scenarios/{scenario}/history?limit=N
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	scenario := mux.Vars(r)["scenario"]

	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			h.writeError(w, r, http.StatusBadRequest, "invalid_limit",
				"limit must be an integer between 1 and "+strconv.Itoa(maxHistoryLimit))
			return
		}
		limit = n
	}

	snaps, err := h.reviewer.History(r.Context(), scenario, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []persistence.GroupSnapshot{}
	}
	h.writeJSON(w, r, http.StatusOK, httpContracts.HistoryResponse{
		Scenario:  scenario,
		Snapshots: snaps,
	})
}
