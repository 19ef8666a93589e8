package http

import (
	"time"

	"github.com/sawpanic/setuplab/internal/domain/grouping"
	"github.com/sawpanic/setuplab/internal/domain/setup"
	"github.com/sawpanic/setuplab/internal/persistence"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                   `json:"status"` // "healthy", "degraded"
	Timestamp time.Time                `json:"timestamp"`
	Uptime    string                   `json:"uptime"`
	Version   string                   `json:"version"`
	Circuits  map[string]CircuitHealth `json:"circuits,omitempty"`
	Database  *persistence.HealthCheck `json:"database,omitempty"`
	Registry  RegistryInfo             `json:"registry"`
}

// CircuitHealth represents circuit breaker state
type CircuitHealth struct {
	Name  string `json:"name"`
	State string `json:"state"` // "closed", "open", "half-open"
}

// RegistryInfo describes the label registry in use
type RegistryInfo struct {
	Version int `json:"version"`
	Labels  int `json:"labels"`
}

// LabelInfo is one registry entry
type LabelInfo struct {
	Label       grouping.Label `json:"label"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parent      grouping.Label `json:"parent,omitempty"`
}

// LabelsResponse lists the registry
type LabelsResponse struct {
	Version int         `json:"version"`
	Labels  []LabelInfo `json:"labels"`
}

// ScenariosResponse lists stored scenarios
type ScenariosResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Scenarios []string  `json:"scenarios"`
}

// GroupsResponse is the flat label mapping of a scenario
type GroupsResponse struct {
	Scenario   string                  `json:"scenario"`
	Timestamp  time.Time               `json:"timestamp"`
	Total      int                     `json:"total"`
	Config     grouping.Config         `json:"config"`
	Thresholds grouping.AxisThresholds `json:"thresholds"`
	Counts     []GroupCount            `json:"counts"`
	Groups     grouping.Assignment     `json:"groups"`
}

// GroupCount is the size of one non-empty group
type GroupCount struct {
	Label grouping.Label `json:"label"`
	Name  string         `json:"name"`
	Count int            `json:"count"`
}

// GroupResponse is the membership of a single label
type GroupResponse struct {
	Scenario    string         `json:"scenario"`
	Label       grouping.Label `json:"label"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parent      grouping.Label `json:"parent,omitempty"`
	Count       int            `json:"count"`
	Setups      []setup.Setup  `json:"setups"`
}

// TreeResponse is the hierarchical view of a scenario
type TreeResponse struct {
	Scenario  string           `json:"scenario"`
	Timestamp time.Time        `json:"timestamp"`
	Total     int              `json:"total"`
	Roots     []*grouping.Node `json:"roots"`
}

// HistoryResponse lists stored group snapshots
type HistoryResponse struct {
	Scenario  string                      `json:"scenario"`
	Snapshots []persistence.GroupSnapshot `json:"snapshots"`
}

// ErrorResponse represents API error responses
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewGroupsResponse summarises a classification result. Counts follow the
// order of the flat mapping.
func NewGroupsResponse(scenario string, result grouping.Result, now time.Time) GroupsResponse {
	labels := result.Groups.Labels()
	counts := make([]GroupCount, 0, len(labels))
	for _, l := range labels {
		counts = append(counts, GroupCount{
			Label: l,
			Name:  grouping.MustLookup(l).Name,
			Count: len(result.Groups.Get(l)),
		})
	}

	return GroupsResponse{
		Scenario:   scenario,
		Timestamp:  now.UTC(),
		Total:      result.Total,
		Config:     result.Config,
		Thresholds: result.Thresholds,
		Counts:     counts,
		Groups:     result.Groups,
	}
}

// NewTreeResponse wraps the hierarchy of a classification result
func NewTreeResponse(scenario string, result grouping.Result, now time.Time) TreeResponse {
	return TreeResponse{
		Scenario:  scenario,
		Timestamp: now.UTC(),
		Total:     result.Total,
		Roots:     result.Tree,
	}
}
