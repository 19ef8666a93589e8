package persistence

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateSnapshot is returned when a run already recorded a label
var ErrDuplicateSnapshot = errors.New("duplicate group snapshot")

// GroupSnapshot records the size of one group for one classification run
type GroupSnapshot struct {
	ID              int64     `json:"id" db:"id"`
	RunID           string    `json:"run_id" db:"run_id"`
	Scenario        string    `json:"scenario" db:"scenario"`
	Label           string    `json:"label" db:"label"`
	SetupCount      int       `json:"setup_count" db:"setup_count"`
	RegistryVersion int       `json:"registry_version" db:"registry_version"`
	ComputedAt      time.Time `json:"computed_at" db:"computed_at"`
}

// SnapshotRepo stores group snapshot history
type SnapshotRepo interface {
	// InsertBatch stores every snapshot of a run atomically
	InsertBatch(ctx context.Context, snapshots []GroupSnapshot) error

	// ListByScenario returns the newest snapshots for a scenario first
	ListByScenario(ctx context.Context, scenario string, limit int) ([]GroupSnapshot, error)

	// LatestRun returns every snapshot of the most recent run, or nil when
	// the scenario was never snapshotted
	LatestRun(ctx context.Context, scenario string) ([]GroupSnapshot, error)
}

// HealthCheck represents snapshot store health. LatestRun is nil until the
// first snapshot is stored.
type HealthCheck struct {
	Healthy        bool       `json:"healthy"`
	Errors         []string   `json:"errors,omitempty"`
	Snapshots      int64      `json:"snapshots"`
	LatestRun      *time.Time `json:"latest_run,omitempty"`
	OpenConns      int        `json:"open_conns"`
	LastCheck      time.Time  `json:"last_check"`
	ResponseTimeMS int64      `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for persistence layer
type RepositoryHealth interface {
	// Health returns current repository health status
	Health(ctx context.Context) HealthCheck

	// Ping tests basic connectivity to database
	Ping(ctx context.Context) error
}
