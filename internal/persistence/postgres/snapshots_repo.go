package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/setuplab/internal/persistence"
)

// Schema creates the snapshot table. (run_id, label) is unique.
const Schema = `
CREATE TABLE IF NOT EXISTS group_snapshots (
	id               BIGSERIAL PRIMARY KEY,
	run_id           UUID        NOT NULL,
	scenario         TEXT        NOT NULL,
	label            TEXT        NOT NULL,
	setup_count      INTEGER     NOT NULL,
	registry_version INTEGER     NOT NULL,
	computed_at      TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, label)
);
CREATE INDEX IF NOT EXISTS group_snapshots_scenario_idx ON group_snapshots (scenario, computed_at DESC);`

const snapshotColumns = `id, run_id, scenario, label, setup_count, registry_version, computed_at`

// snapshotsRepo implements SnapshotRepo for PostgreSQL
type snapshotsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSnapshotsRepo creates a new PostgreSQL snapshot repository
func NewSnapshotsRepo(db *sqlx.DB, timeout time.Duration) persistence.SnapshotRepo {
	return &snapshotsRepo{
		db:      db,
		timeout: timeout,
	}
}

// InsertBatch adds every snapshot of a run in one transaction
func (r *snapshotsRepo) InsertBatch(ctx context.Context, snapshots []persistence.GroupSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(snapshots)/100+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO group_snapshots (run_id, scenario, label, setup_count, registry_version, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range snapshots {
		if s.RunID == "" || s.Scenario == "" || s.Label == "" {
			return fmt.Errorf("incomplete snapshot in batch: run=%q scenario=%q label=%q", s.RunID, s.Scenario, s.Label)
		}
		_, err := stmt.ExecContext(ctx,
			s.RunID, s.Scenario, s.Label, s.SetupCount, s.RegistryVersion, s.ComputedAt)
		if err != nil {
			if pqCode(err) == codeUniqueViolation {
				return fmt.Errorf("%w: run %s label %s", persistence.ErrDuplicateSnapshot, s.RunID, s.Label)
			}
			return fmt.Errorf("failed to insert snapshot in batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	return nil
}

// ListByScenario retrieves snapshot history for a scenario, newest first
func (r *snapshotsRepo) ListByScenario(ctx context.Context, scenario string, limit int) ([]persistence.GroupSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + snapshotColumns + `
		FROM group_snapshots
		WHERE scenario = $1
		ORDER BY computed_at DESC, id ASC
		LIMIT $2`

	var out []persistence.GroupSnapshot
	if err := r.db.SelectContext(ctx, &out, query, scenario, limit); err != nil {
		return nil, fmt.Errorf("failed to query snapshots by scenario: %w", err)
	}
	return out, nil
}

// LatestRun returns every row of the newest run for a scenario
func (r *snapshotsRepo) LatestRun(ctx context.Context, scenario string) ([]persistence.GroupSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + snapshotColumns + `
		FROM group_snapshots
		WHERE run_id = (
			SELECT run_id FROM group_snapshots
			WHERE scenario = $1
			ORDER BY computed_at DESC
			LIMIT 1)
		ORDER BY id ASC`

	rows, err := r.db.QueryxContext(ctx, query, scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	defer rows.Close()

	var out []persistence.GroupSnapshot
	for rows.Next() {
		var s persistence.GroupSnapshot
		if err := rows.StructScan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// Migrate creates the schema when missing
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate snapshot schema: %w", err)
	}
	return nil
}
