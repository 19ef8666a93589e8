package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/persistence"
)

// Postgres error codes the snapshot store reacts to
const (
	codeUniqueViolation pq.ErrorCode = "23505"
	codeUndefinedTable  pq.ErrorCode = "42P01"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// Config locates the snapshot database. An empty DSN disables snapshots.
type Config struct {
	DSN          string        `yaml:"dsn"`
	MaxConns     int           `yaml:"max_conns"`
	ConnLifetime time.Duration `yaml:"conn_lifetime"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	AutoMigrate  bool          `yaml:"auto_migrate"`
}

// DefaultConfig returns a small pool; snapshot traffic is a few inserts per refresh
func DefaultConfig() Config {
	return Config{
		MaxConns:     4,
		ConnLifetime: 30 * time.Minute,
		QueryTimeout: 5 * time.Second,
		AutoMigrate:  true,
	}
}

// Enabled reports whether a DSN is configured
func (c Config) Enabled() bool { return c.DSN != "" }

// Validate checks the pool settings of an enabled config
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("max_conns must be positive")
	}
	if c.QueryTimeout <= 0 {
		return fmt.Errorf("query_timeout must be positive")
	}
	return nil
}

// Store is an open snapshot database. It implements persistence.RepositoryHealth.
type Store struct {
	Snapshots persistence.SnapshotRepo

	db      *sqlx.DB
	timeout time.Duration
}

// Open connects, checks the connection and optionally creates the schema
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("snapshot database: no dsn configured")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(connectCtx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect snapshot database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	if cfg.AutoMigrate {
		if err := Migrate(connectCtx, db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info().Msg("Snapshot schema migrated")
	}
	return NewStore(db, cfg.QueryTimeout), nil
}

// NewStore wraps an open connection
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{
		Snapshots: NewSnapshotsRepo(db, timeout),
		db:        db,
		timeout:   timeout,
	}
}

// Health pings the database and reads the size of the snapshot history. A
// missing table is reported as such so the operator knows to migrate.
func (s *Store) Health(ctx context.Context) persistence.HealthCheck {
	start := time.Now()
	check := persistence.HealthCheck{Healthy: true}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		check.Healthy = false
		check.Errors = append(check.Errors, fmt.Sprintf("ping failed: %v", err))
	} else {
		var latest sql.NullTime
		err := s.db.QueryRowxContext(ctx,
			`SELECT COUNT(*), MAX(computed_at) FROM group_snapshots`).Scan(&check.Snapshots, &latest)
		switch {
		case pqCode(err) == codeUndefinedTable:
			check.Healthy = false
			check.Errors = append(check.Errors, "snapshot schema missing, enable auto_migrate")
		case err != nil:
			check.Healthy = false
			check.Errors = append(check.Errors, fmt.Sprintf("history query failed: %v", err))
		case latest.Valid:
			at := latest.Time.UTC()
			check.LatestRun = &at
		}
	}

	check.OpenConns = s.db.Stats().OpenConnections
	check.LastCheck = time.Now().UTC()
	check.ResponseTimeMS = time.Since(start).Milliseconds()
	return check
}

// Ping tests connectivity
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// Close releases the pool
func (s *Store) Close() error {
	return s.db.Close()
}
