package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var historyQuery = regexp.QuoteMeta(`SELECT COUNT(*), MAX(computed_at) FROM group_snapshots`)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return NewStore(sqlx.NewDb(sqlDB, "postgres"), time.Second), mock
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.Enabled())
	assert.NoError(t, cfg.Validate(), "a disabled config is always valid")

	cfg.DSN = "postgres://localhost/setuplab"
	assert.True(t, cfg.Enabled())
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.MaxConns = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.QueryTimeout = 0
	assert.Error(t, bad.Validate())
}

func TestOpen_RequiresDSN(t *testing.T) {
	_, err := Open(context.Background(), DefaultConfig())
	assert.ErrorContains(t, err, "no dsn")
}

func TestStoreHealth_ReportsHistory(t *testing.T) {
	store, mock := newMockStore(t)
	latest := time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)

	mock.ExpectPing()
	mock.ExpectQuery(historyQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(int64(42), latest))

	check := store.Health(context.Background())
	assert.True(t, check.Healthy)
	assert.Empty(t, check.Errors)
	assert.Equal(t, int64(42), check.Snapshots)
	require.NotNil(t, check.LatestRun)
	assert.Equal(t, latest, *check.LatestRun)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreHealth_EmptyHistory(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectPing()
	mock.ExpectQuery(historyQuery).
		WillReturnRows(sqlmock.NewRows([]string{"count", "max"}).AddRow(int64(0), nil))

	check := store.Health(context.Background())
	assert.True(t, check.Healthy)
	assert.Zero(t, check.Snapshots)
	assert.Nil(t, check.LatestRun)
}

func TestStoreHealth_MissingSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectPing()
	mock.ExpectQuery(historyQuery).WillReturnError(&pq.Error{Code: codeUndefinedTable})

	check := store.Health(context.Background())
	assert.False(t, check.Healthy)
	require.Len(t, check.Errors, 1)
	assert.Contains(t, check.Errors[0], "auto_migrate")
}

func TestStoreHealth_PingFailure(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	check := store.Health(context.Background())
	assert.False(t, check.Healthy)
	require.Len(t, check.Errors, 1)
	assert.Contains(t, check.Errors[0], "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet(), "history is not queried without a connection")
}

func TestStorePing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectPing()
	assert.NoError(t, store.Ping(context.Background()))
	assert.NotNil(t, store.Snapshots)
}

func TestPQCode(t *testing.T) {
	wrapped := errors.Join(errors.New("insert"), &pq.Error{Code: codeUniqueViolation})
	assert.Equal(t, codeUniqueViolation, pqCode(wrapped))
	assert.Equal(t, pq.ErrorCode(""), pqCode(errors.New("plain")))
	assert.Equal(t, pq.ErrorCode(""), pqCode(nil))
}
