package application

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/setuplab/internal/data/cache"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "data/scenarios", cfg.Storage.DataRoot)
	assert.True(t, cfg.Storage.RejectNonFinite)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	assert.Equal(t, cache.BackendMemory, cfg.Cache.Backend)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 2.0, cfg.GroupingConfig().HighRiskReward)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setuplab.yaml")
	content := `
storage:
  data_root: /srv/backtests
http:
  port: 9090
  request_timeout: 2s
grouping:
  highRiskRewardThreshold: 3
  shortDurationThreshold: 60
refresh:
  enabled: true
  schedule: "0 0 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	t.Setenv("SETUPLAB_HTTP_PORT", "7070")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SETUPLAB_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/backtests", cfg.Storage.DataRoot)
	assert.Equal(t, 7070, cfg.HTTP.Port, "environment wins over file")
	assert.Equal(t, 2*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, cache.BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Refresh.Enabled)

	g := cfg.GroupingConfig()
	assert.Equal(t, 3.0, g.HighRiskReward)
	assert.Equal(t, 60.0, g.ShortDuration)
	assert.Equal(t, 1440.0, g.LongDuration)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("http: [1, 2"), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)

	inverted := filepath.Join(dir, "inverted.yaml")
	require.NoError(t, os.WriteFile(inverted, []byte("grouping:\n  lowRiskRewardThreshold: 5\n"), 0644))
	_, err = LoadConfig(inverted)
	assert.ErrorContains(t, err, "grouping")

	pool := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(pool, []byte("database:\n  max_conns: 0\n"), 0644))
	t.Setenv("PG_DSN", "postgres://localhost/setuplab")
	_, err = LoadConfig(pool)
	assert.ErrorContains(t, err, "max_conns")
}

func TestLoadConfig_DatabaseEnv(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://db/setuplab")
	t.Setenv("PG_AUTO_MIGRATE", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, "postgres://db/setuplab", cfg.Database.DSN)
	assert.False(t, cfg.Database.AutoMigrate)
}

func TestConfigValidate_Port(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Port = 70000
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Storage.DataRoot = ""
	assert.Error(t, cfg.Validate())
}
