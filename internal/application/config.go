package application

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sawpanic/setuplab/internal/data/cache"
	"github.com/sawpanic/setuplab/internal/data/store"
	"github.com/sawpanic/setuplab/internal/domain/grouping"
	"github.com/sawpanic/setuplab/internal/persistence/postgres"
)

// Config is the application configuration file
type Config struct {
	Storage  StorageConfig      `yaml:"storage"`
	Cache    cache.Config       `yaml:"cache"`
	Database postgres.Config    `yaml:"database"`
	HTTP     HTTPConfig         `yaml:"http"`
	Grouping grouping.Overrides `yaml:"grouping"`
	Refresh  RefreshConfig      `yaml:"refresh"`
	Log      LogConfig          `yaml:"log"`
}

// StorageConfig locates scenario objects
type StorageConfig struct {
	DataRoot        string                `yaml:"data_root"`
	RejectNonFinite bool                  `yaml:"reject_non_finite"`
	Limits          store.ResilientConfig `yaml:"limits"`
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// RefreshConfig schedules snapshot refreshes
type RefreshConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Schedule    string `yaml:"schedule"` // cron with seconds: "0 */15 * * * *"
	WatchStore  bool   `yaml:"watch_store"`
	HistorySize int    `yaml:"history_size"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			DataRoot:        "data/scenarios",
			RejectNonFinite: true,
			Limits:          store.DefaultResilientConfig(),
		},
		Cache:    cache.DefaultConfig(),
		Database: postgres.DefaultConfig(),
		HTTP: HTTPConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			ReadTimeout:    10 * time.Second,
			WriteTimeout:   10 * time.Second,
			RequestTimeout: 5 * time.Second,
		},
		Refresh: RefreshConfig{
			Schedule:    "0 */15 * * * *",
			WatchStore:  true,
			HistorySize: 50,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig reads path over the defaults, then applies environment
// overrides. An empty path loads defaults only.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func (c *Config) applyEnvOverrides() {
	if root := os.Getenv("SETUPLAB_DATA_ROOT"); root != "" {
		c.Storage.DataRoot = root
	}
	if port := os.Getenv("SETUPLAB_HTTP_PORT"); port != "" {
		if val, err := strconv.Atoi(port); err == nil {
			c.HTTP.Port = val
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Cache.Addr = addr
		c.Cache.Backend = cache.BackendRedis
	}
	if level := os.Getenv("SETUPLAB_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if migrate := os.Getenv("PG_AUTO_MIGRATE"); migrate != "" {
		if val, err := strconv.ParseBool(migrate); err == nil {
			c.Database.AutoMigrate = val
		}
	}
}

// Validate checks the whole configuration
func (c Config) Validate() error {
	if c.Storage.DataRoot == "" {
		return fmt.Errorf("storage.data_root is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port %d out of range", c.HTTP.Port)
	}
	if c.Storage.Limits.RPS <= 0 || c.Storage.Limits.Burst <= 0 {
		return fmt.Errorf("storage.limits rps and burst must be positive")
	}
	if err := c.GroupingConfig().Validate(); err != nil {
		return fmt.Errorf("grouping: %w", err)
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// GroupingConfig resolves the classifier thresholds
func (c Config) GroupingConfig() grouping.Config {
	return grouping.DefaultConfig().Apply(c.Grouping)
}

// Addr is the listen address of the API server
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}
