// Package cache keeps merged scenario batches close to the review service.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/setuplab/internal/domain/setup"
)

// KeyPrefix namespaces every key the cache writes
const KeyPrefix = "setuplab:setups:"

// Cache stores merged setup batches by scenario. Classification results are
// never cached; they are recomputed from the batch on every request.
type Cache interface {
	Get(ctx context.Context, scenario string) ([]setup.Setup, bool, error)
	Set(ctx context.Context, scenario string, batch []setup.Setup) error
	Delete(ctx context.Context, scenario string) error
}

// Backends selectable in Config
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and configures the cache backend
type Config struct {
	Backend    string        `yaml:"backend"`
	Addr       string        `yaml:"addr"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

// DefaultConfig returns an in-process cache with a 10 minute TTL
func DefaultConfig() Config {
	return Config{
		Backend:    BackendMemory,
		Addr:       "localhost:6379",
		TTL:        10 * time.Minute,
		MaxEntries: 64,
	}
}

// RedisCache stores batches as JSON
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// New builds the configured backend
func New(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendNone, "":
		log.Info().Msg("Setup cache disabled")
		return NopCache{}, nil
	case BackendMemory:
		log.Info().Int("max_entries", cfg.MaxEntries).Dur("ttl", cfg.TTL).Msg("Setup cache in memory")
		return NewTTLCache(cfg.MaxEntries, cfg.TTL), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		log.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("Setup cache on redis")
		return NewRedisCache(client, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Key returns the redis key for a scenario
func Key(scenario string) string {
	return KeyPrefix + scenario
}

// Get returns the cached batch. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context, scenario string) ([]setup.Setup, bool, error) {
	data, err := c.client.Get(ctx, Key(scenario)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", scenario, err)
	}

	var batch []setup.Setup
	if err := json.Unmarshal([]byte(data), &batch); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached setups: %w", err)
	}
	return batch, true, nil
}

// Set stores the batch with the configured TTL
func (c *RedisCache) Set(ctx context.Context, scenario string, batch []setup.Setup) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal setups: %w", err)
	}
	if err := c.client.Set(ctx, Key(scenario), string(data), c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", scenario, err)
	}
	return nil
}

// Delete drops the cached batch
func (c *RedisCache) Delete(ctx context.Context, scenario string) error {
	if err := c.client.Del(ctx, Key(scenario)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", scenario, err)
	}
	return nil
}

// Ping checks the connection
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]setup.Setup, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, []setup.Setup) error         { return nil }
func (NopCache) Delete(context.Context, string) error                     { return nil }
