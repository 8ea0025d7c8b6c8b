package cache

import (
	"time"

	"github.com/goliatone/go-orm-cache/internal/cacheinfra"
)

// Config exposes the in-process backend options for consumers of the cache
// package.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

// NewMemoryBackend constructs the default in-process backend.
func NewMemoryBackend(cfg Config) (Backend, error) {
	backend, err := cacheinfra.NewSturdycBackend(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// RedisConfig selects a Redis server for NewRedisBackend.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// DefaultRedisConfig returns a RedisConfig pointing at a local server.
func DefaultRedisConfig() RedisConfig {
	cfg := cacheinfra.DefaultRedisConfig()
	return RedisConfig{Address: cfg.Address, KeyPrefix: cfg.KeyPrefix}
}

// NewRedisBackend connects to Redis. The connection is checked before
// returning.
func NewRedisBackend(cfg RedisConfig) (ClosableBackend, error) {
	backend, err := cacheinfra.NewRedisBackend(cacheinfra.DefaultRedisConfig(),
		cacheinfra.WithRedisAddress(cfg.Address),
		cacheinfra.WithRedisPassword(cfg.Password),
		cacheinfra.WithRedisDB(cfg.DB),
		cacheinfra.WithRedisKeyPrefix(cfg.KeyPrefix),
	)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

// BadgerConfig selects where NewBadgerBackend keeps its data. An empty Dir
// keeps everything in memory.
type BadgerConfig struct {
	Dir       string
	KeyPrefix string
}

// NewBadgerBackend opens an embedded BadgerDB backend.
func NewBadgerBackend(cfg BadgerConfig) (ClosableBackend, error) {
	opts := []cacheinfra.BadgerOption{cacheinfra.WithBadgerKeyPrefix(cfg.KeyPrefix)}
	if cfg.Dir != "" {
		opts = append(opts, cacheinfra.WithBadgerDir(cfg.Dir))
	}
	backend, err := cacheinfra.NewBadgerBackend(cacheinfra.DefaultBadgerConfig(), opts...)
	if err != nil {
		return nil, err
	}
	return backend, nil
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
