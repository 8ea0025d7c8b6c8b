package cacheinfra

import (
	"context"
	"sort"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/viccon/sturdyc"
)

// DefaultTTL is the lifetime of every cache entry unless configured otherwise.
const DefaultTTL = time.Hour

// Config holds the configuration for the sturdyc cache adapter.
type Config struct {
	// Capacity defines the maximum number of entries that the cache can store.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Higher values improve concurrency but increase memory overhead.
	NumShards int

	// TTL is the time-to-live for cached entries. sturdyc applies a single
	// TTL per client, so per call TTLs are ignored by this backend.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the cache reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the cache checks for expired entries.
	// Zero value uses the default interval.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for most use cases.
func DefaultConfig() Config {
	return Config{
		Capacity:           10000,
		NumShards:          256,
		TTL:                DefaultTTL,
		EvictionPercentage: 10,
	}
}

// ToSturdycOptions converts the optional parts of Config to sturdyc options.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New().
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option
	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}
	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	positive := "must be greater than 0"
	percentage := "must be between 1 and 100"
	return asConfigError(validation.ValidateStruct(&c,
		validation.Field(&c.Capacity, validation.Required.Error(positive), validation.Min(1).Error(positive)),
		validation.Field(&c.NumShards, validation.Required.Error(positive), validation.Min(1).Error(positive)),
		validation.Field(&c.TTL, validation.Required.Error(positive), validation.Min(time.Nanosecond).Error(positive)),
		validation.Field(&c.EvictionPercentage,
			validation.Required.Error(percentage),
			validation.Min(1).Error(percentage),
			validation.Max(100).Error(percentage),
		),
		validation.Field(&c.EvictionInterval, validation.Min(time.Duration(0)).Error("must be non-negative")),
	))
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// asConfigError reports the first failing field, by name, as a ConfigError.
func asConfigError(err error) error {
	if err == nil {
		return nil
	}
	errs, ok := err.(validation.Errors)
	if !ok || len(errs) == 0 {
		return err
	}
	fields := make([]string, 0, len(errs))
	for name := range errs {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return &ConfigError{Field: fields[0], Message: errs[fields[0]].Error()}
}

// SturdycBackend keeps encoded entries in an in-process sturdyc client.
type SturdycBackend struct {
	client *sturdyc.Client[[]byte]
	ttl    time.Duration
}

// NewSturdycBackend validates cfg and creates an in-process backend.
func NewSturdycBackend(cfg Config) (*SturdycBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycBackend{client: client, ttl: cfg.TTL}, nil
}

// Get returns the entry stored under key.
func (s *SturdycBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, ok := s.client.Get(key)
	return value, ok, nil
}

// GetList returns the entries for keys, aligned with the input. Missing
// entries are nil.
func (s *SturdycBackend) GetList(ctx context.Context, keys []string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	found := s.client.GetMany(keys)
	out := make([][]byte, len(keys))
	for i, key := range keys {
		out[i] = found[key]
	}
	return out, nil
}

// Set stores value under key with the client-wide TTL.
func (s *SturdycBackend) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.client.Set(key, value)
	return nil
}

// DeleteMulti removes every key in one pass over the shards.
func (s *SturdycBackend) DeleteMulti(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range keys {
		s.client.Delete(key)
	}
	return nil
}

// Size returns the number of stored entries.
func (s *SturdycBackend) Size() int {
	return s.client.Size()
}

// FixedTTL returns the client-wide lifetime applied to every entry.
func (s *SturdycBackend) FixedTTL() time.Duration {
	return s.ttl
}
