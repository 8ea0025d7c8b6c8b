package cacheinfra

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.TTL != time.Hour {
		t.Errorf("expected TTL to be one hour, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := DefaultConfig()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
		errorMsg  string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:      "zero capacity",
			mutate:    func(c *Config) { c.Capacity = 0 },
			wantField: "Capacity",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "negative shards",
			mutate:    func(c *Config) { c.NumShards = -1 },
			wantField: "NumShards",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "zero ttl",
			mutate:    func(c *Config) { c.TTL = 0 },
			wantField: "TTL",
			errorMsg:  "must be greater than 0",
		},
		{
			name:      "eviction percentage too high",
			mutate:    func(c *Config) { c.EvictionPercentage = 101 },
			wantField: "EvictionPercentage",
			errorMsg:  "must be between 1 and 100",
		},
		{
			name:      "eviction percentage zero",
			mutate:    func(c *Config) { c.EvictionPercentage = 0 },
			wantField: "EvictionPercentage",
			errorMsg:  "must be between 1 and 100",
		},
		{
			name:      "negative eviction interval",
			mutate:    func(c *Config) { c.EvictionInterval = -time.Second },
			wantField: "EvictionInterval",
			errorMsg:  "must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %T (%v)", err, err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, cfgErr.Field)
			}
			if !strings.Contains(cfgErr.Error(), tt.errorMsg) {
				t.Errorf("expected error containing %q, got %q", tt.errorMsg, cfgErr.Error())
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	cfg := DefaultConfig()
	if opts := cfg.ToSturdycOptions(); len(opts) != 0 {
		t.Errorf("expected no options for default config, got %d", len(opts))
	}

	cfg.EvictionInterval = 30 * time.Second
	if opts := cfg.ToSturdycOptions(); len(opts) != 1 {
		t.Errorf("expected 1 option with eviction interval, got %d", len(opts))
	}
}

func TestNewSturdycBackend_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = -5

	if _, err := NewSturdycBackend(cfg); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func TestSturdycBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend, err := NewSturdycBackend(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSturdycBackend() error = %v", err)
	}

	if _, ok, err := backend.Get(ctx, "missing"); ok || err != nil {
		t.Errorf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := backend.Set(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := backend.Set(ctx, "b", []byte("2"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	value, ok, err := backend.Get(ctx, "a")
	if err != nil || !ok || string(value) != "1" {
		t.Errorf("Get(a) = %q, %v, %v", value, ok, err)
	}

	list, err := backend.GetList(ctx, []string{"b", "missing", "a"})
	if err != nil {
		t.Fatalf("GetList() error = %v", err)
	}
	if len(list) != 3 || string(list[0]) != "2" || list[1] != nil || string(list[2]) != "1" {
		t.Errorf("GetList() = %q, want aligned [2 <nil> 1]", list)
	}

	if err := backend.DeleteMulti(ctx, []string{"a", "b", "never-set"}); err != nil {
		t.Fatalf("DeleteMulti() error = %v", err)
	}
	if backend.Size() != 0 {
		t.Errorf("Size() after DeleteMulti = %d, want 0", backend.Size())
	}
}

func TestSturdycBackend_CanceledContext(t *testing.T) {
	backend, err := NewSturdycBackend(DefaultConfig())
	if err != nil {
		t.Fatalf("NewSturdycBackend() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := backend.Get(ctx, "a"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if err := backend.Set(ctx, "a", []byte("1"), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
}

func TestSturdycBackend_FixedTTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 90 * time.Second
	backend, err := NewSturdycBackend(cfg)
	if err != nil {
		t.Fatalf("NewSturdycBackend() error = %v", err)
	}
	if got := backend.FixedTTL(); got != cfg.TTL {
		t.Errorf("FixedTTL() = %v, want %v", got, cfg.TTL)
	}
}
