package cache

import (
	"context"
	"time"
)

// Backend is the key-value store cached entries live in. Implementations must
// be safe for concurrent use. Batched calls are expected to be a single round
// trip to the underlying store.
type Backend interface {
	// Get returns the payload stored under key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// GetList returns payloads aligned with keys. Missing entries are nil.
	GetList(ctx context.Context, keys []string) ([][]byte, error)

	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteMulti removes every key. Absent keys are not an error.
	DeleteMulti(ctx context.Context, keys []string) error
}

// ClosableBackend is a Backend holding connections or files.
type ClosableBackend interface {
	Backend
	Close() error
}

// FixedTTLBackend is a Backend that applies one lifetime to every entry and
// ignores the ttl passed to Set.
type FixedTTLBackend interface {
	Backend
	FixedTTL() time.Duration
}
