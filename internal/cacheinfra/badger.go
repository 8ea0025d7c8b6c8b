package cacheinfra

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	goerrors "github.com/goliatone/go-errors"
)

// BadgerConfig configures the embedded BadgerDB backend.
type BadgerConfig struct {
	// Dir is the directory to store data in. Ignored when InMemory is set.
	Dir string

	// InMemory keeps every entry in memory (useful for testing).
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// GCDiscardRatio is the discard ratio for value log GC.
	GCDiscardRatio float64

	// GCInterval is the interval between GC runs. Zero disables GC.
	GCInterval time.Duration

	// KeyPrefix is added to all keys.
	KeyPrefix string
}

// DefaultBadgerConfig returns an in-memory configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		InMemory:       true,
		GCDiscardRatio: 0.5,
		GCInterval:     5 * time.Minute,
	}
}

// BadgerOption configures the BadgerDB backend.
type BadgerOption func(*BadgerConfig)

// WithBadgerDir stores data on disk under dir.
func WithBadgerDir(dir string) BadgerOption {
	return func(c *BadgerConfig) {
		c.Dir = dir
		c.InMemory = false
	}
}

// WithBadgerKeyPrefix sets the key prefix.
func WithBadgerKeyPrefix(prefix string) BadgerOption {
	return func(c *BadgerConfig) {
		c.KeyPrefix = prefix
	}
}

// WithBadgerGCInterval sets the GC interval.
func WithBadgerGCInterval(d time.Duration) BadgerOption {
	return func(c *BadgerConfig) {
		c.GCInterval = d
	}
}

// badgerBackend stores encoded entries in an embedded BadgerDB.
type badgerBackend struct {
	db        *badger.DB
	keyPrefix string
	gcStop    chan struct{}
	gcWg      sync.WaitGroup
	closeOnce sync.Once
}

// NewBadgerBackend opens a BadgerDB and starts value log GC when configured.
func NewBadgerBackend(cfg BadgerConfig, opts ...BadgerOption) (*badgerBackend, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	options := badger.DefaultOptions(cfg.Dir).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		options = options.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "badger open failed").
			WithMetadata(map[string]any{"dir": cfg.Dir, "in_memory": cfg.InMemory})
	}

	b := &badgerBackend{
		db:        db,
		keyPrefix: cfg.KeyPrefix,
		gcStop:    make(chan struct{}),
	}
	if cfg.GCInterval > 0 && !cfg.InMemory {
		b.startGC(cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return b, nil
}

func (b *badgerBackend) startGC(interval time.Duration, discardRatio float64) {
	b.gcWg.Add(1)
	go func() {
		defer b.gcWg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-b.gcStop:
				return
			case <-ticker.C:
				for b.db.RunValueLogGC(discardRatio) == nil {
				}
			}
		}
	}()
}

func (b *badgerBackend) prefixKey(key string) []byte {
	return []byte(b.keyPrefix + key)
}

// Get returns the entry stored under key.
func (b *badgerBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.prefixKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// GetList reads every key inside one read transaction.
func (b *badgerBackend) GetList(ctx context.Context, keys []string) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]byte, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(b.prefixKey(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if out[i], err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set stores value under key. A non-positive ttl stores without expiry.
func (b *badgerBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(b.prefixKey(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// DeleteMulti removes every key inside one write transaction.
func (b *badgerBackend) DeleteMulti(ctx context.Context, keys []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	return b.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(b.prefixKey(key)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close stops GC and closes the database.
func (b *badgerBackend) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.gcStop)
		b.gcWg.Wait()
		err = b.db.Close()
	})
	return err
}
