package ormcache

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-orm-cache/internal/logging"
	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
	"github.com/goliatone/go-orm-cache/store/memstore"
)

// recordingBackend is an in-memory cache.Backend that records every call.
type recordingBackend struct {
	mu      sync.Mutex
	data    map[string][]byte
	sets    []string
	deletes [][]string
	batches int
	err     error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{data: make(map[string][]byte)}
}

func (b *recordingBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, false, b.err
	}
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *recordingBackend) GetList(ctx context.Context, keys []string) ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batches++
	if b.err != nil {
		return nil, b.err
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = b.data[k]
	}
	return out, nil
}

func (b *recordingBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.sets = append(b.sets, key)
	b.data[key] = value
	return nil
}

func (b *recordingBackend) DeleteMulti(ctx context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, append([]string(nil), keys...))
	if b.err != nil {
		return b.err
	}
	for _, k := range keys {
		delete(b.data, k)
	}
	return nil
}

func (b *recordingBackend) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *recordingBackend) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok
}

func (b *recordingBackend) deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, batch := range b.deletes {
		out = append(out, batch...)
	}
	return out
}

func (b *recordingBackend) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sets = nil
	b.deletes = nil
	b.batches = 0
}

func userSchema() Schema {
	return Schema{
		Name:    "User",
		Version: "v1",
		Primary: keys.NewField("id", keys.Ascending),
		Fields: []keys.Field{
			keys.NewField("status", keys.IndexOnly).WithDefault("A"),
			keys.NewField("score", keys.AscendingAndDescending).WithDefault(int64(0)),
			keys.NewField("email", keys.NotIndexed),
		},
		Combinations: [][]string{{"status", "score"}},
	}
}

type fixture struct {
	manager *Manager
	store   *memstore.Store
	backend *recordingBackend
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	logs := &bytes.Buffer{}
	st := memstore.New("users", "id")
	backend := newRecordingBackend()

	opts = append([]Option{WithLogger(logging.New(logging.Config{Level: "warn", Output: logs}))}, opts...)
	m, err := NewManager(userSchema(), st, backend, opts...)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	return &fixture{manager: m, store: st, backend: backend, logs: logs}
}

func (f *fixture) create(t *testing.T, fields store.Fields) *Record {
	t.Helper()
	rec, err := f.manager.Create(context.Background(), fields)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return rec
}

func (f *fixture) getsBy(t *testing.T, q Query) []store.ID {
	t.Helper()
	recs, err := f.manager.GetsBy(context.Background(), q)
	if err != nil {
		t.Fatalf("GetsBy() error = %v", err)
	}
	return ids(recs)
}

func ids(recs []*Record) []store.ID {
	out := make([]store.ID, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}

func contains(ids []store.ID, id store.ID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func equalIDs(a, b []store.ID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func byStatus(status string) Query {
	return Query{Conditions: store.Conditions{"status": status}}
}
