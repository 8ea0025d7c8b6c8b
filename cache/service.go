package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/goliatone/go-orm-cache/internal/logging"
)

// DefaultTTL is the lifetime of every entry written through a Service.
const DefaultTTL = time.Hour

// FetchFn loads a value from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// Stats counts cache lookups served by a Service.
type Stats struct {
	Hits   int64
	Misses int64
}

// Service puts a Codec and a TTL in front of a Backend. Backend failures never
// reach the caller: reads degrade to misses and writes or deletes are logged
// and dropped, leaving stale entries to expire with their TTL.
type Service struct {
	backend Backend
	codec   Codec
	ttl     time.Duration
	logger  *bolt.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Service.
type Option func(*Service)

// WithCodec replaces the msgpack codec.
func WithCodec(codec Codec) Option {
	return func(s *Service) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithTTL sets the lifetime of written entries.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report degraded operations.
func WithLogger(logger *bolt.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service over backend.
func NewService(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend: backend,
		codec:   MsgpackCodec{},
		ttl:     DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.Get()
	}
	if fixed, ok := backend.(FixedTTLBackend); ok && fixed.FixedTTL() != s.ttl {
		logging.With(s.logger.Warn(),
			logging.Component("cache"), logging.TTL(s.ttl), logging.BackendTTL(fixed.FixedTTL()),
		).Msg("backend applies its own ttl, requested ttl is ignored")
	}
	return s
}

// TTL returns the lifetime of written entries.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Stats returns hit and miss counters.
func (s *Service) Stats() Stats {
	return Stats{Hits: s.hits.Load(), Misses: s.misses.Load()}
}

// Load decodes the entry under key into dst and reports whether it was used.
func (s *Service) Load(ctx context.Context, key string, dst any) bool {
	payload, ok, err := s.backend.Get(ctx, key)
	if err != nil {
		s.warn("get", err, logging.Key(key))
		s.misses.Add(1)
		return false
	}
	if !ok {
		s.misses.Add(1)
		return false
	}
	if err := s.codec.Unmarshal(payload, dst); err != nil {
		s.warn("decode", err, logging.Key(key))
		s.misses.Add(1)
		return false
	}
	s.hits.Add(1)
	return true
}

// LoadList reads keys in one batch. For every entry found, the payload is
// decoded into dst(i). The returned flags are aligned with keys.
func (s *Service) LoadList(ctx context.Context, keys []string, dst func(i int) any) []bool {
	found := make([]bool, len(keys))
	if len(keys) == 0 {
		return found
	}

	payloads, err := s.backend.GetList(ctx, keys)
	if err != nil || len(payloads) != len(keys) {
		s.warn("get_list", err, logging.Count(len(keys)))
		s.misses.Add(int64(len(keys)))
		return found
	}

	for i, payload := range payloads {
		if payload == nil {
			s.misses.Add(1)
			continue
		}
		if err := s.codec.Unmarshal(payload, dst(i)); err != nil {
			s.warn("decode", err, logging.Key(keys[i]))
			s.misses.Add(1)
			continue
		}
		found[i] = true
		s.hits.Add(1)
	}
	return found
}

// Store encodes value and writes it under key.
func (s *Service) Store(ctx context.Context, key string, value any) {
	payload, err := s.codec.Marshal(value)
	if err != nil {
		s.warn("encode", err, logging.Key(key))
		return
	}
	if err := s.backend.Set(ctx, key, payload, s.ttl); err != nil {
		s.warn("set", err, logging.Key(key))
	}
}

// Invalidate deletes keys in one batch. Duplicates and empty keys are
// dropped, and nothing is sent when no key remains.
func (s *Service) Invalidate(ctx context.Context, keys []string) {
	unique := dedupe(keys)
	if len(unique) == 0 {
		return
	}
	if err := s.backend.DeleteMulti(ctx, unique); err != nil {
		s.warn("delete", err, logging.Count(len(unique)))
	}
}

func (s *Service) warn(op string, err error, fields ...logging.Field) {
	fields = append([]logging.Field{
		logging.Component("cache"),
		logging.Operation(op),
		logging.ErrorField(err),
	}, fields...)
	logging.With(s.logger.Warn(), fields...).Msg("cache degraded, continuing without it")
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

// GetOrFetch returns the value cached under key, or calls fetch and caches
// its result. force skips the read but still writes the fresh value. Fetch
// errors are returned and never cached.
func GetOrFetch[T any](ctx context.Context, s *Service, key string, force bool, fetch FetchFn[T]) (T, error) {
	if !force {
		var cached T
		if s.Load(ctx, key, &cached) {
			return cached, nil
		}
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	s.Store(ctx, key, value)
	return value, nil
}
