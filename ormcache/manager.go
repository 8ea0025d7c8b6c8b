package ormcache

import (
	"context"
	"sort"

	"github.com/felixgeelhaar/bolt/v3"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-orm-cache/cache"
	"github.com/goliatone/go-orm-cache/internal/logging"
	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
)

// Query selects rows by equality conditions. A zero Limit is unbounded and
// an empty OrderBy uses the default order of the primary field.
type Query struct {
	Conditions store.Conditions
	OrderBy    keys.Order
	Start      int
	Limit      int
	ForceFlush bool
}

func (q Query) window() store.Window {
	w := store.Window{Start: q.Start, Limit: q.Limit}
	if w.Limit <= 0 {
		w.Limit = store.Unbounded
	}
	return w
}

// Manager serves one entity type from the cache and keeps the cache
// coherent across writes made through it.
type Manager struct {
	schema   Schema
	table    string
	pk       string
	known    map[string]struct{}
	columns  []string
	registry *keys.Registry
	store    store.Store
	cache    *cache.Service
	objects  *objectCache
	config   Config
	logger   *bolt.Logger
	codec    cache.Codec
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithLogger sets the logger for the manager and its cache service.
func WithLogger(logger *bolt.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCodec replaces the msgpack codec.
func WithCodec(codec cache.Codec) Option {
	return func(m *Manager) {
		m.codec = codec
	}
}

// NewManager validates schema and builds its key templates.
func NewManager(schema Schema, st store.Store, backend cache.Backend, opts ...Option) (*Manager, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if st == nil || backend == nil {
		return nil, goerrors.New("manager requires a store and a cache backend", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"schema": schema.Name})
	}

	m := &Manager{
		schema: schema,
		table:  schema.TableName(),
		pk:     schema.Primary.Name,
		known:  make(map[string]struct{}),
		store:  st,
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	if m.logger == nil {
		m.logger = logging.Get()
	}

	registry, err := schema.registry()
	if err != nil {
		return nil, err
	}
	m.registry = registry

	for _, f := range schema.columns() {
		m.known[f.Name] = struct{}{}
		m.columns = append(m.columns, f.Name)
	}

	m.cache = cache.NewService(backend,
		cache.WithTTL(m.config.TTL),
		cache.WithLogger(m.logger),
		cache.WithCodec(m.codec),
	)
	m.objects = &objectCache{
		prefix: schema.objectPrefix(),
		table:  m.table,
		cache:  m.cache,
		store:  st,
	}
	return m, nil
}

// Store returns the store the manager reads through.
func (m *Manager) Store() store.Store {
	return m.store
}

// Registry returns the key templates of the entity type.
func (m *Manager) Registry() *keys.Registry {
	return m.registry
}

// Schema returns the entity declaration.
func (m *Manager) Schema() Schema {
	return m.schema
}

// CacheStats returns hit and miss counters of the manager's cache service.
func (m *Manager) CacheStats() cache.Stats {
	return m.cache.Stats()
}

// Get returns the record with primary key id, or nil when it does not exist.
func (m *Manager) Get(ctx context.Context, id store.ID, force bool) (*Record, error) {
	rows, err := m.objects.getOrLoad(ctx, []store.ID{id}, force)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return m.record(rows[0]), nil
}

// GetMultipleIDs returns the records for ids in input order, skipping ids
// that do not exist.
func (m *Manager) GetMultipleIDs(ctx context.Context, ids []store.ID) ([]*Record, error) {
	rows, err := m.objects.getOrLoad(ctx, ids, false)
	if err != nil {
		return nil, err
	}
	return m.records(rows), nil
}

// GetsBy returns the records matching q.
func (m *Manager) GetsBy(ctx context.Context, q Query) ([]*Record, error) {
	if err := m.checkFields(q.Conditions.Names()...); err != nil {
		return nil, err
	}
	order := q.OrderBy
	if len(order) == 0 {
		order = m.schema.Primary.DefaultOrder()
	} else if err := m.checkFields(order.Fields()...); err != nil {
		return nil, err
	}

	rows, err := m.fetch(ctx, q.ForceFlush, q.Conditions, order, q.window())
	if err != nil {
		return nil, err
	}
	return m.records(rows), nil
}

// queryPlan is decided once per fetch.
type queryPlan struct {
	cacheable bool
	template  *keys.Template
}

func (m *Manager) plan(conds store.Conditions, order keys.Order) queryPlan {
	if len(conds) == 0 {
		return queryPlan{}
	}
	t, ok := m.registry.LookupGetsBy(conds.Names(), order)
	if !ok {
		logging.With(m.logger.Debug(),
			logging.Component("ormcache"), logging.Table(m.table), logging.Operation("gets_by"),
		).Msg("query shape not registered, reading from store")
		return queryPlan{}
	}
	return queryPlan{cacheable: true, template: t}
}

// fetch resolves a list query. Cacheable shapes cache the full id list under
// the rendered key and slice the window in memory. Other shapes read the
// window straight from the store.
func (m *Manager) fetch(ctx context.Context, force bool, conds store.Conditions, order keys.Order, window store.Window) ([]store.Fields, error) {
	plan := m.plan(conds, order)
	if !plan.cacheable {
		ids, err := m.store.GetIDs(ctx, conds, window, order)
		if err != nil {
			return nil, store.Failure(err, m.table, "get_ids")
		}
		return m.objects.getOrLoad(ctx, ids, force)
	}

	key := plan.template.Render(conds)

	var ids []store.ID
	if force || !m.cache.Load(ctx, key, &ids) {
		loaded, err := m.store.GetIDs(ctx, conds, store.All, order)
		if err != nil {
			return nil, store.Failure(err, m.table, "get_ids")
		}
		ids = loaded
		if m.config.MaxCachedIDs == 0 || len(ids) <= m.config.MaxCachedIDs {
			m.cache.Store(ctx, key, ids)
		}
	}

	return m.objects.getOrLoad(ctx, window.Apply(ids), force)
}

// CountBy counts the rows matching conds.
func (m *Manager) CountBy(ctx context.Context, conds store.Conditions) (int, error) {
	if err := m.checkFields(conds.Names()...); err != nil {
		return 0, err
	}

	count := func(ctx context.Context) (int, error) {
		n, err := m.store.CalcCount(ctx, conds)
		if err != nil {
			return 0, store.Failure(err, m.table, "count")
		}
		return n, nil
	}

	t, ok := m.registry.LookupNormal(conds.Names())
	if !ok {
		return count(ctx)
	}
	return cache.GetOrFetch(ctx, m.cache, t.Render(conds), false, count)
}

// Create inserts a row built from the declared defaults overlaid with
// fields. Every key the new row could appear under is invalidated before
// the insert, and the keys of its primary key after it.
func (m *Manager) Create(ctx context.Context, fields store.Fields) (*Record, error) {
	data := m.schema.defaults()
	for name, v := range fields {
		if err := m.checkFields(name); err != nil {
			return nil, err
		}
		data[name] = v
	}

	m.cache.Invalidate(ctx, m.relatedKeys(m.columns, data))

	id, err := m.store.Create(ctx, data)
	if err != nil {
		return nil, store.Failure(err, m.table, "create")
	}
	data[m.pk] = id

	stale := m.relatedKeys([]string{m.pk}, data)
	m.cache.Invalidate(ctx, append(stale, m.objects.keysFor(id)...))

	return m.record(data), nil
}

// Save writes the dirty fields of rec and reloads it. It returns the number
// of affected rows; a clean record costs nothing.
func (m *Manager) Save(ctx context.Context, rec *Record) (int64, error) {
	if rec == nil {
		return 0, goerrors.New("cannot save a nil record", goerrors.CategoryValidation)
	}
	dirty := rec.Dirty()
	if len(dirty) == 0 {
		return 0, nil
	}

	id := rec.ID()
	stale := m.relatedKeys(dirty, rec.shadow)
	stale = append(stale, m.relatedKeys(dirty, rec.current)...)
	stale = append(stale, m.objects.keysFor(id)...)
	m.cache.Invalidate(ctx, stale)

	n, err := m.store.UpdateRow(ctx, id, rec.changes())
	if err != nil {
		return 0, store.Failure(err, m.table, "update")
	}

	row, err := m.store.Get(ctx, id)
	switch {
	case store.IsNotFound(err):
		rec.reset(rec.current)
	case err != nil:
		return n, store.Failure(err, m.table, "get")
	default:
		rec.reset(row)
	}
	return n, nil
}

// Delete removes rec. Keys are derived from both its current and loaded
// values so that unsaved edits cannot hide a stale entry.
func (m *Manager) Delete(ctx context.Context, rec *Record) (int64, error) {
	if rec == nil {
		return 0, goerrors.New("cannot delete a nil record", goerrors.CategoryValidation)
	}

	id := rec.ID()
	stale := m.relatedKeys(m.columns, rec.current)
	stale = append(stale, m.relatedKeys(m.columns, rec.shadow)...)
	stale = append(stale, m.objects.keysFor(id)...)
	m.cache.Invalidate(ctx, stale)

	n, err := m.store.Delete(ctx, id)
	if err != nil {
		return 0, store.Failure(err, m.table, "delete")
	}
	return n, nil
}

// relatedKeys renders every list and count key that mentions one of fields,
// using values for all template fields.
func (m *Manager) relatedKeys(fields []string, values store.Fields) []string {
	var out []string
	for _, f := range fields {
		for _, t := range m.registry.LookupRelated(f) {
			out = append(out, t.Render(values))
		}
	}
	return out
}

func (m *Manager) checkFields(names ...string) error {
	var unknown []string
	for _, name := range names {
		if _, ok := m.known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return goerrors.New("unknown field "+unknown[0]+" for "+m.table, goerrors.CategoryValidation).
		WithMetadata(map[string]any{"table": m.table, "fields": unknown})
}

func (m *Manager) record(row store.Fields) *Record {
	return newRecord(m.pk, m.known, row)
}

func (m *Manager) records(rows []store.Fields) []*Record {
	out := make([]*Record, len(rows))
	for i, row := range rows {
		out[i] = m.record(row)
	}
	return out
}

// GetsCustom caches the result of fn under a key built from name and the
// names and values of params. Custom keys are never invalidated by writes
// and live until their TTL expires.
func GetsCustom[T any](ctx context.Context, m *Manager, name string, params map[string]any, fn func(ctx context.Context, params map[string]any) (T, error)) (T, error) {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, name)
	for p := range params {
		parts = append(parts, p)
	}
	t, err := m.registry.LookupCustom(parts)
	if err != nil {
		var zero T
		return zero, err
	}
	return cache.GetOrFetch(ctx, m.cache, t.Render(params), false, func(ctx context.Context) (T, error) {
		return fn(ctx, params)
	})
}
