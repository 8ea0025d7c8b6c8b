// Package memstore is an in-process store.Store used by tests and demos.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
)

// Operation names used by Calls and SetError.
const (
	OpGet       = "get"
	OpGetIDs    = "get_ids"
	OpCreate    = "create"
	OpUpdateRow = "update_row"
	OpDelete    = "delete"
	OpCalcCount = "calc_count"
)

// Store keeps rows in memory and records how often each operation ran.
type Store struct {
	table   string
	primary string
	rows    *xsync.MapOf[store.ID, store.Fields]
	seq     atomic.Int64
	calls   *xsync.MapOf[string, int]

	mu     sync.RWMutex
	errors map[string]error
}

var _ store.Store = (*Store)(nil)

// New creates an empty store for table keyed by the primary column.
func New(table, primary string) *Store {
	return &Store{
		table:   table,
		primary: primary,
		rows:    xsync.NewMapOf[store.ID, store.Fields](),
		calls:   xsync.NewMapOf[string, int](),
		errors:  make(map[string]error),
	}
}

// Calls returns how many times op ran.
func (s *Store) Calls(op string) int {
	n, _ := s.calls.Load(op)
	return n
}

// Writes returns the number of create, update and delete calls.
func (s *Store) Writes() int {
	return s.Calls(OpCreate) + s.Calls(OpUpdateRow) + s.Calls(OpDelete)
}

// ResetCalls clears the operation counters.
func (s *Store) ResetCalls() {
	s.calls.Clear()
}

// SetError makes op fail with err until it is cleared with a nil err.
func (s *Store) SetError(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errors, op)
		return
	}
	s.errors[op] = err
}

func (s *Store) enter(op string) error {
	s.calls.Compute(op, func(old int, _ bool) (int, bool) {
		return old + 1, false
	})
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.errors[op]; err != nil {
		return store.Failure(err, s.table, op)
	}
	return nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id store.ID) (store.Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.enter(OpGet); err != nil {
		return nil, err
	}
	row, ok := s.rows.Load(id)
	if !ok {
		return nil, store.NotFound(s.table, id)
	}
	return row.Clone(), nil
}

// GetIDs implements store.Store.
func (s *Store) GetIDs(ctx context.Context, conds store.Conditions, window store.Window, order keys.Order) ([]store.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.enter(OpGetIDs); err != nil {
		return nil, err
	}

	rows := s.match(conds)
	sort.SliceStable(rows, func(i, j int) bool {
		return s.less(rows[i], rows[j], order)
	})

	ids := make([]store.ID, len(rows))
	for i, row := range rows {
		ids[i] = row[s.primary].(store.ID)
	}
	return append([]store.ID(nil), window.Apply(ids)...), nil
}

// Create implements store.Store.
func (s *Store) Create(ctx context.Context, fields store.Fields) (store.ID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.enter(OpCreate); err != nil {
		return 0, err
	}
	id := s.seq.Add(1)
	row := fields.Clone()
	if row == nil {
		row = store.Fields{}
	}
	row[s.primary] = id
	s.rows.Store(id, row)
	return id, nil
}

// UpdateRow implements store.Store.
func (s *Store) UpdateRow(ctx context.Context, id store.ID, fields store.Fields) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.enter(OpUpdateRow); err != nil {
		return 0, err
	}
	var affected int64
	s.rows.Compute(id, func(old store.Fields, loaded bool) (store.Fields, bool) {
		if !loaded {
			return old, true
		}
		row := old.Clone()
		for k, v := range fields {
			if k == s.primary {
				continue
			}
			row[k] = v
		}
		affected = 1
		return row, false
	})
	return affected, nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, id store.ID) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.enter(OpDelete); err != nil {
		return 0, err
	}
	if _, ok := s.rows.LoadAndDelete(id); ok {
		return 1, nil
	}
	return 0, nil
}

// CalcCount implements store.Store.
func (s *Store) CalcCount(ctx context.Context, conds store.Conditions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.enter(OpCalcCount); err != nil {
		return 0, err
	}
	return len(s.match(conds)), nil
}

func (s *Store) match(conds store.Conditions) []store.Fields {
	var out []store.Fields
	s.rows.Range(func(_ store.ID, row store.Fields) bool {
		for k, want := range conds {
			if !keys.Equal(row[k], want) {
				return true
			}
		}
		out = append(out, row)
		return true
	})
	return out
}

// less orders rows by order, breaking ties on the primary key.
func (s *Store) less(a, b store.Fields, order keys.Order) bool {
	for _, k := range order {
		c := compare(a[k.Field], b[k.Field])
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return a[s.primary].(store.ID) < b[s.primary].(store.ID)
}

func compare(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(keys.Canonical(a), keys.Canonical(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
