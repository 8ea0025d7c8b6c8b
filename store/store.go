// Package store defines the relational store contract the cache layer reads
// through and writes to.
package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-orm-cache/keys"
)

// ID is a primary key value.
type ID = int64

// Fields maps column names to values.
type Fields map[string]any

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Conditions are equality filters keyed by column name.
type Conditions map[string]any

// Names returns the filtered column names.
func (c Conditions) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	return names
}

// AsID converts any integer value, as decoded by a driver or a codec, to an ID.
func AsID(v any) (ID, bool) {
	rv := reflect.ValueOf(v)
	switch {
	case !rv.IsValid():
		return 0, false
	case rv.CanInt():
		return rv.Int(), true
	case rv.CanUint():
		return ID(rv.Uint()), true
	default:
		return 0, false
	}
}

// Unbounded is the Limit of a window without an upper bound.
const Unbounded = math.MaxInt

// Window is a (start, limit) pagination window.
type Window struct {
	Start int
	Limit int
}

// All is the window covering the whole result set.
var All = Window{Start: 0, Limit: Unbounded}

// IsAll reports whether w selects every row.
func (w Window) IsAll() bool {
	return w.Start <= 0 && (w.Limit <= 0 || w.Limit == Unbounded)
}

// Bounded reports whether w carries an upper bound.
func (w Window) Bounded() bool {
	return w.Limit > 0 && w.Limit != Unbounded
}

// Apply slices ids to the window.
func (w Window) Apply(ids []ID) []ID {
	start := w.Start
	if start < 0 {
		start = 0
	}
	if start >= len(ids) {
		return []ID{}
	}
	end := len(ids)
	if w.Bounded() && w.Limit < end-start {
		end = start + w.Limit
	}
	return ids[start:end]
}

// Store executes reads and writes against the relational store, keyed by
// primary key or by equality conditions. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the row with the given primary key or ErrNotFound.
	Get(ctx context.Context, id ID) (Fields, error)
	// GetIDs returns the primary keys matching conds under order and window.
	GetIDs(ctx context.Context, conds Conditions, window Window, order keys.Order) ([]ID, error)
	// Create inserts a row and returns its new primary key.
	Create(ctx context.Context, fields Fields) (ID, error)
	// UpdateRow updates the given columns of one row.
	UpdateRow(ctx context.Context, id ID, fields Fields) (int64, error)
	// Delete removes one row.
	Delete(ctx context.Context, id ID) (int64, error)
	// CalcCount counts the rows matching conds.
	CalcCount(ctx context.Context, conds Conditions) (int, error)
}

// ErrNotFound is returned by Store.Get when no row has the requested key.
var ErrNotFound = goerrors.New("record not found", goerrors.CategoryNotFound)

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NotFound wraps ErrNotFound with the table and key that were requested.
func NotFound(table string, id ID) error {
	return fmt.Errorf("%s id %d: %w", table, id, ErrNotFound)
}

// Failure wraps a store error with the operation that produced it.
// The original error stays reachable through errors.Is and errors.As.
func Failure(err error, table, op string) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "store "+op+" failed").
		WithMetadata(map[string]any{"table": table, "operation": op})
}
