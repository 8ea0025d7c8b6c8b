// Package bunstore implements store.Store on a bun database handle. Rows are
// read and written as column maps so any table can be served without a model
// struct.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
)

// Store reads and writes one table through bun.
type Store struct {
	db      bun.IDB
	table   string
	primary string
}

var _ store.Store = (*Store)(nil)

// New returns a Store for table keyed by the primary column. db may be a
// *bun.DB or a bun.Tx.
func New(db bun.IDB, table, primary string) *Store {
	return &Store{db: db, table: table, primary: primary}
}

// Table returns the table name.
func (s *Store) Table() string { return s.table }

// Get returns one row as a column map.
func (s *Store) Get(ctx context.Context, id store.ID) (store.Fields, error) {
	row := map[string]any{}
	err := s.db.NewSelect().
		TableExpr("?", bun.Ident(s.table)).
		Where("? = ?", bun.Ident(s.primary), id).
		Limit(1).
		Scan(ctx, &row)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && len(row) == 0) {
		return nil, store.NotFound(s.table, id)
	}
	if err != nil {
		return nil, err
	}
	return normalize(row), nil
}

// GetIDs returns matching primary keys. Ties in order are broken on the
// primary key so windows are stable.
func (s *Store) GetIDs(ctx context.Context, conds store.Conditions, window store.Window, order keys.Order) ([]store.ID, error) {
	q := s.db.NewSelect().
		TableExpr("?", bun.Ident(s.table)).
		ColumnExpr("?", bun.Ident(s.primary))
	q = s.where(q, conds)
	q = s.orderBy(q, order)
	q = Paginate(q, window)

	ids := []store.ID{}
	if err := q.Scan(ctx, &ids); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return ids, nil
}

// Create inserts fields and returns the generated primary key.
func (s *Store) Create(ctx context.Context, fields store.Fields) (store.ID, error) {
	values := map[string]any(fields.Clone())
	delete(values, s.primary)
	if len(values) == 0 {
		return 0, goerrors.New("no columns to insert", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"table": s.table})
	}

	var id store.ID
	err := s.db.NewInsert().
		Model(&values).
		TableExpr("?", bun.Ident(s.table)).
		Returning("?", bun.Ident(s.primary)).
		Scan(ctx, &id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdateRow sets the given columns on one row. The primary key is never
// rewritten.
func (s *Store) UpdateRow(ctx context.Context, id store.ID, fields store.Fields) (int64, error) {
	values := map[string]any(fields.Clone())
	delete(values, s.primary)
	if len(values) == 0 {
		return 0, nil
	}

	res, err := s.db.NewUpdate().
		Model(&values).
		TableExpr("?", bun.Ident(s.table)).
		Where("? = ?", bun.Ident(s.primary), id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes one row.
func (s *Store) Delete(ctx context.Context, id store.ID) (int64, error) {
	res, err := s.db.NewDelete().
		TableExpr("?", bun.Ident(s.table)).
		Where("? = ?", bun.Ident(s.primary), id).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CalcCount counts matching rows.
func (s *Store) CalcCount(ctx context.Context, conds store.Conditions) (int, error) {
	q := s.db.NewSelect().TableExpr("?", bun.Ident(s.table))
	return s.where(q, conds).Count(ctx)
}

func (s *Store) where(q *bun.SelectQuery, conds store.Conditions) *bun.SelectQuery {
	names := conds.Names()
	sort.Strings(names)
	for _, name := range names {
		if v := conds[name]; v == nil {
			q = q.Where("? IS NULL", bun.Ident(name))
		} else {
			q = q.Where("? = ?", bun.Ident(name), v)
		}
	}
	return q
}

func (s *Store) orderBy(q *bun.SelectQuery, order keys.Order) *bun.SelectQuery {
	tiebreak := true
	for _, k := range order {
		if k.Field == s.primary {
			tiebreak = false
		}
		if k.Desc {
			q = q.OrderExpr("? DESC", bun.Ident(k.Field))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(k.Field))
		}
	}
	if tiebreak {
		q = q.OrderExpr("? ASC", bun.Ident(s.primary))
	}
	return q
}

// normalize converts driver specific representations so cached rows compare
// equal to freshly loaded ones.
func normalize(row map[string]any) store.Fields {
	out := make(store.Fields, len(row))
	for k, v := range row {
		switch val := v.(type) {
		case []byte:
			out[k] = string(val)
		case int:
			out[k] = int64(val)
		case int32:
			out[k] = int64(val)
		default:
			out[k] = v
		}
	}
	return out
}

// Paginate applies window to q. An unbounded window clears any limit already
// set on q, so it also undoes defaults such as the page size go-repository-bun
// puts on every List.
func Paginate(q *bun.SelectQuery, window store.Window) *bun.SelectQuery {
	switch {
	case window.Bounded():
		q = q.Limit(clampLimit(window.Limit))
	case window.Start > 0 && q.Dialect().Name() == dialect.SQLite:
		// SQLite rejects OFFSET without LIMIT and bun drops non-positive limits.
		q = q.Limit(math.MaxInt32)
	default:
		q = q.Limit(0)
	}
	if window.Start > 0 {
		q = q.Offset(window.Start)
	} else {
		q = q.Offset(0)
	}
	return q
}

// clampLimit keeps n within the int32 bun stores limits in.
func clampLimit(n int) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return n
}
