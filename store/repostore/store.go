// Package repostore adapts a go-repository-bun repository to store.Store so
// existing typed repositories can sit behind the query cache.
//
// The repository keeps its own model, hooks and soft delete rules. The adapter
// only translates between records and column maps through a Mapper and turns
// equality conditions, orders and windows into select criteria.
package repostore

import (
	"context"
	"sort"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
	"github.com/goliatone/go-orm-cache/store/bunstore"
)

// Mapper converts between repository records and column maps.
type Mapper[T any] struct {
	ToFields   func(T) store.Fields
	FromFields func(store.Fields) (T, error)
}

// Store serves store.Store from a typed repository.
type Store[T any] struct {
	repo    repository.Repository[T]
	mapper  Mapper[T]
	table   string
	primary string
}

var _ store.Store = (*Store[struct{}])(nil)

// New wraps repo. table is only used in error messages; primary is the column
// holding the integer primary key.
func New[T any](repo repository.Repository[T], mapper Mapper[T], table, primary string) (*Store[T], error) {
	if repo == nil {
		return nil, goerrors.New("repository is required", goerrors.CategoryValidation)
	}
	if mapper.ToFields == nil || mapper.FromFields == nil {
		return nil, goerrors.New("mapper needs both ToFields and FromFields", goerrors.CategoryValidation)
	}
	return &Store[T]{repo: repo, mapper: mapper, table: table, primary: primary}, nil
}

// Get returns the record with id as a column map.
func (s *Store[T]) Get(ctx context.Context, id store.ID) (store.Fields, error) {
	record, ok, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, store.NotFound(s.table, id)
	}
	return s.mapper.ToFields(record), nil
}

// GetIDs lists matching records and returns their primary keys.
func (s *Store[T]) GetIDs(ctx context.Context, conds store.Conditions, window store.Window, order keys.Order) ([]store.ID, error) {
	criteria := append(s.where(conds), s.orderBy(order), paginate(window))
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}

	ids := make([]store.ID, 0, len(records))
	for _, record := range records {
		id, err := s.idOf(record)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Create builds a record from fields and inserts it.
func (s *Store[T]) Create(ctx context.Context, fields store.Fields) (store.ID, error) {
	record, err := s.mapper.FromFields(fields.Clone())
	if err != nil {
		return 0, err
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return 0, err
	}
	return s.idOf(created)
}

// UpdateRow loads the record, applies fields and saves it.
func (s *Store[T]) UpdateRow(ctx context.Context, id store.ID, fields store.Fields) (int64, error) {
	record, ok, err := s.load(ctx, id)
	if err != nil || !ok {
		return 0, err
	}

	merged := s.mapper.ToFields(record)
	for k, v := range fields {
		if k == s.primary {
			continue
		}
		merged[k] = v
	}
	updated, err := s.mapper.FromFields(merged)
	if err != nil {
		return 0, err
	}
	if _, err := s.repo.Update(ctx, updated); err != nil {
		return 0, err
	}
	return 1, nil
}

// Delete loads the record and deletes it through the repository.
func (s *Store[T]) Delete(ctx context.Context, id store.ID) (int64, error) {
	record, ok, err := s.load(ctx, id)
	if err != nil || !ok {
		return 0, err
	}
	if err := s.repo.Delete(ctx, record); err != nil {
		return 0, err
	}
	return 1, nil
}

// CalcCount counts matching records.
func (s *Store[T]) CalcCount(ctx context.Context, conds store.Conditions) (int, error) {
	return s.repo.Count(ctx, s.where(conds)...)
}

func (s *Store[T]) load(ctx context.Context, id store.ID) (T, bool, error) {
	var zero T
	records, _, err := s.repo.List(ctx, s.byID(id), limit(1))
	if err != nil {
		return zero, false, err
	}
	if len(records) == 0 {
		return zero, false, nil
	}
	return records[0], true, nil
}

func (s *Store[T]) idOf(record T) (store.ID, error) {
	id, ok := store.AsID(s.mapper.ToFields(record)[s.primary])
	if !ok {
		return 0, goerrors.New("record has no integer primary key", goerrors.CategoryInternal).
			WithMetadata(map[string]any{"table": s.table, "primary": s.primary})
	}
	return id, nil
}

func (s *Store[T]) byID(id store.ID) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("? = ?", bun.Ident(s.primary), id)
	}
}

func (s *Store[T]) where(conds store.Conditions) []repository.SelectCriteria {
	names := conds.Names()
	sort.Strings(names)

	criteria := make([]repository.SelectCriteria, 0, len(names))
	for _, name := range names {
		column, value := name, conds[name]
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			if value == nil {
				return q.Where("? IS NULL", bun.Ident(column))
			}
			return q.Where("? = ?", bun.Ident(column), value)
		})
	}
	return criteria
}

func (s *Store[T]) orderBy(order keys.Order) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
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
}

func paginate(window store.Window) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return bunstore.Paginate(q, window)
	}
}

func limit(n int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(n)
	}
}
