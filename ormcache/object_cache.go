package ormcache

import (
	"context"
	"strconv"

	"github.com/goliatone/go-orm-cache/cache"
	"github.com/goliatone/go-orm-cache/store"
)

// objectCache maps primary keys to row snapshots.
type objectCache struct {
	prefix string
	table  string
	cache  *cache.Service
	store  store.Store
}

func (o *objectCache) key(id store.ID) string {
	return o.prefix + strconv.FormatInt(id, 10)
}

// getOrLoad returns the rows for ids in input order. Unless force is set the
// cached snapshots are read in one batch; every miss is loaded from the store
// and written back. Ids that no longer exist are skipped.
func (o *objectCache) getOrLoad(ctx context.Context, ids []store.ID, force bool) ([]store.Fields, error) {
	rows := make([]map[string]any, len(ids))
	found := make([]bool, len(ids))

	if !force && len(ids) > 0 {
		cacheKeys := make([]string, len(ids))
		for i, id := range ids {
			cacheKeys[i] = o.key(id)
		}
		found = o.cache.LoadList(ctx, cacheKeys, func(i int) any { return &rows[i] })
	}

	out := make([]store.Fields, 0, len(ids))
	for i, id := range ids {
		if found[i] && rows[i] != nil {
			out = append(out, store.Fields(rows[i]))
			continue
		}

		row, err := o.store.Get(ctx, id)
		if store.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, store.Failure(err, o.table, "get")
		}
		o.cache.Store(ctx, o.key(id), map[string]any(row))
		out = append(out, row)
	}
	return out, nil
}

// keysFor returns the object keys of ids.
func (o *objectCache) keysFor(ids ...store.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = o.key(id)
	}
	return out
}
