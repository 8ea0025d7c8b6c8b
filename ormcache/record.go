package ormcache

import (
	"sort"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
)

// Record is one loaded row. It keeps the values as loaded next to the
// current values so that Save can invalidate the keys the row was cached
// under before the change as well as after it.
//
// A Record is not safe for concurrent mutation.
type Record struct {
	pk      string
	known   map[string]struct{}
	current store.Fields
	shadow  store.Fields
	dirty   map[string]struct{}
}

func newRecord(pk string, known map[string]struct{}, row store.Fields) *Record {
	r := &Record{pk: pk, known: known}
	r.reset(row)
	return r
}

// ID returns the primary key of the record.
func (r *Record) ID() store.ID {
	id, _ := store.AsID(r.current[r.pk])
	return id
}

// Get returns the current value of field.
func (r *Record) Get(field string) any {
	return r.current[field]
}

// Original returns the value of field as it was loaded.
func (r *Record) Original(field string) any {
	return r.shadow[field]
}

// Fields returns a copy of the current values.
func (r *Record) Fields() store.Fields {
	return r.current.Clone()
}

// Set changes field. Setting a field back to its loaded value clears it
// from the dirty set. The primary key cannot be changed.
func (r *Record) Set(field string, value any) error {
	if field == r.pk {
		return goerrors.New("primary key "+field+" cannot be changed", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"field": field})
	}
	if _, ok := r.known[field]; !ok {
		return goerrors.New("unknown field "+field, goerrors.CategoryValidation).
			WithMetadata(map[string]any{"field": field})
	}

	r.current[field] = value
	if keys.Equal(value, r.shadow[field]) {
		delete(r.dirty, field)
	} else {
		r.dirty[field] = struct{}{}
	}
	return nil
}

// Dirty returns the changed fields in name order.
func (r *Record) Dirty() []string {
	out := make([]string, 0, len(r.dirty))
	for f := range r.dirty {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// IsDirty reports whether any field changed since the record was loaded.
func (r *Record) IsDirty() bool {
	return len(r.dirty) > 0
}

// changes returns the current values of the dirty fields.
func (r *Record) changes() store.Fields {
	out := make(store.Fields, len(r.dirty))
	for f := range r.dirty {
		out[f] = r.current[f]
	}
	return out
}

// reset makes row both the current and the loaded state.
func (r *Record) reset(row store.Fields) {
	r.current = row.Clone()
	if r.current == nil {
		r.current = store.Fields{}
	}
	r.shadow = r.current.Clone()
	r.dirty = make(map[string]struct{})
}
