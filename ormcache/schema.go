package ormcache

import (
	"errors"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-orm-cache/keys"
	"github.com/goliatone/go-orm-cache/store"
)

// HeadquarterVersion is prepended to every key. Bumping it orphans every
// entry written by older releases.
const HeadquarterVersion = "a3"

// Schema declares one entity type: its table, primary field, columns and
// the extra orders and filter combinations worth caching.
type Schema struct {
	// Name is the entity name. When Table is empty the table is derived
	// from it ("UserProfile" maps to "user_profiles").
	Name string

	// Table overrides the derived table name.
	Table string

	// Version is appended to the key namespace. Change it when the cached
	// row shape changes.
	Version string

	// Primary is the primary key field. Its kind decides the default order
	// of list queries.
	Primary keys.Field

	// Fields are the non primary columns.
	Fields []keys.Field

	// ExtraOrders are registered in addition to the orders derived from
	// field kinds.
	ExtraOrders []keys.Order

	// Combinations are multi field filter sets to cache. Every field must
	// be keyable.
	Combinations [][]string
}

// TableName returns the table the schema maps to.
func (s Schema) TableName() string {
	if s.Table != "" {
		return s.Table
	}
	return tableFor(s.Name)
}

// Validate checks that the schema can back a Manager.
func (s Schema) Validate() error {
	err := validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.When(s.Table == "", validation.Required.Error("name or table is required"))),
		validation.Field(&s.Primary, validation.By(func(v any) error {
			if v.(keys.Field).Name == "" {
				return errors.New("primary field name is required")
			}
			return nil
		})),
		validation.Field(&s.Fields, validation.By(func(v any) error {
			seen := map[string]struct{}{s.Primary.Name: {}}
			for i, f := range v.([]keys.Field) {
				if f.Name == "" {
					return errors.New("field " + strconv.Itoa(i) + " has no name")
				}
				if _, ok := seen[f.Name]; ok {
					return errors.New("field " + f.Name + " is declared twice")
				}
				seen[f.Name] = struct{}{}
			}
			return nil
		})),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid schema").
			WithMetadata(map[string]any{"schema": s.Name, "table": s.Table})
	}
	return nil
}

// columns returns the primary field followed by every declared field.
func (s Schema) columns() []keys.Field {
	out := make([]keys.Field, 0, len(s.Fields)+1)
	out = append(out, s.Primary)
	return append(out, s.Fields...)
}

// namespace is the prefix of every list and count key.
func (s Schema) namespace() string {
	return HeadquarterVersion + s.TableName() + ":kv_to_ids:" + s.Version
}

// objectPrefix is the prefix of every object key.
func (s Schema) objectPrefix() string {
	return HeadquarterVersion + s.TableName() + ":single_obj_ck:" + s.Version
}

// registry builds the key templates for the schema. The default order of
// the primary field is always registered.
func (s Schema) registry() (*keys.Registry, error) {
	cols := s.columns()
	orders := keys.MakeOrders(cols)
	orders = append(orders, s.ExtraOrders...)
	orders = append(orders, s.Primary.DefaultOrder())
	return keys.NewRegistry(s.namespace(), keys.KeyableNames(cols), orders, s.Combinations...)
}

// defaults resolves every declared default. Deferred defaults are computed
// on each call.
func (s Schema) defaults() store.Fields {
	out := store.Fields{}
	for _, f := range s.columns() {
		if v, ok := f.Default(); ok {
			out[f.Name] = v
		}
	}
	return out
}
