package keys

import (
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// reservedChars may not appear in field names because they delimit key sections.
const reservedChars = ",()|/:#~- "

// Registry holds every cache key template of one entity type.
// List and count templates are generated once at construction and never
// change afterwards; only custom templates are added on demand.
type Registry struct {
	namespace string
	gets      map[string]*Template
	counts    map[string]*Template
	related   map[string][]*Template
	custom    *xsync.MapOf[string, *Template]
}

// NewRegistry generates the templates for namespace: every single keyable
// field and every explicit combination gets one list template per order and
// one count template.
func NewRegistry(namespace string, keyable []string, orders []Order, combos ...[]string) (*Registry, error) {
	r := &Registry{
		namespace: namespace,
		gets:      make(map[string]*Template),
		counts:    make(map[string]*Template),
		related:   make(map[string][]*Template),
		custom:    xsync.NewMapOf[string, *Template](),
	}

	allowed := make(map[string]struct{}, len(keyable))
	for _, name := range keyable {
		if err := validateName(name); err != nil {
			return nil, err
		}
		allowed[name] = struct{}{}
	}

	sets := make([][]string, 0, len(keyable)+len(combos))
	for _, name := range keyable {
		sets = append(sets, []string{name})
	}
	for _, combo := range combos {
		if len(combo) == 0 {
			return nil, goerrors.New("key combination must name at least one field", goerrors.CategoryValidation)
		}
		for _, name := range combo {
			if _, ok := allowed[name]; !ok {
				return nil, goerrors.New("key combination references non keyable field "+name, goerrors.CategoryValidation).
					WithMetadata(map[string]any{"field": name, "combination": combo})
			}
		}
		sets = append(sets, combo)
	}

	orders = dedupeOrders(orders)
	for _, set := range sets {
		id := fieldSetID(set)
		if _, ok := r.counts[id]; ok {
			continue
		}
		count := newTemplate(namespace, CountTemplate, set, nil)
		r.counts[id] = count
		r.link(count)

		for _, order := range orders {
			t := newTemplate(namespace, GetsTemplate, set, order)
			r.gets[id+"/"+order.String()] = t
			r.link(t)
		}
	}

	return r, nil
}

func (r *Registry) link(t *Template) {
	for _, f := range t.fields {
		r.related[f] = append(r.related[f], t)
	}
}

// Namespace returns the prefix shared by all templates of the registry.
func (r *Registry) Namespace() string {
	return r.namespace
}

// LookupGetsBy returns the list template for exactly this filter set and
// order. A false result means the query shape is not cacheable.
func (r *Registry) LookupGetsBy(fields []string, order Order) (*Template, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	t, ok := r.gets[fieldSetID(fields)+"/"+order.String()]
	return t, ok
}

// LookupNormal returns the order independent count template for fields.
func (r *Registry) LookupNormal(fields []string) (*Template, bool) {
	if len(fields) == 0 {
		return nil, false
	}
	t, ok := r.counts[fieldSetID(fields)]
	return t, ok
}

// LookupRelated returns every list and count template whose filter set
// contains field. The slice is shared and must not be modified.
func (r *Registry) LookupRelated(field string) []*Template {
	return r.related[field]
}

// LookupCustom returns the template for an ad hoc cached computation,
// creating it on first use. parts[0] names the computation and the
// remaining parts are the parameter names the key is rendered from. Names
// follow the same rules as field names.
func (r *Registry) LookupCustom(parts []string) (*Template, error) {
	if len(parts) == 0 {
		return nil, goerrors.New("custom computation needs a name", goerrors.CategoryValidation)
	}
	name := parts[0]
	if name == "" || strings.ContainsAny(name, reservedChars+"[]") {
		return nil, goerrors.New("invalid custom computation name "+name, goerrors.CategoryValidation).
			WithMetadata(map[string]any{"name": name, "reserved": reservedChars + "[]"})
	}
	params := normalizeFields(parts[1:])
	for _, p := range params {
		if err := validateName(p); err != nil {
			return nil, err
		}
	}
	id := name + "/" + strings.Join(params, ",")

	t, _ := r.custom.LoadOrCompute(id, func() *Template {
		return newTemplate(r.namespace+string(CustomTemplate)+"["+name+"]", CustomTemplate, params, nil)
	})
	return t, nil
}

// Templates returns the list and count templates sorted by prefix.
func (r *Registry) Templates() []*Template {
	out := make([]*Template, 0, len(r.gets)+len(r.counts))
	for _, t := range r.counts {
		out = append(out, t)
	}
	for _, t := range r.gets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].prefix < out[j].prefix })
	return out
}

func validateName(name string) error {
	if name == "" {
		return goerrors.New("field name cannot be empty", goerrors.CategoryValidation)
	}
	if strings.ContainsAny(name, reservedChars) {
		return goerrors.New("field name "+name+" contains a reserved character", goerrors.CategoryValidation).
			WithMetadata(map[string]any{"field": name, "reserved": reservedChars})
	}
	return nil
}
