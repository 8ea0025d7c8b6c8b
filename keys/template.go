package keys

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	hex "github.com/tmthrgd/go-hex"
)

// MaxKeyLength bounds rendered keys. Longer keys keep their template prefix
// and replace the value section with a digest. 250 is the memcached limit.
const MaxKeyLength = 250

// TemplateKind separates the key spaces of list, count and custom entries.
type TemplateKind string

const (
	GetsTemplate   TemplateKind = "g"
	CountTemplate  TemplateKind = "c"
	CustomTemplate TemplateKind = "x"
)

// Template is one registered filter-field-set × order combination and the
// rule that renders concrete cache keys for it.
type Template struct {
	kind   TemplateKind
	fields []string
	order  Order
	prefix string
}

func newTemplate(namespace string, kind TemplateKind, fields []string, order Order) *Template {
	fields = normalizeFields(fields)
	var b strings.Builder
	b.WriteString(namespace)
	b.WriteString(string(kind))
	b.WriteByte('(')
	b.WriteString(strings.Join(fields, ","))
	b.WriteByte(')')
	if len(order) > 0 {
		b.WriteByte('/')
		b.WriteString(order.String())
	}
	return &Template{
		kind:   kind,
		fields: fields,
		order:  order,
		prefix: b.String(),
	}
}

// Kind returns the key space of the template.
func (t *Template) Kind() TemplateKind { return t.kind }

// Fields returns the sorted filter field names of the template.
func (t *Template) Fields() []string { return append([]string(nil), t.fields...) }

// Order returns the order the template caches results under (nil for counts).
func (t *Template) Order() Order { return t.order }

// Prefix returns the stable prefix shared by every key rendered from t.
func (t *Template) Prefix() string { return t.prefix }

// Has reports whether field is part of the template filter set.
func (t *Template) Has(field string) bool {
	i := sort.SearchStrings(t.fields, field)
	return i < len(t.fields) && t.fields[i] == field
}

// Render builds the concrete key for the given field values. Only the
// template fields are read, in name order, so the caller's map iteration
// order never matters. Missing fields render as nil.
func (t *Template) Render(values map[string]any) string {
	var b strings.Builder
	for _, f := range t.fields {
		b.WriteByte('|')
		b.WriteString(segment(values[f]))
	}
	body := b.String()

	if len(t.prefix)+len(body) <= MaxKeyLength {
		return t.prefix + body
	}

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64String(body))
	return t.prefix + "#" + hex.EncodeToString(sum[:])
}

func (t *Template) String() string { return t.prefix }

// normalizeFields returns a sorted copy of names without duplicates.
func normalizeFields(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func fieldSetID(names []string) string {
	return strings.Join(normalizeFields(names), ",")
}
