package keys

// Kind classifies how a field takes part in cache keys and default orders.
type Kind int

const (
	// NotIndexed fields are never used as filters or orders.
	NotIndexed Kind = iota
	// Ascending fields are keyable and contribute an ascending order.
	Ascending
	// Descending fields are keyable and contribute a descending order.
	Descending
	// AscendingAndDescending fields are keyable and contribute both orders.
	AscendingAndDescending
	// IndexOnly fields are keyable but contribute no order.
	IndexOnly
)

// orderVariants maps each kind to the order variants it generates for a field.
var orderVariants = map[Kind]func(name string) []Order{
	NotIndexed: func(string) []Order { return nil },
	Ascending: func(name string) []Order {
		return []Order{{{Field: name}}}
	},
	Descending: func(name string) []Order {
		return []Order{{{Field: name, Desc: true}}}
	},
	AscendingAndDescending: func(name string) []Order {
		return []Order{{{Field: name}}, {{Field: name, Desc: true}}}
	},
	IndexOnly: func(string) []Order { return nil },
}

func (k Kind) String() string {
	switch k {
	case NotIndexed:
		return "not_indexed"
	case Ascending:
		return "asc"
	case Descending:
		return "desc"
	case AscendingAndDescending:
		return "asc_desc"
	case IndexOnly:
		return "index_only"
	default:
		return "unknown"
	}
}

// Keyable reports whether fields of this kind participate in filter key sets.
func (k Kind) Keyable() bool {
	return k != NotIndexed
}

// Orders returns the order variants generated for a field of this kind.
func (k Kind) Orders(name string) []Order {
	gen, ok := orderVariants[k]
	if !ok {
		return nil
	}
	return gen(name)
}

// Field describes one column of an entity type. It is declared once at setup.
type Field struct {
	Name string
	Kind Kind

	defaultValue any
	defaultFunc  func() any
	hasDefault   bool
}

// NewField declares a field without a default value.
func NewField(name string, kind Kind) Field {
	return Field{Name: name, Kind: kind}
}

// WithDefault returns a copy of f with a static default value.
func (f Field) WithDefault(v any) Field {
	f.defaultValue = v
	f.defaultFunc = nil
	f.hasDefault = true
	return f
}

// WithDefaultFunc returns a copy of f whose default is computed on every create.
func (f Field) WithDefaultFunc(fn func() any) Field {
	f.defaultValue = nil
	f.defaultFunc = fn
	f.hasDefault = fn != nil
	return f
}

// HasDefault reports whether a default was declared.
func (f Field) HasDefault() bool {
	return f.hasDefault
}

// Default resolves the field default, calling a deferred default if needed.
func (f Field) Default() (any, bool) {
	if !f.hasDefault {
		return nil, false
	}
	if f.defaultFunc != nil {
		return f.defaultFunc(), true
	}
	return f.defaultValue, true
}

// DefaultOrder is the order used by list queries that do not name one.
// A descending-only field defaults to newest first.
func (f Field) DefaultOrder() Order {
	return Order{{Field: f.Name, Desc: f.Kind == Descending}}
}

// MakeOrders derives the automatic order variants for fields, in declaration order.
func MakeOrders(fields []Field) []Order {
	var orders []Order
	for _, f := range fields {
		orders = append(orders, f.Kind.Orders(f.Name)...)
	}
	return orders
}

// KeyableNames returns the names of the fields that participate in key sets.
func KeyableNames(fields []Field) []string {
	var names []string
	for _, f := range fields {
		if f.Kind.Keyable() {
			names = append(names, f.Name)
		}
	}
	return names
}
