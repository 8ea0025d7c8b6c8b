package keys

import "strings"

// OrderKey is one (field, direction) pair of an order specification.
type OrderKey struct {
	Field string
	Desc  bool
}

func (k OrderKey) String() string {
	if k.Desc {
		return "-" + k.Field
	}
	return k.Field
}

// Order is an ordered sequence of order keys. A nil Order means "no order".
type Order []OrderKey

// ParseOrder builds an Order from keys in the "-field" notation,
// where a leading dash marks a descending key.
func ParseOrder(specs ...string) Order {
	var order Order
	for _, s := range specs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, "-") {
			order = append(order, OrderKey{Field: s[1:], Desc: true})
			continue
		}
		order = append(order, OrderKey{Field: strings.TrimPrefix(s, "+")})
	}
	return order
}

// String is the stable identity of the order, e.g. "-created,id".
func (o Order) String() string {
	parts := make([]string, len(o))
	for i, k := range o {
		parts[i] = k.String()
	}
	return strings.Join(parts, ",")
}

// Equal reports whether two orders have the same keys in the same sequence.
func (o Order) Equal(other Order) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Fields returns the field names referenced by the order.
func (o Order) Fields() []string {
	names := make([]string, len(o))
	for i, k := range o {
		names[i] = k.Field
	}
	return names
}

// dedupeOrders drops repeated orders while keeping first occurrence order.
func dedupeOrders(orders []Order) []Order {
	seen := make(map[string]struct{}, len(orders))
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		id := o.String()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, o)
	}
	return out
}
