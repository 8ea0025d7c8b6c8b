// Package keys derives cache keys for filtered and ordered list queries.
//
// # Templates
//
// An entity type declares its fields once, each tagged with a Kind. From the
// keyable fields, the automatic order variants and any explicit field
// combinations, NewRegistry precomputes every cacheable query shape:
//
//	fields := []keys.Field{
//		keys.NewField("id", keys.Ascending),
//		keys.NewField("status", keys.IndexOnly),
//		keys.NewField("created", keys.AscendingAndDescending),
//	}
//	orders := keys.MakeOrders(fields) // [id] [created] [-created]
//	reg, err := keys.NewRegistry("a3:users:", keys.KeyableNames(fields), orders,
//		[]string{"status", "owner"})
//
// A query whose filter set and order were not registered simply has no
// template. Callers treat that as "do not cache" and go to the store.
//
// # Rendering
//
// Template.Render writes the template prefix followed by one length-prefixed
// segment per filter field, in field name order:
//
//	a3:users:g(status)/-created|6:active
//
// The length prefix keeps values containing separators from colliding, and
// nil values render as a bare "~". Keys longer than MaxKeyLength are folded
// to the prefix plus an xxhash digest of the value section.
//
// # Invalidation
//
// LookupRelated returns every list and count template that filters on a
// field. Rendering each of them with a record's values yields exactly the
// keys whose cached result could contain that record.
package keys
