// Package ormcache serves entity reads from a key-value cache and keeps the
// cache coherent across writes.
//
// A Manager owns one entity type. At construction it turns the Schema into
// a fixed set of key templates: one list template per keyable filter set and
// registered order, and one count template per filter set. Reads whose shape
// matches a template cache the full, unpaginated id list under the rendered
// key and slice the requested window in memory. Rows themselves live in a
// separate object cache keyed by primary key. Reads with any other shape go
// straight to the store.
//
// Writes invalidate before they mutate. Create deletes every list and count
// key the new row could appear under, then inserts. Save deletes the keys of
// both the loaded and the new values of each dirty field, plus the object
// entry, then updates and reloads. Delete fans out over every field.
//
// # Concurrency
//
// A Manager holds no locks and is safe for concurrent use as long as its
// store and backend are. Two behaviours follow and are accepted:
//
//   - concurrent misses on one key all query the store (no stampede control)
//   - a read already in flight when a write lands can repopulate a key with
//     the pre-write result
//
// Invalidating before the write bounds staleness for later reads, and the
// TTL on every entry bounds it for the rest.
//
// # Failures
//
// Cache backend failures degrade to misses and are logged. Store failures
// are returned wrapped with the table and operation; a missing row is not a
// failure for Get, which returns nil, nor for batch lookups, which skip it.
package ormcache
