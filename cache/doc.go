// Package cache provides the key-value side of the ORM cache: the Backend
// contract, the payload Codec and the Service that reads and writes through
// them.
//
// # Backends
//
// Three backends ship with the package:
//
//   - NewMemoryBackend: an in-process sturdyc client, sharded and bounded
//   - NewRedisBackend: a shared Redis server, batched with MGET and DEL
//   - NewBadgerBackend: an embedded BadgerDB, on disk or in memory
//
// Any type implementing Backend can be used instead.
//
// # Degradation
//
// A Service never returns backend errors. A failed or undecodable read is a
// miss, and a failed write or delete is logged at warn level and dropped.
// Entries always carry a TTL, which bounds how long a missed invalidation can
// serve stale data.
//
// # Read-through
//
// GetOrFetch is the generic read-through helper:
//
//	users, err := cache.GetOrFetch(ctx, svc, key, false, func(ctx context.Context) ([]int64, error) {
//		return store.GetIDs(ctx, conds, store.All, order)
//	})
//
// Values round-trip through msgpack. Integers read back as int64 and floats
// as float64 when the destination is an interface.
package cache
