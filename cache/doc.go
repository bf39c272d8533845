// Package cache provides the second-level query cache: structural
// fingerprints as keys, a composable Cache capability, and the eviction and
// concurrency decorators layered over a base store.
//
// # Overview
//
// The package is built around two values:
//
//   - Fingerprint: an immutable key accumulated from an ordered sequence of
//     contributing values (statement identifier, bound parameters,
//     pagination bounds). Equality is structural and collision-safe.
//   - Cache: the capability every store and decorator implements
//     (ID/Size/Get/Put/Remove/Clear). Consumers never depend on a concrete
//     store.
//
// Policies are added by decoration, innermost first:
//
//	base, _ := cache.Build(cache.Config{
//		ID:      "users",
//		Policy:  cache.EvictionLRU,
//		Size:    4096,
//		Timeout: 5 * time.Second, // serialize misses, bounded wait
//	})
//
// which assembles MemoryCache → LRUCache → BlockingCache. Each decorator
// adds exactly one policy and leaves the wrapped cache's semantics intact.
//
// # Fingerprints
//
// Build one fingerprint per logical query and reuse it for the get and the
// populate:
//
//	key := cache.NewFingerprint("selectUser", 42)
//	v, ok, err := c.Get(ctx, key)
//	if err == nil && !ok {
//		v = runQuery()
//		err = c.Put(ctx, key, v)
//	}
//
// Contributing values hash by deep structural content. Functions and
// channels hash by pointer, which is stable within a process only; see the
// canonical encoding rules in canonical.go.
//
// # Single-populator protocol
//
// BlockingCache turns a stampede (many concurrent misses for one key) into
// a single populate: the first Get that misses keeps the key's lock, every
// other caller blocks until the first one calls Put (publishing the value
// and releasing the lock) or Remove (releasing without publishing). A
// caller that misses must therefore always follow up with one of the two.
// The transactional layer in package txcache tracks missed keys precisely
// so this holds across commit and rollback.
//
// # Eviction
//
// FIFOCache evicts in insertion order, LRUCache in access order, and
// EpochCache by explicit epoch release, approximating reclaimer-driven
// eviction with deterministic semantics. All three keep their bookkeeping
// local and treat the wrapped cache as the source of truth for values.
//
// # Error handling
//
// Stores never fail on nil values and absence is reported via the bool
// return, not an error. The error return carries genuine failures:
// *LockTimeoutError when a bounded lock wait expires and *LockWaitError
// when a wait is cancelled. Both name the key and the cache identity.
//
// # See Also
//
// Package txcache buffers writes per unit of work and flushes or discards
// them at transaction boundaries. Package repocache decorates
// go-repository-bun repositories with fingerprint-keyed caching. Package
// pkg/di wires validated configuration into shared cache regions.
package cache
