// Package repocache decorates go-repository-bun repositories with
// second-level, transaction-aware caching.
//
// # Overview
//
// CachedRepository[T] wraps a base repository and intercepts read operations
// with fingerprint-keyed caching. Keys are built from the entity region
// (derived from T), the method name and the call's arguments, so distinct
// queries never collide and equivalent queries share an entry.
//
//	shared, _ := cache.Build(cache.Config{ID: "users", Timeout: 5 * time.Second})
//	cached := repocache.New(baseRepo, shared, nil)
//
//	user, err := cached.GetByID(ctx, "user-123")
//
// # Units of work
//
// When the context carries a transactional registry, every cache operation
// is routed through the transaction's buffer:
//
//	reg := txcache.NewRegistry(nil)
//	ctx = txcache.WithRegistry(ctx, reg)
//
//	u, _ := cached.GetByIDTx(ctx, tx, "user-123") // read through, miss recorded
//	_, _ = cached.UpdateTx(ctx, tx, u)            // clear deferred to commit
//
//	reg.Commit(ctx) // or reg.Rollback(ctx)
//
// Reads stay visible immediately; populated values and invalidations become
// visible to other sessions only at commit. Without a registry, *Tx reads
// bypass the cache entirely and *Tx writes invalidate immediately.
//
// # Invalidation
//
// Every successful write operation clears the entity's region. This is
// deliberately coarse: fingerprints are opaque, so there is no targeted
// per-row invalidation, and correctness wins over retention. Inside a unit
// of work the clear is buffered, which keeps uncommitted writes from
// evicting entries other sessions still rely on.
//
// # Known-absent placeholders
//
// A cached nil value short-circuits the read to T's zero value without
// querying the source. Transactions publish these placeholders for keys
// they missed but never populated, which both releases blocking locks and
// suppresses immediate redundant recomputation.
//
// # Key stability
//
// Criteria functions contribute to fingerprints by pointer. Pointers are
// stable within a process but closures capturing different values are
// distinct keys; prefer the explicit-argument methods (GetByID,
// GetByIdentifier) for hit rates that matter.
package repocache
