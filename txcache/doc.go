// Package txcache buffers second-level cache writes per unit of work,
// approximating read-committed isolation for the shared cache.
//
// # Overview
//
// Each session owns a Registry; the Registry lazily creates one Buffer per
// base cache the session touches. During the transaction:
//
//   - reads pass straight through to the shared cache and record misses; a
//     key already missed stays absent in the transaction's view, so the same
//     query can be re-issued without re-entering the shared cache's locks
//   - writes stay in the buffer, invisible to every other session
//   - clear is deferred, but the transaction immediately behaves as if the
//     cache were empty
//
// At the boundary the caller signals the outcome exactly once per
// transaction:
//
//	reg := txcache.NewRegistry(nil)
//	ctx = txcache.WithRegistry(ctx, reg)
//
//	// ... queries go through reg.Get/reg.Put ...
//
//	if err := tx.Commit(); err != nil {
//		reg.Rollback(ctx)
//		return err
//	}
//	if err := reg.Commit(ctx); err != nil {
//		return err
//	}
//
// After either signal the buffers are back in their initial state, so the
// same registry serves the session's next transaction.
//
// # Interaction with the blocking decorator
//
// When the shared cache serializes misses (cache.BlockingCache), a miss
// leaves the reader holding the key's populate lock. The buffer's missed-key
// set exists to guarantee that lock's release no matter how the transaction
// ends: commit publishes the buffered value, or a nil placeholder for keys
// that were missed but never written; rollback issues Remove, which at the
// blocking layer releases the lock without publishing anything. Rollback
// failures are logged and suppressed per key so one bad release never
// strands the rest.
package txcache
