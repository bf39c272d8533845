package txcache

import (
	"context"

	"github.com/goliatone/go-query-cache/cache"
)

// Buffer isolates one transaction's cache writes from every other session.
// Reads pass through to the shared cache immediately, except for keys this
// transaction has already observed as misses, which stay absent in its view;
// writes accumulate in the buffer and only reach the shared cache when the
// transaction commits. A rollback discards them.
//
// The buffer also records every key it observed as a miss. Under a blocking
// shared cache a miss leaves the caller holding the key's populate lock, so
// the buffer guarantees a release for each missed key at the transaction
// boundary: commit publishes a value (or a nil "known absent" placeholder),
// rollback releases without publishing.
//
// A Buffer belongs to exactly one unit of work and is not safe for
// concurrent use; the shared cache it wraps is.
type Buffer struct {
	delegate cache.Cache
	log      cache.Logger

	clearOnCommit bool
	pending       map[string]pendingWrite
	missed        map[string]*cache.Fingerprint
}

type pendingWrite struct {
	key   *cache.Fingerprint
	value any
}

// NewBuffer wraps the shared cache for one transaction.
func NewBuffer(delegate cache.Cache, log cache.Logger) *Buffer {
	if log == nil {
		log = cache.DefaultLogger()
	}
	b := &Buffer{delegate: delegate, log: log}
	b.reset()
	return b
}

// ID implements cache.Cache.
func (b *Buffer) ID() string { return b.delegate.ID() }

// Size implements cache.Cache, reporting the shared cache's size; buffered
// writes are not yet entries.
func (b *Buffer) Size() int { return b.delegate.Size() }

// Get implements cache.Cache, reading through to the shared cache. Misses
// are recorded so their populate locks can be released at the transaction
// boundary whatever the outcome. Once a clear is pending, every read
// reports absent: the transaction must behave as if the cache were already
// empty.
//
// A key already recorded as missed is reported absent without re-entering
// the shared cache: this transaction holds that key's populate lock under a
// blocking chain, and a second acquisition attempt would block on itself.
func (b *Buffer) Get(ctx context.Context, key *cache.Fingerprint) (any, bool, error) {
	if _, held := b.missed[key.Key()]; held {
		return nil, false, nil
	}

	value, ok, err := b.delegate.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		b.missed[key.Key()] = key
	}
	if b.clearOnCommit {
		return nil, false, nil
	}
	return value, ok, nil
}

// Put implements cache.Cache. The write is buffered, never written through;
// other sessions cannot observe it before Commit.
func (b *Buffer) Put(ctx context.Context, key *cache.Fingerprint, value any) error {
	b.pending[key.Key()] = pendingWrite{key: key, value: value}
	return nil
}

// Remove implements cache.Cache within the transaction's view: it drops the
// buffered write for key, if any. The shared cache is untouched until
// commit. If the key was read as a miss earlier its lock release at the
// boundary is unaffected.
func (b *Buffer) Remove(ctx context.Context, key *cache.Fingerprint) error {
	delete(b.pending, key.Key())
	return nil
}

// Clear implements cache.Cache, deferring the physical clear to Commit.
// Writes buffered before the clear are moot and are discarded now.
func (b *Buffer) Clear(ctx context.Context) error {
	b.clearOnCommit = true
	b.pending = make(map[string]pendingWrite)
	return nil
}

// Commit applies the transaction to the shared cache: a pending clear
// first, then every buffered write, then a nil placeholder for every missed
// key that was not also written. The placeholder releases the populate lock
// held since the miss and marks the key as known absent for the next reader.
//
// A placeholder can overwrite a value another transaction committed between
// this transaction's miss and its commit; the read-committed semantics here
// are approximate, not linearizable, and the race is accepted.
//
// A failure mid-flush is returned as is and leaves the buffer unreset: some
// writes may be applied and the rest still pending. The unit of work must
// not be reused without explicit re-initialization.
func (b *Buffer) Commit(ctx context.Context) error {
	if b.clearOnCommit {
		if err := b.delegate.Clear(ctx); err != nil {
			return err
		}
	}
	for _, w := range b.pending {
		if err := b.delegate.Put(ctx, w.key, w.value); err != nil {
			return err
		}
	}
	for sk, key := range b.missed {
		if _, written := b.pending[sk]; written {
			continue
		}
		if err := b.delegate.Put(ctx, key, nil); err != nil {
			return err
		}
	}
	b.reset()
	return nil
}

// Rollback discards the buffered writes and releases the populate lock of
// every missed key by issuing Remove against the shared cache. Failures are
// logged and suppressed per key: the only legitimate effect of Remove at
// this layer is lock release, and every remaining key must still get its
// release.
func (b *Buffer) Rollback(ctx context.Context) {
	for _, key := range b.missed {
		if err := b.delegate.Remove(ctx, key); err != nil {
			b.log.Warnf("cache %s: releasing missed key %s on rollback failed: %v",
				b.delegate.ID(), key, err)
		}
	}
	b.reset()
}

// reset returns the buffer to its initial state so the unit of work can run
// another transaction without reconstructing it.
func (b *Buffer) reset() {
	b.clearOnCommit = false
	b.pending = make(map[string]pendingWrite)
	b.missed = make(map[string]*cache.Fingerprint)
}
