package cache

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// BlockingCache adds per-key mutual exclusion so that at most one caller
// computes a miss for any given fingerprint at a time, turning a cache
// stampede into a single-populator protocol:
//
//   - Get acquires the key's lock before reading. A hit releases it
//     immediately. A miss keeps the lock: the caller is expected to populate
//     the cache, and Put releases the lock whether or not the write succeeds.
//   - Remove performs no deletion here; it exists to release a key's lock
//     when a caller aborts without writing (the transactional layer uses it
//     on rollback).
//
// Locks are created lazily, one per distinct fingerprint, and are never
// removed, so lock identity stays stable for every caller of the same key.
// The lock table therefore grows with the set of distinct keys ever
// requested; callers with unbounded key spaces should bound them upstream.
//
// With a configured timeout, lock waits are bounded and expiry surfaces as a
// *LockTimeoutError. Context cancellation during a wait surfaces as a
// *LockWaitError. Release is possession-guarded: releasing an unheld lock is
// a no-op, so a double release cannot corrupt the protocol.
type BlockingCache struct {
	delegate Cache
	timeout  time.Duration
	log      Logger
	locks    *xsync.MapOf[string, *keyLock]
}

// keyLock is a one-slot semaphore. A buffered token in ch means locked.
type keyLock struct {
	ch chan struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{ch: make(chan struct{}, 1)}
}

// NewBlockingCache wraps delegate with the single-populator protocol. A zero
// timeout means lock waits block until the holder releases (or the context
// is cancelled).
func NewBlockingCache(delegate Cache, timeout time.Duration, log Logger) *BlockingCache {
	if log == nil {
		log = DefaultLogger()
	}
	return &BlockingCache{
		delegate: delegate,
		timeout:  timeout,
		log:      log,
		locks:    xsync.NewMapOf[string, *keyLock](),
	}
}

// acquire blocks until the key's lock is held, the timeout expires, or ctx
// is cancelled.
func (b *BlockingCache) acquire(ctx context.Context, key *Fingerprint) error {
	l, _ := b.locks.LoadOrCompute(key.Key(), newKeyLock)

	select {
	case l.ch <- struct{}{}:
		return nil
	default:
	}

	b.log.Debugf("cache %s: waiting for lock on key %s", b.delegate.ID(), key)

	if b.timeout > 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()
		select {
		case l.ch <- struct{}{}:
			return nil
		case <-timer.C:
			return &LockTimeoutError{CacheID: b.delegate.ID(), Key: key, Timeout: b.timeout}
		case <-ctx.Done():
			return &LockWaitError{CacheID: b.delegate.ID(), Key: key, Cause: ctx.Err()}
		}
	}

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return &LockWaitError{CacheID: b.delegate.ID(), Key: key, Cause: ctx.Err()}
	}
}

// release drops the key's lock if it is currently held. Goroutines carry no
// identity, so the guard is possession-based rather than owner-based: only
// an actually held token can be released, which is what protects the
// protocol from double release. It does not protect against a non-holder's
// Put or Remove draining a token held by a concurrent miss; callers uphold
// the protocol by only writing keys they read first.
func (b *BlockingCache) release(key *Fingerprint) {
	l, ok := b.locks.Load(key.Key())
	if !ok {
		return
	}
	select {
	case <-l.ch:
	default:
	}
}

// ID implements Cache.
func (b *BlockingCache) ID() string { return b.delegate.ID() }

// Size implements Cache.
func (b *BlockingCache) Size() int { return b.delegate.Size() }

// Get implements Cache. On a hit the lock is released before returning; on a
// miss the lock is retained and the caller must release it via Put (after
// populating) or Remove (to abort).
func (b *BlockingCache) Get(ctx context.Context, key *Fingerprint) (any, bool, error) {
	if err := b.acquire(ctx, key); err != nil {
		return nil, false, err
	}

	value, ok, err := b.delegate.Get(ctx, key)
	if err != nil {
		b.release(key)
		return nil, false, err
	}
	if ok {
		b.release(key)
		return value, true, nil
	}
	// Miss: hold the lock across the caller's populate.
	return nil, false, nil
}

// Put implements Cache, releasing the key's lock regardless of outcome so a
// failed populate can never deadlock waiters.
func (b *BlockingCache) Put(ctx context.Context, key *Fingerprint, value any) error {
	defer b.release(key)
	return b.delegate.Put(ctx, key, value)
}

// Remove implements Cache in name only: it releases the key's lock and
// deletes nothing.
func (b *BlockingCache) Remove(ctx context.Context, key *Fingerprint) error {
	b.release(key)
	return nil
}

// Clear implements Cache. Locks survive a clear; identity stability matters
// more than reclaiming table entries.
func (b *BlockingCache) Clear(ctx context.Context) error {
	return b.delegate.Clear(ctx)
}
