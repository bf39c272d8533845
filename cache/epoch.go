package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// DefaultPinnedEntries bounds an EpochCache's pinned ring when no capacity
// is configured.
const DefaultPinnedEntries = 256

// EpochCache ties entry liveness to an externally driven reclamation signal
// rather than to explicit eviction. Every entry is stamped with the epoch
// current at put time. The owner advances the epoch as work progresses and
// releases old epochs when it wants memory back (for example under memory
// pressure); released entries are reclaimed lazily.
//
// Reclamation is deliberately out of band: releasing an epoch only queues
// its entries, and the queue is drained before every mutating operation and
// before size is reported. A read that lands on a released entry treats it
// as absent and purges it immediately.
//
// A bounded ring of the most recently read keys is exempt from reclamation,
// deliberately keeping hot entries alive past their epoch's release. When a
// key falls off the ring it becomes reclaimable again.
type EpochCache struct {
	delegate Cache
	log      Logger

	epoch    atomic.Uint64
	released atomic.Uint64
	stamps   *xsync.MapOf[string, *epochStamp]

	mu      sync.Mutex
	ring    []string
	ringCap int
	pinned  map[string]int
	reclaim []*Fingerprint
}

type epochStamp struct {
	key   *Fingerprint
	epoch uint64
}

// NewEpochCache wraps delegate with epoch-based reclamation. A non-positive
// pinnedEntries falls back to DefaultPinnedEntries.
func NewEpochCache(delegate Cache, pinnedEntries int, log Logger) *EpochCache {
	if pinnedEntries <= 0 {
		pinnedEntries = DefaultPinnedEntries
	}
	if log == nil {
		log = DefaultLogger()
	}
	e := &EpochCache{
		delegate: delegate,
		log:      log,
		stamps:   xsync.NewMapOf[string, *epochStamp](),
		ringCap:  pinnedEntries,
		pinned:   make(map[string]int),
	}
	e.epoch.Store(1)
	return e
}

// Epoch returns the epoch that new entries are currently stamped with.
func (e *EpochCache) Epoch() uint64 { return e.epoch.Load() }

// Advance opens a new epoch and returns it. Entries put before the call
// keep their original stamp.
func (e *EpochCache) Advance() uint64 { return e.epoch.Add(1) }

// ReleaseBefore marks every epoch strictly below cutoff as reclaimable and
// queues the affected entries. The queue is drained on the next mutating
// operation or size query; nothing is removed synchronously.
func (e *EpochCache) ReleaseBefore(cutoff uint64) {
	for {
		cur := e.released.Load()
		if cutoff <= cur {
			break
		}
		if e.released.CompareAndSwap(cur, cutoff) {
			break
		}
	}

	e.stamps.Range(func(sk string, stamp *epochStamp) bool {
		if stamp.epoch < cutoff {
			e.mu.Lock()
			if e.pinned[sk] == 0 {
				e.reclaim = append(e.reclaim, stamp.key)
			}
			e.mu.Unlock()
		}
		return true
	})
}

func (e *EpochCache) isReleased(epoch uint64) bool {
	return epoch < e.released.Load()
}

// pin records a read in the bounded ring. The key that falls off the far
// end is re-queued for reclamation if its epoch has been released meanwhile.
func (e *EpochCache) pin(sk string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ring = append(e.ring, sk)
	e.pinned[sk]++
	if len(e.ring) <= e.ringCap {
		return
	}

	old := e.ring[0]
	e.ring = e.ring[1:]
	e.pinned[old]--
	if e.pinned[old] > 0 {
		return
	}
	delete(e.pinned, old)
	if stamp, ok := e.stamps.Load(old); ok && e.isReleased(stamp.epoch) {
		e.reclaim = append(e.reclaim, stamp.key)
	}
}

// drain removes every queued released entry from the wrapped cache. Failures
// are logged and skipped; reclamation is advisory and must not fail the
// operation that triggered it.
func (e *EpochCache) drain(ctx context.Context) {
	e.mu.Lock()
	queued := e.reclaim
	e.reclaim = nil
	e.mu.Unlock()

	for _, key := range queued {
		sk := key.Key()
		stamp, ok := e.stamps.Load(sk)
		if !ok || !e.isReleased(stamp.epoch) {
			continue
		}
		e.mu.Lock()
		skip := e.pinned[sk] > 0
		e.mu.Unlock()
		if skip {
			continue
		}
		e.stamps.Delete(sk)
		if err := e.delegate.Remove(ctx, key); err != nil {
			e.log.Warnf("cache %s: reclaiming %s failed: %v", e.delegate.ID(), key, err)
		}
	}
}

// ID implements Cache.
func (e *EpochCache) ID() string { return e.delegate.ID() }

// Size implements Cache, reconciling pending reclamation first.
func (e *EpochCache) Size() int {
	e.drain(context.Background())
	return e.delegate.Size()
}

// Get implements Cache. A released, unpinned entry is treated as absent and
// purged on the spot; a live entry is pinned in the hot ring and returned.
func (e *EpochCache) Get(ctx context.Context, key *Fingerprint) (any, bool, error) {
	sk := key.Key()

	if stamp, ok := e.stamps.Load(sk); ok && e.isReleased(stamp.epoch) {
		e.mu.Lock()
		stale := e.pinned[sk] == 0
		e.mu.Unlock()
		if stale {
			e.stamps.Delete(sk)
			if err := e.delegate.Remove(ctx, key); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		}
	}

	value, ok, err := e.delegate.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	e.pin(sk)
	return value, true, nil
}

// Put implements Cache, draining pending reclamation first and stamping the
// entry with the current epoch.
func (e *EpochCache) Put(ctx context.Context, key *Fingerprint, value any) error {
	e.drain(ctx)
	if err := e.delegate.Put(ctx, key, value); err != nil {
		return err
	}
	e.stamps.Store(key.Key(), &epochStamp{key: key, epoch: e.epoch.Load()})
	return nil
}

// Remove implements Cache, draining pending reclamation first.
func (e *EpochCache) Remove(ctx context.Context, key *Fingerprint) error {
	e.drain(ctx)
	e.stamps.Delete(key.Key())
	return e.delegate.Remove(ctx, key)
}

// Clear implements Cache, resetting all reclamation bookkeeping.
func (e *EpochCache) Clear(ctx context.Context) error {
	e.mu.Lock()
	e.ring = nil
	e.pinned = make(map[string]int)
	e.reclaim = nil
	e.mu.Unlock()
	e.stamps.Clear()
	return e.delegate.Clear(ctx)
}
