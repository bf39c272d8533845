package cache

import (
	"container/list"
	"context"
	"sync"
)

// DefaultFIFOCapacity bounds a FIFOCache when no capacity is configured.
const DefaultFIFOCapacity = 1024

// FIFOCache evicts in strict insertion order: every Put appends the key to
// an order queue, and once the queue exceeds capacity the head key is
// removed from the wrapped cache. The queue is bookkeeping only; the wrapped
// cache remains the source of truth for values.
//
// Re-putting an existing key pushes a fresh tail entry rather than moving
// the old one. The duplicate is harmless (the wrapped store is keyed by
// equality and only the head is ever evicted) but it does consume queue
// capacity; the queue is deliberately not deduplicated.
type FIFOCache struct {
	delegate Cache
	capacity int

	mu    sync.Mutex
	queue *list.List
}

// NewFIFOCache wraps delegate with insertion-order eviction. A non-positive
// capacity falls back to DefaultFIFOCapacity.
func NewFIFOCache(delegate Cache, capacity int) *FIFOCache {
	if capacity <= 0 {
		capacity = DefaultFIFOCapacity
	}
	return &FIFOCache{
		delegate: delegate,
		capacity: capacity,
		queue:    list.New(),
	}
}

// ID implements Cache.
func (f *FIFOCache) ID() string { return f.delegate.ID() }

// Size implements Cache.
func (f *FIFOCache) Size() int { return f.delegate.Size() }

// Get implements Cache. Reads never affect eviction order.
func (f *FIFOCache) Get(ctx context.Context, key *Fingerprint) (any, bool, error) {
	return f.delegate.Get(ctx, key)
}

// Put implements Cache, evicting the oldest key once capacity is exceeded.
func (f *FIFOCache) Put(ctx context.Context, key *Fingerprint, value any) error {
	if err := f.delegate.Put(ctx, key, value); err != nil {
		return err
	}

	f.mu.Lock()
	f.queue.PushBack(key)
	var oldest *Fingerprint
	if f.queue.Len() > f.capacity {
		oldest = f.queue.Remove(f.queue.Front()).(*Fingerprint)
	}
	f.mu.Unlock()

	if oldest != nil {
		return f.delegate.Remove(ctx, oldest)
	}
	return nil
}

// Remove implements Cache. The key's queue entry is left in place; it
// becomes a no-op when its turn to evict arrives.
func (f *FIFOCache) Remove(ctx context.Context, key *Fingerprint) error {
	return f.delegate.Remove(ctx, key)
}

// Clear implements Cache, resetting the order queue as well.
func (f *FIFOCache) Clear(ctx context.Context) error {
	f.mu.Lock()
	f.queue.Init()
	f.mu.Unlock()
	return f.delegate.Clear(ctx)
}
