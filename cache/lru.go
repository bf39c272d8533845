package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUCapacity bounds an LRUCache when no capacity is configured.
const DefaultLRUCapacity = 1024

// LRUCache evicts the least-recently-touched key once capacity is exceeded.
// Both Put and Get count as a touch. Recency bookkeeping lives in a
// hashicorp/golang-lru key index whose eviction callback removes the victim
// from the wrapped cache; the wrapped cache remains the source of truth for
// values.
type LRUCache struct {
	delegate Cache
	keys     *lru.Cache[string, *Fingerprint]
	log      Logger
}

// NewLRUCache wraps delegate with access-order eviction. A non-positive
// capacity falls back to DefaultLRUCapacity.
func NewLRUCache(delegate Cache, capacity int, log Logger) (*LRUCache, error) {
	if capacity <= 0 {
		capacity = DefaultLRUCapacity
	}
	if log == nil {
		log = DefaultLogger()
	}

	c := &LRUCache{delegate: delegate, log: log}
	keys, err := lru.NewWithEvict(capacity, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.keys = keys
	return c, nil
}

// onEvict is invoked by the key index whenever a key falls out, either by
// overflow or by explicit removal. Removing an already-removed key from the
// delegate is a no-op, so the redundant call on the explicit path is safe.
func (l *LRUCache) onEvict(_ string, key *Fingerprint) {
	if err := l.delegate.Remove(context.Background(), key); err != nil {
		l.log.Warnf("cache %s: evicting %s from backing store failed: %v",
			l.delegate.ID(), key, err)
	}
}

// ID implements Cache.
func (l *LRUCache) ID() string { return l.delegate.ID() }

// Size implements Cache.
func (l *LRUCache) Size() int { return l.delegate.Size() }

// Get implements Cache, touching the key before delegating the read.
func (l *LRUCache) Get(ctx context.Context, key *Fingerprint) (any, bool, error) {
	l.keys.Get(key.Key())
	return l.delegate.Get(ctx, key)
}

// Put implements Cache. The write lands in the wrapped cache first; the key
// is then registered as most recently used, which may evict the LRU victim.
func (l *LRUCache) Put(ctx context.Context, key *Fingerprint, value any) error {
	if err := l.delegate.Put(ctx, key, value); err != nil {
		return err
	}
	l.keys.Add(key.Key(), key)
	return nil
}

// Remove implements Cache.
func (l *LRUCache) Remove(ctx context.Context, key *Fingerprint) error {
	l.keys.Remove(key.Key())
	return l.delegate.Remove(ctx, key)
}

// Clear implements Cache.
func (l *LRUCache) Clear(ctx context.Context) error {
	if err := l.delegate.Clear(ctx); err != nil {
		return err
	}
	l.keys.Purge()
	return nil
}
