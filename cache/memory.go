package cache

import (
	"context"

	"github.com/puzpuzpuz/xsync/v3"
)

// MemoryCache is the default base store: a sharded concurrent map from
// fingerprint to value with no eviction of its own. It is the innermost
// layer of every decorator chain and the single source of truth for values;
// decorators only add bookkeeping around it.
type MemoryCache struct {
	id      string
	entries *xsync.MapOf[string, any]
}

// NewMemoryCache creates an empty base store with the given identifier.
func NewMemoryCache(id string) *MemoryCache {
	return &MemoryCache{
		id:      id,
		entries: xsync.NewMapOf[string, any](),
	}
}

// ID implements Cache.
func (m *MemoryCache) ID() string { return m.id }

// Size implements Cache.
func (m *MemoryCache) Size() int { return m.entries.Size() }

// Get implements Cache. A stored nil value is reported as present.
func (m *MemoryCache) Get(ctx context.Context, key *Fingerprint) (any, bool, error) {
	value, ok := m.entries.Load(key.Key())
	return value, ok, nil
}

// Put implements Cache.
func (m *MemoryCache) Put(ctx context.Context, key *Fingerprint, value any) error {
	m.entries.Store(key.Key(), value)
	return nil
}

// Remove implements Cache.
func (m *MemoryCache) Remove(ctx context.Context, key *Fingerprint) error {
	m.entries.Delete(key.Key())
	return nil
}

// Clear implements Cache.
func (m *MemoryCache) Clear(ctx context.Context) error {
	m.entries.Clear()
	return nil
}
