// Package cacheinfra hosts base-store implementations backed by external
// cache engines. They sit at the innermost position of a decorator chain,
// behind the eviction and blocking layers.
package cacheinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/viccon/sturdyc"

	"github.com/goliatone/go-query-cache/cache"
)

const (
	// defaultNumShards is passed to sturdyc for concurrent access.
	defaultNumShards = 256

	// defaultEvictionPercentage is the share of entries sturdyc evicts when
	// the store reaches capacity.
	defaultEvictionPercentage = 10
)

// SturdycStore is a time-expiring base store: entries vanish after the
// configured TTL even if never evicted by an outer decorator. It implements
// the cache capability over a sturdyc client.
//
// Version compatibility note: assumes the sturdyc v1.x API.
type SturdycStore struct {
	id     string
	client *sturdyc.Client[any]
}

// NewSturdycStore creates a TTL base store. Capacity and TTL must be
// positive; configuration errors are reported here, not at use time.
func NewSturdycStore(id string, capacity int, ttl time.Duration) (*SturdycStore, error) {
	if id == "" {
		return nil, fmt.Errorf("cacheinfra: store id must not be empty")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("cacheinfra: store %s: capacity must be greater than 0", id)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cacheinfra: store %s: ttl must be greater than 0", id)
	}

	// Capacity is split across shards; keep every shard at capacity >= 1.
	shards := defaultNumShards
	if capacity < shards {
		shards = capacity
	}
	client := sturdyc.New[any](capacity, shards, ttl, defaultEvictionPercentage)
	return &SturdycStore{id: id, client: client}, nil
}

// ID implements cache.Cache.
func (s *SturdycStore) ID() string { return s.id }

// Size implements cache.Cache. Expired entries sturdyc has not yet swept
// may still be counted; the count converges after its eviction pass.
func (s *SturdycStore) Size() int { return s.client.Size() }

// Get implements cache.Cache.
func (s *SturdycStore) Get(ctx context.Context, key *cache.Fingerprint) (any, bool, error) {
	value, ok := s.client.Get(key.Key())
	return value, ok, nil
}

// Put implements cache.Cache. A nil value is stored like any other.
func (s *SturdycStore) Put(ctx context.Context, key *cache.Fingerprint, value any) error {
	s.client.Set(key.Key(), value)
	return nil
}

// Remove implements cache.Cache.
func (s *SturdycStore) Remove(ctx context.Context, key *cache.Fingerprint) error {
	s.client.Delete(key.Key())
	return nil
}

// Clear implements cache.Cache. sturdyc has no bulk clear; keys are scanned
// and deleted individually.
func (s *SturdycStore) Clear(ctx context.Context) error {
	for _, k := range s.client.ScanKeys() {
		s.client.Delete(k)
	}
	return nil
}
