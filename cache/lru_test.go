package cache

import (
	"context"
	"testing"
)

func TestLRUCache_ReadRefreshesRecency(t *testing.T) {
	ctx := context.Background()
	l, err := NewLRUCache(NewMemoryCache("lru"), 3, nil)
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	keys := make([]*Fingerprint, 4)
	for i := range keys {
		keys[i] = NewFingerprint("selectUser", i)
	}

	// Fill to capacity: recency order is 0 < 1 < 2.
	for i := 0; i < 3; i++ {
		if err := l.Put(ctx, keys[i], i); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
	}

	// Read the least-recently-used key; now 1 is the LRU victim.
	if v, ok, _ := l.Get(ctx, keys[0]); !ok || v != 0 {
		t.Fatalf("Get(0) = (%v, %v), want (0, true)", v, ok)
	}

	// Overflow evicts key 1, not key 0.
	if err := l.Put(ctx, keys[3], 3); err != nil {
		t.Fatalf("Put(3) error = %v", err)
	}
	if _, ok, _ := l.Get(ctx, keys[1]); ok {
		t.Error("least-recently-used key must be evicted")
	}
	if _, ok, _ := l.Get(ctx, keys[0]); !ok {
		t.Error("recently read key must survive")
	}
	if _, ok, _ := l.Get(ctx, keys[3]); !ok {
		t.Error("newest key must be present")
	}
}

func TestLRUCache_PutCountsAsTouch(t *testing.T) {
	ctx := context.Background()
	l, err := NewLRUCache(NewMemoryCache("lru"), 2, nil)
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	k0 := NewFingerprint("q", 0)
	k1 := NewFingerprint("q", 1)
	k2 := NewFingerprint("q", 2)

	_ = l.Put(ctx, k0, 0)
	_ = l.Put(ctx, k1, 1)
	_ = l.Put(ctx, k0, 10) // refresh k0; k1 becomes the victim
	_ = l.Put(ctx, k2, 2)

	if _, ok, _ := l.Get(ctx, k1); ok {
		t.Error("k1 should have been evicted")
	}
	if v, ok, _ := l.Get(ctx, k0); !ok || v != 10 {
		t.Errorf("k0 = (%v, %v), want (10, true)", v, ok)
	}
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	l, err := NewLRUCache(NewMemoryCache("lru"), 4, nil)
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	k := NewFingerprint("q", 0)
	_ = l.Put(ctx, k, "v")
	if err := l.Remove(ctx, k); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := l.Get(ctx, k); ok {
		t.Error("removed entry still present")
	}

	_ = l.Put(ctx, k, "v")
	_ = l.Put(ctx, NewFingerprint("q", 1), 1)
	if err := l.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if l.Size() != 0 {
		t.Errorf("size after clear = %d, want 0", l.Size())
	}
}

func TestLRUCache_DefaultCapacity(t *testing.T) {
	ctx := context.Background()
	l, err := NewLRUCache(NewMemoryCache("lru"), 0, nil)
	if err != nil {
		t.Fatalf("NewLRUCache() error = %v", err)
	}

	// Fill past the default; the store must be bounded by it.
	for i := 0; i < DefaultLRUCapacity+10; i++ {
		if err := l.Put(ctx, NewFingerprint("q", i), i); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
	}
	if got := l.Size(); got != DefaultLRUCapacity {
		t.Errorf("size = %d, want %d", got, DefaultLRUCapacity)
	}
}
