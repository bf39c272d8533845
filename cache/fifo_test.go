package cache

import (
	"context"
	"testing"
)

func TestFIFOCache_EvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	f := NewFIFOCache(NewMemoryCache("fifo"), 3)

	keys := make([]*Fingerprint, 4)
	for i := range keys {
		keys[i] = NewFingerprint("selectUser", i)
	}

	// Fill to capacity, then one more.
	for i := 0; i < 4; i++ {
		if err := f.Put(ctx, keys[i], i); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
	}

	if _, ok, _ := f.Get(ctx, keys[0]); ok {
		t.Error("first-inserted key must be evicted")
	}
	for i := 1; i < 4; i++ {
		if v, ok, _ := f.Get(ctx, keys[i]); !ok || v != i {
			t.Errorf("key %d = (%v, %v), want (%d, true)", i, v, ok, i)
		}
	}
}

func TestFIFOCache_ReadsDoNotAffectOrder(t *testing.T) {
	ctx := context.Background()
	f := NewFIFOCache(NewMemoryCache("fifo"), 2)

	k0 := NewFingerprint("q", 0)
	k1 := NewFingerprint("q", 1)
	k2 := NewFingerprint("q", 2)

	_ = f.Put(ctx, k0, 0)
	_ = f.Put(ctx, k1, 1)

	// Touch the oldest; FIFO ignores reads.
	if _, ok, _ := f.Get(ctx, k0); !ok {
		t.Fatal("expected hit before overflow")
	}

	_ = f.Put(ctx, k2, 2)
	if _, ok, _ := f.Get(ctx, k0); ok {
		t.Error("read must not save the oldest key from eviction")
	}
	if _, ok, _ := f.Get(ctx, k1); !ok {
		t.Error("second key should survive")
	}
}

func TestFIFOCache_RePutIsNotDeduplicated(t *testing.T) {
	ctx := context.Background()
	f := NewFIFOCache(NewMemoryCache("fifo"), 2)

	k0 := NewFingerprint("q", 0)
	k1 := NewFingerprint("q", 1)

	_ = f.Put(ctx, k0, "a")
	_ = f.Put(ctx, k0, "b") // queue now holds k0 twice
	_ = f.Put(ctx, k1, 1)   // overflow pops the first k0 entry

	// The head eviction removed k0 from the store even though a newer queue
	// entry for it remains; the queue does not deduplicate.
	if _, ok, _ := f.Get(ctx, k0); ok {
		t.Error("head eviction must remove the re-put key's entry")
	}
	if v, ok, _ := f.Get(ctx, k1); !ok || v != 1 {
		t.Errorf("k1 = (%v, %v), want (1, true)", v, ok)
	}
}

func TestFIFOCache_ClearResetsQueue(t *testing.T) {
	ctx := context.Background()
	f := NewFIFOCache(NewMemoryCache("fifo"), 2)

	_ = f.Put(ctx, NewFingerprint("q", 0), 0)
	_ = f.Put(ctx, NewFingerprint("q", 1), 1)
	if err := f.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if f.Size() != 0 {
		t.Fatalf("size after clear = %d, want 0", f.Size())
	}

	// The queue restarted: two fresh puts fit without eviction.
	k2 := NewFingerprint("q", 2)
	k3 := NewFingerprint("q", 3)
	_ = f.Put(ctx, k2, 2)
	_ = f.Put(ctx, k3, 3)
	if _, ok, _ := f.Get(ctx, k2); !ok {
		t.Error("entry evicted by stale queue state after clear")
	}
	if _, ok, _ := f.Get(ctx, k3); !ok {
		t.Error("entry missing after clear")
	}
}

func TestFIFOCache_DefaultCapacity(t *testing.T) {
	f := NewFIFOCache(NewMemoryCache("fifo"), 0)
	if f.capacity != DefaultFIFOCapacity {
		t.Errorf("capacity = %d, want %d", f.capacity, DefaultFIFOCapacity)
	}
}
