package cache

import (
	"context"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero value", Config{}, false},
		{"explicit none policy", Config{Policy: EvictionNone}, false},
		{"fifo with capacity", Config{Policy: EvictionFIFO, Size: 64}, false},
		{"epoch with pinned ring", Config{Policy: EvictionEpoch, PinnedEntries: 32}, false},
		{"blocking with timeout", Config{Blocking: true, Timeout: time.Second}, false},
		{"unknown policy", Config{Policy: "mru"}, true},
		{"negative size", Config{Size: -1}, true},
		{"negative pinned entries", Config{PinnedEntries: -5}, true},
		{"negative timeout", Config{Timeout: -time.Second}, true},
		{"negative ttl", Config{TTL: -time.Minute}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuild_RejectsInvalidConfig(t *testing.T) {
	if _, err := Build(Config{Policy: "mru"}); err == nil {
		t.Error("Build() accepted an invalid policy")
	}
	if _, err := Build(Config{Size: -1}); err == nil {
		t.Error("Build() accepted a negative size")
	}
}

func TestBuild_GeneratesIDWhenEmpty(t *testing.T) {
	a, err := Build(Config{Policy: EvictionNone})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	b, err := Build(Config{Policy: EvictionNone})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if a.ID() == "" {
		t.Error("generated ID is empty")
	}
	if a.ID() == b.ID() {
		t.Errorf("two builds share ID %q", a.ID())
	}

	c, err := Build(Config{ID: "users", Policy: EvictionNone})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if c.ID() != "users" {
		t.Errorf("ID() = %q, want users", c.ID())
	}
}

func TestDecorate_PolicySelection(t *testing.T) {
	base := NewMemoryCache("region")

	tests := []struct {
		name string
		cfg  Config
		want any
	}{
		{"none returns base", Config{Policy: EvictionNone}, base},
		{"fifo", Config{Policy: EvictionFIFO, Size: 8}, (*FIFOCache)(nil)},
		{"lru", Config{Policy: EvictionLRU, Size: 8}, (*LRUCache)(nil)},
		{"empty policy defaults to lru", Config{}, (*LRUCache)(nil)},
		{"epoch", Config{Policy: EvictionEpoch}, (*EpochCache)(nil)},
		{"blocking wraps outermost", Config{Policy: EvictionFIFO, Blocking: true}, (*BlockingCache)(nil)},
		{"timeout implies blocking", Config{Policy: EvictionNone, Timeout: time.Second}, (*BlockingCache)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decorate(base, tt.cfg)
			if err != nil {
				t.Fatalf("Decorate() error = %v", err)
			}
			switch want := tt.want.(type) {
			case *MemoryCache:
				if c != Cache(want) {
					t.Errorf("Decorate() = %T, want the base store", c)
				}
			case *FIFOCache:
				if _, ok := c.(*FIFOCache); !ok {
					t.Errorf("Decorate() = %T, want *FIFOCache", c)
				}
			case *LRUCache:
				if _, ok := c.(*LRUCache); !ok {
					t.Errorf("Decorate() = %T, want *LRUCache", c)
				}
			case *EpochCache:
				if _, ok := c.(*EpochCache); !ok {
					t.Errorf("Decorate() = %T, want *EpochCache", c)
				}
			case *BlockingCache:
				if _, ok := c.(*BlockingCache); !ok {
					t.Errorf("Decorate() = %T, want *BlockingCache", c)
				}
			}
		})
	}
}

func TestBuild_AssembledChainWorks(t *testing.T) {
	ctx := context.Background()
	c, err := Build(Config{
		ID:      "users",
		Policy:  EvictionLRU,
		Size:    2,
		Timeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	k0 := NewFingerprint("selectUser", 0)
	k1 := NewFingerprint("selectUser", 1)
	k2 := NewFingerprint("selectUser", 2)

	// Misses hold locks; Put releases and stores through the chain.
	for i, k := range []*Fingerprint{k0, k1, k2} {
		if _, ok, err := c.Get(ctx, k); ok || err != nil {
			t.Fatalf("Get(%d) = (_, %v, %v), want miss", i, ok, err)
		}
		if err := c.Put(ctx, k, i); err != nil {
			t.Fatalf("Put(%d) error = %v", i, err)
		}
	}

	// Capacity 2: the oldest key was evicted through the LRU layer.
	if _, ok, _ := c.Get(ctx, k0); ok {
		t.Error("evicted key still present")
	}
	_ = c.Remove(ctx, k0) // release the miss lock

	if v, ok, _ := c.Get(ctx, k2); !ok || v != 2 {
		t.Errorf("Get(k2) = (%v, %v), want (2, true)", v, ok)
	}
}
