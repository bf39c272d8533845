package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// EvictionPolicy selects the admission/eviction decorator layered over the
// base store.
type EvictionPolicy string

const (
	// EvictionNone keeps every entry until removed or cleared.
	EvictionNone EvictionPolicy = "none"
	// EvictionFIFO evicts in strict insertion order.
	EvictionFIFO EvictionPolicy = "fifo"
	// EvictionLRU evicts the least-recently-touched key.
	EvictionLRU EvictionPolicy = "lru"
	// EvictionEpoch reclaims entries whose epoch the owner has released.
	EvictionEpoch EvictionPolicy = "epoch"
)

// Config describes one cache region: its identity, eviction policy and
// capacity, whether misses are serialized through the single-populator
// protocol, and how long a lock wait may block. Invalid values are rejected
// here, at configuration time, never at use time.
type Config struct {
	// ID is the region's stable identifier. Empty generates one.
	ID string

	// Policy selects the eviction decorator. Default: EvictionLRU.
	Policy EvictionPolicy

	// Size is the eviction capacity for FIFO and LRU. Zero uses the
	// policy's default (1024).
	Size int

	// PinnedEntries bounds the epoch policy's hot-read retention ring.
	// Zero uses the default (256).
	PinnedEntries int

	// Blocking serializes concurrent misses for the same key so only one
	// caller recomputes. Implied by a non-zero Timeout.
	Blocking bool

	// Timeout bounds how long a blocked Get waits for a key's lock. Zero
	// waits indefinitely (until context cancellation).
	Timeout time.Duration

	// TTL, when positive, selects a time-expiring base store instead of the
	// perpetual in-memory store. Consumed by the wiring layer.
	TTL time.Duration

	// Logger receives lock-wait diagnostics and suppressed failures. Nil
	// uses the process-wide logrus logger.
	Logger Logger
}

// DefaultConfig returns a Config populated with sensible defaults: an LRU
// region of 1024 entries, no miss serialization, no TTL.
func DefaultConfig() Config {
	return Config{
		Policy:        EvictionLRU,
		Size:          DefaultLRUCapacity,
		PinnedEntries: DefaultPinnedEntries,
	}
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Policy, validation.In(
			EvictionPolicy(""), EvictionNone, EvictionFIFO, EvictionLRU, EvictionEpoch,
		)),
		validation.Field(&c.Size, validation.Min(0)),
		validation.Field(&c.PinnedEntries, validation.Min(0)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
	)
}

// Build validates cfg and assembles the default chain around a fresh
// in-memory base store: base store, then the eviction decorator, then the
// blocking decorator outermost. Callers that need a different base store
// (for example the TTL-expiring one) validate and call Decorate themselves.
func Build(cfg Config) (Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id := cfg.ID
	if id == "" {
		id = uuid.NewString()
	}
	return Decorate(NewMemoryCache(id), cfg)
}

// Decorate layers cfg's eviction and concurrency policies over an existing
// base store. The base is the innermost layer; reads reach it through
// blocking first, then eviction bookkeeping.
func Decorate(base Cache, cfg Config) (Cache, error) {
	log := cfg.Logger
	if log == nil {
		log = DefaultLogger()
	}

	c := base
	switch cfg.Policy {
	case EvictionFIFO:
		c = NewFIFOCache(c, cfg.Size)
	case EvictionLRU, EvictionPolicy(""):
		var err error
		c, err = NewLRUCache(c, cfg.Size, log)
		if err != nil {
			return nil, err
		}
	case EvictionEpoch:
		c = NewEpochCache(c, cfg.PinnedEntries, log)
	case EvictionNone:
	}

	if cfg.Blocking || cfg.Timeout > 0 {
		c = NewBlockingCache(c, cfg.Timeout, log)
	}
	return c, nil
}
