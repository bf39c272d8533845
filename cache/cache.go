package cache

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Cache is the capability every base store and decorator implements.
// Consumers depend on this interface only, never on a concrete store, so
// that eviction and concurrency policies can be layered by wrapping.
//
// Values are opaque to the cache. A nil value is a legal entry: stores must
// keep it and report it as present, which lets the transactional layer
// publish "known absent" placeholders.
type Cache interface {
	// ID returns the stable logical identifier of this cache instance.
	// Decorators report the identifier of the cache they wrap.
	ID() string

	// Size returns the current number of logical entries. Decorators that
	// defer physical removal reconcile pending reclamation before reporting.
	Size() int

	// Get returns the value stored under key and whether it was present.
	// It never mutates stored content, though decorators may update local
	// bookkeeping (recency, lock state) as a side effect.
	Get(ctx context.Context, key *Fingerprint) (any, bool, error)

	// Put inserts or overwrites the entry for key.
	Put(ctx context.Context, key *Fingerprint, value any) error

	// Remove drops the logical entry for key. Decorators may repurpose this
	// call for non-eviction side effects; BlockingCache uses it to release
	// a key's lock without publishing a value.
	Remove(ctx context.Context, key *Fingerprint) error

	// Clear removes all entries together with decorator-local bookkeeping.
	Clear(ctx context.Context) error
}

// Logger is the narrow logging capability the cache layer needs. It is
// satisfied by *logrus.Logger; callers with their own logging stack can
// supply any implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Warnf(format string, args ...any)
}

// DefaultLogger returns the process-wide logrus logger. Components that are
// constructed without an explicit Logger fall back to it.
func DefaultLogger() Logger {
	return logrus.StandardLogger()
}
