package txcache

import (
	"context"

	"github.com/goliatone/go-query-cache/cache"
)

// Registry owns the transactional buffers of one unit of work: one Buffer
// per distinct base cache, created on first access. Commit and Rollback
// apply the boundary event to every registered buffer, after which the
// buffers are back in their initial state and the registry can serve the
// next transaction in the same unit of work.
//
// A Registry is scoped to a single unit of work (one session) and is not
// safe for concurrent use. There is deliberately no process-wide instance;
// callers pass a registry explicitly or carry it on the context.
type Registry struct {
	log     cache.Logger
	buffers map[cache.Cache]*Buffer
}

// NewRegistry creates an empty registry for one unit of work.
func NewRegistry(log cache.Logger) *Registry {
	if log == nil {
		log = cache.DefaultLogger()
	}
	return &Registry{
		log:     log,
		buffers: make(map[cache.Cache]*Buffer),
	}
}

// BufferFor resolves or creates the transactional buffer wrapping c within
// this unit of work. Buffer identity is per base cache instance.
func (r *Registry) BufferFor(c cache.Cache) *Buffer {
	if b, ok := r.buffers[c]; ok {
		return b
	}
	b := NewBuffer(c, r.log)
	r.buffers[c] = b
	return b
}

// Get reads key through c's transactional buffer.
func (r *Registry) Get(ctx context.Context, c cache.Cache, key *cache.Fingerprint) (any, bool, error) {
	return r.BufferFor(c).Get(ctx, key)
}

// Put buffers a write to c until the transaction commits.
func (r *Registry) Put(ctx context.Context, c cache.Cache, key *cache.Fingerprint, value any) error {
	return r.BufferFor(c).Put(ctx, key, value)
}

// Clear defers a clear of c until the transaction commits.
func (r *Registry) Clear(ctx context.Context, c cache.Cache) error {
	return r.BufferFor(c).Clear(ctx)
}

// Commit flushes every registered buffer. The first failure is returned as
// is, leaving that buffer unreset (see Buffer.Commit); buffers already
// flushed have been reset and are reusable.
func (r *Registry) Commit(ctx context.Context) error {
	for _, b := range r.buffers {
		if err := b.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Rollback discards every registered buffer's writes and releases their
// missed-key locks. It always completes.
func (r *Registry) Rollback(ctx context.Context) {
	for _, b := range r.buffers {
		b.Rollback(ctx)
	}
}
