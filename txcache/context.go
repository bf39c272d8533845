package txcache

import (
	"context"
)

type registryContextKey struct{}

// WithRegistry attaches the unit of work's registry to the context so layers
// that only see a context (repository decorators, query helpers) can route
// cache traffic through the transaction's buffers.
func WithRegistry(ctx context.Context, r *Registry) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if r == nil {
		return ctx
	}
	return context.WithValue(ctx, registryContextKey{}, r)
}

// FromContext returns the registry attached by WithRegistry, if any.
func FromContext(ctx context.Context) (*Registry, bool) {
	if ctx == nil {
		return nil, false
	}
	r, ok := ctx.Value(registryContextKey{}).(*Registry)
	return r, ok
}
