package di

import (
	"context"
	"fmt"
	"sync"

	repository "github.com/goliatone/go-repository-bun"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/internal/cacheinfra"
	"github.com/goliatone/go-query-cache/repocache"
	"github.com/goliatone/go-query-cache/txcache"
)

// Container wires cache configuration into shared cache regions and
// per-session transactional registries. Regions are built lazily, one chain
// per region name, and shared by every session that asks for the same name;
// registries are never shared.
type Container struct {
	cfg cache.Config
	log cache.Logger

	mu      sync.Mutex
	regions map[string]cache.Cache
}

// NewContainer creates a container using cfg as the template for every
// region it builds. The configuration is validated once, up front.
func NewContainer(cfg cache.Config) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = cache.DefaultLogger()
	}
	return &Container{
		cfg:     cfg,
		log:     log,
		regions: make(map[string]cache.Cache),
	}, nil
}

// NewContainerWithDefaults creates a container using default configuration.
func NewContainerWithDefaults() (*Container, error) {
	return NewContainer(cache.DefaultConfig())
}

// Config returns a copy of the template configuration.
func (c *Container) Config() cache.Config { return c.cfg }

// Region resolves or builds the shared cache chain for the given region
// name. A positive TTL in the template selects the time-expiring base
// store; otherwise the perpetual in-memory store is used.
func (c *Container) Region(name string) (cache.Cache, error) {
	if name == "" {
		return nil, fmt.Errorf("di: region name must not be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.regions[name]; ok {
		return existing, nil
	}

	cfg := c.cfg
	cfg.ID = name
	cfg.Logger = c.log

	var base cache.Cache
	if cfg.TTL > 0 {
		capacity := cfg.Size
		if capacity <= 0 {
			capacity = cache.DefaultLRUCapacity
		}
		store, err := cacheinfra.NewSturdycStore(name, capacity, cfg.TTL)
		if err != nil {
			return nil, err
		}
		base = store
	} else {
		base = cache.NewMemoryCache(name)
	}

	chain, err := cache.Decorate(base, cfg)
	if err != nil {
		return nil, err
	}
	c.regions[name] = chain
	return chain, nil
}

// NewRegistry creates a transactional registry for one unit of work.
func (c *Container) NewRegistry() *txcache.Registry {
	return txcache.NewRegistry(c.log)
}

// BeginUnitOfWork creates a registry and attaches it to the context, so
// repositories and query helpers downstream route cache traffic through the
// transaction's buffers.
func (c *Container) BeginUnitOfWork(ctx context.Context) (context.Context, *txcache.Registry) {
	reg := c.NewRegistry()
	return txcache.WithRegistry(ctx, reg), reg
}

// NewCachedRepository wraps base with caching against the named region.
//
// Since Go methods cannot have type parameters, this is provided as a
// package-level function. Example: NewCachedRepository[User](container,
// "users", baseUserRepository)
func NewCachedRepository[T any](c *Container, region string, base repository.Repository[T]) (*repocache.CachedRepository[T], error) {
	shared, err := c.Region(region)
	if err != nil {
		return nil, err
	}
	return repocache.New(base, shared, c.log), nil
}
