package repocache

import (
	"context"
	"reflect"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-query-cache/cache"
	"github.com/goliatone/go-query-cache/txcache"
)

// Interface assertion to ensure CachedRepository implements Repository[T]
var _ repository.Repository[any] = (*CachedRepository[any])(nil)

// listResult wraps the tuple result from List operations so records and
// total are cached as a unit.
type listResult[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total"`
}

// CachedRepository decorates a base repository with second-level caching.
// Read operations are keyed by fingerprints built from the entity region,
// the method name and its arguments. When the context carries a unit-of-work
// registry (txcache.WithRegistry), all cache traffic is routed through the
// transaction's buffer: reads stay visible, writes and invalidations are
// deferred to commit. Without a registry the shared cache is used directly.
//
// Every write operation invalidates by clearing the region; inside a unit of
// work the clear is deferred, so uncommitted writes never disturb other
// sessions' view of the cache.
type CachedRepository[T any] struct {
	base   repository.Repository[T]
	cache  cache.Cache
	log    cache.Logger
	region string
}

// New creates a CachedRepository wrapping base with the given shared cache
// chain.
func New[T any](base repository.Repository[T], shared cache.Cache, log cache.Logger) *CachedRepository[T] {
	if log == nil {
		log = cache.DefaultLogger()
	}
	return &CachedRepository[T]{
		base:   base,
		cache:  shared,
		log:    log,
		region: regionName[T](),
	}
}

// regionName derives a namespace for T's keys so distinct entities sharing
// one cache never collide.
func regionName[T any]() string {
	var zero T
	t := reflect.TypeOf(&zero).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// store resolves where cache traffic goes: the unit of work's buffer when
// one is attached to the context, the shared chain otherwise.
func (c *CachedRepository[T]) store(ctx context.Context) cache.Cache {
	if reg, ok := txcache.FromContext(ctx); ok {
		return reg.BufferFor(c.cache)
	}
	return c.cache
}

// newKey builds the fingerprint for one logical query. Criteria functions
// contribute by pointer, stable within a process only.
func (c *CachedRepository[T]) newKey(method string, parts ...any) *cache.Fingerprint {
	key := cache.NewFingerprint(c.region, method)
	key.UpdateAll(parts...)
	return key
}

// flush invalidates the region after a write. Inside a unit of work the
// clear is buffered until commit.
func (c *CachedRepository[T]) flush(ctx context.Context) {
	if err := c.store(ctx).Clear(ctx); err != nil {
		c.log.Warnf("cache %s: invalidating after write failed: %v", c.cache.ID(), err)
	}
}

// getOrLoad reads through the given store, loading and populating on a
// miss. A nil cached value is a known-absent placeholder and short-circuits
// to the zero value without hitting the source. Cache read failures (lock
// timeouts, cancelled waits) degrade to an uncached load. A failed load
// releases the key via Remove so a blocking chain never strands waiters.
func getOrLoad[R any](ctx context.Context, store cache.Cache, log cache.Logger, key *cache.Fingerprint, load func(context.Context) (R, error)) (R, error) {
	var zero R

	cached, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Warnf("cache %s: read for key %s failed, querying source uncached: %v", store.ID(), key, err)
		return load(ctx)
	}
	if ok {
		if cached == nil {
			return zero, nil
		}
		if typed, good := cached.(R); good {
			return typed, nil
		}
		log.Warnf("cache %s: unexpected entry type %T for key %s, reloading", store.ID(), cached, key)
	}

	value, err := load(ctx)
	if err != nil {
		if rerr := store.Remove(ctx, key); rerr != nil {
			log.Warnf("cache %s: releasing key %s after failed load: %v", store.ID(), key, rerr)
		}
		return zero, err
	}
	if perr := store.Put(ctx, key, value); perr != nil {
		log.Warnf("cache %s: storing key %s failed: %v", store.ID(), key, perr)
	}
	return value, nil
}

// Get retrieves a single record using the provided criteria, with caching.
func (c *CachedRepository[T]) Get(ctx context.Context, criteria ...repository.SelectCriteria) (T, error) {
	key := c.newKey("Get", criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (T, error) {
		return c.base.Get(ctx, criteria...)
	})
}

// GetByID retrieves a record by ID with optional criteria, with caching.
func (c *CachedRepository[T]) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error) {
	key := c.newKey("GetByID", id, criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (T, error) {
		return c.base.GetByID(ctx, id, criteria...)
	})
}

// GetByIdentifier retrieves a record by identifier with optional criteria,
// with caching.
func (c *CachedRepository[T]) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	key := c.newKey("GetByIdentifier", identifier, criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifier(ctx, identifier, criteria...)
	})
}

// List retrieves multiple records using the provided criteria, with caching.
// Records and total are cached as a unit.
func (c *CachedRepository[T]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	key := c.newKey("List", criteria)
	res, err := getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (listResult[T], error) {
		records, total, err := c.base.List(ctx, criteria...)
		return listResult[T]{Records: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

// Count returns the number of records matching the criteria, with caching.
func (c *CachedRepository[T]) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	key := c.newKey("Count", criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (int, error) {
		return c.base.Count(ctx, criteria...)
	})
}

// GetTx retrieves a single record within a transaction. Cached only inside
// a unit of work, through its buffer; otherwise the cache is bypassed.
func (c *CachedRepository[T]) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (T, error) {
	if _, ok := txcache.FromContext(ctx); !ok {
		return c.base.GetTx(ctx, tx, criteria...)
	}
	key := c.newKey("Get", criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (T, error) {
		return c.base.GetTx(ctx, tx, criteria...)
	})
}

// GetByIDTx retrieves a record by ID within a transaction. Cached only
// inside a unit of work.
func (c *CachedRepository[T]) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (T, error) {
	if _, ok := txcache.FromContext(ctx); !ok {
		return c.base.GetByIDTx(ctx, tx, id, criteria...)
	}
	key := c.newKey("GetByID", id, criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (T, error) {
		return c.base.GetByIDTx(ctx, tx, id, criteria...)
	})
}

// GetByIdentifierTx retrieves a record by identifier within a transaction.
// Cached only inside a unit of work.
func (c *CachedRepository[T]) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (T, error) {
	if _, ok := txcache.FromContext(ctx); !ok {
		return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
	}
	key := c.newKey("GetByIdentifier", identifier, criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (T, error) {
		return c.base.GetByIdentifierTx(ctx, tx, identifier, criteria...)
	})
}

// ListTx retrieves multiple records within a transaction. Cached only inside
// a unit of work.
func (c *CachedRepository[T]) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]T, int, error) {
	if _, ok := txcache.FromContext(ctx); !ok {
		return c.base.ListTx(ctx, tx, criteria...)
	}
	key := c.newKey("List", criteria)
	res, err := getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (listResult[T], error) {
		records, total, err := c.base.ListTx(ctx, tx, criteria...)
		return listResult[T]{Records: records, Total: total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	return res.Records, res.Total, nil
}

// CountTx returns the number of matching records within a transaction.
// Cached only inside a unit of work.
func (c *CachedRepository[T]) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	if _, ok := txcache.FromContext(ctx); !ok {
		return c.base.CountTx(ctx, tx, criteria...)
	}
	key := c.newKey("Count", criteria)
	return getOrLoad(ctx, c.store(ctx), c.log, key, func(ctx context.Context) (int, error) {
		return c.base.CountTx(ctx, tx, criteria...)
	})
}

// Create creates a new record and invalidates the region.
func (c *CachedRepository[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.Create(ctx, record, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// CreateTx creates a new record within a transaction.
func (c *CachedRepository[T]) CreateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := c.base.CreateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// CreateMany creates multiple records and invalidates the region.
func (c *CachedRepository[T]) CreateMany(ctx context.Context, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateMany(ctx, records, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// CreateManyTx creates multiple records within a transaction.
func (c *CachedRepository[T]) CreateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.InsertCriteria) ([]T, error) {
	result, err := c.base.CreateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// GetOrCreate gets a record or creates it if it doesn't exist. The region
// is invalidated since a create may have happened.
func (c *CachedRepository[T]) GetOrCreate(ctx context.Context, record T) (T, error) {
	result, err := c.base.GetOrCreate(ctx, record)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// GetOrCreateTx gets or creates a record within a transaction.
func (c *CachedRepository[T]) GetOrCreateTx(ctx context.Context, tx bun.IDB, record T) (T, error) {
	result, err := c.base.GetOrCreateTx(ctx, tx, record)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// Update updates a record and invalidates the region.
func (c *CachedRepository[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Update(ctx, record, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// UpdateTx updates a record within a transaction.
func (c *CachedRepository[T]) UpdateTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpdateTx(ctx, tx, record, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// UpdateMany updates multiple records and invalidates the region.
func (c *CachedRepository[T]) UpdateMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateMany(ctx, records, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// UpdateManyTx updates multiple records within a transaction.
func (c *CachedRepository[T]) UpdateManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpdateManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// Upsert inserts or updates a record and invalidates the region.
func (c *CachedRepository[T]) Upsert(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.Upsert(ctx, record, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// UpsertTx inserts or updates a record within a transaction.
func (c *CachedRepository[T]) UpsertTx(ctx context.Context, tx bun.IDB, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := c.base.UpsertTx(ctx, tx, record, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// UpsertMany inserts or updates multiple records and invalidates the region.
func (c *CachedRepository[T]) UpsertMany(ctx context.Context, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertMany(ctx, records, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// UpsertManyTx inserts or updates multiple records within a transaction.
func (c *CachedRepository[T]) UpsertManyTx(ctx context.Context, tx bun.IDB, records []T, criteria ...repository.UpdateCriteria) ([]T, error) {
	result, err := c.base.UpsertManyTx(ctx, tx, records, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return result, err
}

// Delete deletes a record and invalidates the region.
func (c *CachedRepository[T]) Delete(ctx context.Context, record T) error {
	err := c.base.Delete(ctx, record)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// DeleteTx deletes a record within a transaction.
func (c *CachedRepository[T]) DeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.DeleteTx(ctx, tx, record)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// DeleteMany deletes multiple records based on criteria and invalidates the
// region.
func (c *CachedRepository[T]) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteMany(ctx, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// DeleteManyTx deletes multiple records within a transaction.
func (c *CachedRepository[T]) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteManyTx(ctx, tx, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// DeleteWhere deletes records based on criteria and invalidates the region.
func (c *CachedRepository[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhere(ctx, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// DeleteWhereTx deletes records based on criteria within a transaction.
func (c *CachedRepository[T]) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	err := c.base.DeleteWhereTx(ctx, tx, criteria...)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// ForceDelete force deletes a record (bypassing soft delete) and invalidates
// the region.
func (c *CachedRepository[T]) ForceDelete(ctx context.Context, record T) error {
	err := c.base.ForceDelete(ctx, record)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// ForceDeleteTx force deletes a record within a transaction.
func (c *CachedRepository[T]) ForceDeleteTx(ctx context.Context, tx bun.IDB, record T) error {
	err := c.base.ForceDeleteTx(ctx, tx, record)
	if err == nil {
		c.flush(ctx)
	}
	return err
}

// Raw executes a raw SQL query and returns the results. Never cached: the
// statement text is opaque to the fingerprint scheme.
func (c *CachedRepository[T]) Raw(ctx context.Context, sql string, args ...any) ([]T, error) {
	return c.base.Raw(ctx, sql, args...)
}

// RawTx executes a raw SQL query within a transaction.
func (c *CachedRepository[T]) RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error) {
	return c.base.RawTx(ctx, tx, sql, args...)
}

// Handlers returns the model handlers from the base repository.
func (c *CachedRepository[T]) Handlers() repository.ModelHandlers[T] {
	return c.base.Handlers()
}
