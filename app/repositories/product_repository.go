package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/app/models"
	"github.com/shashiranjanraj/productd/pkg/cache"
	"github.com/shashiranjanraj/productd/pkg/metrics"
	"github.com/shashiranjanraj/productd/pkg/orm"
)

// reads is shared because repositories live for one request.
var reads = newReadGroup()

// ProductRepository maps models.Product to the products table. It is built
// over a session (or transaction) and must not outlive it.
type ProductRepository struct {
	db    *gorm.DB
	cache cache.Store
	ttl   time.Duration
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db, cache: cache.Null{}}
}

// WithCache returns a copy whose FindCached reads through store.
func (r *ProductRepository) WithCache(store cache.Store, ttl time.Duration) *ProductRepository {
	if store == nil {
		store = cache.Null{}
	}
	return &ProductRepository{db: r.db, cache: store, ttl: ttl}
}

// ProductCacheKey is the cache key for one product.
func ProductCacheKey(id uint) string {
	return fmt.Sprintf("products:%d", id)
}

func (r *ProductRepository) query(ctx context.Context) *orm.Query {
	return orm.On(r.db.WithContext(ctx)).Model(&models.Product{})
}

// Create inserts p and sets p.ID.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("insert", time.Now())
	return orm.On(r.db.WithContext(ctx)).Create(p)
}

// Find looks up a product by primary key. Returns orm.ErrNotFound if absent.
func (r *ProductRepository) Find(ctx context.Context, id uint) (models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var p models.Product
	err := r.query(ctx).Where("id = ?", id).First(&p)
	return p, err
}

// FindCached is Find behind the repository's cache. Concurrent misses for
// the same id share one read; a read that started before a write is never
// shared with callers that arrive after it. Without a cache it is Find.
func (r *ProductRepository) FindCached(ctx context.Context, id uint) (models.Product, error) {
	if _, off := r.cache.(cache.Null); off {
		return r.Find(ctx, id)
	}

	key := ProductCacheKey(id)
	ver := reads.version(key)
	v, err := reads.do(key, ver, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()

		start := time.Now()
		var p models.Product
		hit, err := r.query(readCtx).Where("id = ?", id).
			Cache(readCtx, reads.store(r.cache, key, ver), key, r.ttl, &p)
		if !hit {
			metrics.ObserveDBQuery("select", start)
		}
		return p, err
	})
	if err != nil {
		return models.Product{}, err
	}
	return v.(models.Product), nil
}

// All returns every product ordered by id. An empty table yields an empty slice.
func (r *ProductRepository) All(ctx context.Context) ([]models.Product, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	products := []models.Product{}
	err := r.query(ctx).Order("id").Get(&products)
	return products, err
}

// Count returns the number of stored products.
func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveDBQuery("select", time.Now())

	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

// Update overwrites name and description of the row identified by p.ID.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("update", time.Now())
	return orm.On(r.db.WithContext(ctx)).Update(p, "name", "description")
}

// Delete removes the row identified by p.ID.
func (r *ProductRepository) Delete(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveDBQuery("delete", time.Now())
	return orm.On(r.db.WithContext(ctx)).Delete(p)
}

// Forget drops the cached copy of a product. Call it after the write has
// committed: reads started earlier can then neither be joined nor fill
// the cache.
func (r *ProductRepository) Forget(ctx context.Context, id uint) error {
	if _, off := r.cache.(cache.Null); off {
		return nil
	}
	key := ProductCacheKey(id)
	reads.invalidate(key)
	return r.cache.Del(ctx, key)
}

// Transaction runs fn with a repository bound to a new transaction.
func (r *ProductRepository) Transaction(ctx context.Context, fn func(tx *ProductRepository) error) error {
	return orm.On(r.db.WithContext(ctx)).Transaction(func(tx *orm.Query) error {
		return fn(&ProductRepository{db: tx.DB(), cache: r.cache, ttl: r.ttl})
	})
}
