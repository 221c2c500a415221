package repositories

import (
	"context"

	"github.com/shashiranjanraj/productd/app/models"
)

// CacheFillAt captures key's version now and returns the cache write a read
// started at this point would make when it finishes.
func CacheFillAt(r *ProductRepository, key string) func(context.Context, models.Product) error {
	ver := reads.version(key)
	return func(ctx context.Context, p models.Product) error {
		return reads.store(r.cache, key, ver).Set(ctx, key, p, r.ttl)
	}
}
