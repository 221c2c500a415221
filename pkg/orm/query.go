// Package orm is a thin chainable layer over gorm used by repositories. It
// never reaches for a global handle: every Query starts from the session
// passed to On.
package orm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/productd/pkg/cache"
	"github.com/shashiranjanraj/productd/pkg/logger"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("orm: record not found")

type Query struct {
	db *gorm.DB
}

// On starts a query on db (usually the request session).
func On(db *gorm.DB) *Query {
	return &Query{db: db}
}

// DB exposes the underlying session, e.g. to build a repository inside
// Transaction.
func (q *Query) DB() *gorm.DB {
	return q.db
}

func (q *Query) Model(v interface{}) *Query {
	return &Query{db: q.db.Model(v)}
}

func (q *Query) Where(query string, args ...interface{}) *Query {
	return &Query{db: q.db.Where(query, args...)}
}

func (q *Query) Order(value interface{}) *Query {
	return &Query{db: q.db.Order(value)}
}

// Get loads every matching row into dest (a pointer to a slice).
func (q *Query) Get(dest interface{}) error {
	return q.db.Find(dest).Error
}

// First loads the first matching row ordered by primary key.
func (q *Query) First(dest interface{}) error {
	return translate(q.db.First(dest).Error)
}

func (q *Query) Create(v interface{}) error {
	return q.db.Create(v).Error
}

// Update writes the named columns of v (zero values included) to the row
// identified by v's primary key.
func (q *Query) Update(v interface{}, columns ...string) error {
	return q.db.Model(v).Select(columns).Updates(v).Error
}

// Delete removes v by its primary key. A delete that touches no row is
// reported as ErrNotFound.
func (q *Query) Delete(v interface{}) error {
	res := q.db.Delete(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Transaction runs fn inside a database transaction. fn's Query is bound to
// the transaction; returning an error rolls back.
func (q *Query) Transaction(fn func(tx *Query) error) error {
	return q.db.Transaction(func(tx *gorm.DB) error {
		return fn(On(tx))
	})
}

// Cache is First behind a cache store: a hit skips the database, a miss
// loads the row and stores it for ttl. hit reports whether the database was
// skipped. Cache failures are logged and the database answer is used.
func (q *Query) Cache(ctx context.Context, store cache.Store, key string, ttl time.Duration, dest interface{}) (hit bool, err error) {
	if store == nil {
		return false, q.First(dest)
	}

	hit, err = store.Get(ctx, key, dest)
	if err != nil {
		logger.WithCtx(ctx).Warn("orm: cache get failed", "key", key, "driver", store.Driver(), "error", err)
	}
	if hit {
		return true, nil
	}

	if err := q.First(dest); err != nil {
		return false, err
	}

	if err := store.Set(ctx, key, dest, ttl); err != nil {
		logger.WithCtx(ctx).Warn("orm: cache set failed", "key", key, "driver", store.Driver(), "error", err)
	}
	return false, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
