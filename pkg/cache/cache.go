// Package cache provides the optional read-through cache in front of the
// product table. Values are stored as JSON so every driver hands back a
// fresh copy.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shashiranjanraj/productd/config"
)

// Store is implemented by every cache driver.
type Store interface {
	// Get unmarshals the value at key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Driver() string
	Close() error
}

// New returns the store selected by cfg.CacheDriver. "none" yields a Null
// store that never hits.
func New(ctx context.Context, cfg config.Config) (Store, error) {
	switch cfg.CacheDriver {
	case "memory":
		return NewMemory(cfg.CacheTTL), nil
	case "redis":
		s, err := NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		return s, nil
	case "", "none":
		return Null{}, nil
	default:
		return nil, fmt.Errorf("cache: unsupported CACHE_DRIVER %q", cfg.CacheDriver)
	}
}

// Null is the disabled cache.
type Null struct{}

func (Null) Get(context.Context, string, interface{}) (bool, error)        { return false, nil }
func (Null) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Null) Del(context.Context, ...string) error                          { return nil }
func (Null) Driver() string                                                { return "none" }
func (Null) Close() error                                                  { return nil }
