package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/shashiranjanraj/productd/pkg/logger"
	"github.com/shashiranjanraj/productd/pkg/metrics"
)

// Redis is a shared store. Every call goes through a circuit breaker so a
// dead Redis costs one fast error instead of a dial timeout per request.
type Redis struct {
	rdb *redis.Client
	cb  *gobreaker.CircuitBreaker
}

// NewRedis connects to addr, traces commands through the global
// OpenTelemetry provider and verifies the connection with a ping.
func NewRedis(ctx context.Context, addr, password string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})

	if err := redisotel.InstrumentTracing(rdb); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis tracing: %w", err)
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedis(rdb), nil
}

func newRedis(rdb *redis.Client) *Redis {
	st := gobreaker.Settings{
		Name:        "redis-cache",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache: circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// A miss is an answer, not a failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
	}
	return &Redis{rdb: rdb, cb: gobreaker.NewCircuitBreaker(st)}
}

func (r *Redis) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	out, err := r.cb.Execute(func() (interface{}, error) {
		return r.rdb.Get(ctx, key).Bytes()
	})
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false, nil
	}
	if err != nil {
		metrics.CacheMisses.WithLabelValues("redis").Inc()
		return false, err
	}
	if err := json.Unmarshal(out.([]byte), dest); err != nil {
		return false, err
	}
	metrics.CacheHits.WithLabelValues("redis").Inc()
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = r.cb.Execute(func() (interface{}, error) {
		return nil, r.rdb.Set(ctx, key, data, ttl).Err()
	})
	return err
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.rdb.Del(ctx, keys...).Err()
	})
	return err
}

func (r *Redis) Driver() string { return "redis" }

func (r *Redis) Close() error { return r.rdb.Close() }
