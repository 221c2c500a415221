package repositories

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shashiranjanraj/productd/pkg/cache"
)

// sharedReadTimeout bounds a read that several requests wait on. It is
// detached from the caller's context so one client going away does not fail
// the others.
const sharedReadTimeout = 5 * time.Second

// readGroup collapses concurrent cache misses for one key into a single
// database read. Each key carries a version that every write bumps: reads
// are shared only between callers that saw the same version, and a read
// that started before a write may not fill the cache after it.
type readGroup struct {
	flights singleflight.Group

	mu       sync.Mutex
	versions map[string]*keyVersion
}

type keyVersion struct {
	mu sync.Mutex
	n  uint64
}

func newReadGroup() *readGroup {
	return &readGroup{versions: make(map[string]*keyVersion)}
}

func (g *readGroup) entry(key string) *keyVersion {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.versions[key]
	if !ok {
		v = &keyVersion{}
		g.versions[key] = v
	}
	return v
}

// version returns the current version of key. Keys that were never written
// or cached are at version 0 and get no entry, so lookups of ids that do not
// exist leave nothing behind.
func (g *readGroup) version(key string) uint64 {
	g.mu.Lock()
	v, ok := g.versions[key]
	g.mu.Unlock()
	if !ok {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.n
}

// invalidate moves key to a new version. Reads already in flight keep
// running but are no longer joined by new callers.
func (g *readGroup) invalidate(key string) {
	v := g.entry(key)
	v.mu.Lock()
	defer v.mu.Unlock()
	g.flights.Forget(flightKey(key, v.n))
	v.n++
}

// do runs fn once for all callers of key at version ver.
func (g *readGroup) do(key string, ver uint64, fn func() (interface{}, error)) (interface{}, error) {
	v, err, _ := g.flights.Do(flightKey(key, ver), fn)
	return v, err
}

// store returns a view of s whose Set is dropped once key has moved past ver.
func (g *readGroup) store(s cache.Store, key string, ver uint64) cache.Store {
	return versionedStore{Store: s, group: g, ver: ver}
}

func flightKey(key string, ver uint64) string {
	return key + "@" + strconv.FormatUint(ver, 10)
}

type versionedStore struct {
	cache.Store
	group *readGroup
	ver   uint64
}

// Set holds the key's version lock so an invalidation cannot slip in
// between the check and the write.
func (s versionedStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	e := s.group.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.n != s.ver {
		return nil
	}
	return s.Store.Set(ctx, key, value, ttl)
}
