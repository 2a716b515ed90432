// Package verdictcache memoises URL classifications. Classification is pure, so
// a cached verdict is always identical to a recomputed one.
package verdictcache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/popguard/internal/guard/domain"
)

// Cache stores verdicts by URL with basic metrics.
type Cache interface {
	Get(url string) (domain.Verdict, bool)
	Put(url string, v domain.Verdict)
	Len() int
	Purge()
	Stats() Stats
}

// Stats is a best-effort snapshot of cache counters.
type Stats struct {
	Capacity  int
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// lruCache is an LRU-backed Cache.
type lruCache struct {
	lru       *lru.Cache[string, domain.Verdict]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache always misses.
type disabledCache struct{}

// New creates a Cache holding up to size verdicts. size <= 0 returns a
// disabled cache.
func New(size int) (Cache, error) {
	if size <= 0 {
		return disabledCache{}, nil
	}
	c := &lruCache{capacity: size}
	// NewWithEvict observes evictions, including Purge-induced ones.
	inner, err := lru.NewWithEvict(size, func(string, domain.Verdict) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = inner
	return c, nil
}

func (c *lruCache) Get(url string) (domain.Verdict, bool) {
	if v, ok := c.lru.Get(url); ok {
		c.hits.Add(1)
		return v, true
	}
	c.misses.Add(1)
	return domain.VerdictNeutral, false
}

func (c *lruCache) Put(url string, v domain.Verdict) { c.lru.Add(url, v) }

func (c *lruCache) Len() int { return c.lru.Len() }

func (c *lruCache) Purge() { c.lru.Purge() }

func (c *lruCache) Stats() Stats {
	return Stats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (disabledCache) Get(string) (domain.Verdict, bool) { return domain.VerdictNeutral, false }
func (disabledCache) Put(string, domain.Verdict)        {}
func (disabledCache) Len() int                          { return 0 }
func (disabledCache) Purge()                            {}
func (disabledCache) Stats() Stats                      { return Stats{} }

var (
	_ Cache = (*lruCache)(nil)
	_ Cache = disabledCache{}
)
