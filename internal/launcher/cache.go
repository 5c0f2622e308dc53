package launcher

import (
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/keis/shell-search/internal/apps"
)

// matchSet memoises predicate results of one query, per app.
type matchSet struct {
	mu      sync.Mutex
	results map[*apps.App]bool
}

func (m *matchSet) lookup(app *apps.App, compute func() bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.results[app]; ok {
		return v
	}
	v := compute()
	m.results[app] = v
	return v
}

// MatchCache keeps the match results of recent queries, so retyping a query
// or deleting characters does not re-run the matcher over every app.
type MatchCache struct {
	cache   *lru.Cache[string, *matchSet]
	maxSize int
	hits    int64
	misses  int64
	mu      sync.Mutex
}

// CacheStats holds cache statistics
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"max_size"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

func NewMatchCache(maxSize int) (*MatchCache, error) {
	if maxSize <= 0 {
		maxSize = 100
	}

	cache, err := lru.New[string, *matchSet](maxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &MatchCache{
		cache:   cache,
		maxSize: maxSize,
	}, nil
}

// forQuery returns the result set for query, creating it on a miss.
func (c *MatchCache) forQuery(query string) *matchSet {
	c.mu.Lock()
	defer c.mu.Unlock()

	if set, ok := c.cache.Get(query); ok {
		c.hits++
		return set
	}
	c.misses++
	set := &matchSet{results: make(map[*apps.App]bool)}
	c.cache.Add(query, set)
	return set
}

// Invalidate drops every cached result. Call it when the app list changes.
func (c *MatchCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Purge()
	c.hits = 0
	c.misses = 0
	log.Printf("[MATCH-CACHE] Invalidated")
}

func (c *MatchCache) GetStats() *CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return &CacheStats{
		Size:    c.cache.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: hitRate,
	}
}
