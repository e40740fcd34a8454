package layout

import "sync"

// DefaultCacheSize is the number of specs a Cache keeps when created without
// an explicit size.
const DefaultCacheSize = 64

// Cache memoizes Compute per Spec.
//
// Each Spec held by the cache is computed exactly once; concurrent callers
// asking for the same Spec block until the first computation is published and
// then all receive the same *Layout (or the same error). When more than size
// specs have been seen the oldest entry is dropped; a later Get for it
// computes a fresh, identical layout. Cache is safe for concurrent use and its
// zero value is ready to use with DefaultCacheSize.
type Cache struct {
	mu      sync.Mutex
	size    int
	entries map[Spec]*cacheEntry
	order   []Spec
}

type cacheEntry struct {
	once   sync.Once
	layout *Layout
	err    error
}

// NewCache returns an empty layout cache holding at most size specs.
// size <= 0 selects DefaultCacheSize.
func NewCache(size int) *Cache {
	return &Cache{size: size}
}

// Get returns the layout for spec, computing it on first use.
func (c *Cache) Get(spec Spec) (*Layout, error) {
	e := c.entry(spec)
	e.once.Do(func() {
		e.layout, e.err = Compute(spec)
	})
	return e.layout, e.err
}

func (c *Cache) entry(spec Spec) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[spec]; ok {
		return e
	}
	if c.entries == nil {
		c.entries = make(map[Spec]*cacheEntry)
	}
	limit := c.size
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	for len(c.order) >= limit {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	e := &cacheEntry{}
	c.entries[spec] = e
	c.order = append(c.order, spec)
	return e
}

// Len returns the number of specs currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
