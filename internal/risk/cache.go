package risk

import (
	"sync"
	"time"
)

// matrixCache memoizes correlation matrices by analysis date. Matrices are
// expensive to build (one price-history fetch per basket member) and a single
// trend comparison needs two of them. The cache keeps the most recent
// maxEntries dates and evicts in insertion order.
type matrixCache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*CorrelationMatrix
	order      []string
}

func newMatrixCache(maxEntries int) *matrixCache {
	if maxEntries <= 0 {
		maxEntries = 8
	}
	return &matrixCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*CorrelationMatrix),
	}
}

func cacheKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// Get returns the memoized matrix for a date, or nil
func (c *matrixCache) Get(date time.Time) *CorrelationMatrix {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[cacheKey(date)]
}

// Put stores a matrix for a date, evicting the oldest entry when full.
// Matrices are immutable once stored.
func (c *matrixCache) Put(date time.Time, m *CorrelationMatrix) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(date)
	if _, exists := c.entries[key]; exists {
		return
	}

	c.entries[key] = m
	c.order = append(c.order, key)
	for len(c.order) > c.maxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

// Len returns the number of memoized dates
func (c *matrixCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
