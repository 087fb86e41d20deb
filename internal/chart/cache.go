package chart

import (
	"sync"

	"github.com/istin/tradingaizer/internal/indicator"
	"github.com/istin/tradingaizer/internal/types"
)

// cacheKey identifies one cached indicator series. Keys are structural
// rather than formatted strings so two indicators can never collide through
// parameter formatting.
type cacheKey struct {
	Indicator string
	Timeframe types.Timeframe
}

// cacheEntry holds a computed series plus the number of completed aggregate
// groups the series was computed over. Indices at or past Complete were
// computed from a then-partial trailing group and must not be served once
// more base bars have arrived; callers compare Complete to the current
// completed-group count and recompute on mismatch.
type cacheEntry struct {
	Points   []indicator.Point
	Complete int
}

// indicatorCache is an in-memory indicator series cache owned by a single
// chart session. Entries are published whole; readers get the slice that was
// stored and must treat it as immutable.
type indicatorCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

func newIndicatorCache() *indicatorCache {
	return &indicatorCache{
		entries: make(map[cacheKey]cacheEntry),
	}
}

// get returns the cached entry for the key, if any.
func (c *indicatorCache) get(key cacheKey) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]

	return entry, ok
}

// put publishes a fully computed entry. Compute outside, publish inside: the
// lock is held only for the map write, never during indicator math.
func (c *indicatorCache) put(key cacheKey, entry cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// snapshot copies the current entries for persistence.
func (c *indicatorCache) snapshot() map[cacheKey]cacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[cacheKey]cacheEntry, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}

	return out
}

// restore replaces the cache contents with a previously persisted set of
// entries.
func (c *indicatorCache) restore(entries map[cacheKey]cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[cacheKey]cacheEntry, len(entries))
	for k, v := range entries {
		c.entries[k] = v
	}
}
