package core

import (
	"sync"
)

// Cache holds session-scoped copies of entries and content handles keyed by ID.
// It is write-through: lookups populate it, updates overwrite, deletes evict.
// It has no size bound and is never persisted.
//
// Readers that fetch outside the store's write lock take a Generation first
// and populate through the IfCurrent setters, which refuse IDs evicted since.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]Entry
	handles  map[string]Handle
	complete bool

	gen     uint64
	evicted map[string]uint64 // id -> generation of its last eviction
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		handles: make(map[string]Handle),
		evicted: make(map[string]uint64),
	}
}

// Entry returns the cached entry for id.
func (c *Cache) Entry(id string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	return e, ok
}

// SetEntry stores e, overwriting any previous copy.
func (c *Cache) SetEntry(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[e.ID] = e
}

// Generation returns the current eviction generation.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetEntryIfCurrent stores e unless its ID was evicted after generation
// since. It reports whether e was stored.
func (c *Cache) SetEntryIfCurrent(e Entry, since uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.evicted[e.ID] > since {
		return false
	}
	c.entries[e.ID] = e
	return true
}

// Fill stores every record of the index and marks the cache complete.
// A complete cache answers name lookups without consulting the index.
func (c *Cache) Fill(entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		c.entries[e.ID] = e
	}
	c.complete = true
}

// Complete reports whether the cache mirrors the whole index.
func (c *Cache) Complete() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.complete
}

// FindByName scans cached entries for name. When several match, the one
// with the smallest ID wins. O(cache size).
func (c *Cache) FindByName(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		best  Entry
		found bool
	)
	for _, e := range c.entries {
		if e.Name != name {
			continue
		}
		if !found || e.ID < best.ID {
			best = e
			found = true
		}
	}
	return best, found
}

// Handle returns the cached content handle for id.
func (c *Cache) Handle(id string) (Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	h, ok := c.handles[id]
	return h, ok
}

// SetHandle stores the content handle of id.
func (c *Cache) SetHandle(id string, h Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handles[id] = h
}

// SetHandleIfCurrent is SetHandle guarded like SetEntryIfCurrent.
func (c *Cache) SetHandleIfCurrent(id string, h Handle, since uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.evicted[id] > since {
		return false
	}
	c.handles[id] = h
	return true
}

// Evict removes both the entry and the handle of each id.
func (c *Cache) Evict(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	for _, id := range ids {
		delete(c.entries, id)
		delete(c.handles, id)
		c.evicted[id] = c.gen
	}
}

// EvictHandle drops only the content handle of id.
func (c *Cache) EvictHandle(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	delete(c.handles, id)
	c.evicted[id] = c.gen
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
