// Package rowcache adds a decoded-row cache in front of the B-tree and
// spatial walkers, the way the teacher's bplustree sits in front of a
// pager cache: re-decoding a row's null bitmap and variable-column table
// on every repeated lookup of a hot key is wasted work once the underlying
// page is already pinned in the page pool, so callers that re-visit the
// same rows (repeated point lookups, nested range queries re-touching a
// shared prefix) can keep the decoded form around keyed by RID.
package rowcache

import (
	"github.com/dgraph-io/ristretto/v2"

	"mdfengine/internal/page"
)

// Cache is a bounded, concurrent cache from a row's RID to its decoded
// form, backed by ristretto's admission-and-eviction policy instead of a
// hand-rolled LRU (internal/pagepool already owns block-level eviction;
// this is a smaller, value-level cache above it).
type Cache struct {
	c *ristretto.Cache[page.RID, *page.Row]
}

// Options configures a Cache's size. MaxCost is ristretto's notion of
// capacity; each cached row is costed at 1, so MaxCost is simply the
// maximum number of decoded rows kept resident.
type Options struct {
	MaxCost     int64
	NumCounters int64
}

// New constructs a Cache. A NumCounters of zero defaults to 10x MaxCost,
// ristretto's own recommended ratio.
func New(opts Options) (*Cache, error) {
	numCounters := opts.NumCounters
	if numCounters == 0 {
		numCounters = opts.MaxCost * 10
	}
	c, err := ristretto.NewCache(&ristretto.Config[page.RID, *page.Row]{
		NumCounters: numCounters,
		MaxCost:     opts.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c}, nil
}

// Get returns the decoded row for rid, if present.
func (c *Cache) Get(rid page.RID) (*page.Row, bool) {
	return c.c.Get(rid)
}

// Put inserts row under rid. The row is costed at 1 regardless of its
// actual decoded size: the cache bounds row *count*, not byte footprint,
// since a Row aliases its owning page's backing array rather than copying
// it.
func (c *Cache) Put(rid page.RID, row *page.Row) {
	c.c.Set(rid, row, 1)
}

// Invalidate drops rid's entry, used when the page pool evicts the block
// backing it (the cached Row's Fixed()/Variable() slices alias that block
// and would otherwise dangle).
func (c *Cache) Invalidate(rid page.RID) {
	c.c.Del(rid)
}

// Wait blocks until all pending Put/Invalidate operations have been
// applied, for tests that need a deterministic view of the cache.
func (c *Cache) Wait() {
	c.c.Wait()
}

// Close releases the cache's background goroutines.
func (c *Cache) Close() {
	c.c.Close()
}
