// Package obs carries the page pool's statistics sink as an explicit
// argument rather than the process-wide singleton the original engine
// hides thread-local accumulators behind (see design note on global state).
package obs

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Sink receives pool events. Implementations must be safe for concurrent
// use; the pool calls these from whichever goroutine triggers the event.
type Sink interface {
	ExtentLoaded(extentIdx uint32, bytes int, fromDisk bool)
	BlockEvicted(extentIdx uint32)
	ReadaheadSkipped(extentIdx uint32, reason string)
}

// Noop discards every event. It is the default sink when the caller does
// not want statistics.
type Noop struct{}

func (Noop) ExtentLoaded(uint32, int, bool) {}
func (Noop) BlockEvicted(uint32)            {}
func (Noop) ReadaheadSkipped(uint32, string) {}

// Counters is a lock-free sink that accumulates totals a caller can read
// back with Snapshot; use it when a test or CLI wants numbers instead of a
// log stream.
type Counters struct {
	hits     atomic.Int64
	misses   atomic.Int64
	evicted  atomic.Int64
	bytesIn  atomic.Int64
}

func (c *Counters) ExtentLoaded(_ uint32, n int, fromDisk bool) {
	if fromDisk {
		c.misses.Add(1)
		c.bytesIn.Add(int64(n))
	} else {
		c.hits.Add(1)
	}
}
func (c *Counters) BlockEvicted(uint32)             { c.evicted.Add(1) }
func (c *Counters) ReadaheadSkipped(uint32, string) {}

// Snapshot is a point-in-time copy of a Counters sink's values.
type Snapshot struct {
	Hits, Misses, Evicted int64
	BytesRead             int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evicted:   c.evicted.Load(),
		BytesRead: c.bytesIn.Load(),
	}
}

// String renders the snapshot with human-readable byte counts, e.g. for a
// CLI's closing summary line.
func (s Snapshot) String() string {
	return fmt.Sprintf("hits=%d misses=%d evicted=%d read=%s",
		s.Hits, s.Misses, s.Evicted, humanize.Bytes(uint64(s.BytesRead)))
}

// Log wraps an *slog.Logger as a Sink, for callers that want the event
// stream rather than aggregate counters.
type Log struct {
	L *slog.Logger
}

func (s Log) ExtentLoaded(extentIdx uint32, n int, fromDisk bool) {
	if !fromDisk {
		return
	}
	s.L.Debug("extent loaded", "extent", extentIdx, "bytes", humanize.Bytes(uint64(n)))
}

func (s Log) BlockEvicted(extentIdx uint32) {
	s.L.Debug("block evicted", "extent", extentIdx)
}

func (s Log) ReadaheadSkipped(extentIdx uint32, reason string) {
	s.L.Debug("readahead skipped", "extent", extentIdx, "reason", reason)
}
