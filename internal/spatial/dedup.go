package spatial

import "github.com/cespare/xxhash/v2"

// Dedup is the sparse-set row de-duplicator described in §4.F: an
// unordered mapping from a 64-bit segment to a 64-bit occupancy bitmask.
// Keys are hashed with xxhash before being split into segment and bit, so
// distinct keys are scattered across segments and usually each occupy their
// own map entry; two keys with equal 64-bit hashes count as the same key.
type Dedup struct {
	segments map[uint64]uint64
}

// NewDedup returns an empty Dedup.
func NewDedup() *Dedup {
	return &Dedup{segments: make(map[uint64]uint64)}
}

// Add marks key as seen and reports whether it was newly added (false if
// it was already present).
func (d *Dedup) Add(key []byte) bool {
	h := xxhash.Sum64(key)
	seg, bit := h>>6, h&63
	mask := d.segments[seg]
	if mask&(1<<bit) != 0 {
		return false
	}
	d.segments[seg] = mask | (1 << bit)
	return true
}

// Seen reports whether key has already been Added.
func (d *Dedup) Seen(key []byte) bool {
	h := xxhash.Sum64(key)
	seg, bit := h>>6, h&63
	return d.segments[seg]&(1<<bit) != 0
}
