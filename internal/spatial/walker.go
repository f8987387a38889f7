package spatial

import (
	"context"

	"mdfengine/internal/btree"
	"mdfengine/internal/page"
	"mdfengine/internal/schema"
)

// keyCols describes the spatial index's composite key — a 5-byte cell
// identifier followed by a fixed-width primary key — as a single
// fixed-width byte-compared column, so internal/btree's walker and cursor
// can be reused as-is: the spatial tree is "identical in shape to 4.D"
// (§4.F), differing only in what the key bytes mean.
func keyCols(keyLen int) []schema.Column {
	return []schema.Column{{Type: schema.TypeChar, Fixed: true, FixedOff: 0, FixedLen: keyLen}}
}

// BuildKey concatenates a cell identifier and primary-key bytes into the
// composite key layout §4.F's index rows are keyed by.
func BuildKey(c Cell, pk []byte) []byte {
	b := c.Bytes()
	return append(append([]byte{}, b[:]...), pk...)
}

// FindCell descends to the first leaf slot whose cell is >= prefix, per
// §4.F find_cell. It pads prefix with zero bytes for the remaining cell
// levels and the whole primary-key span, since a lower-bound search over
// the full composite key with everything past the prefix held at its
// minimum value finds exactly that slot.
func FindCell(ctx context.Context, src btree.PageSource, root page.Locator, pkLen int, prefix Cell) (*btree.Cursor, error) {
	keyLen := 5 + pkLen
	key := make([]byte, keyLen)
	n := int(prefix.Depth)
	copy(key[:n], prefix.Idx[:n])
	return btree.LowerBound(ctx, src, root, keyCols(keyLen), key)
}

// rowKeyBytes extracts a leaf row's raw composite key bytes (its fixed
// span already is the key, since the spatial leaf carries no other fixed
// columns per §4.F).
func rowKeyBytes(row *page.Row, keyLen int) []byte {
	return row.Fixed()[:keyLen]
}

// EmitFunc receives one deduplicated matching row.
type EmitFunc func(rid page.RID, pk []byte) error

// QueryCell implements §4.F's per-cell query: for the query cell q, it
// enumerates q's own prefix cells at depths 1..4 (rows may have been
// indexed at a coarser depth than q itself), walks forward from each
// found position while the leaf cell intersects q, and deduplicates
// emitted rows by primary key through dedup.
func QueryCell(ctx context.Context, src btree.PageSource, root page.Locator, pkLen int, q Cell, dedup *Dedup, emit EmitFunc) error {
	keyLen := 5 + pkLen
	for depth := Depth(1); depth <= 4; depth++ {
		prefix := q.truncate(depth)
		cur, err := FindCell(ctx, src, root, pkLen, prefix)
		if err != nil {
			return err
		}
		for cur.Valid() {
			row, err := cur.Row()
			if err != nil {
				return err
			}
			keyBytes := rowKeyBytes(row, keyLen)
			cell := DecodeCell(keyBytes[:5])
			if !cell.Intersects(q) {
				break
			}
			pk := append([]byte{}, keyBytes[5:keyLen]...)
			if dedup.Add(pk) {
				if err := emit(cur.RID(), pk); err != nil {
					return err
				}
			}
			if err := cur.Next(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// QueryCells runs QueryCell once per cell in cells, threading the same
// dedup set through all of them, per §4.F's "4.F is invoked once per cell
// with the same dedup set threaded through" for range/rectangle queries.
func QueryCells(ctx context.Context, src btree.PageSource, root page.Locator, pkLen int, cells []Cell, dedup *Dedup, emit EmitFunc) error {
	for _, c := range cells {
		if err := QueryCell(ctx, src, root, pkLen, c, dedup, emit); err != nil {
			return err
		}
	}
	return nil
}
