// Package btree implements component 4.D: the clustered-index walker.
// It descends index pages to a leaf via binary search and extracts typed
// cluster keys from decoded rows through internal/schema, the way the
// teacher's bplustree.FindLeaf descends its internal nodes (bplustree's own
// find_leaf.go), generalized from the teacher's in-memory node cache to the
// page-pool-backed page source this engine reads through.
package btree

import (
	"context"

	"mdfengine/internal/mdferr"
	"mdfengine/internal/page"
	"mdfengine/internal/schema"
)

// PageSource is the page pool's read surface as the walker needs it: fetch a
// page by locator. The walker takes no pins on the pages it fetches.
// Implementations are expected to provide internal/pagepool's *Pool.
type PageSource interface {
	Fetch(ctx context.Context, loc page.Locator) (*page.Page, error)
}

// childLocator reads an index row's child page locator: an index row's fixed
// span is a composite key followed by a 6-byte child locator.
func childLocator(row *page.Row) page.Locator {
	fixed := row.Fixed()
	return page.DecodeLocator(fixed[len(fixed)-6:])
}

// rowKey extracts the composite cluster key from a decoded row, fixed
// columns drawn from the fixed span and variable columns from the
// variable-column table, in KeyColumns order. For index rows the key
// occupies the whole fixed span minus the trailing 6-byte child locator.
func rowKey(cols []schema.Column, row *page.Row, isIndexRow bool) ([]byte, error) {
	var out []byte
	fixed := row.Fixed()
	if isIndexRow {
		out = append(out, fixed[:len(fixed)-6]...)
		return out, nil
	}
	for _, c := range cols {
		if c.Fixed {
			out = append(out, fixed[c.FixedOff:c.FixedOff+c.FixedLen]...)
			continue
		}
		v, err := row.Variable(c.VarIndex)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Bytes...)
	}
	return out, nil
}

// lowerBoundSlot returns the index of the largest slot whose key is <= key,
// or -1 if every key exceeds it. slot 0 of a non-leftmost page is treated as
// -infinity per §4.D.
func lowerBoundSlot(p *page.Page, cols []schema.Column, key []byte, leftmost bool, isIndexRow bool) (int, error) {
	n := int(p.Header.SlotCount)
	lo, hi := 0, n-1
	best := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if mid == 0 && !leftmost {
			best = mid
			lo = mid + 1
			continue
		}
		row, err := p.RowAt(uint16(mid), -1, -1, -1)
		if err != nil {
			return 0, err
		}
		k, err := rowKey(cols, row, isIndexRow)
		if err != nil {
			return 0, err
		}
		if schema.CompareKey(cols, k, key) <= 0 {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return best, nil
}

// FindPage descends from root to the leaf data page that would contain key,
// per §4.D find_page.
func FindPage(ctx context.Context, src PageSource, root page.Locator, cols []schema.Column, key []byte) (page.Locator, error) {
	loc := root
	leftmost := true
	for {
		p, err := src.Fetch(ctx, loc)
		if err != nil {
			return page.Locator{}, err
		}
		if err := page.ValidateSelf(p, loc); err != nil {
			return page.Locator{}, err
		}
		if p.Header.Type != page.TypeIndex {
			if p.Header.Type != page.TypeData {
				return page.Locator{}, &mdferr.Error{Kind: mdferr.KindCorruption, Page: loc.PageID,
					Msg: "expected index or data page while descending"}
			}
			return loc, nil
		}
		i, err := lowerBoundSlot(p, cols, key, leftmost, true)
		if err != nil {
			return page.Locator{}, err
		}
		if i < 0 {
			i = 0
		}
		row, err := p.RowAt(uint16(i), -1, -1, -1)
		if err != nil {
			return page.Locator{}, err
		}
		child := childLocator(row)
		leftmost = leftmost && i == 0
		loc = child
	}
}

// FindRecord locates the row whose cluster key matches key exactly, per
// §4.D find_record. ok is false when no such row exists.
func FindRecord(ctx context.Context, src PageSource, root page.Locator, cols []schema.Column, key []byte) (rid page.RID, ok bool, err error) {
	leaf, err := FindPage(ctx, src, root, cols, key)
	if err != nil {
		return page.RID{}, false, err
	}
	p, err := src.Fetch(ctx, leaf)
	if err != nil {
		return page.RID{}, false, err
	}
	i, err := lowerBoundSlot(p, cols, key, true, false)
	if err != nil {
		return page.RID{}, false, err
	}
	if i < 0 {
		return page.RID{}, false, nil
	}
	row, err := p.RowAt(uint16(i), -1, -1, -1)
	if err != nil {
		return page.RID{}, false, err
	}
	k, err := rowKey(cols, row, false)
	if err != nil {
		return page.RID{}, false, err
	}
	if schema.CompareKey(cols, k, key) != 0 {
		return page.RID{}, false, nil
	}
	return row.RID, true, nil
}
