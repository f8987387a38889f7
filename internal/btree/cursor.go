package btree

import (
	"context"

	"mdfengine/internal/page"
	"mdfengine/internal/schema"
)

// Cursor is a { page locator, slot } position on a leaf level, per §4.D
// Scans. A cursor whose page locator is null is the end sentinel, mirroring
// the teacher's Iterator (bplustree/iterator.go) but walking pool-backed
// pages instead of an in-memory node cache, and supporting both directions
// via the page's prev/next neighbors instead of a leaf-only forward link.
type Cursor struct {
	src  PageSource
	cols []schema.Column
	loc  page.Locator
	slot int
	page *page.Page
}

// LowerBound returns a cursor positioned at the first row whose key is >=
// key, per §4.D lower_bound. The returned cursor is the end sentinel if no
// such row exists anywhere at or after the found leaf.
func LowerBound(ctx context.Context, src PageSource, root page.Locator, cols []schema.Column, key []byte) (*Cursor, error) {
	leaf, err := FindPage(ctx, src, root, cols, key)
	if err != nil {
		return nil, err
	}
	p, err := src.Fetch(ctx, leaf)
	if err != nil {
		return nil, err
	}
	i, err := firstAtOrAfter(p, cols, key)
	if err != nil {
		return nil, err
	}
	c := &Cursor{src: src, cols: cols, loc: leaf, slot: i, page: p}
	if i >= int(p.Header.SlotCount) {
		if err := c.advancePage(ctx, p.Header.Next); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// firstAtOrAfter finds the smallest slot whose key is >= key via the same
// binary search lowerBoundSlot uses (largest slot <= key), then steps forward
// one slot when that slot's key is strictly less than key.
func firstAtOrAfter(p *page.Page, cols []schema.Column, key []byte) (int, error) {
	i, err := lowerBoundSlot(p, cols, key, true, false)
	if err != nil {
		return 0, err
	}
	if i < 0 {
		return 0, nil
	}
	row, err := p.RowAt(uint16(i), -1, -1, -1)
	if err != nil {
		return 0, err
	}
	k, err := rowKey(cols, row, false)
	if err != nil {
		return 0, err
	}
	if schema.CompareKey(cols, k, key) < 0 {
		return i + 1, nil
	}
	return i, nil
}

// Valid reports whether the cursor is positioned at a real row.
func (c *Cursor) Valid() bool { return c != nil && !c.loc.IsNull() }

// RID returns the current row's identifier. Valid must be true.
func (c *Cursor) RID() page.RID {
	return page.RID{Page: c.loc, Slot: uint16(c.slot)}
}

// Row decodes the row the cursor currently points at.
func (c *Cursor) Row() (*page.Row, error) {
	return c.page.RowAt(uint16(c.slot), -1, -1, -1)
}

// Next advances the cursor forward one row, following the page's next
// neighbor on slot exhaustion.
func (c *Cursor) Next(ctx context.Context) error {
	if !c.Valid() {
		return nil
	}
	c.slot++
	if c.slot < int(c.page.Header.SlotCount) {
		return nil
	}
	return c.advancePage(ctx, c.page.Header.Next)
}

// Previous moves the cursor backward one row, following the page's prev
// neighbor on slot underflow.
func (c *Cursor) Previous(ctx context.Context) error {
	if !c.Valid() {
		return nil
	}
	c.slot--
	if c.slot >= 0 {
		return nil
	}
	return c.retreatPage(ctx, c.page.Header.Prev)
}

func (c *Cursor) advancePage(ctx context.Context, next page.Locator) error {
	for {
		if next.IsNull() {
			c.loc = page.Locator{}
			c.page = nil
			return nil
		}
		p, err := c.src.Fetch(ctx, next)
		if err != nil {
			return err
		}
		if p.Header.SlotCount == 0 {
			next = p.Header.Next
			continue
		}
		c.loc = next
		c.page = p
		c.slot = 0
		return nil
	}
}

func (c *Cursor) retreatPage(ctx context.Context, prev page.Locator) error {
	for {
		if prev.IsNull() {
			c.loc = page.Locator{}
			c.page = nil
			return nil
		}
		p, err := c.src.Fetch(ctx, prev)
		if err != nil {
			return err
		}
		if p.Header.SlotCount == 0 {
			prev = p.Header.Prev
			continue
		}
		c.loc = prev
		c.page = p
		c.slot = int(p.Header.SlotCount) - 1
		return nil
	}
}
