package rowcache

import (
	"testing"

	"mdfengine/internal/page"
)

func TestPutThenGetHits(t *testing.T) {
	c, err := New(Options{MaxCost: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	rid := page.RID{Page: page.Locator{PageID: 1, FileID: 1}, Slot: 3}
	row := &page.Row{RID: rid}
	c.Put(rid, row)
	c.Wait()

	got, ok := c.Get(rid)
	if !ok {
		t.Fatal("expected cache hit after Put")
	}
	if got != row {
		t.Fatal("cached row should be the same pointer that was Put")
	}
}

func TestGetMissOnUnknownRID(t *testing.T) {
	c, err := New(Options{MaxCost: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	_, ok := c.Get(page.RID{Page: page.Locator{PageID: 99, FileID: 1}})
	if ok {
		t.Fatal("expected cache miss for a RID never Put")
	}
}

func TestInvalidateRemovesEntry(t *testing.T) {
	c, err := New(Options{MaxCost: 100})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	rid := page.RID{Page: page.Locator{PageID: 2, FileID: 1}, Slot: 0}
	c.Put(rid, &page.Row{RID: rid})
	c.Wait()
	c.Invalidate(rid)
	c.Wait()

	if _, ok := c.Get(rid); ok {
		t.Fatal("expected cache miss after Invalidate")
	}
}
