package spatial

import (
	"context"
	"encoding/binary"
	"testing"

	"mdfengine/internal/page"
)

// fakeSource mirrors internal/btree's test fixture: an in-memory PageSource
// over hand-built page images.
type fakeSource struct {
	pages map[page.Locator][]byte
}

func (f *fakeSource) Fetch(ctx context.Context, loc page.Locator) (*page.Page, error) {
	raw, ok := f.pages[loc]
	if !ok {
		return nil, errNotFoundSpatial(loc)
	}
	return &page.Page{Raw: raw, Header: page.ParseHeader(raw)}, nil
}

type notFoundErrSpatial struct{ loc page.Locator }

func (e notFoundErrSpatial) Error() string { return "page not found: " + e.loc.String() }
func errNotFoundSpatial(loc page.Locator) error { return notFoundErrSpatial{loc} }

func buildPage(typ page.Type, self, prev, next page.Locator, rows [][]byte) []byte {
	raw := make([]byte, page.Size)
	raw[0] = byte(typ)
	off := page.HeaderSize
	offsets := make([]uint16, len(rows))
	for i, r := range rows {
		copy(raw[off:], r)
		offsets[i] = uint16(off)
		off += len(r)
	}
	binary.LittleEndian.PutUint16(raw[4:], uint16(len(rows)))
	for i, o := range offsets {
		entryOff := page.Size - 2*(i+1)
		binary.LittleEndian.PutUint16(raw[entryOff:], o)
	}
	page.EncodeLocator(raw[16:], self)
	page.EncodeLocator(raw[24:], prev)
	page.EncodeLocator(raw[32:], next)
	return raw
}

func pkBytes(n int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(n))
	return b
}

func buildSpatialIndexRow(key []byte, child page.Locator) []byte {
	fixed := append(append([]byte{}, key...), make([]byte, 6)...)
	page.EncodeLocator(fixed[len(key):], child)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(fixed)))
	return append(buf, fixed...)
}

func buildSpatialLeafRow(key []byte) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(key)))
	return append(buf, key...)
}

func cell(a, b, c, d uint8, depth Depth) Cell {
	return Cell{Idx: [4]uint8{a, b, c, d}, Depth: depth}
}

// buildSpatialTree builds a root index page over two leaves, keyed by
// {cell, pk}: leafA holds cells under prefix (1,*) with pks 1,2,3; leafB
// holds cells under prefix (2,*) with pks 4,5.
func buildSpatialTree(t *testing.T) (*fakeSource, page.Locator, int) {
	t.Helper()
	const pkLen = 4
	root := page.Locator{PageID: 1, FileID: 1}
	leafA := page.Locator{PageID: 2, FileID: 1}
	leafB := page.Locator{PageID: 3, FileID: 1}

	keyA1 := BuildKey(cell(1, 10, 0, 0, 4), pkBytes(1))
	keyA2 := BuildKey(cell(1, 20, 0, 0, 4), pkBytes(2))
	keyA3 := BuildKey(cell(1, 30, 0, 0, 4), pkBytes(3))
	keyB1 := BuildKey(cell(2, 10, 0, 0, 4), pkBytes(4))
	keyB2 := BuildKey(cell(2, 20, 0, 0, 4), pkBytes(5))

	rootRaw := buildPage(page.TypeIndex, root, page.Locator{}, page.Locator{}, [][]byte{
		buildSpatialIndexRow(keyA1, leafA),
		buildSpatialIndexRow(keyB1, leafB),
	})
	leafARaw := buildPage(page.TypeData, leafA, page.Locator{}, leafB, [][]byte{
		buildSpatialLeafRow(keyA1),
		buildSpatialLeafRow(keyA2),
		buildSpatialLeafRow(keyA3),
	})
	leafBRaw := buildPage(page.TypeData, leafB, leafA, page.Locator{}, [][]byte{
		buildSpatialLeafRow(keyB1),
		buildSpatialLeafRow(keyB2),
	})

	return &fakeSource{pages: map[page.Locator][]byte{
		root:  rootRaw,
		leafA: leafARaw,
		leafB: leafBRaw,
	}}, root, pkLen
}

func TestQueryCellFindsIntersectingRowsInOneLeaf(t *testing.T) {
	src, root, pkLen := buildSpatialTree(t)
	q := cell(1, 0, 0, 0, 1) // depth-1 prefix matching every cell under 1,*
	dedup := NewDedup()
	var got []int32
	err := QueryCell(context.Background(), src, root, pkLen, q, dedup, func(rid page.RID, pk []byte) error {
		got = append(got, int32(binary.LittleEndian.Uint32(pk)))
		return nil
	})
	if err != nil {
		t.Fatalf("QueryCell: %v", err)
	}
	want := map[int32]bool{1: true, 2: true, 3: true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want keys %v", got, want)
	}
	for _, pk := range got {
		if !want[pk] {
			t.Fatalf("unexpected pk %d in result %v", pk, got)
		}
	}
}

func TestQueryCellExcludesNonIntersectingLeaf(t *testing.T) {
	src, root, pkLen := buildSpatialTree(t)
	q := cell(2, 0, 0, 0, 1)
	dedup := NewDedup()
	var got []int32
	err := QueryCell(context.Background(), src, root, pkLen, q, dedup, func(rid page.RID, pk []byte) error {
		got = append(got, int32(binary.LittleEndian.Uint32(pk)))
		return nil
	})
	if err != nil {
		t.Fatalf("QueryCell: %v", err)
	}
	for _, pk := range got {
		if pk < 4 {
			t.Fatalf("got pk %d from the non-matching cell prefix, result %v", pk, got)
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %v, want 2 rows from leaf B", got)
	}
}

// TestQueryCellsThreadsDedupAcrossCalls mirrors §4.F's "4.F is invoked once
// per cell with the same dedup set threaded through": querying the same
// cell twice with one shared Dedup must not emit duplicates the second time.
func TestQueryCellsThreadsDedupAcrossCalls(t *testing.T) {
	src, root, pkLen := buildSpatialTree(t)
	q := cell(1, 10, 0, 0, 4)
	dedup := NewDedup()
	var got []int32
	emit := func(rid page.RID, pk []byte) error {
		got = append(got, int32(binary.LittleEndian.Uint32(pk)))
		return nil
	}
	if err := QueryCells(context.Background(), src, root, pkLen, []Cell{q, q}, dedup, emit); err != nil {
		t.Fatalf("QueryCells: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %v, want exactly one emission across both calls", got)
	}
}
