package page

import (
	"encoding/binary"
	"testing"

	"mdfengine/internal/mdferr"
)

// buildRow assembles one row's bytes: header, fixed span, column count,
// optional null bitmap, optional variable-column table and payloads.
func buildRow(t *testing.T, flags RowFlags, fixed []byte, colCount uint16, nullBits []byte, varPayloads [][]byte) []byte {
	t.Helper()
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(flags))
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(fixed)))
	buf = append(buf, fixed...)

	cc := make([]byte, 2)
	binary.LittleEndian.PutUint16(cc, colCount)
	buf = append(buf, cc...)

	if flags.HasNullBitmap() {
		buf = append(buf, nullBits...)
	}

	if flags.HasVariableCols() {
		mbuf := make([]byte, 2)
		binary.LittleEndian.PutUint16(mbuf, uint16(len(varPayloads)))
		buf = append(buf, mbuf...)

		ends := make([]byte, 2*len(varPayloads))
		// End offsets are row-relative and cumulative; the first payload
		// starts right after this end-offset table.
		running := len(buf) + len(ends)
		for i, p := range varPayloads {
			running += len(p)
			binary.LittleEndian.PutUint16(ends[2*i:], uint16(running))
		}
		buf = append(buf, ends...)
		for _, p := range varPayloads {
			buf = append(buf, p...)
		}
	}
	return buf
}

func TestDecodeRowFixedOnly(t *testing.T) {
	fixed := []byte{1, 2, 3, 4}
	rowBytes := buildRow(t, 0, fixed, 1, nil, nil)

	page := make([]byte, Size)
	copy(page[HeaderSize:], rowBytes)

	row, err := DecodeRow(page, HeaderSize, RID{Page: Locator{PageID: 1, FileID: 1}, Slot: 0})
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if string(row.Fixed()) != string(fixed) {
		t.Fatalf("fixed = %v, want %v", row.Fixed(), fixed)
	}
	if row.ColCount != 1 {
		t.Fatalf("ColCount = %d, want 1", row.ColCount)
	}
	if row.VariableCount() != 0 {
		t.Fatalf("VariableCount = %d, want 0", row.VariableCount())
	}
}

func TestDecodeRowNullBitmapAndVariable(t *testing.T) {
	fixed := []byte{0xAA, 0xBB}
	// 3 columns total; column 1 (bit index 1) is null.
	null := []byte{0b0000_0010}
	varPayloads := [][]byte{[]byte("hello"), []byte("world!")}
	rowBytes := buildRow(t, FlagHasNullBitmap|FlagHasVariableCols, fixed, 3, null, varPayloads)

	page := make([]byte, Size)
	copy(page[HeaderSize:], rowBytes)

	row, err := DecodeRow(page, HeaderSize, RID{Page: Locator{PageID: 7, FileID: 1}, Slot: 2})
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if !row.IsNull(1) {
		t.Fatal("expected column bit 1 to be null")
	}
	if row.IsNull(0) || row.IsNull(2) {
		t.Fatal("columns 0 and 2 should not be null")
	}
	if row.VariableCount() != 2 {
		t.Fatalf("VariableCount = %d, want 2", row.VariableCount())
	}
	v0, err := row.Variable(0)
	if err != nil {
		t.Fatalf("Variable(0): %v", err)
	}
	if v0.Kind != KindVariable || string(v0.Bytes) != "hello" {
		t.Fatalf("Variable(0) = %+v, want %q", v0, "hello")
	}
	v1, err := row.Variable(1)
	if err != nil {
		t.Fatalf("Variable(1): %v", err)
	}
	if string(v1.Bytes) != "world!" {
		t.Fatalf("Variable(1) = %q, want %q", v1.Bytes, "world!")
	}
}

func TestDecodeRowForwarded(t *testing.T) {
	fixed := []byte{9, 9}
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(FlagIsForwarded))
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(fixed)))
	buf = append(buf, fixed...)
	target := RID{Page: Locator{PageID: 55, FileID: 1}, Slot: 3}
	tbuf := make([]byte, 6)
	EncodeLocator(tbuf, target.Page)
	slotBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(slotBuf, target.Slot)
	buf = append(buf, tbuf...)
	buf = append(buf, slotBuf...)

	page := make([]byte, Size)
	copy(page[HeaderSize:], buf)

	row, err := DecodeRow(page, HeaderSize, RID{Page: Locator{PageID: 1, FileID: 1}, Slot: 0})
	if err != nil {
		t.Fatalf("DecodeRow: %v", err)
	}
	if !row.Flags.IsForwarded() {
		t.Fatal("expected IsForwarded flag")
	}
	got := row.ForwardTarget()
	if got != target {
		t.Fatalf("ForwardTarget = %+v, want %+v", got, target)
	}
}

// buildPageWithRow places rowBytes at slot 0 of an otherwise empty page,
// wiring up the slot array the way RowAt expects to find it.
func buildPageWithRow(rowBytes []byte) *Page {
	raw := make([]byte, Size)
	copy(raw[HeaderSize:], rowBytes)
	binary.LittleEndian.PutUint16(raw[slotEntryOffset(0):], HeaderSize)
	h := ParseHeader(raw)
	h.SlotCount = 1
	return &Page{Raw: raw, Header: h}
}

func TestRowAtRejectsColumnCountMismatch(t *testing.T) {
	rowBytes := buildRow(t, 0, []byte{1, 2, 3, 4}, 1, nil, nil)
	p := buildPageWithRow(rowBytes)

	if _, err := p.RowAt(0, 4, 2, -1); err == nil {
		t.Fatal("expected corruption error for column count mismatch")
	} else if kind, ok := mdferr.KindOf(err); !ok || kind != mdferr.KindCorruption {
		t.Fatalf("error kind = %v, want corruption", kind)
	}

	if _, err := p.RowAt(0, 4, 1, -1); err != nil {
		t.Fatalf("RowAt with matching column count: %v", err)
	}
}

func TestRowAtRejectsVariableCountOverSchema(t *testing.T) {
	varPayloads := [][]byte{[]byte("a"), []byte("b")}
	rowBytes := buildRow(t, FlagHasVariableCols, []byte{1, 2}, 3, nil, varPayloads)
	p := buildPageWithRow(rowBytes)

	if _, err := p.RowAt(0, 2, 3, 1); err == nil {
		t.Fatal("expected corruption error for variable column count exceeding schema")
	} else if kind, ok := mdferr.KindOf(err); !ok || kind != mdferr.KindCorruption {
		t.Fatalf("error kind = %v, want corruption", kind)
	}

	if _, err := p.RowAt(0, 2, 3, 2); err != nil {
		t.Fatalf("RowAt with matching variable count: %v", err)
	}
}

func TestRowAtSkipsChecksOnForwardedRow(t *testing.T) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(FlagIsForwarded))
	binary.LittleEndian.PutUint16(buf[2:], 2)
	buf = append(buf, 9, 9)
	target := RID{Page: Locator{PageID: 55, FileID: 1}, Slot: 3}
	tbuf := make([]byte, 6)
	EncodeLocator(tbuf, target.Page)
	slotBuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(slotBuf, target.Slot)
	buf = append(buf, tbuf...)
	buf = append(buf, slotBuf...)

	p := buildPageWithRow(buf)
	// A forwarded stub carries no column count or variable table of its
	// own; schema-shaped wantColCount/maxVariable values must not reject
	// it, since decoding resumes at ForwardTarget instead.
	row, err := p.RowAt(0, 2, 7, 3)
	if err != nil {
		t.Fatalf("RowAt on forwarded stub: %v", err)
	}
	if !row.Flags.IsForwarded() {
		t.Fatal("expected IsForwarded flag")
	}
}

func TestDecodeRowRejectsTruncatedFixedSpan(t *testing.T) {
	page := make([]byte, Size)
	binary.LittleEndian.PutUint16(page[HeaderSize:], 0)
	binary.LittleEndian.PutUint16(page[HeaderSize+2:], 0xFFFF) // claims huge fixed span
	_, err := DecodeRow(page, HeaderSize, RID{Page: Locator{PageID: 1, FileID: 1}})
	if err == nil {
		t.Fatal("expected corruption error for oversized fixed span")
	}
	kind, ok := mdferr.KindOf(err)
	if !ok || kind != mdferr.KindCorruption {
		t.Fatalf("error kind = %v, want corruption", kind)
	}
}
