package page

import (
	"encoding/binary"
	"fmt"

	"mdfengine/internal/mdferr"
)

// RowFlags decodes the row-header bit flags (§6, "Row header bit flags").
type RowFlags uint16

const (
	FlagGhost           RowFlags = 1 << 0
	FlagHasNullBitmap   RowFlags = 1 << 4
	FlagHasVariableCols RowFlags = 1 << 5
	FlagIsForwardedStub RowFlags = 1 << 8
	FlagIsForwarded     RowFlags = 1 << 9
)

func (f RowFlags) HasNullBitmap() bool   { return f&FlagHasNullBitmap != 0 }
func (f RowFlags) HasVariableCols() bool { return f&FlagHasVariableCols != 0 }
func (f RowFlags) IsForwardedStub() bool { return f&FlagIsForwardedStub != 0 }
func (f RowFlags) IsForwarded() bool     { return f&FlagIsForwarded != 0 }
func (f RowFlags) IsGhost() bool         { return f&FlagGhost != 0 }

// ComplexTag is the discriminator byte of a complex (indirected) variable
// column payload (§3 "Variable-column payload").
type ComplexTag byte

const (
	ComplexRowOverflow    ComplexTag = 0x02
	ComplexBlobInlineRoot ComplexTag = 0x04
	// ComplexForwardedOrSparse is the overloaded tag 0x05: it means a
	// forwarded-stub RID when the owning row's is-forwarded-stub flag is
	// set, and an opaque sparse-vector payload otherwise (open question
	// acknowledged in §9; the core does not decode the sparse-vector form).
	ComplexForwardedOrSparse ComplexTag = 0x05
)

// ValueKind enumerates what Column() can hand back for one column.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindFixed
	KindVariable
	KindOverflow
	KindForwarded
	KindSparse // opaque sparse-vector payload; not decoded further
)

// OverflowRef describes a complex-column indirection that must be followed
// through further pages to recover the full value (row-overflow or
// blob-inline-root). The decoder exposes the concatenation lazily: callers
// that only need the inline prefix never need to chase Chain.
type OverflowRef struct {
	Tag          ComplexTag
	InlinePrefix []byte // first bytes of the value, stored in-row
	TotalLen     uint32
	Chain        []Locator // pages holding the remainder, in order
}

// Value is one decoded column. Exactly one of Bytes/Overflow/ForwardTo is
// meaningful, selected by Kind.
type Value struct {
	Kind      ValueKind
	Bytes     []byte
	Overflow  *OverflowRef
	ForwardTo RID
}

// varSlot records one entry of the variable-column end-offset table: the
// real (high-bit-masked) end offset, and whether the high bit marking a
// complex column was set.
type varSlot struct {
	end     uint16
	complex bool
}

// Row is the decoded form of one row's bytes. It never copies the page's
// backing array except where a value must be reassembled (e.g. an overflow
// chain); fixed and variable payload slices alias raw.
type Row struct {
	RID      RID
	Flags    RowFlags
	ColCount uint16
	fixed    []byte    // fixed-column span, schema-ordered
	null     []byte    // null bitmap, nil if HasNullBitmap() is false
	varEnds  []varSlot // row-relative end offsets, in declared order
	varStart int       // row-relative offset of the first variable payload
	raw      []byte    // the row's full byte range within the page
}

// DecodeRow parses one row starting at rowStart within a page image. rid
// identifies the row's physical location for error reporting and for
// forwarded-record bookkeeping.
func DecodeRow(raw []byte, rowStart int, rid RID) (*Row, error) {
	if rowStart < 0 || rowStart+4 > len(raw) {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
			Msg: "row header out of page bounds"}
	}
	flags := RowFlags(binary.LittleEndian.Uint16(raw[rowStart:]))
	fixedLen := int(binary.LittleEndian.Uint16(raw[rowStart+2:]))

	off := rowStart + 4
	if off+fixedLen > len(raw) {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
			Msg: "fixed column span exceeds page"}
	}
	fixed := raw[off : off+fixedLen]
	off += fixedLen

	if flags.IsForwarded() {
		// The rest of the stub at this location is irrelevant: the caller
		// must restart decoding at ForwardTarget().
		if off+8 > len(raw) {
			return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
				Msg: "forwarded stub truncated"}
		}
		return &Row{RID: rid, Flags: flags, fixed: fixed, raw: raw[rowStart : off+8]}, nil
	}

	if off+2 > len(raw) {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
			Msg: "missing column count"}
	}
	colCount := binary.LittleEndian.Uint16(raw[off:])
	off += 2

	var null []byte
	if flags.HasNullBitmap() {
		nbytes := int(colCount+7) / 8
		if off+nbytes > len(raw) {
			return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
				Msg: "null bitmap exceeds page"}
		}
		null = raw[off : off+nbytes]
		off += nbytes
	}

	var ends []varSlot
	if flags.HasVariableCols() {
		if off+2 > len(raw) {
			return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
				Msg: "missing variable column count"}
		}
		m := int(binary.LittleEndian.Uint16(raw[off:]))
		off += 2
		if off+2*m > len(raw) {
			return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
				Msg: "variable column table exceeds page"}
		}
		ends = make([]varSlot, m)
		for i := 0; i < m; i++ {
			raw16 := binary.LittleEndian.Uint16(raw[off+2*i:])
			ends[i] = varSlot{end: raw16 &^ 0x8000, complex: raw16&0x8000 != 0}
		}
		off += 2 * m
	}
	varStart := off - rowStart

	rowEnd := off
	for _, e := range ends {
		if end := rowStart + int(e.end); end > rowEnd {
			rowEnd = end
		}
	}
	if rowEnd > len(raw) {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: rid.Page.PageID,
			Msg: "variable payload exceeds page"}
	}

	return &Row{
		RID:      rid,
		Flags:    flags,
		ColCount: colCount,
		fixed:    fixed,
		null:     null,
		varEnds:  ends,
		varStart: varStart,
		raw:      raw[rowStart:rowEnd],
	}, nil
}

// ForwardTarget returns the RID to resume decoding at when IsForwarded is
// set; it reads the 8-byte target that follows the fixed span.
func (r *Row) ForwardTarget() RID {
	start := 4 + len(r.fixed)
	return DecodeRID(r.raw[start : start+8])
}

// Fixed returns the raw fixed-column span bytes; schema code slices it per
// column offset/length.
func (r *Row) Fixed() []byte { return r.fixed }

// IsNull reports whether schema bit position k is marked null. It returns
// false when the row carries no null bitmap at all (no nullable columns in
// this table's on-disk form).
func (r *Row) IsNull(k int) bool {
	if r.null == nil {
		return false
	}
	byteIdx, bit := k/8, uint(k%8)
	if byteIdx >= len(r.null) {
		return false
	}
	return r.null[byteIdx]&(1<<bit) != 0
}

// VariableCount returns the number of entries in the variable-column end
// offset table. Per the count invariant this is <= the schema's count of
// non-null variable columns.
func (r *Row) VariableCount() int { return len(r.varEnds) }

// Variable decodes the k-th variable-length column, following complex-type
// indirection (row-overflow, blob-inline-root, forwarded-stub) per §4.C.
func (r *Row) Variable(k int) (Value, error) {
	if k < 0 || k >= len(r.varEnds) {
		return Value{}, fmt.Errorf("variable column %d out of range (have %d)", k, len(r.varEnds))
	}
	start := r.varStart
	if k > 0 {
		start = int(r.varEnds[k-1].end)
	}
	end := int(r.varEnds[k].end)
	if start < 0 || end > len(r.raw) || start > end {
		return Value{}, fmt.Errorf("variable column %d offsets out of bounds", k)
	}
	payload := r.raw[start:end]
	if !r.varEnds[k].complex {
		return Value{Kind: KindVariable, Bytes: payload}, nil
	}
	return decodeComplex(payload, r.Flags)
}

func decodeComplex(payload []byte, flags RowFlags) (Value, error) {
	if len(payload) == 0 {
		return Value{}, fmt.Errorf("empty complex column payload")
	}
	tag := ComplexTag(payload[0])
	body := payload[1:]
	switch tag {
	case ComplexRowOverflow, ComplexBlobInlineRoot:
		return decodeOverflow(tag, body)
	case ComplexForwardedOrSparse:
		if flags.IsForwardedStub() {
			if len(body) < 8 {
				return Value{}, fmt.Errorf("forwarded-stub payload truncated")
			}
			return Value{Kind: KindForwarded, ForwardTo: DecodeRID(body[:8])}, nil
		}
		return Value{Kind: KindSparse, Bytes: body}, nil
	default:
		return Value{}, fmt.Errorf("unknown complex column tag 0x%02x", byte(tag))
	}
}

// decodeOverflow parses the common row-overflow / blob-inline-root body: a
// 16-byte inline prefix, a 4-byte total length, and a locator chain of
// 6-byte entries for the remainder.
func decodeOverflow(tag ComplexTag, body []byte) (Value, error) {
	const prefixLen = 16
	if len(body) < prefixLen+4 {
		return Value{}, fmt.Errorf("overflow payload truncated")
	}
	prefix := body[:prefixLen]
	total := binary.LittleEndian.Uint32(body[prefixLen : prefixLen+4])
	rest := body[prefixLen+4:]
	if len(rest)%6 != 0 {
		return Value{}, fmt.Errorf("overflow locator chain misaligned")
	}
	chain := make([]Locator, len(rest)/6)
	for i := range chain {
		chain[i] = DecodeLocator(rest[i*6 : i*6+6])
	}
	return Value{Kind: KindOverflow, Overflow: &OverflowRef{
		Tag:          tag,
		InlinePrefix: prefix,
		TotalLen:     total,
		Chain:        chain,
	}}, nil
}
