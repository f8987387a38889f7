package page

import "mdfengine/internal/mdferr"

// RowAt decodes the row stored at slot i of the page. A slot offset outside
// the page, a fixed span that disagrees with wantFixedLen, a reported
// column count that disagrees with wantColCount, or a variable-column
// end-offset table longer than maxVariable (any of these when >= 0), is
// reported as corruption rather than panicking, per the invariant that a
// row whose shape does not match the schema's declared layout is rejected.
// Callers with no schema to check against (e.g. the B-tree walker reading
// index rows, or the boot page's own fixed row) pass -1 for each.
func (p *Page) RowAt(i uint16, wantFixedLen, wantColCount, maxVariable int) (*Row, error) {
	off, ok := p.SlotOffset(i)
	if !ok {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: p.Header.Self.PageID,
			Msg: "slot index out of range"}
	}
	if int(off) < HeaderSize || int(off) >= Size {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: p.Header.Self.PageID,
			Msg: "slot offset outside row region"}
	}
	rid := RID{Page: p.Header.Self, Slot: i}
	row, err := DecodeRow(p.Raw, int(off), rid)
	if err != nil {
		return nil, err
	}
	if row.Flags.IsForwarded() {
		return row, nil
	}
	if wantFixedLen >= 0 && len(row.fixed) != wantFixedLen {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: p.Header.Self.PageID,
			Msg: "fixed span length disagrees with schema"}
	}
	if wantColCount >= 0 && int(row.ColCount) != wantColCount {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: p.Header.Self.PageID,
			Msg: "row column count disagrees with schema"}
	}
	if maxVariable >= 0 && row.VariableCount() > maxVariable {
		return nil, &mdferr.Error{Kind: mdferr.KindCorruption, Page: p.Header.Self.PageID,
			Msg: "row variable column count exceeds schema"}
	}
	return row, nil
}

// ValidateSelf checks that the page's self-recorded locator matches the
// locator the caller expected when requesting it from the pool.
func ValidateSelf(p *Page, want Locator) error {
	if p.Header.Self != want {
		return &mdferr.Error{Kind: mdferr.KindCorruption, Page: want.PageID,
			Msg: "page self-id disagrees with requested id"}
	}
	return nil
}

// ValidateType checks the page's type tag against an allowed set, used by
// the B-tree and spatial walkers before trusting a page's row layout.
func ValidateType(p *Page, allowed ...Type) error {
	for _, t := range allowed {
		if p.Header.Type == t {
			return nil
		}
	}
	return &mdferr.Error{Kind: mdferr.KindCorruption, Page: p.Header.Self.PageID,
		Msg: "unexpected page type " + p.Header.Type.String()}
}
