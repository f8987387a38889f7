package schema

import (
	"bytes"
	"encoding/binary"
)

// CompareKey compares two composite keys column-by-column using each
// column's declared sort order; a descending column negates its
// comparison result. A variable-length key column (FixedLen 0) takes the
// rest of each key and compares bytewise over its full length: no maximum
// width is applied, and only a trailing variable-length column is handled.
func CompareKey(cols []Column, a, b []byte) int {
	aOff, bOff := 0, 0
	for _, c := range cols {
		width := c.FixedLen
		var av, bv []byte
		if width > 0 {
			av, bv = a[aOff:aOff+width], b[bOff:bOff+width]
			aOff += width
			bOff += width
		} else {
			// Variable-width key column: the remainder of each side is a
			// single trailing column in this simplified encoding.
			av, bv = a[aOff:], b[bOff:]
			aOff, bOff = len(a), len(b)
		}
		cmp := compareColumn(c.Type, av, bv)
		if c.Order == Desc {
			cmp = -cmp
		}
		if cmp != 0 {
			return cmp
		}
	}
	return 0
}

func compareColumn(t ScalarType, a, b []byte) int {
	switch t {
	case TypeInt8:
		return int(int8(a[0])) - int(int8(b[0]))
	case TypeInt16:
		return int(int16(binary.LittleEndian.Uint16(a))) - int(int16(binary.LittleEndian.Uint16(b)))
	case TypeInt32:
		av, bv := Int32LE(a), Int32LE(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case TypeInt64:
		av, bv := Int64LE(a), Int64LE(b)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return bytes.Compare(a, b)
	}
}
