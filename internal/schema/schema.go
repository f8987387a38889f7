// Package schema implements component 4.G: a thin facade binding a table's
// column list to runtime column offsets, used by the B-tree (4.D) and
// spatial tree (4.F) walkers to read typed values out of decoded rows and
// to serialize caller-supplied keys into the on-disk comparison byte
// layout. It mirrors the teacher's catalog package (storage_engine/catalog)
// but is read-only and has no notion of creating or persisting a table: the
// descriptor always comes from whatever system-catalog reader the caller
// plugs in (out of scope for the core, per §1).
package schema

import "encoding/binary"

// ScalarType tags a column's on-disk representation, the subset recognized
// by §6.
type ScalarType int

const (
	TypeInt8 ScalarType = iota
	TypeInt16
	TypeInt32
	TypeInt64
	TypeReal
	TypeFloat
	TypeSmallDateTime
	TypeDateTime
	TypeDate
	TypeTime
	TypeDateTime2
	TypeDateTimeOffset
	TypeGUID
	TypeChar
	TypeNChar
	TypeVarChar
	TypeNVarChar
	TypeDecimal
	TypeNumeric
	TypeMoney
	TypeSmallMoney
	TypeGeography
	TypeGeometry
)

// SortOrder is a key column's declared direction within an index.
type SortOrder int

const (
	Asc SortOrder = iota
	Desc
)

// Column describes one table column as it exists in the fixed-column span,
// the null bitmap, or the variable-column table.
type Column struct {
	Name       string
	Type       ScalarType
	Fixed      bool // false => lives in the variable-column table
	FixedOff   int  // byte offset within the fixed span, if Fixed
	FixedLen   int  // byte length within the fixed span, if Fixed
	VarIndex   int  // position within the schema's variable-column order, if !Fixed
	Nullable   bool
	BitPos     int // position in the on-disk null bitmap (may differ from logical index)
	IndexPos   int // position in the clustered index's key, -1 if not a key column
	Order      SortOrder
}

// Table is the compile-time-or-table-driven descriptor for one table: its
// full column list plus the ordered subset making up the clustered index
// key.
type Table struct {
	Name        string
	Columns     []Column
	FixedSpan   int // total bytes of the fixed-column span
	KeyColumns  []int // indices into Columns, in index-column order
}

// KeySchema returns the Column descriptors for the clustered index, in key
// order.
func (t *Table) KeySchema() []Column {
	out := make([]Column, len(t.KeyColumns))
	for i, ci := range t.KeyColumns {
		out[i] = t.Columns[ci]
	}
	return out
}

// FixedWidth reports the schema's declared fixed-column span width, used to
// validate a decoded row's fixed span length (the row-rejection invariant).
func (t *Table) FixedWidth() int { return t.FixedSpan }

// ColumnCount is the total column count a decoded row must report.
func (t *Table) ColumnCount() int { return len(t.Columns) }

// VariableColumnCount is the schema's declared count of variable-length
// columns, the upper bound a decoded row's variable-column end-offset
// table must respect (a null variable column contributes no entry, so a
// row's actual count may be lower, never higher).
func (t *Table) VariableColumnCount() int {
	n := 0
	for _, c := range t.Columns {
		if !c.Fixed {
			n++
		}
	}
	return n
}

// EncodeKey serializes vals (one per KeyColumns entry, in that order) to
// the byte-exact on-disk key layout: fixed-size little-endian integers,
// native IEEE-754 floats, and fixed-width strings as-is.
func EncodeKey(cols []Column, vals [][]byte) ([]byte, error) {
	var out []byte
	for i, c := range cols {
		v := vals[i]
		switch c.Type {
		case TypeInt8:
			out = append(out, v[0])
		case TypeInt16, TypeInt32, TypeInt64:
			out = append(out, v...)
		default:
			out = append(out, v...)
		}
	}
	return out, nil
}

// FixedKeyWidth returns the sum of the declared fixed widths of cols, used
// to slice a fixed-width composite key back into per-column spans.
func FixedKeyWidth(cols []Column) int {
	n := 0
	for _, c := range cols {
		n += c.FixedLen
	}
	return n
}

// Uint32LE and Uint64LE are small helpers kept here (rather than reaching
// for encoding/binary at every call site in the btree/spatial walkers) so
// key comparison code reads as column-typed operations.
func Uint32LE(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }
func Uint64LE(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }
func Int32LE(b []byte) int32   { return int32(binary.LittleEndian.Uint32(b)) }
func Int64LE(b []byte) int64   { return int64(binary.LittleEndian.Uint64(b)) }
