package mdf

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf16"
)

// epoch1900 is the base date smalldatetime and datetime count days from.
var epoch1900 = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// DecodeInt8 through DecodeInt64 read little-endian two's complement
// integers, per §6's "int32, int16, int64, int8 bits" row.
func DecodeInt8(b []byte) int8   { return int8(b[0]) }
func DecodeInt16(b []byte) int16 { return int16(binary.LittleEndian.Uint16(b)) }
func DecodeInt32(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) }
func DecodeInt64(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) }

// DecodeReal and DecodeFloat read native IEEE-754 single/double precision
// values.
func DecodeReal(b []byte) float32  { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }
func DecodeFloat(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }

// DecodeSmallDateTime decodes the 4-byte form: u16 days since 1900-01-01,
// u16 minutes since midnight.
func DecodeSmallDateTime(b []byte) time.Time {
	days := binary.LittleEndian.Uint16(b[0:2])
	minutes := binary.LittleEndian.Uint16(b[2:4])
	return epoch1900.AddDate(0, 0, int(days)).Add(time.Duration(minutes) * time.Minute)
}

// DecodeDateTime decodes the 8-byte form: i32 days since 1900-01-01, u32
// ticks of 1/300 second since midnight.
func DecodeDateTime(b []byte) time.Time {
	days := int32(binary.LittleEndian.Uint32(b[0:4]))
	ticks := binary.LittleEndian.Uint32(b[4:8])
	nanos := int64(ticks) * int64(time.Second) / 300
	return epoch1900.AddDate(0, 0, int(days)).Add(time.Duration(nanos))
}

// DecodeGUID renders a 16-byte uniqueidentifier in the conventional
// big-endian-first-group text form, per §6.
func DecodeGUID(b []byte) string {
	if len(b) != 16 {
		return ""
	}
	d1 := binary.LittleEndian.Uint32(b[0:4])
	d2 := binary.LittleEndian.Uint16(b[4:6])
	d3 := binary.LittleEndian.Uint16(b[6:8])
	return fmt.Sprintf("%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		d1, d2, d3, b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}

// DecodeChar trims a fixed-width single-byte char/varchar column's trailing
// padding, returning the text as-is otherwise (no codepage translation: the
// core only needs to round-trip ASCII-compatible content).
func DecodeChar(b []byte) string { return strings.TrimRight(string(b), " ") }

// decodeNChar decodes a UCS-2 little-endian nchar/nvarchar payload into a Go
// string. Boot-page parsing calls it directly; callers outside this package
// reach it through DecodeNChar.
func decodeNChar(b []byte) string {
	if len(b)%2 != 0 {
		b = b[:len(b)-1]
	}
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(u16))
}

// DecodeNChar is the exported form of decodeNChar, for callers decoding
// nchar/nvarchar columns outside of boot-page parsing.
func DecodeNChar(b []byte) string { return decodeNChar(b) }

// DecodeMoney and DecodeSmallMoney undo the x10,000 fixed-point scaling.
func DecodeMoney(b []byte) float64      { return float64(DecodeInt64(b)) / 10000 }
func DecodeSmallMoney(b []byte) float64 { return float64(DecodeInt32(b)) / 10000 }

// Decimal is a decoded decimal/numeric value: sign plus an arbitrary-width
// packed little-endian magnitude in 32-bit digit groups, scaled by the
// schema-declared number of fractional digits (not carried in the on-disk
// bytes themselves, so the caller supplies it).
type Decimal struct {
	Negative bool
	Digits   []uint32 // little-endian 32-bit groups of the unscaled magnitude
}

// DecodeDecimal parses the "sign + packed 32-bit digits" on-disk form: byte
// 0 is a sign flag (0 = negative, 1 = positive, matching the host engine's
// convention), the remainder is the magnitude in 4-byte little-endian
// groups.
func DecodeDecimal(b []byte) (Decimal, error) {
	if len(b) < 1 || (len(b)-1)%4 != 0 {
		return Decimal{}, fmt.Errorf("mdf: malformed decimal payload of length %d", len(b))
	}
	neg := b[0] == 0
	groups := (len(b) - 1) / 4
	digits := make([]uint32, groups)
	for i := 0; i < groups; i++ {
		digits[i] = binary.LittleEndian.Uint32(b[1+4*i:])
	}
	return Decimal{Negative: neg, Digits: digits}, nil
}

// SpatialHeader is the common prefix of a geography/geometry payload: a
// spatial reference identifier and a type tag, preceding the point,
// polygon or linestring body.
type SpatialHeader struct {
	SRID uint32
	Tag  uint16
}

// DecodeSpatialHeader reads the 6-byte SRID(4)+tag(2) prefix shared by
// geography and geometry columns.
func DecodeSpatialHeader(b []byte) (SpatialHeader, []byte, error) {
	if len(b) < 6 {
		return SpatialHeader{}, nil, fmt.Errorf("mdf: spatial payload shorter than header")
	}
	return SpatialHeader{
		SRID: binary.LittleEndian.Uint32(b[0:4]),
		Tag:  binary.LittleEndian.Uint16(b[4:6]),
	}, b[6:], nil
}
