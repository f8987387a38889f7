// Package page implements component 4.C: it never mutates a page and
// exposes typed accessors over the raw 8 KiB byte image the page pool
// hands back. Layout follows the teacher's heap page documentation style
// (storage_engine/access/heapfile_manager/heap_page.go) adapted to the
// MDF on-disk header instead of the teacher's own slotted heap format.
package page

import "encoding/binary"

// Size is the fixed page unit, the atomic unit of I/O (§6).
const Size = 8192

// HeaderSize is the fixed page header occupying the first 96 bytes; rows
// grow upward from this offset.
const HeaderSize = 96

// Type enumerates the page-type tag stored in the header (§6).
type Type uint8

const (
	TypeData      Type = 1
	TypeIndex     Type = 2
	TypeTextMix   Type = 3
	TypeTextTree  Type = 4
	TypeSort      Type = 7
	TypeGAM       Type = 8
	TypeSGAM      Type = 9
	TypeIAM       Type = 10
	TypePFS       Type = 11
	TypeBoot      Type = 13
	TypeFileHeader Type = 15
	TypeDiffMap   Type = 16
	TypeMLMap     Type = 17
	// TypeSpatialIndex is not part of the on-disk page-type enumeration in
	// §6; spatial indexes are stored as ordinary Index pages whose rows
	// carry cell identifiers instead of table keys (see internal/spatial).
)

func (t Type) String() string {
	switch t {
	case TypeData:
		return "data"
	case TypeIndex:
		return "index"
	case TypeTextMix:
		return "text-mix"
	case TypeTextTree:
		return "text-tree"
	case TypeSort:
		return "sort"
	case TypeGAM:
		return "GAM"
	case TypeSGAM:
		return "SGAM"
	case TypeIAM:
		return "IAM"
	case TypePFS:
		return "PFS"
	case TypeBoot:
		return "boot"
	case TypeFileHeader:
		return "file-header"
	case TypeDiffMap:
		return "diff-map"
	case TypeMLMap:
		return "ML-map"
	default:
		return "unknown"
	}
}

// Locator is the 6-byte page locator: a 4-byte page id plus a 2-byte file
// id. The (0,0) locator is the null locator.
type Locator struct {
	PageID uint32
	FileID uint16
}

// Null is the sentinel locator that never refers to a real page.
var Null = Locator{}

func (l Locator) IsNull() bool { return l.PageID == 0 && l.FileID == 0 }

func (l Locator) String() string {
	return "(" + itoa(int(l.FileID)) + ":" + itoa(int(l.PageID)) + ")"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// DecodeLocator reads a Locator from its on-disk encoding
// ({ uint32 pageId; uint16 fileId }, little-endian).
func DecodeLocator(b []byte) Locator {
	return Locator{
		PageID: binary.LittleEndian.Uint32(b[0:4]),
		FileID: binary.LittleEndian.Uint16(b[4:6]),
	}
}

// EncodeLocator writes l's on-disk encoding into b[0:6].
func EncodeLocator(b []byte, l Locator) {
	binary.LittleEndian.PutUint32(b[0:4], l.PageID)
	binary.LittleEndian.PutUint16(b[4:6], l.FileID)
}

// RID is an 8-byte record identifier: a page locator plus a 2-byte slot
// number.
type RID struct {
	Page Locator
	Slot uint16
}

func DecodeRID(b []byte) RID {
	return RID{Page: DecodeLocator(b[0:6]), Slot: binary.LittleEndian.Uint16(b[6:8])}
}

// Header fields, all little-endian, occupying the first 96 bytes of a page.
// Offsets below are this engine's own layout for the distilled format; the
// field set matches §2/§3's description of what a header must carry.
const (
	offType       = 0  // uint8
	offMinRowLen  = 2  // uint16
	offSlotCount  = 4  // uint16
	offFreeOffset = 6  // uint16
	offLSN        = 8  // uint64
	offSelf       = 16 // Locator (6 bytes): this page's own id
	offPrev       = 24 // Locator (6 bytes): previous page at this level
	offNext       = 32 // Locator (6 bytes): next page at this level
)

// Header is the decoded form of a page's first 96 bytes.
type Header struct {
	Type       Type
	MinRowLen  uint16
	SlotCount  uint16
	FreeOffset uint16
	LSN        uint64
	Self       Locator
	Prev       Locator
	Next       Locator
}

// ParseHeader decodes the fixed header of a raw 8 KiB page image. It never
// fails on malformed bytes by itself; callers validate Self against the
// page index they requested (see internal/pagepool) and SlotCount/offsets
// against the page length while decoding rows.
func ParseHeader(raw []byte) Header {
	return Header{
		Type:       Type(raw[offType]),
		MinRowLen:  binary.LittleEndian.Uint16(raw[offMinRowLen:]),
		SlotCount:  binary.LittleEndian.Uint16(raw[offSlotCount:]),
		FreeOffset: binary.LittleEndian.Uint16(raw[offFreeOffset:]),
		LSN:        binary.LittleEndian.Uint64(raw[offLSN:]),
		Self:       DecodeLocator(raw[offSelf : offSelf+6]),
		Prev:       DecodeLocator(raw[offPrev : offPrev+6]),
		Next:       DecodeLocator(raw[offNext : offNext+6]),
	}
}

// Page pairs a raw image with its parsed header; it is the unit the page
// pool hands to callers and C's row decoder consumes.
type Page struct {
	Raw    []byte // exactly Size bytes, owned by the pool, never mutated
	Header Header
}

// slotEntryOffset returns the byte offset of slot i's 2-byte entry, counting
// down from the end of the page the way the slot array grows.
func slotEntryOffset(i uint16) int {
	return Size - 2*(int(i)+1)
}

// Slots returns the ordered sequence of row start offsets recorded in the
// slot array.
func (p *Page) Slots() []uint16 {
	out := make([]uint16, p.Header.SlotCount)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(p.Raw[slotEntryOffset(uint16(i)):])
	}
	return out
}

// SlotOffset returns the row offset stored in slot i without allocating the
// whole slice, for binary search callers that only need one entry.
func (p *Page) SlotOffset(i uint16) (uint16, bool) {
	if i >= p.Header.SlotCount {
		return 0, false
	}
	return binary.LittleEndian.Uint16(p.Raw[slotEntryOffset(i):]), true
}
