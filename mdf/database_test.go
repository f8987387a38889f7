package mdf

import (
	"context"
	"encoding/binary"
	"os"
	"testing"
	"unicode/utf16"

	"mdfengine/internal/page"
	"mdfengine/internal/vmem"
)

// encodeNCharBytes is decodeNChar's inverse, used only to build test
// fixtures.
func encodeNCharBytes(s string) []byte {
	u16 := utf16.Encode([]rune(s))
	b := make([]byte, 2*len(u16))
	for i, u := range u16 {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}
	return b
}

// buildBootRow assembles the boot page's single row: header, fixed span
// (version + catalog locator), column count, variable-column table, and the
// database name payload.
func buildBootRow(name string, version uint32, catalog page.Locator) []byte {
	fixed := make([]byte, 10)
	binary.LittleEndian.PutUint32(fixed[0:], version)
	page.EncodeLocator(fixed[4:], catalog)

	nameBytes := encodeNCharBytes(name)

	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:], uint16(page.FlagHasVariableCols))
	binary.LittleEndian.PutUint16(buf[2:], uint16(len(fixed)))
	buf = append(buf, fixed...)

	cc := make([]byte, 2)
	binary.LittleEndian.PutUint16(cc, 1)
	buf = append(buf, cc...)

	mbuf := make([]byte, 2)
	binary.LittleEndian.PutUint16(mbuf, 1)
	buf = append(buf, mbuf...)

	end := make([]byte, 2)
	running := len(buf) + 2 + len(nameBytes)
	binary.LittleEndian.PutUint16(end, uint16(running))
	buf = append(buf, end...)
	buf = append(buf, nameBytes...)
	return buf
}

// writeBootFixture builds a 2-extent (128 KiB) file image with the boot
// page correctly placed and stamped at (1,9).
func writeBootFixture(t *testing.T, path string) {
	t.Helper()
	fileBytes := make([]byte, 2*vmem.BlockSize)

	bootOffset := int(bootLocator.PageID) * page.Size
	raw := fileBytes[bootOffset : bootOffset+page.Size]
	raw[0] = byte(page.TypeBoot)
	page.EncodeLocator(raw[16:], bootLocator)

	row := buildBootRow("demo", 42, page.Locator{PageID: 100, FileID: 1})
	copy(raw[page.HeaderSize:], row)
	binary.LittleEndian.PutUint16(raw[4:], 1) // slotCount = 1
	binary.LittleEndian.PutUint16(raw[page.Size-2:], uint16(page.HeaderSize))

	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestOpenParsesBootPage(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/fixture.mdf"
	writeBootFixture(t, path)

	db, err := Open(context.Background(), path, Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if db.Boot.Name != "demo" {
		t.Fatalf("Boot.Name = %q, want %q", db.Boot.Name, "demo")
	}
	if db.Boot.Version != 42 {
		t.Fatalf("Boot.Version = %d, want 42", db.Boot.Version)
	}
	want := page.Locator{PageID: 100, FileID: 1}
	if db.Boot.FirstCatalogPage != want {
		t.Fatalf("FirstCatalogPage = %v, want %v", db.Boot.FirstCatalogPage, want)
	}
}
