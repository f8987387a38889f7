package schema

import (
	"encoding/binary"
	"testing"
)

func int32Key(n int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(n))
	return b
}

func TestCompareKeyAscending(t *testing.T) {
	cols := []Column{{Type: TypeInt32, FixedLen: 4, Order: Asc}}
	if CompareKey(cols, int32Key(1), int32Key(2)) >= 0 {
		t.Fatal("expected 1 < 2 ascending")
	}
	if CompareKey(cols, int32Key(2), int32Key(1)) <= 0 {
		t.Fatal("expected 2 > 1 ascending")
	}
	if CompareKey(cols, int32Key(5), int32Key(5)) != 0 {
		t.Fatal("expected 5 == 5")
	}
}

func TestCompareKeyDescendingNegates(t *testing.T) {
	cols := []Column{{Type: TypeInt32, FixedLen: 4, Order: Desc}}
	if CompareKey(cols, int32Key(1), int32Key(2)) <= 0 {
		t.Fatal("expected 1 > 2 when descending")
	}
}

func TestCompareKeyComposite(t *testing.T) {
	cols := []Column{
		{Type: TypeInt32, FixedLen: 4, Order: Asc},
		{Type: TypeInt32, FixedLen: 4, Order: Asc},
	}
	a := append(int32Key(17), int32Key(42)...)
	b := append(int32Key(17), int32Key(43)...)
	if CompareKey(cols, a, b) >= 0 {
		t.Fatal("expected (17,42) < (17,43)")
	}
}
