package spatial

import (
	"math"
	"testing"
)

func TestHilbertXY2DRoundTrip(t *testing.T) {
	for y := 0; y < gridOrder; y++ {
		for x := 0; x < gridOrder; x++ {
			d := hilbertXY2D(gridOrder, x, y)
			gx, gy := hilbertD2XY(gridOrder, d)
			if gx != x || gy != y {
				t.Fatalf("round trip (%d,%d) -> d=%d -> (%d,%d)", x, y, d, gx, gy)
			}
		}
	}
}

func TestHilbertXY2DCoversFullRange(t *testing.T) {
	seen := make(map[int]bool)
	for y := 0; y < gridOrder; y++ {
		for x := 0; x < gridOrder; x++ {
			seen[hilbertXY2D(gridOrder, x, y)] = true
		}
	}
	if len(seen) != gridOrder*gridOrder {
		t.Fatalf("got %d distinct distances, want %d", len(seen), gridOrder*gridOrder)
	}
}

// TestForwardInverseApproximatelyRoundTrips checks §4.E's testable property
// 4 to the tolerance InverseCell documents: a cell's centroid, projected
// forward again, lands back inside the same depth-4 cell.
func TestForwardInverseApproximatelyRoundTrips(t *testing.T) {
	pts := []Point{
		{Lat: 10, Lon: 20},
		{Lat: -40, Lon: 170},
		{Lat: 85, Lon: -5},
		{Lat: 0, Lon: 0},
		{Lat: -89, Lon: 179},
	}
	for _, p := range pts {
		c := ForwardCell(p)
		back := InverseCell(c)
		c2 := ForwardCell(back)
		if c2.Idx != c.Idx {
			t.Fatalf("point %+v: forward %v, centroid round trip forward %v", p, c.Idx, c2.Idx)
		}
	}
}

func TestCellIntersectsSharedPrefix(t *testing.T) {
	a := Cell{Idx: [4]uint8{1, 2, 3, 4}, Depth: 4}
	b := Cell{Idx: [4]uint8{1, 2, 9, 9}, Depth: 2}
	if !a.Intersects(b) {
		t.Fatal("expected a and b to intersect on their shared 2-byte prefix")
	}
	c := Cell{Idx: [4]uint8{1, 5, 0, 0}, Depth: 2}
	if a.Intersects(c) {
		t.Fatal("expected a and c not to intersect: second byte differs")
	}
}

func TestCellIntersectsSelf(t *testing.T) {
	c := ForwardCell(Point{Lat: 12.5, Lon: -34.2})
	if !c.Intersects(c) {
		t.Fatal("a cell must always intersect itself")
	}
}

func TestProjectGlobeStaysInUnitSquare(t *testing.T) {
	for lat := -89.0; lat <= 89.0; lat += 17 {
		for lon := -179.0; lon <= 179.0; lon += 31 {
			h := hemisphereOf(lat)
			p := projectGlobe(Point{Lat: lat, Lon: lon}, h)
			if p.X < -1e-9 || p.X > 1+1e-9 || p.Y < -1e-9 || p.Y > 1+1e-9 {
				t.Fatalf("projectGlobe(%v,%v) = %+v out of unit square", lat, lon, p)
			}
		}
	}
}

func TestProjectReverseProjectRoundTrips(t *testing.T) {
	pts := []Point{
		{Lat: 0, Lon: 0},
		{Lat: 45, Lon: 90},
		{Lat: -30, Lon: -120},
		{Lat: 60, Lon: 170},
	}
	for _, p := range pts {
		h := hemisphereOf(p.Lat)
		p2 := projectGlobe(p, h)
		back := reverseProjectGlobe(p2)
		if math.Abs(back.Lat-p.Lat) > 1e-6 || math.Abs(back.Lon-p.Lon) > 1e-6 {
			t.Fatalf("round trip %+v -> %+v -> %+v", p, p2, back)
		}
	}
}
