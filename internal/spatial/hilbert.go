package spatial

import "math"

// gridOrder is the side length of each of the four nested levels (16x16),
// per §3's Arena... no, per §4.E's grid description.
const gridOrder = 16

// Depth is the number of populated levels in a Cell; §3 requires it stay in
// 1..4.
type Depth uint8

// Cell is the 5-byte spatial cell identifier: four 8-bit Hilbert indices
// (one per nested 16x16 level) plus a depth in 1..4.
type Cell struct {
	Idx   [4]uint8
	Depth Depth
}

// Bytes encodes the cell to its 5-byte on-disk form.
func (c Cell) Bytes() [5]byte {
	return [5]byte{c.Idx[0], c.Idx[1], c.Idx[2], c.Idx[3], byte(c.Depth)}
}

// DecodeCell reads a 5-byte on-disk cell identifier.
func DecodeCell(b []byte) Cell {
	return Cell{Idx: [4]uint8{b[0], b[1], b[2], b[3]}, Depth: Depth(b[4])}
}

// Prefix returns the cell's first n bytes of Idx (n in 0..4), the
// comparison unit for Intersects.
func (c Cell) Prefix(n int) [4]uint8 {
	var out [4]uint8
	copy(out[:n], c.Idx[:n])
	return out
}

// Intersects reports whether a and b share a common ancestor cell: their
// index bytes agree up to min(a.Depth, b.Depth), per §3's cell identifier
// invariant and testable property 6.
func (a Cell) Intersects(b Cell) bool {
	n := int(a.Depth)
	if int(b.Depth) < n {
		n = int(b.Depth)
	}
	for i := 0; i < n; i++ {
		if a.Idx[i] != b.Idx[i] {
			return false
		}
	}
	return true
}

// Less orders cells lexicographically on their index bytes, the sort order
// a spatial index's rows are stored in.
func (a Cell) Less(b Cell) bool {
	for i := 0; i < 4; i++ {
		if a.Idx[i] != b.Idx[i] {
			return a.Idx[i] < b.Idx[i]
		}
	}
	return false
}

// hilbertXY2D converts an (x,y) coordinate within an n x n grid (n a power
// of two) to its distance along the order-log2(n) Hilbert curve.
func hilbertXY2D(n, x, y int) int {
	d := 0
	for s := n / 2; s > 0; s /= 2 {
		rx, ry := 0, 0
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		d += s * s * ((3 * rx) ^ ry)
		x, y = hilbertRotate(n, x, y, rx, ry)
	}
	return d
}

// hilbertD2XY is hilbertXY2D's inverse.
func hilbertD2XY(n, d int) (x, y int) {
	t := d
	for s := 1; s < n; s *= 2 {
		rx := 1 & (t / 2)
		ry := 1 & (t ^ rx)
		x, y = hilbertRotate(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		t /= 4
	}
	return x, y
}

func hilbertRotate(n, x, y, rx, ry int) (int, int) {
	if ry == 0 {
		if rx == 1 {
			x = n - 1 - x
			y = n - 1 - y
		}
		x, y = y, x
	}
	return x, y
}

// globeToCell descends the 4 nested 16x16 levels of the unit square,
// per §4.E step 5 / the host engine's globe_to_cell.
func globeToCell(globe point2D) Cell {
	var c Cell
	cur := globe
	for level := 0; level < 4; level++ {
		hx := clampGrid(int(math.Floor(cur.X * gridOrder)))
		hy := clampGrid(int(math.Floor(cur.Y * gridOrder)))
		c.Idx[level] = uint8(hilbertXY2D(gridOrder, hx, hy))
		cur = point2D{X: cur.X*gridOrder - float64(hx), Y: cur.Y*gridOrder - float64(hy)}
	}
	c.Depth = 4
	return c
}

// cellToGlobe reverses globeToCell to the centroid of the deepest populated
// level, used by the inverse path (diagnostics only, per §4.E).
func cellToGlobe(c Cell) point2D {
	var lo, hi point2D = point2D{0, 0}, point2D{1, 1}
	for level := 0; level < int(c.Depth); level++ {
		x, y := hilbertD2XY(gridOrder, int(c.Idx[level]))
		w := (hi.X - lo.X) / gridOrder
		h := (hi.Y - lo.Y) / gridOrder
		lo = point2D{X: lo.X + float64(x)*w, Y: lo.Y + float64(y)*h}
		hi = point2D{X: lo.X + w, Y: lo.Y + h}
	}
	return point2D{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
}

func clampGrid(v int) int {
	if v < 0 {
		return 0
	}
	if v >= gridOrder {
		return gridOrder - 1
	}
	return v
}

// ForwardCell implements §4.E's forward path point → cell.
func ForwardCell(p Point) Cell {
	h := hemisphereOf(p.Lat)
	globe := projectGlobe(p, h)
	return globeToCell(globe)
}

// InverseCell implements §4.E's inverse path cell → point, for diagnostics.
// Because a cell denotes an area rather than a point, the result is the
// cell's centroid and only approximates the original forward input.
func InverseCell(c Cell) Point {
	globe := cellToGlobe(c)
	// cellToGlobe cannot recover which hemisphere produced globe.Y < 0.5
	// vs >= 0.5 beyond what's already encoded in the Y coordinate itself,
	// since projectGlobe always places north in [0.5,1] and south in
	// [0,0.5) by construction.
	return reverseProjectGlobe(globe)
}
