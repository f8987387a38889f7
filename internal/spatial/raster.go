package spatial

import "math"

// Rect is an axis-aligned latitude/longitude bounding rectangle.
type Rect struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// cellKey truncates a cell to depth for use as a dedup map key; two cells
// sharing a prefix of that length collapse to the same key.
func cellKey(c Cell, depth Depth) [4]uint8 {
	out := c.Idx
	for i := int(depth); i < 4; i++ {
		out[i] = 0
	}
	return out
}

// truncate returns c restricted to the first depth levels, as
// §4.F's enumerate-prefix-cells operation needs.
func (c Cell) truncate(depth Depth) Cell {
	t := c
	t.Depth = depth
	return t
}

// DiskCells rasterizes a disk of radiusMeters around center into the set of
// depth-level cells it intersects, per §4.E's cell_range. Rather than the
// host engine's scanline-fill-plus-Bresenham-boundary approach (which walks
// the already-rasterized grid_size::HIGH pixel buffer), this samples the
// disk on a regular lat/lon grid sized from the angular radius and converts
// each interior sample to a cell; the boundary is additionally sampled at N
// bearings so a disk narrower than one grid sample still yields its
// perimeter cells.
func DiskCells(center Point, radiusMeters float64, depth Depth, model RadiusModel) []Cell {
	if radiusMeters <= 0 {
		return []Cell{ForwardCell(center).truncate(depth)}
	}
	radius := earthRadius(center.Lat, model)
	angularRadius := radiusMeters / radius // radians

	n := int(angularRadius / (2 * math.Pi) * 4096)
	if n < 32 {
		n = 32
	}

	seen := make(map[[4]uint8]Cell)
	add := func(p Point) {
		c := ForwardCell(p).truncate(depth)
		seen[cellKey(c, depth)] = c
	}

	// Boundary samples.
	for i := 0; i < n; i++ {
		bearing := 360 * float64(i) / float64(n)
		add(Destination(center, radiusMeters, bearing, model))
	}

	// Interior samples on a regular lat/lon grid of gridOrder^depth steps
	// (at most 512) across the disk's diameter; the step does not depend on
	// the size of a cell at the requested depth.
	gridRes := int(math.Pow(gridOrder, float64(depth)))
	if gridRes > 512 {
		gridRes = 512
	}
	degRadius := angularRadius * radToDeg
	latStep := 2 * degRadius / float64(gridRes)
	if latStep <= 0 {
		latStep = 2 * degRadius
	}
	for lat := center.Lat - degRadius; lat <= center.Lat+degRadius; lat += latStep {
		lonSpan := degRadius
		cosLat := math.Cos(lat * degToRad)
		if cosLat > 1e-6 {
			lonSpan = degRadius / cosLat
		}
		lonStep := 2 * lonSpan / float64(gridRes)
		if lonStep <= 0 {
			lonStep = 2 * lonSpan
		}
		for lon := center.Lon - lonSpan; lon <= center.Lon+lonSpan; lon += lonStep {
			p := Point{Lat: normLatitude(lat), Lon: normLongitude(lon)}
			if Haversine(center, p, model) <= radiusMeters {
				add(p)
			}
		}
	}

	out := make([]Cell, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	return out
}

// RectCells rasterizes rc by sampling its interior at a density targeted to
// one sample per ~100 km, per §4.E Rectangle rasterization, with at least
// two sample intervals (three samples) along each axis for small
// rectangles. Only cells containing a sample point are returned; cells lying
// between samples are not.
func RectCells(rc Rect, depth Depth) []Cell {
	const sampleKM = 100.0
	latSpanKM := (rc.MaxLat - rc.MinLat) * 111.0
	lonSpanKM := (rc.MaxLon - rc.MinLon) * 111.0 * math.Cos(degToRad*(rc.MinLat+rc.MaxLat)/2)

	latSamples := int(math.Max(2, latSpanKM/sampleKM))
	lonSamples := int(math.Max(2, lonSpanKM/sampleKM))

	seen := make(map[[4]uint8]Cell)
	for i := 0; i <= latSamples; i++ {
		lat := rc.MinLat + (rc.MaxLat-rc.MinLat)*float64(i)/float64(latSamples)
		for j := 0; j <= lonSamples; j++ {
			lon := rc.MinLon + (rc.MaxLon-rc.MinLon)*float64(j)/float64(lonSamples)
			c := ForwardCell(Point{Lat: lat, Lon: lon}).truncate(depth)
			seen[cellKey(c, depth)] = c
		}
	}
	out := make([]Cell, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	return out
}
