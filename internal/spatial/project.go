// Package spatial implements components 4.E (Hilbert grid transform) and
// 4.F (spatial tree walker). The cube-map globe projection in this file is
// ported line-for-line from the host engine's own transform_math.cpp
// (line_plane_intersect / scale_plane_intersect), since those coefficients
// are exact geometric constants rather than something to re-derive; the
// grid-to-Hilbert-cell step and the B-tree walk above it are written fresh
// in the teacher's idiom (internal/btree's walker, generalized).
package spatial

import "math"

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// Point is a geographic coordinate, latitude in [-90,90] and longitude in
// [-180,180].
type Point struct {
	Lat, Lon float64
}

type point3D struct{ X, Y, Z float64 }

func (p point3D) minus(q point3D) point3D { return point3D{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }
func (p point3D) dot(q point3D) float64   { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }
func (p point3D) scale(k float64) point3D { return point3D{p.X * k, p.Y * k, p.Z * k} }
func (p point3D) length() float64         { return math.Sqrt(p.dot(p)) }
func (p point3D) normalize() point3D      { return p.scale(1 / p.length()) }
func (p point3D) add(q point3D) point3D   { return point3D{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

type point2D struct{ X, Y float64 }

type quadrant int

const (
	q0 quadrant = iota
	q1
	q2
	q3
)

type hemisphere int

const (
	north hemisphere = iota
	south
)

func cartesian(lat, lon float64) point3D {
	l := math.Cos(lat * degToRad)
	return point3D{
		X: l * math.Cos(lon*degToRad),
		Y: l * math.Sin(lon*degToRad),
		Z: math.Sin(lat * degToRad),
	}
}

func reverseCartesian(p point3D) Point {
	const eps = 1e-9
	var lat float64
	switch {
	case p.Z >= 1.0-eps:
		lat = 90
	case p.Z <= -1.0+eps:
		lat = -90
	default:
		lat = math.Asin(p.Z) * radToDeg
	}
	lon := math.Atan2(p.Y, p.X) * radToDeg
	return Point{Lat: lat, Lon: lon}
}

// planeNormal is the normal of the plane X+Y+Z=1 through the positive
// octant's (1,0,0)/(0,1,0)/(0,0,1) triangle.
var planeNormal = point3D{1, 1, 1}.normalize()

func linePlaneIntersect(lat, lon float64) point3D {
	ray := cartesian(lat, lon)
	nu := ray.dot(planeNormal)
	return ray.scale(planeNormal.X / nu)
}

func reverseLinePlaneIntersect(p point3D) Point {
	return reverseCartesian(p.normalize())
}

func longitudeQuadrant(x float64) quadrant {
	if x >= 0 {
		if x < 45 {
			return q0
		}
		if x < 135 {
			return q1
		}
		return q2
	}
	if x >= -45 {
		return q0
	}
	if x >= -135 {
		return q3
	}
	return q2
}

func longitudeMeridian(x float64, q quadrant) float64 {
	if x >= 0 {
		switch q {
		case q0:
			return x + 45
		case q1:
			return x - 45
		default:
			return x - 135
		}
	}
	switch q {
	case q0:
		return x + 45
	case q3:
		return x + 135
	default:
		return x + 180 + 45
	}
}

func reverseLongitudeMeridian(x float64, q quadrant) float64 {
	switch q {
	case q0:
		return x - 45
	case q1:
		return x + 45
	case q2:
		if x <= 45 {
			return x + 135
		}
		return x - 180 - 45
	default:
		return x - 135
	}
}

var (
	e1 = point3D{1, 0, 0}
	e2 = point3D{0, 1, 0}
	e3 = point3D{0, 0, 1}
	mid3 = point3D{0.5, 0.5, 0}

	px = e2.minus(e1).normalize()
	py = e3.minus(mid3).normalize()
	lx = e2.minus(e1).length()
	ly = e3.minus(mid3).length()

	scale02 = point2D{0.5 / lx, 0.5 / ly}
	scale13 = point2D{1 / lx, 0.25 / ly}
)

func scalePlaneIntersect(p3 point3D, quad quadrant, h hemisphere) point2D {
	v3 := p3.minus(e1)
	p2 := point2D{X: v3.dot(px), Y: v3.dot(py)}

	if quad&1 == 1 {
		p2.X *= scale13.X
		p2.Y *= scale13.Y
	} else {
		p2.X *= scale02.X
		p2.Y *= scale02.Y
	}

	var ret point2D
	if h == north {
		switch quad {
		case q0:
			ret = point2D{1 - p2.Y, 0.5 + p2.X}
		case q1:
			ret = point2D{1 - p2.X, 1 - p2.Y}
		case q2:
			ret = point2D{p2.Y, 1 - p2.X}
		default:
			ret = point2D{p2.X, 0.5 + p2.Y}
		}
	} else {
		switch quad {
		case q0:
			ret = point2D{1 - p2.Y, 0.5 - p2.X}
		case q1:
			ret = point2D{1 - p2.X, p2.Y}
		case q2:
			ret = point2D{p2.Y, p2.X}
		default:
			ret = point2D{p2.X, 0.5 - p2.Y}
		}
	}
	return ret
}

func reverseScalePlaneIntersect(ret point2D, quad quadrant, h hemisphere) point3D {
	var p2 point2D
	if h == north {
		switch quad {
		case q0:
			p2 = point2D{ret.Y - 0.5, 1 - ret.X}
		case q1:
			p2 = point2D{1 - ret.X, 1 - ret.Y}
		case q2:
			p2 = point2D{1 - ret.Y, ret.X}
		default:
			p2 = point2D{ret.X, ret.Y - 0.5}
		}
	} else {
		switch quad {
		case q0:
			p2 = point2D{0.5 - ret.Y, 1 - ret.X}
		case q1:
			p2 = point2D{1 - ret.X, ret.Y}
		case q2:
			p2 = point2D{ret.Y, ret.X}
		default:
			p2 = point2D{ret.X, 0.5 - ret.Y}
		}
	}
	if quad&1 == 1 {
		p2.X /= scale13.X
		p2.Y /= scale13.Y
	} else {
		p2.X /= scale02.X
		p2.Y /= scale02.Y
	}
	return e1.add(px.scale(p2.X)).add(py.scale(p2.Y))
}

// atan12 is atan2(1,2), the boundary angle between adjacent quadrant
// wedges around each hemisphere's pole point.
var atan12 = math.Atan2(1, 2)

func pointQuadrant(p point2D) quadrant {
	isNorth := p.Y >= 0.5
	pole := point2D{X: 0.5, Y: 0.25}
	if isNorth {
		pole.Y = 0.75
	}
	vec := point2D{X: p.X - pole.X, Y: p.Y - pole.Y}
	arg := math.Atan2(vec.Y, vec.X)
	if !isNorth {
		arg *= -1
	}
	if arg >= 0 {
		if arg <= atan12 {
			return q0
		}
		if arg <= math.Pi-atan12 {
			return q1
		}
	} else {
		if arg >= -atan12 {
			return q0
		}
		if arg >= atan12-math.Pi {
			return q3
		}
	}
	return q2
}

func pointHemisphere(p point2D) hemisphere {
	if p.Y >= 0.5 {
		return north
	}
	return south
}

// projectGlobe maps a geographic point into the [0,1]^2 unit square via the
// cube-map projection, per §4.E steps 1-4.
func projectGlobe(s Point, h hemisphere) point2D {
	quad := longitudeQuadrant(s.Lon)
	meridian := longitudeMeridian(s.Lon, quad)
	lat := s.Lat
	if h != north {
		lat = -lat
	}
	p3 := linePlaneIntersect(lat, meridian)
	return scalePlaneIntersect(p3, quad, h)
}

// reverseProjectGlobe undoes projectGlobe, used only for diagnostics (the
// inverse path of §4.E).
func reverseProjectGlobe(p2 point2D) Point {
	quad := pointQuadrant(p2)
	h := pointHemisphere(p2)
	p3 := reverseScalePlaneIntersect(p2, quad, h)
	ret := reverseLinePlaneIntersect(p3)
	if h != north {
		ret.Lat *= -1
	}
	if math.Abs(math.Abs(ret.Lat)-90) < 1e-9 {
		ret.Lon = 0
	} else {
		ret.Lon = reverseLongitudeMeridian(ret.Lon, quad)
	}
	return ret
}

func hemisphereOf(lat float64) hemisphere {
	if lat >= 0 {
		return north
	}
	return south
}
