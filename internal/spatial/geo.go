package spatial

import "math"

// MeanEarthRadius is the default radius model used by Haversine and
// Destination, ported from the host engine's earth_radius(latitude) mean
// case.
const MeanEarthRadius = 6371000.0

// wgs84 semi-major/minor axes, for the ellipsoidal radius model.
const (
	wgs84A = 6378137.0
	wgs84B = 6356752.314245
)

// RadiusModel selects which earth-radius function Haversine and Destination
// use.
type RadiusModel int

const (
	RadiusMean RadiusModel = iota
	RadiusWGS84
)

// earthRadius returns the radius (meters) for latitude lat under model.
// The WGS-84 case uses the standard latitude-dependent ellipsoidal radius
// formula; the mean case ignores latitude entirely.
func earthRadius(lat float64, model RadiusModel) float64 {
	if model == RadiusMean {
		return MeanEarthRadius
	}
	phi := lat * degToRad
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	num := math.Pow(wgs84A*wgs84A*cosPhi, 2) + math.Pow(wgs84B*wgs84B*sinPhi, 2)
	den := math.Pow(wgs84A*cosPhi, 2) + math.Pow(wgs84B*sinPhi, 2)
	return math.Sqrt(num / den)
}

// Haversine returns the great-circle distance in meters between a and b,
// per §4.E Distance.
func Haversine(a, b Point, model RadiusModel) float64 {
	dlat := degToRad * (b.Lat - a.Lat)
	dlon := degToRad * (b.Lon - a.Lon)
	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	x := sinLat*sinLat + math.Cos(degToRad*a.Lat)*math.Cos(degToRad*b.Lat)*sinLon*sinLon
	c := 2 * math.Asin(math.Min(1, math.Sqrt(x)))
	return c * earthRadius(a.Lat, model)
}

// Destination returns the point reached from p travelling distanceMeters
// along the great-circle bearing (degrees clockwise from north), per §4.E
// Distance, pole-special-cased the way the host engine's math::destination
// is.
func Destination(p Point, distanceMeters, bearingDeg float64, model RadiusModel) Point {
	if distanceMeters <= 0 {
		return p
	}
	radius := earthRadius(p.Lat, model)
	dist := distanceMeters / radius
	brng := bearingDeg * degToRad
	lat1 := p.Lat * degToRad
	lon1 := p.Lon * degToRad

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(dist) + math.Cos(lat1)*math.Sin(dist)*math.Cos(brng))
	x := math.Cos(dist) - math.Sin(lat1)*math.Sin(lat2)
	y := math.Sin(brng) * math.Sin(dist) * math.Cos(lat1)
	lon2 := lon1 + math.Atan2(y, x)

	lon := normLongitude(bearingDeg)
	if !isPoleLatitude(p.Lat) {
		lon = normLongitude(lon2 * radToDeg)
	}
	return Point{Lat: normLatitude(lat2 * radToDeg), Lon: lon}
}

func isPoleLatitude(lat float64) bool {
	return math.Abs(math.Abs(lat)-90) < 1e-9
}

func normLatitude(lat float64) float64 {
	if lat > 90 {
		return 90
	}
	if lat < -90 {
		return -90
	}
	return lat
}

func normLongitude(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

// Bearing returns the initial great-circle bearing (degrees clockwise from
// north) from a to b.
func Bearing(a, b Point) float64 {
	lat1, lat2 := a.Lat*degToRad, b.Lat*degToRad
	dlon := (b.Lon - a.Lon) * degToRad
	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return normLongitude(math.Atan2(y, x) * radToDeg)
}
