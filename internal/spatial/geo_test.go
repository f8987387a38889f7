package spatial

import (
	"math"
	"testing"
)

// TestHaversineMeanRadiusQuarterCircle exercises scenario S3: two points a
// quarter of the way around the globe apart from each other are
// MeanEarthRadius * pi/2 meters apart.
func TestHaversineMeanRadiusQuarterCircle(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 0, Lon: 90}
	got := Haversine(a, b, RadiusMean)
	want := MeanEarthRadius * math.Pi / 2
	if math.Abs(got-want) > 1 {
		t.Fatalf("Haversine = %v, want %v (+/-1m)", got, want)
	}
}

func TestHaversineZeroForIdenticalPoints(t *testing.T) {
	p := Point{Lat: 12.3, Lon: -45.6}
	if d := Haversine(p, p, RadiusMean); d > 1e-6 {
		t.Fatalf("Haversine(p,p) = %v, want ~0", d)
	}
}

// TestDestinationHaversineRoundTrip checks the testable property that
// travelling distanceMeters along a bearing from p lands a point that far
// (within a meter) from p by Haversine.
func TestDestinationHaversineRoundTrip(t *testing.T) {
	cases := []struct {
		p        Point
		distance float64
		bearing  float64
	}{
		{Point{Lat: 10, Lon: 20}, 50000, 45},
		{Point{Lat: -30, Lon: -120}, 1200000, 200},
		{Point{Lat: 60, Lon: 0}, 300000, 350},
	}
	for _, c := range cases {
		dest := Destination(c.p, c.distance, c.bearing, RadiusMean)
		got := Haversine(c.p, dest, RadiusMean)
		if math.Abs(got-c.distance) > 1 {
			t.Fatalf("Destination/Haversine round trip: distance %v, want %v (+/-1m)", got, c.distance)
		}
	}
}

func TestDestinationAtPoleIsStable(t *testing.T) {
	north := Point{Lat: 90, Lon: 0}
	dest := Destination(north, 111000, 45, RadiusMean)
	if math.Abs(math.Abs(dest.Lat)-90) > 1 {
		t.Fatalf("destination from the pole should stay near a pole, got %+v", dest)
	}
}

func TestBearingNorthIsZero(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	b := Point{Lat: 10, Lon: 0}
	got := Bearing(a, b)
	if math.Abs(got) > 1e-6 {
		t.Fatalf("Bearing due north = %v, want 0", got)
	}
}
