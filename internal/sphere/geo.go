package sphere

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// EarthRadiusKm is the mean Earth radius used to relate kilometres to scene units.
const EarthRadiusKm = 6371.0

// KmToUnits converts a distance on Earth to scene units on a sphere of the given radius.
func KmToUnits(km, radius float64) float64 {
	return km * radius / EarthRadiusKm
}

// HaversineKm is the great-circle distance between two points in kilometres.
func HaversineKm(a, b orb.Point) float64 {
	dLat := (b.Lat() - a.Lat()) * degToRad
	dLon := (b.Lon() - a.Lon()) * degToRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat()*degToRad)*math.Cos(b.Lat()*degToRad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// RingContains reports whether p lies in ring, boundary included. The ring
// may be open or closed.
func RingContains(ring orb.Ring, p orb.Point) bool {
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring[:len(ring):len(ring)], ring[0])
	}
	return planar.RingContains(ring, p)
}

// CenterPoint averages the distinct vertices of a ring, so a closing
// duplicate does not pull the centre towards the first vertex.
func CenterPoint(ring orb.Ring) orb.Point {
	seen := make(map[orb.Point]bool, len(ring))
	var sumX, sumY float64
	n := 0
	for _, p := range ring {
		if seen[p] {
			continue
		}
		seen[p] = true
		sumX += p[0]
		sumY += p[1]
		n++
	}
	if n == 0 {
		return orb.Point{math.NaN(), math.NaN()}
	}
	return orb.Point{sumX / float64(n), sumY / float64(n)}
}

// BoundArea is the rectangular lon×lat extent of a ring; used as a cheap
// size ranking, not a real area.
func BoundArea(ring orb.Ring) float64 {
	if len(ring) == 0 {
		return 0
	}
	b := ring.Bound()
	return (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1])
}

// BoundCenter returns the middle of a bound rounded to 4 decimals.
func BoundCenter(b orb.Bound) orb.Point {
	c := b.Center()
	return orb.Point{round4(c[0]), round4(c[1])}
}

// MapsLink returns a Google Maps search link for a point.
func MapsLink(p orb.Point) string {
	return fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%.4f,%.4f", p.Lat(), p.Lon())
}

// FormatDMS renders a point as degrees/minutes/seconds with hemispheres,
// latitude first.
func FormatDMS(p orb.Point) string {
	latC := "N"
	if p.Lat() < 0 {
		latC = "S"
	}
	lonC := "E"
	if p.Lon() < 0 {
		lonC = "W"
	}
	return dms(p.Lat()) + " " + latC + "  " + dms(p.Lon()) + " " + lonC
}

func dms(v float64) string {
	abs := math.Abs(v)
	deg := math.Floor(abs)
	minutesRaw := (abs - deg) * 60
	minutes := math.Floor(minutesRaw)
	seconds := math.Floor((minutesRaw - minutes) * 60)
	return fmt.Sprintf("%d°%d'%d\"", int(deg), int(minutes), int(seconds))
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
