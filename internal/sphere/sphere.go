// Package sphere maps geographic coordinates onto a sphere centred at the
// origin and back, and holds the small amount of vector math the camera needs.
//
// Longitude runs around the Z axis starting at +X, latitude is measured from
// the XY plane towards +Z. Inputs are in degrees. Nothing here validates
// ranges: longitude outside [-180,180] or latitude outside [-90,90] is the
// caller's problem. Degenerate input (zero vectors) yields NaN, not a panic.
package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

const (
	degToRad = math.Pi / 180
	radToDeg = 180 / math.Pi
)

// ToCartesian converts lon/lat in degrees to a point at the given radius.
func ToCartesian(lon, lat, radius float64) r3.Vector {
	lambda := lon * degToRad
	phi := lat * degToRad
	cosPhi := math.Cos(phi)
	return r3.Vector{
		X: radius * cosPhi * math.Cos(lambda),
		Y: radius * cosPhi * math.Sin(lambda),
		Z: radius * math.Sin(phi),
	}
}

// Project converts a geographic point (orb order: lon, lat) to Cartesian.
func Project(g orb.Point, radius float64) r3.Vector {
	return ToCartesian(g.Lon(), g.Lat(), radius)
}

// ToGeographic is the inverse of ToCartesian. The radius is taken from the
// vector length; a zero vector gives NaN.
//
// Longitude is recovered with acos, whose range is [0,180]; the sign is
// restored from y. At the poles cos(lat) is zero and longitude is undefined.
func ToGeographic(x, y, z float64) orb.Point {
	radius := math.Sqrt(x*x + y*y + z*z)
	phi := math.Asin(z / radius)
	cosPhi := math.Cos(phi)
	lambda := math.Acos(clampUnit(x / (radius * cosPhi)))
	if y < 0 {
		lambda = -lambda
	}
	return orb.Point{lambda * radToDeg, phi * radToDeg}
}

// Unproject converts a Cartesian point back to lon/lat.
func Unproject(v r3.Vector) orb.Point {
	return ToGeographic(v.X, v.Y, v.Z)
}

// Distance is the Euclidean distance between two points.
func Distance(p0, p1 r3.Vector) float64 {
	return p1.Sub(p0).Norm()
}

// Angle is an angle in both units.
type Angle struct {
	Rad float64
	Deg float64
}

// AngleBetween returns the angle subtended at the origin by p0 and p1.
// Either point at the origin gives NaN.
func AngleBetween(p0, p1 r3.Vector) Angle {
	value := p0.Dot(p1) / (p0.Norm() * p1.Norm())
	rad := math.Acos(clampUnit(value))
	return Angle{Rad: rad, Deg: rad / (2 * math.Pi) * 360}
}

// Search range for LineSphereIntersection.
const (
	searchStart = 1.0
	searchEnd   = 2.0
	searchStep  = 0.0001
)

// LineSphereIntersection walks the line from the origin through through,
// scaling it by t in [1,2) with a fixed step, and returns the point whose
// squared length is closest to radius². The walk stops as soon as the error
// stops shrinking, so the first local minimum wins.
//
// If the requested radius is below |through| the result is through itself;
// if it is beyond 2|through| the result sits at the far end of the range.
func LineSphereIntersection(through r3.Vector, radius float64) r3.Vector {
	target := radius * radius
	best := math.Inf(1)
	tFinal := searchStart
	for t := searchStart; t < searchEnd; t += searchStep {
		diff := math.Abs(through.Mul(t).Norm2() - target)
		if !(diff < best) {
			break
		}
		best = diff
		tFinal = t
	}
	return through.Mul(tFinal)
}

// Midpoint is the point halfway between p0 and p1.
func Midpoint(p0, p1 r3.Vector) r3.Vector {
	return p1.Sub(p0).Mul(0.5).Add(p0)
}

// Clearance is the smallest distance from the origin to the segment a-b.
// A straight move from a to b stays outside a sphere of radius r exactly
// when Clearance(a, b) > r.
func Clearance(a, b r3.Vector) float64 {
	d := b.Sub(a)
	n2 := d.Norm2()
	if n2 == 0 {
		return a.Norm()
	}
	t := math.Max(0, math.Min(1, -a.Dot(d)/n2))
	return a.Add(d.Mul(t)).Norm()
}

// IsDegenerate reports whether v is unusable as a position: the origin or
// any NaN/Inf component.
func IsDegenerate(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return true
		}
	}
	return v.Norm2() == 0
}

// clampUnit keeps acos arguments in its domain against rounding; NaN passes
// through unchanged.
func clampUnit(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
