package camera

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"geoglobe/internal/sphere"
)

// Waypoint is one stop of a flight. Transit waypoints are passed through
// loosely; the final target must be reached precisely.
type Waypoint struct {
	Position r3.Vector
	Transit  bool
}

// FlightPlan is an ordered queue of waypoints: up to two transits, then the
// target. The zero value is an empty plan.
type FlightPlan struct {
	waypoints []Waypoint
}

// NewFlightPlan builds a plan from waypoints in flying order.
func NewFlightPlan(wps ...Waypoint) FlightPlan {
	return FlightPlan{waypoints: append([]Waypoint(nil), wps...)}
}

func (p FlightPlan) Len() int     { return len(p.waypoints) }
func (p FlightPlan) Empty() bool  { return len(p.waypoints) == 0 }
func (p FlightPlan) Direct() bool { return len(p.waypoints) == 1 }

// Current is the waypoint being flown to.
func (p FlightPlan) Current() (Waypoint, bool) {
	if len(p.waypoints) == 0 {
		return Waypoint{}, false
	}
	return p.waypoints[0], true
}

// Advance drops the current waypoint.
func (p *FlightPlan) Advance() {
	if len(p.waypoints) > 0 {
		p.waypoints = p.waypoints[1:]
	}
}

// Waypoints returns a copy of the remaining waypoints.
func (p FlightPlan) Waypoints() []Waypoint {
	return append([]Waypoint(nil), p.waypoints...)
}

// Target is the final waypoint.
func (p FlightPlan) Target() (Waypoint, bool) {
	if len(p.waypoints) == 0 {
		return Waypoint{}, false
	}
	return p.waypoints[len(p.waypoints)-1], true
}

const (
	// midpointEpsilon, relative to the base radius, below which the
	// midpoint of a flight is treated as the origin.
	midpointEpsilon = 1e-6
	transitBackoff  = math.Pi / 360
)

// Planner decides how to get from the camera position to a target.
type Planner struct {
	params Params
}

func NewPlanner(p Params) Planner { return Planner{params: p} }

// Plan returns a direct plan when the angular separation between current
// and the target is within DirectFlightAngle and the straight path stays
// above the surface. Otherwise the camera first climbs to the transit radius
// above the midpoint of the straight path, then moves over the target at the
// same radius, then descends.
func (pl Planner) Plan(current r3.Vector, target orb.Point, radius float64) FlightPlan {
	targetPos := sphere.Project(target, radius)
	separation := sphere.AngleBetween(current, targetPos).Deg
	if !(separation > pl.params.DirectFlightAngle) && sphere.Clearance(current, targetPos) > pl.params.BaseRadius {
		return NewFlightPlan(Waypoint{Position: targetPos})
	}

	transitRadius := pl.params.BaseRadius * pl.params.TransitAltitude
	return NewFlightPlan(
		Waypoint{Position: pl.firstTransit(current, targetPos, transitRadius), Transit: true},
		Waypoint{Position: sphere.Project(target, transitRadius), Transit: true},
		Waypoint{Position: targetPos},
	)
}

// firstTransit finds the climb point of a transit flight. It is the point at
// transitRadius on the line through the midpoint of the straight path. When
// the midpoint is too deep for the scan to reach transitRadius, or the climb
// towards it would cut the sphere, the point is walked back along the great
// circle towards current until the climb clears the surface.
func (pl Planner) firstTransit(current, targetPos r3.Vector, transitRadius float64) r3.Vector {
	base := pl.params.BaseRadius
	mid := sphere.Midpoint(current, targetPos)
	if mid.Norm() > base*midpointEpsilon {
		p := sphere.LineSphereIntersection(mid, transitRadius)
		if p.Norm() >= transitRadius-pl.params.TransitArrival && sphere.Clearance(current, p) > base {
			return p
		}
	}

	// Great circle from current towards the target; antipodal targets pick
	// an arbitrary perpendicular.
	u := current.Normalize()
	w := targetPos.Sub(u.Mul(targetPos.Dot(u)))
	if w.Norm() < base*midpointEpsilon {
		w = u.Ortho()
	}
	w = w.Normalize()
	half := sphere.AngleBetween(current, targetPos).Rad / 2

	at := func(theta float64) r3.Vector {
		return u.Mul(math.Cos(theta)).Add(w.Mul(math.Sin(theta))).Mul(transitRadius)
	}
	for theta := half; theta > 0; theta -= transitBackoff {
		if p := at(theta); sphere.Clearance(current, p) > base {
			return p
		}
	}
	return at(0)
}
