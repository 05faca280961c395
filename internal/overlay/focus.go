package overlay

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FocusPoint is where the camera should look to show a feature: the point
// itself, or the mean of every vertex for anything larger. Closing vertices
// of rings are counted like any other.
func FocusPoint(f *geojson.Feature) (orb.Point, bool) {
	if f == nil || f.Geometry == nil {
		return orb.Point{}, false
	}
	if p, ok := f.Geometry.(orb.Point); ok {
		return p, true
	}
	var sumLon, sumLat float64
	n := 0
	eachVertex(f.Geometry, func(p orb.Point) {
		sumLon += p[0]
		sumLat += p[1]
		n++
	})
	if n == 0 {
		return orb.Point{}, false
	}
	return orb.Point{sumLon / float64(n), sumLat / float64(n)}, true
}

func eachVertex(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			eachVertex(ls, fn)
		}
	case orb.Polygon:
		for _, r := range g {
			eachVertex(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range g {
			eachVertex(p, fn)
		}
	case orb.Collection:
		for _, c := range g {
			eachVertex(c, fn)
		}
	case orb.Bound:
		eachVertex(g.ToRing(), fn)
	}
}
