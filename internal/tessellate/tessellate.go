// Package tessellate turns polygon features into triangle lists on a sphere.
//
// Rings of each polygon are ranked by the area of their lon/lat bounding box:
// the largest becomes the outer boundary and the rest become holes. This is
// the usual shapefile nesting, not a containment test, so a hole that is
// larger than its outer ring is misclassified.
package tessellate

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"geoglobe/internal/metrics"
	"geoglobe/internal/sphere"
)

var (
	ErrInvalidGeometry     = errors.New("tessellate: invalid geometry")
	ErrUnsupportedGeometry = errors.New("tessellate: unsupported geometry type")
)

// Mesh is the triangulation of one feature. Triangles holds three Cartesian
// points per triangle; Flat and Indices are the planar buffer and the index
// list the triangles were read from.
type Mesh struct {
	Triangles []r3.Vector
	Flat      []orb.Point
	Indices   []int
}

// TriangleCount is len(Triangles)/3.
func (m Mesh) TriangleCount() int { return len(m.Triangles) / 3 }

// Rings2D is the outer/hole decomposition without triangulation.
type Rings2D struct {
	Polygons []orb.Ring
	Holes    []orb.Ring
}

// Result bundles both views of a feature.
type Result struct {
	Mesh
	Rings Rings2D
}

// Tessellate triangulates a Polygon or MultiPolygon at the given radius and
// also returns its 2D ring decomposition.
func Tessellate(g orb.Geometry, radius float64) (Result, error) {
	mesh, err := Triangulate(g, radius)
	if err != nil {
		return Result{}, err
	}
	rings, err := Decompose(g)
	if err != nil {
		return Result{}, err
	}
	return Result{Mesh: mesh, Rings: rings}, nil
}

// Triangulate converts a Polygon or MultiPolygon into triangles on a sphere of
// the given radius.
func Triangulate(g orb.Geometry, radius float64) (Mesh, error) {
	mp, err := normalize(g)
	if err != nil {
		metrics.TessellationErrors.Inc()
		return Mesh{}, err
	}
	var mesh Mesh
	for _, poly := range mp {
		rings := orderRings(poly)

		base := len(mesh.Flat)
		var holes []int
		for i, ring := range rings {
			if i > 0 {
				holes = append(holes, len(mesh.Flat)-base)
			}
			mesh.Flat = append(mesh.Flat, ring...)
		}
		idx := earcut(mesh.Flat[base:], holes)
		for _, i := range idx {
			mesh.Indices = append(mesh.Indices, base+i)
			mesh.Triangles = append(mesh.Triangles, sphere.Project(mesh.Flat[base+i], radius))
		}
	}
	metrics.TessellatedTriangles.Add(float64(mesh.TriangleCount()))
	return mesh, nil
}

// Decompose splits a Polygon or MultiPolygon into outer rings and holes
// using the same ordering as Triangulate.
func Decompose(g orb.Geometry) (Rings2D, error) {
	mp, err := normalize(g)
	if err != nil {
		return Rings2D{}, err
	}
	var out Rings2D
	for _, poly := range mp {
		for i, ring := range orderRings(poly) {
			if i == 0 {
				out.Polygons = append(out.Polygons, ring)
			} else {
				out.Holes = append(out.Holes, ring)
			}
		}
	}
	return out, nil
}

// normalize wraps a Polygon into a MultiPolygon and validates every ring.
func normalize(g orb.Geometry) (orb.MultiPolygon, error) {
	var mp orb.MultiPolygon
	switch v := g.(type) {
	case nil:
		return nil, fmt.Errorf("%w: missing geometry", ErrInvalidGeometry)
	case orb.Polygon:
		mp = orb.MultiPolygon{v}
	case orb.MultiPolygon:
		mp = v
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedGeometry, g.GeoJSONType())
	}
	if len(mp) == 0 {
		return nil, fmt.Errorf("%w: no polygons", ErrInvalidGeometry)
	}
	for pi, poly := range mp {
		if len(poly) == 0 {
			return nil, fmt.Errorf("%w: polygon %d has no rings", ErrInvalidGeometry, pi)
		}
		for ri, ring := range poly {
			if err := validateRing(ring); err != nil {
				return nil, fmt.Errorf("%w: polygon %d ring %d: %s", ErrInvalidGeometry, pi, ri, err)
			}
		}
	}
	return mp, nil
}

func validateRing(ring orb.Ring) error {
	distinct := len(ring)
	if distinct > 1 && ring[0] == ring[distinct-1] {
		distinct--
	}
	if distinct < 3 {
		return fmt.Errorf("%d distinct vertices, need at least 3", distinct)
	}
	for _, p := range ring {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) || math.IsInf(p[0], 0) || math.IsInf(p[1], 0) {
			return fmt.Errorf("non-finite coordinate %v", p)
		}
	}
	return nil
}

// orderRings returns the rings of poly sorted by bounding-box area, largest
// first. The input is not modified.
func orderRings(poly orb.Polygon) []orb.Ring {
	rings := make([]orb.Ring, len(poly))
	copy(rings, poly)
	sort.SliceStable(rings, func(i, j int) bool {
		return sphere.BoundArea(rings[i]) > sphere.BoundArea(rings[j])
	})
	return rings
}
