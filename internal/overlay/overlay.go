// Package overlay builds the drawable pieces of a feature layer on the
// sphere: border segments, point markers and filled meshes.
package overlay

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"runtime"
	"time"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"geoglobe/internal/geom"
	"geoglobe/internal/metrics"
	"geoglobe/internal/sphere"
	"geoglobe/internal/tessellate"
)

// maxSegmentDeg bounds the lon/lat length of a border segment. Longer edges
// are split so their chords stay close to the surface.
const maxSegmentDeg = 2.0

// Radii are the sphere radii each kind of overlay is drawn at.
type Radii struct {
	Border float64
	Marker float64
	Fill   float64
}

// Segment is one straight piece of a border, in scene units.
type Segment [2]r3.Vector

// Marker is a point feature lifted onto the sphere.
type Marker struct {
	Feature  int
	Geo      orb.Point
	Position r3.Vector
}

// Fill is the triangulated surface of one polygon feature.
type Fill struct {
	Feature int
	Mesh    tessellate.Mesh
}

// Overlay is everything drawable for one layer.
type Overlay struct {
	Name    string
	Borders []Segment
	Markers []Marker
	Fills   []Fill

	// Skipped counts polygon features the tessellator rejected.
	Skipped int
}

// Triangles is the number of fill triangles.
func (o *Overlay) Triangles() int {
	n := 0
	for _, f := range o.Fills {
		n += f.Mesh.TriangleCount()
	}
	return n
}

// Build lifts every feature of l onto the sphere. Borders, markers and fills
// are built concurrently; a polygon that cannot be tessellated is logged and
// skipped, it does not fail the layer.
func Build(ctx context.Context, l *geom.Layer, radii Radii, logger *slog.Logger) (*Overlay, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	out := &Overlay{Name: l.Name}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.Borders = borders(l.Features, radii.Border)
		return nil
	})
	g.Go(func() error {
		out.Markers = markers(l.Features, radii.Marker)
		return nil
	})
	g.Go(func() error {
		fs, skipped, err := fills(ctx, l.Features, radii.Fill, logger)
		out.Fills, out.Skipped = fs, skipped
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.OverlayBuildDuration.Observe(time.Since(start).Seconds())
	logger.Debug("overlay built",
		"layer", l.Name, "borders", len(out.Borders), "markers", len(out.Markers),
		"fills", len(out.Fills), "triangles", out.Triangles(), "skipped", out.Skipped)
	return out, nil
}

func borders(features []*geojson.Feature, radius float64) []Segment {
	var out []Segment
	addLine := func(pts []orb.Point) {
		for i := 1; i < len(pts); i++ {
			out = appendSegment(out, pts[i-1], pts[i], radius)
		}
	}
	var walk func(g orb.Geometry)
	walk = func(g orb.Geometry) {
		switch g := g.(type) {
		case orb.LineString:
			addLine(g)
		case orb.MultiLineString:
			for _, ls := range g {
				addLine(ls)
			}
		case orb.Ring:
			addLine(g)
		case orb.Polygon:
			if len(g) > 0 {
				addLine(g[0])
			}
		case orb.MultiPolygon:
			for _, p := range g {
				walk(p)
			}
		case orb.Collection:
			for _, c := range g {
				walk(c)
			}
		}
	}
	for _, f := range features {
		walk(f.Geometry)
	}
	return out
}

// appendSegment adds the edge a-b, split into pieces of at most
// maxSegmentDeg in lon/lat. Edges across the antimeridian take the short
// way round.
func appendSegment(out []Segment, a, b orb.Point, radius float64) []Segment {
	dLon := b[0] - a[0]
	if dLon > 180 {
		dLon -= 360
	} else if dLon < -180 {
		dLon += 360
	}
	dLat := b[1] - a[1]
	n := int(math.Ceil(math.Max(math.Abs(dLon), math.Abs(dLat)) / maxSegmentDeg))
	if n < 1 {
		n = 1
	}
	prev := sphere.Project(a, radius)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		p := orb.Point{a[0] + dLon*t, a[1] + dLat*t}
		next := sphere.Project(p, radius)
		out = append(out, Segment{prev, next})
		prev = next
	}
	return out
}

func markers(features []*geojson.Feature, radius float64) []Marker {
	var out []Marker
	for i, f := range features {
		switch g := f.Geometry.(type) {
		case orb.Point:
			out = append(out, Marker{Feature: i, Geo: g, Position: sphere.Project(g, radius)})
		case orb.MultiPoint:
			for _, p := range g {
				out = append(out, Marker{Feature: i, Geo: p, Position: sphere.Project(p, radius)})
			}
		}
	}
	return out
}

func fills(ctx context.Context, features []*geojson.Feature, radius float64, logger *slog.Logger) ([]Fill, int, error) {
	meshes := make([]*tessellate.Mesh, len(features))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := tessellate.Triangulate(f.Geometry, radius)
			if errors.Is(err, tessellate.ErrInvalidGeometry) {
				logger.Warn("skipping feature", "feature", i, "err", err)
				return nil
			}
			if err != nil {
				return err
			}
			meshes[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var out []Fill
	skipped := 0
	for i, f := range features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			if meshes[i] == nil {
				skipped++
				continue
			}
			out = append(out, Fill{Feature: i, Mesh: *meshes[i]})
		}
	}
	return out, skipped, nil
}
