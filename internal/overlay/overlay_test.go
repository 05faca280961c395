package overlay

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"geoglobe/internal/geom"
	"geoglobe/internal/sphere"
)

var radii = Radii{Border: 241.68, Marker: 232.56, Fill: 241.68}

func testLayer(t *testing.T) *geom.Layer {
	t.Helper()
	l, err := geom.ParseWKT(
		"POINT(36.2327 49.993)\n" +
			"POINT(1 1)\n" +
			"POINT(2 2)\n" +
			"LINESTRING(0 0,5 0)\n" +
			"POLYGON((0 0,10 0,10 10,0 10,0 0),(4 4,6 4,6 6,4 6,4 4))\n")
	if err != nil {
		t.Fatal(err)
	}
	// A ring with only two distinct vertices cannot be filled.
	l.Add(geojson.NewFeature(orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}))
	return l
}

func TestBuild(t *testing.T) {
	o, err := Build(context.Background(), testLayer(t), radii, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(o.Markers) != 3 {
		t.Errorf("got %d markers, want 3", len(o.Markers))
	}
	for _, m := range o.Markers {
		if math.Abs(m.Position.Norm()-radii.Marker) > 1e-9 {
			t.Errorf("marker off radius: %f", m.Position.Norm())
		}
	}
	if len(o.Fills) != 1 || o.Skipped != 1 {
		t.Fatalf("fills=%d skipped=%d", len(o.Fills), o.Skipped)
	}
	if o.Fills[0].Feature != 4 {
		t.Errorf("fill belongs to feature %d", o.Fills[0].Feature)
	}
	if o.Triangles() < 8 {
		t.Errorf("got %d triangles", o.Triangles())
	}
	if len(o.Borders) == 0 {
		t.Fatal("no borders")
	}
	for _, s := range o.Borders {
		for _, p := range s {
			if math.Abs(p.Norm()-radii.Border) > 1e-9 {
				t.Fatalf("border vertex off radius: %f", p.Norm())
			}
		}
	}
}

func TestBordersAreDensified(t *testing.T) {
	l, err := geom.ParseWKT("LINESTRING(0 0,10 0)")
	if err != nil {
		t.Fatal(err)
	}
	segs := borders(l.Features, 1)
	if len(segs) != 5 {
		t.Fatalf("got %d segments, want 5", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i][0] != segs[i-1][1] {
			t.Fatalf("segment %d is not connected", i)
		}
	}
}

func TestBordersCrossAntimeridian(t *testing.T) {
	tests := []struct {
		name string
		a, b orb.Point
	}{
		{"eastwards", orb.Point{179, 10}, orb.Point{-179, 10}},
		{"westwards", orb.Point{-179, -5}, orb.Point{179, -4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := appendSegment(nil, tt.a, tt.b, 1)
			if len(segs) != 1 {
				t.Fatalf("got %d segments, want 1", len(segs))
			}
			end := sphere.Project(tt.b, 1)
			if d := sphere.Distance(segs[0][1], end); d > 1e-9 {
				t.Fatalf("segment ends %g away from b", d)
			}
			if d := sphere.Distance(segs[0][0], segs[0][1]); d > 0.05 {
				t.Fatalf("segment spans %f, want the short way round", d)
			}
		})
	}
}

func TestBordersUseOuterRingOnly(t *testing.T) {
	poly := orb.Polygon{
		{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}},
		{{0.2, 0.2}, {0.4, 0.2}, {0.4, 0.4}, {0.2, 0.2}},
	}
	segs := borders([]*geojson.Feature{geojson.NewFeature(poly)}, 1)
	if len(segs) != 4 {
		t.Fatalf("got %d segments, want 4", len(segs))
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, testLayer(t), radii, nil); err == nil {
		t.Fatal("expected the cancelled context to fail the build")
	}
}

func TestFocusPoint(t *testing.T) {
	tests := []struct {
		name string
		g    orb.Geometry
		want orb.Point
	}{
		{"point", orb.Point{36.2327, 49.993}, orb.Point{36.2327, 49.993}},
		{"line", orb.LineString{{0, 0}, {10, 20}}, orb.Point{5, 10}},
		// The closing vertex counts, pulling the mean towards it.
		{"square", orb.Polygon{{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}}, orb.Point{1.6, 1.6}},
		{"multipolygon", orb.MultiPolygon{
			{{{0, 0}, {2, 0}, {0, 2}, {0, 0}}},
			{{{10, 10}, {12, 10}, {10, 12}, {10, 10}}},
		}, orb.Point{5.5, 5.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FocusPoint(geojson.NewFeature(tt.g))
			if !ok {
				t.Fatal("no focus point")
			}
			if math.Abs(got[0]-tt.want[0]) > 1e-9 || math.Abs(got[1]-tt.want[1]) > 1e-9 {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, ok := FocusPoint(nil); ok {
		t.Error("nil feature has no focus point")
	}
	if _, ok := FocusPoint(geojson.NewFeature(orb.MultiPoint{})); ok {
		t.Error("empty geometry has no focus point")
	}
}
