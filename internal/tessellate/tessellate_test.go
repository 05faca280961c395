package tessellate

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const radius = 228.0

func square(x0, y0, size float64) orb.Ring {
	return orb.Ring{{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0}}
}

// planarArea sums the lon/lat area of the triangles in m.
func planarArea(m Mesh) float64 {
	total := 0.0
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Flat[m.Indices[i]], m.Flat[m.Indices[i+1]], m.Flat[m.Indices[i+2]]
		total += math.Abs((b[0]-a[0])*(c[1]-a[1])-(c[0]-a[0])*(b[1]-a[1])) / 2
	}
	return total
}

func TestTriangulateSquare(t *testing.T) {
	mesh, err := Triangulate(orb.Polygon{square(0, 0, 10)}, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles, got %d", mesh.TriangleCount())
	}
	if a := planarArea(mesh); math.Abs(a-100) > 1e-9 {
		t.Fatalf("area = %f, want 100", a)
	}
	for _, p := range mesh.Triangles {
		if math.Abs(p.Norm()-radius) > 1e-9 {
			t.Fatalf("vertex %v is off the sphere", p)
		}
	}
}

func TestTriangulateSquareWithHole(t *testing.T) {
	poly := orb.Polygon{square(0, 0, 10), square(3, 3, 3)}
	mesh, err := Triangulate(poly, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mesh.TriangleCount() < 8 {
		t.Fatalf("expected at least 8 triangles around a hole, got %d", mesh.TriangleCount())
	}
	if a := planarArea(mesh); math.Abs(a-(100-9)) > 1e-9 {
		t.Fatalf("area = %f, want 91", a)
	}
}

func TestTriangulateHoleListedFirst(t *testing.T) {
	// the hole comes first; ordering by bound area must still pick the outer ring
	poly := orb.Polygon{square(2, 2, 4), square(0, 0, 10)}
	mesh, err := Triangulate(poly, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a := planarArea(mesh); math.Abs(a-84) > 1e-9 {
		t.Fatalf("area = %f, want 84", a)
	}
	if poly[0][0] != (orb.Point{2, 2}) {
		t.Fatal("input polygon was reordered")
	}
}

func TestTriangulateConcave(t *testing.T) {
	// an L shape: 10x10 minus a 5x5 corner
	l := orb.Ring{{0, 0}, {10, 0}, {10, 5}, {5, 5}, {5, 10}, {0, 10}, {0, 0}}
	mesh, err := Triangulate(orb.Polygon{l}, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 4 {
		t.Fatalf("expected 4 triangles, got %d", mesh.TriangleCount())
	}
	if a := planarArea(mesh); math.Abs(a-75) > 1e-9 {
		t.Fatalf("area = %f, want 75", a)
	}
}

func TestTriangulateMultiPolygon(t *testing.T) {
	mp := orb.MultiPolygon{
		{square(0, 0, 10)},
		{square(20, 20, 5), square(21, 21, 1)},
	}
	mesh, err := Triangulate(mp, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a := planarArea(mesh); math.Abs(a-(100+25-1)) > 1e-9 {
		t.Fatalf("area = %f, want 124", a)
	}
	if len(mesh.Triangles) != len(mesh.Indices) {
		t.Fatalf("triangles/indices mismatch: %d vs %d", len(mesh.Triangles), len(mesh.Indices))
	}
}

func TestTriangulateOpenRing(t *testing.T) {
	open := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	mesh, err := Triangulate(orb.Polygon{open}, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mesh.TriangleCount() != 2 {
		t.Fatalf("expected 2 triangles, got %d", mesh.TriangleCount())
	}
}

func TestTriangulateInvalid(t *testing.T) {
	tests := []struct {
		name string
		g    orb.Geometry
		want error
	}{
		{"nil geometry", nil, ErrInvalidGeometry},
		{"empty multipolygon", orb.MultiPolygon{}, ErrInvalidGeometry},
		{"polygon without rings", orb.Polygon{}, ErrInvalidGeometry},
		{"empty ring", orb.Polygon{orb.Ring{}}, ErrInvalidGeometry},
		{"two points", orb.Polygon{orb.Ring{{0, 0}, {1, 1}, {0, 0}}}, ErrInvalidGeometry},
		{"nan coordinate", orb.Polygon{orb.Ring{{0, 0}, {math.NaN(), 1}, {1, 0}, {0, 0}}}, ErrInvalidGeometry},
		{"point", orb.Point{1, 2}, ErrUnsupportedGeometry},
		{"line", orb.LineString{{0, 0}, {1, 1}}, ErrUnsupportedGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Triangulate(tt.g, radius)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecompose(t *testing.T) {
	mp := orb.MultiPolygon{
		{square(3, 3, 3), square(0, 0, 10)},
		{square(20, 20, 5)},
	}
	rings, err := Decompose(mp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rings.Polygons) != 2 || len(rings.Holes) != 1 {
		t.Fatalf("got %d polygons and %d holes, want 2 and 1", len(rings.Polygons), len(rings.Holes))
	}
	if rings.Polygons[0][0] != (orb.Point{0, 0}) {
		t.Errorf("first outer ring starts at %v", rings.Polygons[0][0])
	}
	if rings.Holes[0][0] != (orb.Point{3, 3}) {
		t.Errorf("hole starts at %v", rings.Holes[0][0])
	}
}

func TestTessellate(t *testing.T) {
	res, err := Tessellate(orb.Polygon{square(0, 0, 10), square(3, 3, 3)}, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Mesh.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}
	if len(res.Rings.Polygons) != 1 || len(res.Rings.Holes) != 1 {
		t.Fatalf("unexpected rings %+v", res.Rings)
	}
}

func TestByDate(t *testing.T) {
	a := geojson.NewFeature(orb.Polygon{square(0, 0, 10)})
	a.Properties["DATE"] = "2022-2-24"
	b := geojson.NewFeature(orb.Polygon{square(0, 0, 5)})
	b.Properties["DATE"] = "2022-3-1"

	got, err := ByDate([]*geojson.Feature{a, b}, radius)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got["2022-02-24"]; !ok {
		t.Errorf("missing 2022-02-24 in %v", keys(got))
	}
	if _, ok := got["2022-03-01"]; !ok {
		t.Errorf("missing 2022-03-01 in %v", keys(got))
	}

	c := geojson.NewFeature(orb.Polygon{square(0, 0, 5)})
	if _, err := ByDate([]*geojson.Feature{c}, radius); err == nil {
		t.Fatal("expected an error for a feature without a date")
	}
}

func keys(m map[string]Result) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
