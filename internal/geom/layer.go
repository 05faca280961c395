package geom

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

var (
	ErrNoGeometry  = errors.New("geom: no geometries found")
	ErrUnsupported = errors.New("geom: unsupported format")
)

// Layer is a set of features loaded from one source, with their combined
// bound.
type Layer struct {
	Name     string
	Features []*geojson.Feature
	Bound    orb.Bound

	empty bool
}

func newLayer(name string) *Layer {
	return &Layer{Name: name, empty: true}
}

// Add appends f and grows the bound. Features without geometry are skipped.
func (l *Layer) Add(f *geojson.Feature) {
	if f == nil || f.Geometry == nil {
		return
	}
	if f.Properties == nil {
		f.Properties = geojson.Properties{}
	}
	b := f.Geometry.Bound()
	if l.empty {
		l.Bound = b
		l.empty = false
	} else {
		l.Bound = l.Bound.Union(b)
	}
	l.Features = append(l.Features, f)
}

// Len is the number of features.
func (l *Layer) Len() int { return len(l.Features) }

// FeatureCollection returns the layer as GeoJSON.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, l.Features...)
	return fc
}

// Counts tallies the features by kind, as shown in the status line.
func (l *Layer) Counts() (points, lines, polygons int) {
	for _, f := range l.Features {
		switch f.Geometry.(type) {
		case orb.Point, orb.MultiPoint:
			points++
		case orb.LineString, orb.MultiLineString, orb.Ring:
			lines++
		case orb.Polygon, orb.MultiPolygon, orb.Bound:
			polygons++
		}
	}
	return
}

func (l *Layer) done() (*Layer, error) {
	if len(l.Features) == 0 {
		return nil, ErrNoGeometry
	}
	return l, nil
}

// Load reads a layer, picking the format from the file extension.
func Load(path string) (*Layer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json":
		return LoadGeoJSON(path)
	case ".wkt":
		return LoadWKT(path)
	case ".kml":
		return LoadKML(path)
	case ".csv":
		return LoadCSV(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
}

// Supported reports whether Load understands the file.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".geojson", ".json", ".wkt", ".kml", ".csv":
		return true
	}
	return false
}
