package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
)

// LoadGeoJSON reads a GeoJSON file: a FeatureCollection, a single Feature or
// a bare geometry.
func LoadGeoJSON(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := ParseGeoJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	l.Name = filepath.Base(path)
	return l, nil
}

// ParseGeoJSON decodes any GeoJSON object into a layer.
func ParseGeoJSON(data []byte) (*Layer, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.Type == "" {
		return nil, errors.New("geom: invalid geojson: missing type")
	}

	l := newLayer("geojson")
	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		for _, f := range fc.Features {
			l.Add(f)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		l.Add(f)
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		l.Add(geojson.NewFeature(g.Geometry()))
	}
	return l.done()
}
