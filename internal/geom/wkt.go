package geom

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// ParseWKT parses one or more WKT geometries, one per non-empty line, into a
// layer. Any parse failure fails the whole input.
func ParseWKT(s string) (*Layer, error) {
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("geom: empty wkt")
	}
	l := newLayer("wkt")
	for i, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		g, err := wkt.Unmarshal(line)
		if err != nil {
			return nil, fmt.Errorf("geom: wkt line %d: %w", i+1, err)
		}
		l.Add(geojson.NewFeature(g))
	}
	return l.done()
}

// LoadWKT reads a file of WKT geometries.
func LoadWKT(path string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	l, err := ParseWKT(string(data))
	if err != nil {
		return nil, err
	}
	l.Name = filepath.Base(path)
	return l, nil
}
