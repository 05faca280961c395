package geom

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// LoadCSV reads a CSV with latitude/longitude columns into point features.
func LoadCSV(path string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	l.Name = filepath.Base(path)
	return l, nil
}

// ReadCSV detects the coordinate columns from the header:
// lat|latitude|y and lon|lng|long|longitude|x, case-insensitive. Every other
// column becomes a feature property. Rows with unparsable coordinates are
// skipped.
func ReadCSV(r io.Reader) (*Layer, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("geom: empty csv")
	}
	header := recs[0]
	idxLat, idxLon := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxLat == -1 || idxLon == -1 {
		return nil, errors.New("geom: csv latitude/longitude columns not found")
	}

	l := newLayer("csv")
	for _, row := range recs[1:] {
		if idxLon >= len(row) || idxLat >= len(row) {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		f := geojson.NewFeature(orb.Point{lon, lat})
		for i, v := range row {
			if i == idxLat || i == idxLon || i >= len(header) {
				continue
			}
			f.Properties[header[i]] = v
		}
		l.Add(f)
	}
	return l.done()
}
