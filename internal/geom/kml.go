package geom

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlRing struct {
	LinearRing kmlCoords `xml:"LinearRing"`
}

type kmlPolygon struct {
	Outer kmlRing   `xml:"outerBoundaryIs"`
	Inner []kmlRing `xml:"innerBoundaryIs"`
}

type kmlPlacemark struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description"`
	Point       *kmlCoords  `xml:"Point"`
	LineString  *kmlCoords  `xml:"LineString"`
	Polygon     *kmlPolygon `xml:"Polygon"`
}

// LoadKML reads Placemarks with a Point, LineString or Polygon. Altitudes are
// ignored.
func LoadKML(path string) (*Layer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	l, err := ReadKML(f)
	if err != nil {
		return nil, err
	}
	l.Name = filepath.Base(path)
	return l, nil
}

// ReadKML decodes placemarks at any depth of the document.
func ReadKML(r io.Reader) (*Layer, error) {
	l := newLayer("kml")
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, err
		}
		if f := pm.feature(); f != nil {
			l.Add(f)
		}
	}
	return l.done()
}

func (pm kmlPlacemark) feature() *geojson.Feature {
	var g orb.Geometry
	switch {
	case pm.Point != nil:
		pts := parseKMLCoords(pm.Point.Coordinates)
		if len(pts) == 0 {
			return nil
		}
		g = pts[0]
	case pm.LineString != nil:
		pts := parseKMLCoords(pm.LineString.Coordinates)
		if len(pts) < 2 {
			return nil
		}
		g = orb.LineString(pts)
	case pm.Polygon != nil:
		outer := parseKMLCoords(pm.Polygon.Outer.LinearRing.Coordinates)
		if len(outer) < 3 {
			return nil
		}
		poly := orb.Polygon{orb.Ring(outer)}
		for _, in := range pm.Polygon.Inner {
			if pts := parseKMLCoords(in.LinearRing.Coordinates); len(pts) >= 3 {
				poly = append(poly, orb.Ring(pts))
			}
		}
		g = poly
	default:
		return nil
	}
	f := geojson.NewFeature(g)
	if pm.Name != "" {
		f.Properties["name"] = strings.TrimSpace(pm.Name)
	}
	if d := strings.TrimSpace(pm.Description); d != "" {
		f.Properties["description"] = d
	}
	return f
}

// parseKMLCoords reads whitespace separated "lon,lat[,alt]" tuples.
func parseKMLCoords(s string) []orb.Point {
	var pts []orb.Point
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts
}
