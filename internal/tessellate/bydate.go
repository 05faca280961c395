package tessellate

import (
	"fmt"
	"time"

	"github.com/paulmach/orb/geojson"
)

// DateProperty is the feature property that ByDate keys on.
const DateProperty = "DATE"

// NormalizeDate turns "2022-2-24" style dates into "2022-02-24".
func NormalizeDate(s string) (string, error) {
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return "", fmt.Errorf("tessellate: date %q: %w", s, err)
	}
	return t.Format("2006-01-02"), nil
}

// ByDate tessellates a time series of features, one per date. A later
// feature with the same date replaces an earlier one.
func ByDate(features []*geojson.Feature, radius float64) (map[string]Result, error) {
	out := make(map[string]Result, len(features))
	for i, f := range features {
		raw, ok := f.Properties[DateProperty].(string)
		if !ok {
			return nil, fmt.Errorf("tessellate: feature %d: missing %s property", i, DateProperty)
		}
		date, err := NormalizeDate(raw)
		if err != nil {
			return nil, err
		}
		res, err := Tessellate(f.Geometry, radius)
		if err != nil {
			return nil, fmt.Errorf("feature %d (%s): %w", i, date, err)
		}
		out[date] = res
	}
	return out, nil
}
