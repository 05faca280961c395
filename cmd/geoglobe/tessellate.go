package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"geoglobe/internal/geom"
	"geoglobe/internal/tessellate"
)

var tessellateCmd = &cobra.Command{
	Use:   "tessellate <file>",
	Short: "Triangulate the polygons of a layer",
	Long: `Load a layer and triangulate every Polygon and MultiPolygon feature on
the sphere. With --by-date the features are treated as a time series keyed
by their DATE property. With --out the triangles are written as GeoJSON.

Examples:
  geoglobe tessellate countries.geojson
  geoglobe tessellate frontline.geojson --by-date
  geoglobe tessellate lakes.wkt --out lakes-mesh.geojson`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.close()

		l, err := geom.Load(args[0])
		if err != nil {
			return err
		}
		radius := env.cfg.Globe.CountryRadius()
		out := cmd.OutOrStdout()

		byDate, _ := cmd.Flags().GetBool("by-date")
		if byDate {
			series, err := tessellate.ByDate(polygonFeatures(l), radius)
			if err != nil {
				return err
			}
			dates := make([]string, 0, len(series))
			for d := range series {
				dates = append(dates, d)
			}
			sort.Strings(dates)
			for _, d := range dates {
				r := series[d]
				fmt.Fprintf(out, "%s  triangles=%d polygons=%d holes=%d\n",
					d, r.TriangleCount(), len(r.Rings.Polygons), len(r.Rings.Holes))
			}
			return nil
		}

		mesh := geojson.NewFeatureCollection()
		total, skipped := 0, 0
		for i, f := range l.Features {
			r, err := tessellate.Tessellate(f.Geometry, radius)
			if errors.Is(err, tessellate.ErrUnsupportedGeometry) {
				continue
			}
			if err != nil {
				env.logger.Warn("feature skipped", "index", i, "err", err)
				skipped++
				continue
			}
			total += r.TriangleCount()
			fmt.Fprintf(out, "feature %d  triangles=%d polygons=%d holes=%d\n",
				i+1, r.TriangleCount(), len(r.Rings.Polygons), len(r.Rings.Holes))
			mesh.Append(meshFeature(i, r.Mesh))
		}
		fmt.Fprintf(out, "Total: %d triangles, %d skipped\n", total, skipped)

		if path, _ := cmd.Flags().GetString("out"); path != "" {
			data, err := mesh.MarshalJSON()
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s\n", path)
		}
		return nil
	},
}

func polygonFeatures(l *geom.Layer) []*geojson.Feature {
	var out []*geojson.Feature
	for _, f := range l.Features {
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
			out = append(out, f)
		}
	}
	return out
}

// meshFeature turns the planar triangles of a mesh into a MultiPolygon.
func meshFeature(i int, m tessellate.Mesh) *geojson.Feature {
	mp := make(orb.MultiPolygon, 0, len(m.Indices)/3)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Flat[m.Indices[t]], m.Flat[m.Indices[t+1]], m.Flat[m.Indices[t+2]]
		mp = append(mp, orb.Polygon{orb.Ring{a, b, c, a}})
	}
	f := geojson.NewFeature(mp)
	f.Properties["feature"] = i + 1
	f.Properties["triangles"] = m.TriangleCount()
	return f
}

func init() {
	rootCmd.AddCommand(tessellateCmd)

	tessellateCmd.Flags().Bool("by-date", false, "Treat features as a time series keyed by DATE")
	tessellateCmd.Flags().String("out", "", "Write the triangles to this GeoJSON file")
}
