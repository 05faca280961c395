package main

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"geoglobe/internal/sphere"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Convert lon/lat to a point on the sphere",
	Long: `Convert a geographic coordinate to scene coordinates.

Examples:
  geoglobe project --lon 36.23 --lat 49.99
  geoglobe project --lon 0 --lat 90 --ratio 1.02`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lon, _ := cmd.Flags().GetFloat64("lon")
		lat, _ := cmd.Flags().GetFloat64("lat")
		ratio, _ := cmd.Flags().GetFloat64("ratio")
		if lat < -90 || lat > 90 {
			return fmt.Errorf("latitude must be between -90 and 90")
		}
		if lon < -180 || lon > 180 {
			return fmt.Errorf("longitude must be between -180 and 180")
		}

		env, err := setup(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.close()

		v := sphere.Project(orb.Point{lon, lat}, env.cfg.Globe.BaseRadius*ratio)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Position: %.6f, %.6f, %.6f\n", v.X, v.Y, v.Z)
		fmt.Fprintf(out, "Radius: %.6f\n", v.Norm())
		return nil
	},
}

var unprojectCmd = &cobra.Command{
	Use:   "unproject",
	Short: "Convert a scene point to lon/lat",
	Long: `Convert scene coordinates to a geographic coordinate. Only the
direction of the point matters.

Examples:
  geoglobe unproject --x 0 --y 228 --z 0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		x, _ := cmd.Flags().GetFloat64("x")
		y, _ := cmd.Flags().GetFloat64("y")
		z, _ := cmd.Flags().GetFloat64("z")
		v := r3.Vector{X: x, Y: y, Z: z}
		if sphere.IsDegenerate(v) {
			return fmt.Errorf("the origin has no geographic position")
		}
		g := sphere.Unproject(v)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Location: %.6f, %.6f\n", g.Lon(), g.Lat())
		fmt.Fprintf(out, "DMS: %s\n", sphere.FormatDMS(g))
		fmt.Fprintf(out, "Map: %s\n", sphere.MapsLink(g))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd, unprojectCmd)

	projectCmd.Flags().Float64("lon", 0, "Longitude (required)")
	projectCmd.Flags().Float64("lat", 0, "Latitude (required)")
	projectCmd.Flags().Float64("ratio", 1, "Radius as a multiple of the sphere radius")
	projectCmd.MarkFlagRequired("lon")
	projectCmd.MarkFlagRequired("lat")

	unprojectCmd.Flags().Float64("x", 0, "X")
	unprojectCmd.Flags().Float64("y", 0, "Y")
	unprojectCmd.Flags().Float64("z", 0, "Z")
}
