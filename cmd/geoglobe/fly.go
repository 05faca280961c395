package main

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"geoglobe/internal/camera"
	"geoglobe/internal/config"
	"geoglobe/internal/sphere"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the waypoints of a flight",
	Long: `Plan a flight from a start position to a target and print its
waypoints. Targets more than flight.direct_angle degrees away go through
one or two transit points at flight.transit_altitude.

Examples:
  geoglobe plan --lon -73.98 --lat 40.75
  geoglobe plan --from-lon 0 --from-lat 0 --from-ratio 2 --lon 90 --lat 0 --ratio 1.02`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.close()

		from, target, radius, err := flightFlags(cmd, env.cfg)
		if err != nil {
			return err
		}
		plan := camera.NewPlanner(env.cfg.Params()).Plan(from, target, radius)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Separation: %.3f°\n", sphere.AngleBetween(from, sphere.Project(target, radius)).Deg)
		printPlan(out, plan)
		return nil
	},
}

var flyCmd = &cobra.Command{
	Use:   "fly",
	Short: "Run a flight without the viewer",
	Long: `Animate the camera from a start position to a target at the
configured frame rate and report where it landed.

Examples:
  geoglobe fly --lon -73.98 --lat 40.75
  geoglobe fly --lon 139.69 --lat 35.68 --frame-rate 240 --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.close()

		from, target, radius, err := flightFlags(cmd, env.cfg)
		if err != nil {
			return err
		}
		cam := camera.New(env.cfg.Params(), from)
		frames := 0
		cam.SetObserver(camera.ObserverFuncs{Frame: func() { frames++ }})
		d := camera.NewDriver(cam, env.logger)
		if _, err := d.AnimateTo(target, radius); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printPlan(out, d.Plan())

		ticker := time.NewTicker(time.Second / time.Duration(env.cfg.Flight.FrameRate))
		defer ticker.Stop()
		start := time.Now()
		if err := d.Run(cmd.Context(), ticker.C); err != nil {
			return err
		}

		g := cam.Geo()
		fmt.Fprintf(out, "Frames: %d in %s\n", frames, time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(out, "Landed: %.6f, %.6f at radius %.4f\n", g.Lon(), g.Lat(), cam.Position().Norm())
		printBBox(out, cam.BBox())
		return nil
	},
}

var bboxCmd = &cobra.Command{
	Use:   "bbox",
	Short: "Print the visible footprint of a camera position",
	Long: `Compute the four lon/lat corners seen by a camera above a point.

Examples:
  geoglobe bbox --lon 36.23 --lat 49.99 --ratio 1.06
  geoglobe bbox --lon 0 --lat 0 --ratio 2 --aspect 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer env.close()

		lon, _ := cmd.Flags().GetFloat64("lon")
		lat, _ := cmd.Flags().GetFloat64("lat")
		ratio, _ := cmd.Flags().GetFloat64("ratio")
		if ratio <= 1 {
			return camera.ErrBelowSurface
		}
		p := env.cfg.Params()
		t := camera.Tracker{
			BaseRadius:         p.BaseRadius,
			FOV:                p.FOV,
			Aspect:             p.Aspect,
			WidthIncreaseRatio: p.WidthIncreaseRatio,
		}
		printBBox(cmd.OutOrStdout(), t.Compute(sphere.Project(orb.Point{lon, lat}, p.BaseRadius*ratio)))
		return nil
	},
}

// flightFlags reads the start position and the target of plan and fly. The
// start defaults to the home point at the start altitude.
func flightFlags(cmd *cobra.Command, cfg *config.Config) (r3.Vector, orb.Point, float64, error) {
	fs := cmd.Flags()
	lon, _ := fs.GetFloat64("lon")
	lat, _ := fs.GetFloat64("lat")
	ratio, _ := fs.GetFloat64("ratio")
	fromLon, _ := fs.GetFloat64("from-lon")
	fromLat, _ := fs.GetFloat64("from-lat")
	fromRatio, _ := fs.GetFloat64("from-ratio")
	if !fs.Changed("from-lon") && !fs.Changed("from-lat") {
		fromLon, fromLat = cfg.Globe.CenterLon, cfg.Globe.CenterLat
	}
	if !fs.Changed("from-ratio") {
		fromRatio = cfg.Globe.StartRatio
	}
	if !fs.Changed("ratio") {
		ratio = cfg.Globe.CityRatio
	}
	for _, p := range []orb.Point{{lon, lat}, {fromLon, fromLat}} {
		if p.Lat() < -90 || p.Lat() > 90 || p.Lon() < -180 || p.Lon() > 180 {
			return r3.Vector{}, orb.Point{}, 0, fmt.Errorf("coordinate out of range: %g, %g", p.Lon(), p.Lat())
		}
	}
	base := cfg.Globe.BaseRadius
	return sphere.Project(orb.Point{fromLon, fromLat}, base*fromRatio), orb.Point{lon, lat}, base * ratio, nil
}

func printPlan(w io.Writer, plan camera.FlightPlan) {
	kind := "transit"
	if plan.Direct() {
		kind = "direct"
	}
	fmt.Fprintf(w, "Flight: %s, %d waypoint(s)\n", kind, plan.Len())
	for i, wp := range plan.Waypoints() {
		g := sphere.Unproject(wp.Position)
		role := "target"
		if wp.Transit {
			role = "transit"
		}
		fmt.Fprintf(w, "  %d. %-7s %11.6f %10.6f  r=%.4f\n", i+1, role, g.Lon(), g.Lat(), wp.Position.Norm())
	}
}

func printBBox(w io.Writer, b camera.BoundingBox) {
	names := [4]string{"top-left", "top-right", "bottom-right", "bottom-left"}
	for i, p := range b {
		fmt.Fprintf(w, "%-12s %11.6f %10.6f\n", names[i], p.Lon(), p.Lat())
	}
	bound := b.Bound()
	fmt.Fprintf(w, "Bound: [%.6f, %.6f, %.6f, %.6f]\n", bound.Left(), bound.Bottom(), bound.Right(), bound.Top())
}

func init() {
	rootCmd.AddCommand(planCmd, flyCmd, bboxCmd)

	for _, c := range []*cobra.Command{planCmd, flyCmd} {
		c.Flags().Float64("lon", 0, "Target longitude (required)")
		c.Flags().Float64("lat", 0, "Target latitude (required)")
		c.Flags().Float64("ratio", 1.02, "Target radius as a multiple of the sphere radius (default globe.city_ratio)")
		c.Flags().Float64("from-lon", 0, "Start longitude (default globe.center_lon)")
		c.Flags().Float64("from-lat", 0, "Start latitude (default globe.center_lat)")
		c.Flags().Float64("from-ratio", 2.5, "Start radius multiple (default globe.start_ratio)")
		c.MarkFlagRequired("lon")
		c.MarkFlagRequired("lat")
	}

	bboxCmd.Flags().Float64("lon", 0, "Camera longitude")
	bboxCmd.Flags().Float64("lat", 0, "Camera latitude")
	bboxCmd.Flags().Float64("ratio", 1.06, "Camera radius as a multiple of the sphere radius")
}
