package camera

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/paulmach/orb"

	"geoglobe/internal/metrics"
	"geoglobe/internal/sphere"
)

var (
	ErrBelowSurface       = errors.New("camera: flight endpoint at or below the surface")
	ErrDegeneratePosition = errors.New("camera: degenerate camera position")
)

// minStepFraction keeps a camera at or under the surface moving; the
// altitude-scaled fraction is zero there.
const minStepFraction = 1e-3

// State of the animation driver.
type State int

const (
	Idle State = iota
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in-flight"
	default:
		return "unknown"
	}
}

// Driver animates the camera along a flight plan, one step per frame. Only
// one flight exists at a time: a request made while a flight is in progress
// is dropped, not queued, and the running flight is not interrupted.
type Driver struct {
	cam     *Camera
	planner Planner
	logger  *slog.Logger

	state  State
	plan   FlightPlan
	frames int
}

// NewDriver wires a driver to cam. A nil logger uses slog.Default().
func NewDriver(cam *Camera, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		cam:     cam,
		planner: NewPlanner(cam.Params()),
		logger:  logger.With("component", "camera"),
	}
}

func (d *Driver) Camera() *Camera { return d.cam }

func (d *Driver) State() State { return d.state }

// Plan is the remaining flight plan; empty when idle.
func (d *Driver) Plan() FlightPlan { return d.plan }

// AnimateTo starts a flight to target at radius. It reports false with a nil
// error when the request was dropped because a flight is already running.
func (d *Driver) AnimateTo(target orb.Point, radius float64) (bool, error) {
	if d.state == InFlight {
		metrics.FlightsDropped.Inc()
		d.logger.Debug("flight request dropped", "lon", target.Lon(), "lat", target.Lat())
		return false, nil
	}
	p := d.cam.Params()
	if radius <= p.BaseRadius {
		return false, ErrBelowSurface
	}
	pos := d.cam.Position()
	if sphere.IsDegenerate(pos) {
		return false, ErrDegeneratePosition
	}
	if pos.Norm() <= p.BaseRadius {
		return false, ErrBelowSurface
	}

	d.plan = d.planner.Plan(pos, target, radius)
	d.state = InFlight
	d.frames = 0

	kind := "transit"
	if d.plan.Direct() {
		kind = "direct"
	}
	metrics.FlightsStarted.WithLabelValues(kind).Inc()
	d.logger.Info("flight started",
		"lon", target.Lon(), "lat", target.Lat(), "radius", radius,
		"kind", kind, "waypoints", d.plan.Len())
	return true, nil
}

// Step advances the camera one frame towards the current waypoint. It
// reports whether the flight is still running afterwards; an idle driver
// does nothing and returns false.
func (d *Driver) Step() bool {
	if d.state != InFlight {
		return false
	}
	wp, ok := d.plan.Current()
	if !ok {
		d.finish()
		return false
	}

	p := d.cam.Params()
	pos := d.cam.Position()
	ratio := math.Max(0, (pos.Norm()-p.BaseRadius)/p.BaseRadius)
	step := math.Max(math.Cbrt(ratio)*p.StepCoefficient, minStepFraction)

	next := wp.Position.Sub(pos).Mul(step).Add(pos)
	d.cam.place(next)
	d.frames++

	dist := sphere.Distance(next, wp.Position)
	if wp.Transit {
		if dist < p.TransitArrival {
			d.plan.Advance()
		}
		return true
	}
	if dist < p.TargetArrival {
		d.plan.Advance()
		d.finish()
		return false
	}
	return true
}

func (d *Driver) finish() {
	d.state = Idle
	metrics.FlightsCompleted.Inc()
	metrics.FlightFrames.Observe(float64(d.frames))
	d.logger.Info("flight completed", "frames", d.frames)
}

// Run steps on every tick until the flight resolves or ctx is done.
// Cancelling ctx stops the stepping only; the flight stays in progress and
// a later Run or Step resumes it.
func (d *Driver) Run(ctx context.Context, ticks <-chan time.Time) error {
	for d.state == InFlight {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			d.Step()
		}
	}
	return nil
}
