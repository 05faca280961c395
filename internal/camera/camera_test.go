package camera

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"geoglobe/internal/sphere"
)

const R = 228.0

type recorder struct {
	events []string
	boxes  []BoundingBox
}

func (r *recorder) OnFrame() { r.events = append(r.events, "frame") }

func (r *recorder) OnBBoxChanged(b BoundingBox) {
	r.events = append(r.events, "bbox")
	r.boxes = append(r.boxes, b)
}

func newDriver(t *testing.T, start r3.Vector) (*Driver, *recorder) {
	t.Helper()
	cam := New(DefaultParams(), start)
	rec := &recorder{}
	cam.SetObserver(rec)
	return NewDriver(cam, nil), rec
}

func TestPlanDirect(t *testing.T) {
	pl := NewPlanner(DefaultParams())
	start := sphere.Project(orb.Point{0, 0}, 2*R)
	plan := pl.Plan(start, orb.Point{5, 0}, 2*R)
	if !plan.Direct() {
		t.Fatalf("expected a direct plan, got %d waypoints", plan.Len())
	}
	wp, _ := plan.Current()
	if wp.Transit {
		t.Fatal("direct target marked as transit")
	}
	if d := sphere.Distance(wp.Position, sphere.Project(orb.Point{5, 0}, 2*R)); d > 1e-9 {
		t.Fatalf("target off by %f", d)
	}
}

func TestPlanThreshold(t *testing.T) {
	p := DefaultParams()
	pl := NewPlanner(p)
	start := sphere.Project(orb.Point{0, 0}, 2*R)
	if plan := pl.Plan(start, orb.Point{p.DirectFlightAngle - 0.5, 0}, 2*R); !plan.Direct() {
		t.Fatalf("expected direct plan under the threshold, got %d waypoints", plan.Len())
	}
	if plan := pl.Plan(start, orb.Point{p.DirectFlightAngle + 0.5, 0}, 2*R); plan.Direct() {
		t.Fatal("expected transits just past the threshold")
	}
}

func TestPlanTransit(t *testing.T) {
	p := DefaultParams()
	pl := NewPlanner(p)
	start := sphere.Project(orb.Point{0, 0}, 2*R)
	target := orb.Point{90, 0}
	plan := pl.Plan(start, target, 1.02*R)
	if plan.Len() != 3 {
		t.Fatalf("expected 3 waypoints, got %d", plan.Len())
	}
	wps := plan.Waypoints()
	transit := R * p.TransitAltitude
	for i, wp := range wps[:2] {
		if !wp.Transit {
			t.Errorf("waypoint %d should be a transit", i)
		}
		if math.Abs(wp.Position.Norm()-transit) > 0.1 {
			t.Errorf("waypoint %d radius %f, want about %f", i, wp.Position.Norm(), transit)
		}
	}
	if wps[2].Transit {
		t.Error("final waypoint marked as transit")
	}
	got := sphere.Unproject(wps[1].Position)
	if math.Abs(got.Lon()-90) > 1e-6 || math.Abs(got.Lat()) > 1e-6 {
		t.Errorf("second transit should sit over the target, got %v", got)
	}
	last, _ := plan.Target()
	if math.Abs(last.Position.Norm()-1.02*R) > 1e-9 {
		t.Errorf("target radius %f", last.Position.Norm())
	}
}

func TestPlanTransitWideSeparation(t *testing.T) {
	p := DefaultParams()
	pl := NewPlanner(p)
	country := 1.06 * R
	transit := R * p.TransitAltitude
	for _, sep := range []float64{120, 170, 180} {
		t.Run(fmt.Sprintf("%g", sep), func(t *testing.T) {
			start := sphere.Project(orb.Point{0, 0}, country)
			plan := pl.Plan(start, orb.Point{sep, 0}, country)
			if plan.Len() != 3 {
				t.Fatalf("expected 3 waypoints, got %d", plan.Len())
			}
			wps := plan.Waypoints()
			for i, wp := range wps[:2] {
				if sphere.IsDegenerate(wp.Position) {
					t.Fatalf("waypoint %d is degenerate", i)
				}
				if math.Abs(wp.Position.Norm()-transit) > 0.1 {
					t.Errorf("waypoint %d radius %f, want about %f", i, wp.Position.Norm(), transit)
				}
			}
			legs := [][2]r3.Vector{{start, wps[0].Position}, {wps[0].Position, wps[1].Position}, {wps[1].Position, wps[2].Position}}
			for i, leg := range legs {
				if c := sphere.Clearance(leg[0], leg[1]); c <= R {
					t.Errorf("leg %d passes %f from the centre, inside the sphere", i, c)
				}
			}
		})
	}
}

func TestPlanLowDirectUsesTransits(t *testing.T) {
	pl := NewPlanner(DefaultParams())
	incident := 1.0006 * R
	start := sphere.Project(orb.Point{0, 0}, incident)
	// 6 degrees is under the direct threshold, but the chord dips below
	// the surface.
	if plan := pl.Plan(start, orb.Point{6, 0}, incident); plan.Direct() {
		t.Fatal("a chord under the surface must not be flown directly")
	}
	if plan := pl.Plan(start, orb.Point{1, 0}, incident); !plan.Direct() {
		t.Fatal("a short hop that clears the surface should be direct")
	}
}

func TestFlightPlanQueue(t *testing.T) {
	var empty FlightPlan
	if !empty.Empty() {
		t.Fatal("zero plan should be empty")
	}
	if _, ok := empty.Current(); ok {
		t.Fatal("zero plan has no current waypoint")
	}
	empty.Advance()

	a := Waypoint{Position: r3.Vector{X: 1}, Transit: true}
	b := Waypoint{Position: r3.Vector{X: 2}}
	plan := NewFlightPlan(a, b)
	plan.Advance()
	cur, ok := plan.Current()
	if !ok || cur != b {
		t.Fatalf("after advance got %v", cur)
	}
	plan.Advance()
	if !plan.Empty() {
		t.Fatal("plan should be drained")
	}
}

func TestDriverDirectConverges(t *testing.T) {
	d, rec := newDriver(t, sphere.Project(orb.Point{0, 0}, 2*R))
	target := orb.Point{5, 3}
	ok, err := d.AnimateTo(target, 2*R)
	if err != nil || !ok {
		t.Fatalf("AnimateTo = %v, %v", ok, err)
	}
	want := sphere.Project(target, 2*R)
	prev := sphere.Distance(d.Camera().Position(), want)
	steps := 0
	for d.Step() {
		steps++
		if steps > 5000 {
			t.Fatalf("no convergence after %d steps", steps)
		}
		dist := sphere.Distance(d.Camera().Position(), want)
		if !(dist < prev) {
			t.Fatalf("step %d: distance went from %f to %f", steps, prev, dist)
		}
		prev = dist
	}
	if d.State() != Idle {
		t.Fatalf("state %v after convergence", d.State())
	}
	if dist := sphere.Distance(d.Camera().Position(), want); dist >= DefaultParams().TargetArrival {
		t.Fatalf("final distance %f", dist)
	}
	if len(rec.events) == 0 || len(rec.events)%2 != 0 {
		t.Fatalf("unexpected observer events: %d", len(rec.events))
	}
	for i := 0; i < len(rec.events); i += 2 {
		if rec.events[i] != "bbox" || rec.events[i+1] != "frame" {
			t.Fatalf("event %d: got %s,%s", i, rec.events[i], rec.events[i+1])
		}
	}
}

func TestDriverTransitConverges(t *testing.T) {
	d, _ := newDriver(t, sphere.Project(orb.Point{0, 0}, 2*R))
	target := orb.Point{90, 0}
	if ok, err := d.AnimateTo(target, 1.02*R); err != nil || !ok {
		t.Fatalf("AnimateTo = %v, %v", ok, err)
	}
	if d.Plan().Direct() {
		t.Fatal("expected a transit plan")
	}
	steps := 0
	for d.Step() {
		steps++
		if steps > 10000 {
			t.Fatalf("no convergence after %d steps", steps)
		}
		if n := d.Camera().Position().Norm(); n <= R {
			t.Fatalf("step %d went below the surface: %f", steps, n)
		}
	}
	got := d.Camera().Geo()
	if math.Abs(got.Lon()-90) > 1e-2 || math.Abs(got.Lat()) > 1e-2 {
		t.Fatalf("landed at %v", got)
	}
	if !d.Plan().Empty() {
		t.Fatal("plan should be drained")
	}
}

func TestDriverLandsWithoutTouchingSurface(t *testing.T) {
	tests := []struct {
		name   string
		from   orb.Point
		ratio  float64
		target orb.Point
	}{
		{"wide transit at country radius", orb.Point{0, 0}, 1.06, orb.Point{175, 0}},
		{"short hop at incident radius", orb.Point{0, 0}, 1.0006, orb.Point{6, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDriver(t, sphere.Project(tt.from, tt.ratio*R))
			if ok, err := d.AnimateTo(tt.target, tt.ratio*R); err != nil || !ok {
				t.Fatalf("AnimateTo = %v, %v", ok, err)
			}
			steps := 0
			for d.Step() {
				steps++
				if steps > 20000 {
					t.Fatalf("no convergence after %d steps, altitude %f", steps, d.Camera().Altitude())
				}
				if n := d.Camera().Position().Norm(); n <= R {
					t.Fatalf("step %d went below the surface: %f", steps, n)
				}
			}
			if d.State() != Idle {
				t.Fatalf("state %v", d.State())
			}
			got := d.Camera().Geo()
			if math.Abs(got.Lon()-tt.target.Lon()) > 1e-2 || math.Abs(got.Lat()-tt.target.Lat()) > 1e-2 {
				t.Fatalf("landed at %v", got)
			}
		})
	}
}

func TestStepMovesOffTheSurface(t *testing.T) {
	cam := New(DefaultParams(), r3.Vector{X: R})
	d := NewDriver(cam, nil)
	target := r3.Vector{Y: 1.5 * R}
	d.plan = NewFlightPlan(Waypoint{Position: target})
	d.state = InFlight

	before := sphere.Distance(cam.Position(), target)
	if !d.Step() {
		t.Fatal("flight ended early")
	}
	if after := sphere.Distance(cam.Position(), target); !(after < before) {
		t.Fatalf("camera on the surface did not move: %f -> %f", before, after)
	}
}

func TestDriverDropsWhileInFlight(t *testing.T) {
	d, _ := newDriver(t, sphere.Project(orb.Point{0, 0}, 2*R))
	if ok, err := d.AnimateTo(orb.Point{5, 0}, 2*R); err != nil || !ok {
		t.Fatalf("AnimateTo = %v, %v", ok, err)
	}
	d.Step()
	before := d.Plan().Waypoints()

	ok, err := d.AnimateTo(orb.Point{-120, 40}, 1.5*R)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("second flight should have been dropped")
	}
	after := d.Plan().Waypoints()
	if len(after) != len(before) || after[0] != before[0] {
		t.Fatal("running flight was modified")
	}

	for d.Step() {
	}
	got := d.Camera().Geo()
	if math.Abs(got.Lon()-5) > 1e-2 {
		t.Fatalf("original flight did not finish at its target, at %v", got)
	}
	if ok, _ := d.AnimateTo(orb.Point{6, 0}, 2*R); !ok {
		t.Fatal("new flight should start once idle")
	}
}

func TestAnimateToRejects(t *testing.T) {
	tests := []struct {
		name   string
		start  r3.Vector
		radius float64
		want   error
	}{
		{"target on surface", sphere.Project(orb.Point{0, 0}, 2*R), R, ErrBelowSurface},
		{"target inside", sphere.Project(orb.Point{0, 0}, 2*R), R / 2, ErrBelowSurface},
		{"camera on surface", sphere.Project(orb.Point{0, 0}, R), 2 * R, ErrBelowSurface},
		{"camera at origin", r3.Vector{}, 2 * R, ErrDegeneratePosition},
		{"camera NaN", r3.Vector{X: math.NaN()}, 2 * R, ErrDegeneratePosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _ := newDriver(t, tt.start)
			ok, err := d.AnimateTo(orb.Point{10, 10}, tt.radius)
			if ok || !errors.Is(err, tt.want) {
				t.Fatalf("got %v, %v; want %v", ok, err, tt.want)
			}
			if d.State() != Idle {
				t.Fatal("rejected request must leave the driver idle")
			}
		})
	}
}

func TestStepWhenIdle(t *testing.T) {
	d, rec := newDriver(t, sphere.Project(orb.Point{0, 0}, 2*R))
	if d.Step() {
		t.Fatal("idle step reported running")
	}
	if len(rec.events) != 0 {
		t.Fatal("idle step notified the observer")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	d, _ := newDriver(t, sphere.Project(orb.Point{0, 0}, 2*R))
	if _, err := d.AnimateTo(orb.Point{5, 0}, 2*R); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Run(ctx, make(chan time.Time)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
	if d.State() != InFlight {
		t.Fatal("cancelling Run must not cancel the flight")
	}

	ticks := make(chan time.Time)
	done := make(chan error, 1)
	go func() { done <- d.Run(context.Background(), ticks) }()
	for {
		select {
		case err := <-done:
			if err != nil {
				t.Fatal(err)
			}
			if d.State() != Idle {
				t.Fatal("Run returned before the flight resolved")
			}
			return
		case ticks <- time.Time{}:
		}
	}
}

func TestMoveToNotifiesOnce(t *testing.T) {
	cam := New(DefaultParams(), sphere.Project(orb.Point{0, 0}, 2*R))
	rec := &recorder{}
	cam.SetObserver(rec)
	cam.MoveTo(orb.Point{36.2327, 49.9930}, 1.02*R)

	if len(rec.events) != 2 || rec.events[0] != "bbox" || rec.events[1] != "frame" {
		t.Fatalf("events = %v", rec.events)
	}
	got := cam.Geo()
	if math.Abs(got.Lon()-36.2327) > 1e-6 || math.Abs(got.Lat()-49.9930) > 1e-6 {
		t.Fatalf("camera over %v", got)
	}
	if math.Abs(cam.Altitude()-0.02*R) > 1e-9 {
		t.Fatalf("altitude %f", cam.Altitude())
	}
	if rec.boxes[0] != cam.BBox() {
		t.Fatal("published bbox differs from the camera's")
	}
}

func TestObserverFuncs(t *testing.T) {
	frames, boxes := 0, 0
	cam := New(DefaultParams(), sphere.Project(orb.Point{0, 0}, 2*R))
	cam.SetObserver(ObserverFuncs{Frame: func() { frames++ }})
	cam.MoveTo(orb.Point{1, 1}, 2*R)
	cam.SetObserver(ObserverFuncs{BBox: func(BoundingBox) { boxes++ }})
	cam.MoveTo(orb.Point{2, 2}, 2*R)
	if frames != 1 || boxes != 1 {
		t.Fatalf("frames=%d boxes=%d", frames, boxes)
	}
}

func TestBoundingBoxSymmetric(t *testing.T) {
	tr := Tracker{BaseRadius: R, FOV: 50, Aspect: 1, WidthIncreaseRatio: 1}
	box := tr.Compute(r3.Vector{X: 2 * R})

	wantH := 180 * math.Tan(25*math.Pi/180) / math.Pi
	wantW := wantH / 2
	want := BoundingBox{{-wantW, wantH}, {wantW, wantH}, {wantW, -wantH}, {-wantW, -wantH}}
	for i := range box {
		if math.Abs(box[i].Lon()-want[i].Lon()) > 1e-9 || math.Abs(box[i].Lat()-want[i].Lat()) > 1e-9 {
			t.Errorf("corner %d = %v, want %v", i, box[i], want[i])
		}
	}
	if box[0].Lat() <= 0 || box[2].Lat() >= 0 {
		t.Error("box should straddle the equator")
	}
}

func TestBoundingBoxWidthIncreaseShiftsWest(t *testing.T) {
	tr := DefaultParams().tracker()
	box := tr.Compute(sphere.Project(orb.Point{20, 10}, 2*R))
	c := box.Bound().Center()
	if c.Lon() >= 20 {
		t.Fatalf("footprint centre %v should shift west of the camera", c)
	}
	if math.Abs(c.Lat()-10) > 1e-9 {
		t.Fatalf("latitude should stay centred, got %v", c)
	}
	ring := box.Ring()
	if len(ring) != 5 || ring[0] != ring[4] {
		t.Fatal("ring not closed")
	}
}

func TestBoundingBoxGrowsWithAltitude(t *testing.T) {
	tr := DefaultParams().tracker()
	low := tr.Compute(r3.Vector{X: 1.1 * R}).Bound()
	high := tr.Compute(r3.Vector{X: 2 * R}).Bound()
	if !(high.Top() > low.Top() && high.Right()-high.Left() > low.Right()-low.Left()) {
		t.Fatalf("low=%v high=%v", low, high)
	}
}

func TestSetAspect(t *testing.T) {
	cam := New(DefaultParams(), r3.Vector{X: 2 * R})
	rec := &recorder{}
	cam.SetObserver(rec)
	before := cam.BBox().Bound()

	cam.SetAspect(cam.Params().Aspect)
	if len(rec.events) != 0 {
		t.Fatal("unchanged aspect should not republish")
	}
	cam.SetAspect(3)
	if len(rec.boxes) != 1 {
		t.Fatalf("expected one bbox event, got %d", len(rec.boxes))
	}
	after := cam.BBox().Bound()
	if !(after.Right()-after.Left() > before.Right()-before.Left()) {
		t.Fatal("wider aspect should widen the footprint")
	}
	if after.Top() != before.Top() {
		t.Fatal("aspect must not change the vertical extent")
	}
}

func TestLookAtPoleUsesFallbackUp(t *testing.T) {
	m := lookAt(r3.Vector{Z: 2 * R})
	for i := 0; i < 16; i++ {
		if math.IsNaN(m[i]) {
			t.Fatalf("view matrix has NaN at %d", i)
		}
	}
}

func TestStateString(t *testing.T) {
	if Idle.String() != "idle" || InFlight.String() != "in-flight" || State(9).String() != "unknown" {
		t.Fatal("unexpected state names")
	}
}
