// Package camera owns the globe camera: its position, the footprint it sees,
// and the flights that move it between geographic points.
//
// Everything here runs on the host's frame loop. There is no locking; a
// Camera and its Driver must not be used from more than one goroutine.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"geoglobe/internal/metrics"
	"geoglobe/internal/sphere"
)

// Observer is notified synchronously on every camera update. Implementations
// must return quickly; they run inside the frame.
type Observer interface {
	OnFrame()
	OnBBoxChanged(BoundingBox)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Frame func()
	BBox  func(BoundingBox)
}

func (o ObserverFuncs) OnFrame() {
	if o.Frame != nil {
		o.Frame()
	}
}

func (o ObserverFuncs) OnBBoxChanged(b BoundingBox) {
	if o.BBox != nil {
		o.BBox(b)
	}
}

// Camera orbits the sphere, always looking at its centre.
type Camera struct {
	params   Params
	tracker  Tracker
	position r3.Vector
	view     mgl64.Mat4
	bbox     BoundingBox
	observer Observer
}

// New places a camera at start without notifying anyone.
func New(p Params, start r3.Vector) *Camera {
	c := &Camera{params: p, tracker: p.tracker()}
	c.position = start
	c.view = lookAt(start)
	c.bbox = c.tracker.Compute(start)
	return c
}

// SetObserver registers the observer for this camera, replacing any previous one.
func (c *Camera) SetObserver(o Observer) { c.observer = o }

func (c *Camera) Params() Params { return c.params }

func (c *Camera) Position() r3.Vector { return c.position }

// Geo is the point on the surface directly below the camera.
func (c *Camera) Geo() orb.Point { return sphere.Unproject(c.position) }

// Altitude is the distance from the camera to the sphere surface.
func (c *Camera) Altitude() float64 { return c.position.Norm() - c.params.BaseRadius }

// BBox is the footprint computed at the last update.
func (c *Camera) BBox() BoundingBox { return c.bbox }

// View is the world-to-camera matrix for the current position.
func (c *Camera) View() mgl64.Mat4 { return c.view }

// Projection is the perspective matrix for the configured frustum.
func (c *Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.params.FOV), c.params.Aspect, c.params.Near, c.params.Far)
}

// SetAspect changes the aspect ratio, for example after a resize, and
// republishes the footprint.
func (c *Camera) SetAspect(aspect float64) {
	if aspect <= 0 || aspect == c.params.Aspect {
		return
	}
	c.params.Aspect = aspect
	c.tracker = c.params.tracker()
	c.updateBBox()
}

// MoveTo jumps straight to target at radius with no animation, then
// notifies the observer once.
func (c *Camera) MoveTo(target orb.Point, radius float64) {
	c.place(sphere.Project(target, radius))
}

// place is the single write path for the position.
func (c *Camera) place(p r3.Vector) {
	c.position = p
	c.view = lookAt(p)
	c.updateBBox()
	metrics.FramesStepped.Inc()
	if c.observer != nil {
		c.observer.OnFrame()
	}
}

func (c *Camera) updateBBox() {
	c.bbox = c.tracker.Compute(c.position)
	if c.observer != nil {
		c.observer.OnBBoxChanged(c.bbox)
	}
}

// lookAt builds a view matrix towards the origin with north (+Z) up. Over
// the poles the up vector would be parallel to the view direction, so +Y is
// used instead.
func lookAt(eye r3.Vector) mgl64.Mat4 {
	up := mgl64.Vec3{0, 0, 1}
	if eye.Norm() == 0 || eye.Normalize().Cross(r3.Vector{Z: 1}).Norm() < 1e-6 {
		up = mgl64.Vec3{0, 1, 0}
	}
	return mgl64.LookAtV(mgl64.Vec3{eye.X, eye.Y, eye.Z}, mgl64.Vec3{}, up)
}
