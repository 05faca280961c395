package tui

import (
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"geoglobe/internal/camera"
	"geoglobe/internal/sphere"
)

// Graticule spacing and sampling, in degrees.
const (
	graticuleStep   = 30.0
	graticuleSample = 1.0
	limbSamples     = 180
	hoverPickMicro  = 6
)

// projector maps scene points onto the braille micro-pixel grid of the map
// area.
type projector struct {
	vp   mgl64.Mat4
	inv  mgl64.Mat4
	eye  r3.Vector
	w, h int // micro-pixels
}

func newProjector(cam *camera.Camera, cellW, cellH int) projector {
	vp := cam.Projection().Mul4(cam.View())
	return projector{
		vp:  vp,
		inv: vp.Inv(),
		eye: cam.Position(),
		w:   cellW * 2,
		h:   cellH * 4,
	}
}

// visible reports whether v faces the camera, i.e. lies on the near side of
// the horizon.
func (p projector) visible(v r3.Vector) bool {
	return v.Dot(p.eye.Sub(v)) > 0
}

// project returns micro-pixel coordinates. Points behind the camera or far
// off screen are rejected so line drawing stays bounded.
func (p projector) project(v r3.Vector) (int, int, bool) {
	c := p.vp.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 1})
	if c.W() <= 0 {
		return 0, 0, false
	}
	nx, ny := c.X()/c.W(), c.Y()/c.W()
	if math.Abs(nx) > 4 || math.Abs(ny) > 4 || math.IsNaN(nx) || math.IsNaN(ny) {
		return 0, 0, false
	}
	x := int(math.Round((nx + 1) / 2 * float64(p.w-1)))
	y := int(math.Round((1 - ny) / 2 * float64(p.h-1)))
	return x, y, true
}

// geoAt casts a ray through the micro-pixel (mx, my) and returns where it
// first hits the sphere of the given radius.
func (p projector) geoAt(mx, my, radius float64) (orb.Point, bool) {
	nx := mx/float64(p.w-1)*2 - 1
	ny := 1 - my/float64(p.h-1)*2
	near := p.inv.Mul4x1(mgl64.Vec4{nx, ny, -1, 1})
	far := p.inv.Mul4x1(mgl64.Vec4{nx, ny, 1, 1})
	if near.W() == 0 || far.W() == 0 {
		return orb.Point{}, false
	}
	o := r3.Vector{X: near.X() / near.W(), Y: near.Y() / near.W(), Z: near.Z() / near.W()}
	f := r3.Vector{X: far.X() / far.W(), Y: far.Y() / far.W(), Z: far.Z() / far.W()}
	d := f.Sub(o).Normalize()

	// |o + t d|² = r²
	b := o.Dot(d)
	c := o.Norm2() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return orb.Point{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		return orb.Point{}, false
	}
	return sphere.Unproject(o.Add(d.Mul(t))), true
}

// limb samples the horizon circle of a sphere of the given radius as seen
// from the eye.
func (p projector) limb(radius float64) []r3.Vector {
	d2 := p.eye.Norm2()
	if d2 <= radius*radius {
		return nil
	}
	n := p.eye.Normalize()
	a := n.Cross(r3.Vector{Z: 1})
	if a.Norm() < 1e-6 {
		a = n.Cross(r3.Vector{X: 1})
	}
	a = a.Normalize()
	b := n.Cross(a)
	center := p.eye.Mul(radius * radius / d2)
	rho := radius * math.Sqrt(1-radius*radius/d2)

	out := make([]r3.Vector, 0, limbSamples+1)
	for i := 0; i <= limbSamples; i++ {
		th := 2 * math.Pi * float64(i) / limbSamples
		out = append(out, center.Add(a.Mul(rho*math.Cos(th))).Add(b.Mul(rho*math.Sin(th))))
	}
	return out
}

// line draws a-b when both ends are visible and on screen.
func (p projector) line(br *brailleBuf, a, b r3.Vector) {
	if !p.visible(a) || !p.visible(b) {
		return
	}
	x0, y0, ok0 := p.project(a)
	x1, y1, ok1 := p.project(b)
	if ok0 && ok1 {
		br.drawLineMicro(x0, y0, x1, y1)
	}
}

func (m Model) renderGlobe(w, h int) string {
	if w <= 1 || h <= 1 {
		return ""
	}
	br := newBrailleBuf(w, h)
	pr := newProjector(m.cam, w, h)
	radius := m.cfg.Globe.BaseRadius

	// Horizon
	if pts := pr.limb(radius); len(pts) > 0 {
		for i := 1; i < len(pts); i++ {
			x0, y0, ok0 := pr.project(pts[i-1])
			x1, y1, ok1 := pr.project(pts[i])
			if ok0 && ok1 {
				br.drawLineMicro(x0, y0, x1, y1)
			}
		}
	}

	// Graticule, dotted
	if m.showGraticule {
		plot := func(lon, lat float64) {
			v := sphere.ToCartesian(lon, lat, radius)
			if !pr.visible(v) {
				return
			}
			if x, y, ok := pr.project(v); ok {
				br.setPixel(x, y)
			}
		}
		for lon := -180.0; lon < 180; lon += graticuleStep {
			for lat := -90.0; lat <= 90; lat += graticuleSample {
				plot(lon, lat)
			}
		}
		for lat := -90 + graticuleStep; lat < 90; lat += graticuleStep {
			for lon := -180.0; lon < 180; lon += graticuleSample {
				plot(lon, lat)
			}
		}
	}

	if m.ov != nil {
		if m.showFills {
			for _, f := range m.ov.Fills {
				tris := f.Mesh.Triangles
				for i := 0; i+2 < len(tris); i += 3 {
					a, b, c := tris[i], tris[i+1], tris[i+2]
					if !pr.visible(a) || !pr.visible(b) || !pr.visible(c) {
						continue
					}
					x0, y0, ok0 := pr.project(a)
					x1, y1, ok1 := pr.project(b)
					x2, y2, ok2 := pr.project(c)
					if ok0 && ok1 && ok2 {
						br.fillTriangle(x0, y0, x1, y1, x2, y2)
					}
				}
			}
		}
		if m.showBorders {
			for _, s := range m.ov.Borders {
				pr.line(br, s[0], s[1])
			}
		}
		if m.showMarkers {
			for _, mk := range m.ov.Markers {
				if !pr.visible(mk.Position) {
					continue
				}
				if x, y, ok := pr.project(mk.Position); ok {
					br.dot(x, y)
				}
			}
		}
	}

	glyphs := map[[2]int]string{}
	put := func(v r3.Vector, s string) {
		if !pr.visible(v) {
			return
		}
		if x, y, ok := pr.project(v); ok {
			cx, cy := x/2, y/4
			if cx >= 0 && cx < w && cy >= 0 && cy < h {
				glyphs[[2]int{cx, cy}] = s
			}
		}
	}

	// Flight plan
	for _, wp := range m.driver.Plan().Waypoints() {
		if wp.Transit {
			put(wp.Position, transitStyle.Render("◇"))
		} else {
			put(wp.Position, targetStyle.Render("◆"))
		}
	}

	if m.hovering {
		glyphs[[2]int{m.hoverCellX, m.hoverCellY}] = hoverStyle.Render("◯")
	}

	lines := br.toLines()
	for y := range lines {
		row := []rune(lines[y])
		var sb strings.Builder
		for x, r := range row {
			if g, ok := glyphs[[2]int{x, y}]; ok {
				sb.WriteString(g)
				continue
			}
			sb.WriteRune(r)
		}
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// geoUnder returns the surface point under a map cell.
func (m Model) geoUnder(cx, cy, w, h int) (orb.Point, bool) {
	if w <= 1 || h <= 1 {
		return orb.Point{}, false
	}
	pr := newProjector(m.cam, w, h)
	return pr.geoAt(float64(cx*2)+0.5, float64(cy*4)+1.5, m.cfg.Globe.BaseRadius)
}

// nearestMarker finds the marker drawn closest to a map cell, if any is
// within a few micro-pixels.
func (m Model) nearestMarker(cx, cy, w, h int) (int, bool) {
	if m.ov == nil {
		return 0, false
	}
	pr := newProjector(m.cam, w, h)
	hx, hy := cx*2, cy*4
	best, idx := hoverPickMicro*hoverPickMicro+1, -1
	for i, mk := range m.ov.Markers {
		if !pr.visible(mk.Position) {
			continue
		}
		x, y, ok := pr.project(mk.Position)
		if !ok {
			continue
		}
		if d := (x-hx)*(x-hx) + (y-hy)*(y-hy); d < best {
			best, idx = d, i
		}
	}
	return idx, idx >= 0
}
