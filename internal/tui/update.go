package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"geoglobe/internal/camera"
	"geoglobe/internal/geom"
	"geoglobe/internal/overlay"
	"geoglobe/internal/sphere"
)

const (
	zoomFactor = 1.5
	maxRatio   = 8.0
)

// frameMsg is one tick of the host frame loop.
type frameMsg time.Time

// flyMsg asks for a flight outside a key handler, e.g. from Init.
type flyMsg struct {
	to     orb.Point
	radius float64
}

func flyCmd(to orb.Point, radius float64) tea.Cmd {
	return func() tea.Msg { return flyMsg{to: to, radius: radius} }
}

func (m Model) nextFrame() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// flyTo starts a flight and, if the frame loop is idle, wakes it up. A
// request made during a flight is dropped by the driver.
func (m *Model) flyTo(to orb.Point, radius float64) tea.Cmd {
	ok, err := m.driver.AnimateTo(to, radius)
	if err != nil {
		m.status = "flight error: " + err.Error()
		return nil
	}
	if !ok {
		m.status = "flight in progress"
		return nil
	}
	m.status = "flying to " + sphere.FormatDMS(to)
	if m.ticking {
		return nil
	}
	m.ticking = true
	return m.nextFrame()
}

// focusFeature flies to feature i of the current layer: points at incident
// radius, anything larger at country radius.
func (m *Model) focusFeature(i int) tea.Cmd {
	if m.layer == nil || m.layer.Len() == 0 {
		m.status = "no features loaded"
		return nil
	}
	i = ((i % m.layer.Len()) + m.layer.Len()) % m.layer.Len()
	f := m.layer.Features[i]
	p, ok := overlay.FocusPoint(f)
	if !ok {
		m.status = fmt.Sprintf("feature %d has no coordinates", i+1)
		return nil
	}
	m.focusIdx = i
	radius := m.cfg.Globe.CountryRadius()
	if _, isPoint := f.Geometry.(orb.Point); isPoint {
		radius = m.cfg.Globe.IncidentRadius()
	}
	return m.flyTo(p, radius)
}

// pan flies sideways by a step that grows with altitude.
func (m *Model) pan(dLon, dLat float64) tea.Cmd {
	base := m.cfg.Globe.BaseRadius
	r := m.cam.Position().Norm()
	step := math.Max(0.05, math.Min(30, (r-base)/base*20))
	g := m.cam.Geo()
	lat := math.Max(-89, math.Min(89, g.Lat()+dLat*step))
	lon := g.Lon() + dLon*step
	if lon > 180 {
		lon -= 360
	} else if lon < -180 {
		lon += 360
	}
	return m.flyTo(orb.Point{lon, lat}, r)
}

// zoom changes altitude by factor, staying between incident radius and
// maxRatio times the base radius.
func (m *Model) zoom(factor float64) tea.Cmd {
	base := m.cfg.Globe.BaseRadius
	alt := (m.cam.Position().Norm() - base) * factor
	r := base + alt
	r = math.Max(m.cfg.Globe.IncidentRadius(), math.Min(base*maxRatio, r))
	return m.flyTo(m.cam.Geo(), r)
}

// parseGoto reads "lon lat [ratio]" or "lon,lat[,ratio]". The third field
// may also be an altitude such as "350km".
func parseGoto(s string, defaultRatio float64) (orb.Point, float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	if len(fields) < 2 || len(fields) > 3 {
		return orb.Point{}, 0, fmt.Errorf("want lon lat [ratio], got %q", s)
	}
	var vals [3]float64
	vals[2] = defaultRatio
	for i, f := range fields {
		if i == 2 {
			if km, ok := strings.CutSuffix(strings.ToLower(f), "km"); ok {
				v, err := strconv.ParseFloat(km, 64)
				if err != nil || v <= 0 {
					return orb.Point{}, 0, fmt.Errorf("bad altitude %q", f)
				}
				vals[2] = 1 + sphere.KmToUnits(v, 1)
				continue
			}
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return orb.Point{}, 0, fmt.Errorf("bad number %q", f)
		}
		vals[i] = v
	}
	if vals[0] < -180 || vals[0] > 180 || vals[1] < -90 || vals[1] > 90 {
		return orb.Point{}, 0, fmt.Errorf("coordinates out of range: %g %g", vals[0], vals[1])
	}
	return orb.Point{vals[0], vals[1]}, vals[2], nil
}

func (m *Model) openInput(mode inputMode) {
	m.input = mode
	m.ta.SetValue("")
	switch mode {
	case inputPaste:
		m.ta.Placeholder = "Paste WKT here, one geometry per line. Press Enter to render; Esc to cancel."
		m.status = "paste mode"
	case inputGoto:
		m.ta.Placeholder = "lon lat [radius ratio or altitude], e.g. 36.23 49.99 1.02 or 36.23 49.99 120km. Enter to fly; Esc to cancel."
		m.status = "goto mode"
	}
	m.ta.Focus()
}

func (m *Model) closeInput() {
	m.input = inputNone
	m.ta.Blur()
}

// submitInput handles Enter in paste or goto mode.
func (m *Model) submitInput() tea.Cmd {
	v := strings.TrimSpace(m.ta.Value())
	mode := m.input
	m.closeInput()
	if v == "" {
		m.status = "input: empty"
		return nil
	}
	switch mode {
	case inputPaste:
		l, err := geom.ParseWKT(v)
		if err != nil {
			m.status = "wkt error: " + err.Error()
			return nil
		}
		return m.buildCmd(l)
	case inputGoto:
		p, ratio, err := parseGoto(v, m.cfg.Globe.CityRatio)
		if err != nil {
			m.status = "goto: " + err.Error()
			return nil
		}
		return m.flyTo(p, m.cfg.Globe.BaseRadius*ratio)
	}
	return nil
}

// inspect describes the current view and the feature nearest to it.
func (m Model) inspect() string {
	g := m.cam.Geo()
	b := m.frame.bbox.Bound()
	c := sphere.BoundCenter(b)
	meta := []string{
		fmt.Sprintf("camera: %s", sphere.FormatDMS(g)),
		fmt.Sprintf("altitude: %.3f (%.0f km)", m.cam.Altitude(),
			m.cam.Altitude()/m.cfg.Globe.BaseRadius*sphere.EarthRadiusKm),
		fmt.Sprintf("state: %s  frames: %d", m.driver.State(), m.frame.frames),
		fmt.Sprintf("view: [%.4f, %.4f, %.4f, %.4f]", b.Left(), b.Bottom(), b.Right(), b.Top()),
		fmt.Sprintf("centre: %s", sphere.FormatDMS(c)),
		sphere.MapsLink(c),
	}
	if m.layer != nil {
		best, bestKm := -1, math.Inf(1)
		for i, f := range m.layer.Features {
			p, ok := overlay.FocusPoint(f)
			if !ok {
				continue
			}
			if d := sphere.HaversineKm(g, p); d < bestKm {
				best, bestKm = i, d
			}
		}
		if best >= 0 {
			name := featureName(m.layer, best)
			meta = append(meta, fmt.Sprintf("nearest: %s  %.1f km", name, bestKm))
		}
		for i, f := range m.layer.Features {
			if outer, ok := polygonUnder(f.Geometry, g); ok {
				meta = append(meta, fmt.Sprintf("under: %s  centre %s",
					featureName(m.layer, i), sphere.FormatDMS(sphere.CenterPoint(outer))))
				break
			}
		}
	}
	return strings.Join(meta, "\n")
}

// polygonUnder returns the outer ring of the polygon of g that covers p:
// inside the outer ring and outside every hole.
func polygonUnder(g orb.Geometry, p orb.Point) (orb.Ring, bool) {
	var polys []orb.Polygon
	switch g := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{g}
	case orb.MultiPolygon:
		polys = g
	}
	for _, poly := range polys {
		if len(poly) == 0 || !sphere.RingContains(poly[0], p) {
			continue
		}
		inHole := false
		for _, hole := range poly[1:] {
			if sphere.RingContains(hole, p) {
				inHole = true
				break
			}
		}
		if !inHole {
			return poly[0], true
		}
	}
	return nil, false
}

func featureName(l *geom.Layer, i int) string {
	props := l.Features[i].Properties
	for _, k := range []string{"name", "NAME", "ADMIN", "title"} {
		if s, ok := props[k].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("#%d", i+1)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		lo := m.layout()
		// Braille micro-pixels are roughly square: 2 per cell across, 4 down.
		m.cam.SetAspect(float64(lo.mapW*2) / float64(lo.mapH*4))
		if m.showSidebar {
			m.l.SetSize(sidebarWidth-2, lo.contentH-2)
		}
	case frameMsg:
		if m.driver.Step() {
			return m, m.nextFrame()
		}
		m.ticking = false
		if m.driver.State() == camera.Idle {
			m.status = fmt.Sprintf("arrived at %s", sphere.FormatDMS(m.cam.Geo()))
		}
		return m, nil
	case flyMsg:
		return m, m.flyTo(msg.to, msg.radius)
	case loadedMsg:
		return m, m.applyLoaded(msg)
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.input != inputNone {
			switch msg.String() {
			case "esc":
				m.closeInput()
				m.status = "view mode"
				return m, nil
			case "enter":
				return m, m.submitInput()
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		if m.showAttrs {
			switch msg.String() {
			case "a", "esc":
				m.showAttrs = false
				return m, nil
			case "ctrl+c", "q":
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "1":
			m.showMarkers = !m.showMarkers
			m.status = fmt.Sprintf("markers: %v", m.showMarkers)
		case "2":
			m.showBorders = !m.showBorders
			m.status = fmt.Sprintf("borders: %v", m.showBorders)
		case "3":
			m.showFills = !m.showFills
			m.status = fmt.Sprintf("fills: %v", m.showFills)
		case "r":
			m.showGraticule = !m.showGraticule
			m.status = fmt.Sprintf("graticule: %v", m.showGraticule)
		case "l":
			// toggle all layers
			all := m.showMarkers && m.showBorders && m.showFills
			m.showMarkers, m.showBorders, m.showFills = !all, !all, !all
			m.status = fmt.Sprintf("layers: markers=%v borders=%v fills=%v", m.showMarkers, m.showBorders, m.showFills)
		case "+", "=":
			return m, m.zoom(1 / zoomFactor)
		case "-", "_":
			return m, m.zoom(zoomFactor)
		case "up":
			return m, m.pan(0, 1)
		case "down":
			return m, m.pan(0, -1)
		case "left":
			return m, m.pan(-1, 0)
		case "right":
			return m, m.pan(1, 0)
		case "c":
			return m, m.flyTo(m.home(), m.cfg.Globe.CityRadius())
		case "o":
			return m, m.flyTo(m.home(), m.cfg.Globe.CountryRadius())
		case "m":
			// Jump without animation; ignored during a flight like any request.
			if m.driver.State() == camera.InFlight {
				m.status = "flight in progress"
				break
			}
			m.cam.MoveTo(m.home(), m.cfg.Globe.CountryRadius())
			m.status = "moved to home"
		case "n":
			return m, m.focusFeature(m.focusIdx + 1)
		case "N":
			return m, m.focusFeature(m.focusIdx - 1)
		case "g":
			m.openInput(inputGoto)
		case "p":
			m.openInput(inputPaste)
		case "tab":
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
				m.l.SetSize(sidebarWidth-2, m.layout().contentH-2)
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = true
			m.refreshAttrs()
		case "i":
			if m.inspectPopup != "" {
				m.inspectPopup = ""
				break
			}
			m.inspectPopup = m.inspect()
			m.status = "inspect popup"
		case "enter":
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					m.status = "loading " + it.title
					return m, m.loadCmd(it.path)
				}
			}
		}
	case tea.MouseMsg:
		lo := m.layout()
		cx, cy := msg.X-lo.mapX, msg.Y-lo.mapY
		if cx >= 0 && cx < lo.mapW && cy >= 0 && cy < lo.mapH {
			m.hovering = true
			m.hoverCellX, m.hoverCellY = cx, cy
			m.hoverGeo, m.hoverHasGeo = m.geoUnder(cx, cy, lo.mapW, lo.mapH)
			m.hoverMarker = -1
			if i, ok := m.nearestMarker(cx, cy, lo.mapW, lo.mapH); ok {
				m.hoverMarker = i
			}
		} else {
			m.hovering = false
			m.hoverHasGeo = false
		}
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}
