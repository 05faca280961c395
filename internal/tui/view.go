package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"geoglobe/internal/camera"
	"geoglobe/internal/sphere"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	footerHeight = 2
)

// layout is the screen geometry shared by View and mouse handling.
type layout struct {
	contentW, contentH int
	mapX, mapY         int
	mapW, mapH         int
}

func (m Model) layout() layout {
	lo := layout{
		contentW: max(10, m.width),
		contentH: max(4, m.height-headerHeight-footerHeight),
		mapY:     headerHeight,
	}
	sw := 0
	if m.showSidebar {
		sw = sidebarWidth
		lo.mapX = sidebarWidth + 1
	}
	lo.mapW = max(10, lo.contentW-sw-1)
	lo.mapH = lo.contentH
	return lo
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	lo := m.layout()

	// Header
	title := " geoglobe ─ terminal globe "
	if m.driver.State() == camera.InFlight {
		title += flightStyle.Render(fmt.Sprintf("✈ %d waypoint(s) ", m.driver.Plan().Len()))
	}
	header := lipgloss.NewStyle().Width(lo.contentW).Padding(0).Render(titleStyle.Render(title))

	// Sidebar
	var sidebar string
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, lo.contentH-2)
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	var mapView string
	switch {
	case m.showAttrs:
		// infer a reasonable width from columns
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, lo.contentW-6)
		}
		maxW := min(lo.mapW, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(lo.mapH-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(lo.mapW, lo.mapH, lipgloss.Center, lipgloss.Center, attrsBox)
	case m.input != inputNone:
		m.ta.SetWidth(lo.mapW)
		m.ta.SetHeight(min(lo.mapH, 12))
		mapView = lipgloss.NewStyle().Width(lo.mapW).Height(lo.mapH).Render(m.ta.View())
	default:
		mapView = lipgloss.NewStyle().Width(lo.mapW).Height(lo.mapH).Render(m.renderGlobe(lo.mapW, lo.mapH))
	}

	// Inspect popup (center-left overlay, not in map column)
	popup := ""
	if m.inspectPopup != "" && !m.showAttrs {
		maxPopupW := max(20, min(56, lo.contentW/2))
		box := boxStyle.MaxWidth(maxPopupW).Render(m.inspectPopup)
		popup = lipgloss.Place(lo.contentW, lo.contentH, lipgloss.Left, lipgloss.Center, box)
	}

	var body string
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	} else {
		body = mapView
	}

	// Footer
	status := dimStyle.Render(" " + m.status + " ")
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, m.renderHelp())
	right := dimStyle.Render(m.footerCoords())
	spacerW := max(0, lo.contentW-lipgloss.Width(left)-lipgloss.Width(right))
	rightBox := lipgloss.Place(spacerW+lipgloss.Width(right), 1, lipgloss.Right, lipgloss.Center, right)
	footer := lipgloss.NewStyle().Width(lo.contentW).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, rightBox))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, footer)
	return appStyle.Width(lo.contentW).Height(m.height).Render(ui)
}

// footerCoords shows the hovered point, or the camera position when the
// mouse is off the globe.
func (m Model) footerCoords() string {
	if m.hoverHasGeo {
		s := fmt.Sprintf("  lon=%.5f lat=%.5f", m.hoverGeo.Lon(), m.hoverGeo.Lat())
		if m.hoverMarker >= 0 && m.layer != nil && m.ov != nil {
			s += "  " + featureName(m.layer, m.ov.Markers[m.hoverMarker].Feature)
		}
		return s + "  "
	}
	g := m.cam.Geo()
	return fmt.Sprintf("  %s  alt=%.2f  ", sphere.FormatDMS(g), m.cam.Altitude())
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ fly",
		"+/- zoom",
		"c/o home",
		"g goto",
		"n next",
		"Tab files",
		"p paste",
		"a attrs",
		"i inspect",
		"1/2/3 layers",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
