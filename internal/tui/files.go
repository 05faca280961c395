package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"geoglobe/internal/geom"
	"geoglobe/internal/overlay"
)

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// loadedMsg carries a layer and its overlay built off the UI goroutine.
type loadedMsg struct {
	path  string
	layer *geom.Layer
	ov    *overlay.Overlay
	err   error
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !geom.Supported(name) {
			continue
		}
		items = append(items, fileItem{
			title: name,
			desc:  strings.ToLower(filepath.Ext(name)),
			path:  filepath.Join(m.cwd, name),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no supported files in current directory"
	}
}

func (m Model) radii() overlay.Radii {
	g := m.cfg.Globe
	return overlay.Radii{
		Border: g.CountryRadius(),
		Marker: g.CityRadius(),
		Fill:   g.CountryRadius(),
	}
}

// loadCmd reads path and builds its overlay.
func (m Model) loadCmd(path string) tea.Cmd {
	radii, logger := m.radii(), m.logger
	return func() tea.Msg {
		l, err := geom.Load(path)
		if err != nil {
			return loadedMsg{path: path, err: err}
		}
		ov, err := overlay.Build(context.Background(), l, radii, logger)
		return loadedMsg{path: path, layer: l, ov: ov, err: err}
	}
}

// buildCmd builds the overlay of an already parsed layer, such as pasted WKT.
func (m Model) buildCmd(l *geom.Layer) tea.Cmd {
	radii, logger := m.radii(), m.logger
	return func() tea.Msg {
		ov, err := overlay.Build(context.Background(), l, radii, logger)
		return loadedMsg{layer: l, ov: ov, err: err}
	}
}

// applyLoaded swaps in a new layer and flies to its first feature.
func (m *Model) applyLoaded(msg loadedMsg) tea.Cmd {
	if msg.err != nil {
		m.status = "load error: " + msg.err.Error()
		m.logger.Warn("load failed", "path", msg.path, "err", msg.err)
		return nil
	}
	m.selPath = msg.path
	m.layer, m.ov = msg.layer, msg.ov
	m.focusIdx = 0
	m.inspectPopup = ""
	pts, ls, polys := m.layer.Counts()
	m.status = fmt.Sprintf("loaded: %s  counts: pts=%d ls=%d poly=%d  triangles=%d",
		m.layer.Name, pts, ls, polys, m.ov.Triangles())
	if m.ov.Skipped > 0 {
		m.status += fmt.Sprintf("  skipped=%d", m.ov.Skipped)
	}
	m.logger.Info("layer loaded", "name", m.layer.Name, "features", m.layer.Len())

	// If attributes are currently shown, rebuild them for the new layer
	if m.showAttrs {
		m.refreshAttrs()
	}
	return m.focusFeature(0)
}
