package tui

import (
	"log/slog"
	"os"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/paulmach/orb"

	"geoglobe/internal/camera"
	"geoglobe/internal/config"
	"geoglobe/internal/geom"
	"geoglobe/internal/overlay"
	"geoglobe/internal/sphere"
)

type inputMode int

const (
	inputNone inputMode = iota
	inputPaste
	inputGoto
)

// frameState is written by the camera observer. It lives behind a pointer
// so every copy of the Model sees the same values.
type frameState struct {
	frames int
	bbox   camera.BoundingBox
}

type Model struct {
	cfg    *config.Config
	logger *slog.Logger

	cam           *camera.Camera
	driver        *camera.Driver
	frame         *frameState
	frameInterval time.Duration
	ticking       bool

	width  int
	height int

	showSidebar bool
	helpVisible bool

	status string

	// File explorer
	cwd     string
	l       list.Model
	items   []list.Item
	selPath string

	// Data
	layer    *geom.Layer
	ov       *overlay.Overlay
	focusIdx int

	// paste / goto input
	input inputMode
	ta    textarea.Model

	// layer visibility
	showMarkers   bool
	showBorders   bool
	showFills     bool
	showGraticule bool

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverHasGeo bool
	hoverGeo    orb.Point
	hoverMarker int

	// attributes table
	showAttrs bool
	tbl       table.Model
}

// New builds the viewer with the camera parked above the home centre.
func New(cfg *config.Config, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	home := orb.Point{cfg.Globe.CenterLon, cfg.Globe.CenterLat}
	cam := camera.New(cfg.Params(), sphere.Project(home, cfg.Globe.StartRadius()))
	fs := &frameState{bbox: cam.BBox()}
	cam.SetObserver(camera.ObserverFuncs{
		Frame: func() { fs.frames++ },
		BBox:  func(b camera.BoundingBox) { fs.bbox = b },
	})

	m := Model{
		cfg:           cfg,
		logger:        logger,
		cam:           cam,
		driver:        camera.NewDriver(cam, logger),
		frame:         fs,
		frameInterval: time.Second / time.Duration(cfg.Flight.FrameRate),
		helpVisible:   true,
		status:        "geoglobe ready",
		showMarkers:   true,
		showBorders:   true,
		showFills:     true,
		showGraticule: true,
		hoverMarker:   -1,
	}
	m.cwd, _ = os.Getwd()
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Files"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// attributes table setup (columns are inferred per layer)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithPath preloads a file at launch.
func NewWithPath(cfg *config.Config, logger *slog.Logger, path string) Model {
	m := New(cfg, logger)
	m.selPath = path
	return m
}

// Init flies from the start altitude down to the home view, then loads the
// preselected file, if any.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{flyCmd(m.home(), m.cfg.Globe.CountryRadius())}
	if m.selPath != "" {
		cmds = append(cmds, m.loadCmd(m.selPath))
	}
	return tea.Batch(cmds...)
}

func (m Model) home() orb.Point {
	return orb.Point{m.cfg.Globe.CenterLon, m.cfg.Globe.CenterLat}
}
