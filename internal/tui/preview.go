package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"shadowsite/internal/dom"
	"shadowsite/internal/dom/memdom"
	"shadowsite/internal/geometry"
	"shadowsite/internal/scene"
)

// A terminal cell stands for cellW x cellH page pixels.
const (
	cellW = 8.0
	cellH = 16.0

	logoTop  = 48.0
	logoSize = 64.0

	minCols = 40
	minRows = 16

	// Rows above the scene (title) and below it (status, help).
	headerRows = 1
	footerRows = 2

	keyStep = 2 * cellW
)

// PreviewConfig configures the logo preview. Zero fields take defaults.
type PreviewConfig struct {
	Geometry geometry.Config
	// Now is the clock the initial position is read from.
	Now    func() time.Time
	Styles *Styles
	Logger *zap.Logger
	// Width and Height are the initial terminal size in cells.
	Width, Height int
}

// page holds the in-memory elements the controller works on.
type page struct {
	doc       *memdom.Document
	logo      *memdom.Element
	thoughts  *memdom.Element
	thought   *memdom.Element
	crumbs    *memdom.Element
	snake     *memdom.Element
	canvas    *memdom.Element
	logoImage *memdom.Element
}

func newPage(width, height float64) *page {
	p := &page{doc: memdom.New(memdom.Viewport{InnerWidth: width})}
	p.logoImage = memdom.El("img.logo-image").
		WithRect(geometry.Rect{Left: 16, Top: logoTop, Width: logoSize, Height: logoSize})
	p.logo = memdom.El("div.logo").
		WithRect(geometry.Rect{Left: 16, Top: logoTop, Width: logoSize, Height: logoSize}).
		WithComputed("top", dom.FormatNumber(logoTop)+"px").
		With(p.logoImage)
	p.thought = memdom.El("div.thought")
	p.thoughts = memdom.El("section.thoughts-section").With(p.thought)
	p.crumbs = memdom.El("nav.breadcrumbs-section")
	p.snake = memdom.El("div.snake-separator")
	p.canvas = memdom.El("canvas#pathCanvas")
	p.doc.Append(p.canvas, p.logo, p.thoughts, p.crumbs, p.snake)
	p.layout(width, height)
	return p
}

// layout places the sections for a page of width x height px.
func (p *page) layout(width, height float64) {
	p.doc.SetViewport(memdom.Viewport{InnerWidth: width})
	top := math.Max(height*0.55, logoTop+logoSize+2*cellH)
	h := math.Max(height-top-3*cellH, 2*cellH)
	p.thoughts.WithRect(geometry.Rect{Left: width * 0.06, Top: top, Width: width * 0.4, Height: h})
	p.thought.WithRect(geometry.Rect{Left: width*0.06 + cellW, Top: top + cellH, Width: width*0.4 - 2*cellW, Height: h - 2*cellH})
	p.crumbs.WithRect(geometry.Rect{Left: width * 0.54, Top: top, Width: width * 0.4, Height: h})
	p.snake.WithRect(geometry.Rect{Left: 0, Top: height - cellH, Width: width, Height: cellH})
	p.canvas.WithRect(geometry.Rect{Left: 0, Top: 0, Width: width, Height: height})
}

// PreviewModel shows the logo on its path with the shadows it casts, and
// lets the mouse drag it.
type PreviewModel struct {
	page   *page
	ctrl   *scene.Controller
	now    func() time.Time
	styles Styles
	keys   keyMap
	help   help.Model

	cols, rows int
	err        error
}

// NewPreview builds the page for the configured size and starts the
// controller at the current time of day.
func NewPreview(cfg PreviewConfig) (PreviewModel, error) {
	m := PreviewModel{
		now:    cfg.Now,
		styles: DefaultStyles(),
		keys:   newKeyMap(true),
		help:   help.New(),
		cols:   max(cfg.Width, minCols),
		rows:   max(cfg.Height, minRows),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if cfg.Styles != nil {
		m.styles = *cfg.Styles
	}
	geo := cfg.Geometry
	if geo.Magnitudes == nil {
		geo = geometry.DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	w, h := m.scenePx()
	m.page = newPage(w, h)
	ctrl, err := scene.New(m.page.doc, scene.WithGeometry(geo), scene.WithLogger(log))
	if err != nil {
		return PreviewModel{}, err
	}
	if err := ctrl.Start(m.now()); err != nil {
		return PreviewModel{}, err
	}
	m.ctrl = ctrl
	m.help.Width = m.cols
	return m, nil
}

func (m PreviewModel) scenePx() (float64, float64) {
	return float64(m.cols) * cellW, float64(m.rows-headerRows-footerRows) * cellH
}

// Controller exposes the running controller.
func (m PreviewModel) Controller() *scene.Controller { return m.ctrl }

// LogoRect is the logo's laid out box, px.
func (m PreviewModel) LogoRect() geometry.Rect { return m.page.logo.Rect() }

// CellPx converts a terminal cell to the page pixel at its center.
func CellPx(x, y int) geometry.Point {
	return geometry.Point{
		X: float64(x)*cellW + cellW/2,
		Y: float64(y-headerRows)*cellH + cellH/2,
	}
}

// PxCell converts a page pixel to its terminal cell.
func PxCell(p geometry.Point) (x, y int) {
	return int(math.Floor(p.X / cellW)), int(math.Floor(p.Y/cellH)) + headerRows
}

func contains(r geometry.Rect, p geometry.Point) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

func (m PreviewModel) Init() tea.Cmd { return nil }

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.cols = max(msg.Width, minCols)
		m.rows = max(msg.Height, minRows)
		m.help.Width = m.cols
		m.page.layout(m.scenePx())
		m.err = m.ctrl.Resize()

	case tea.MouseMsg:
		p := CellPx(msg.X, msg.Y)
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft && contains(m.LogoRect(), p) {
				m.ctrl.PointerDown(scene.Pointer{X: p.X, Y: p.Y})
			}
		case tea.MouseActionMotion:
			m.ctrl.PointerMove(scene.Pointer{X: p.X, Y: p.Y})
		case tea.MouseActionRelease:
			m.ctrl.PointerUp()
		}

	case tea.KeyMsg:
		x, _ := m.ctrl.Position()
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Prev):
			m.ctrl.MoveTo(x - keyStep)
		case key.Matches(msg, m.keys.Next):
			m.ctrl.MoveTo(x + keyStep)
		case key.Matches(msg, m.keys.Reset):
			m.err = m.ctrl.Start(m.now())
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

type layer uint8

const (
	layerBlank layer = iota
	layerPath
	layerShadow
	layerSection
	layerLogo
)

type grid struct {
	cols, rows int
	runes      [][]rune
	layers     [][]layer
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: cols, rows: rows}
	g.runes = make([][]rune, rows)
	g.layers = make([][]layer, rows)
	for i := range g.runes {
		g.runes[i] = []rune(strings.Repeat(" ", cols))
		g.layers[i] = make([]layer, cols)
	}
	return g
}

func (g *grid) set(x, y int, r rune, l layer) {
	if x < 0 || y < 0 || x >= g.cols || y >= g.rows {
		return
	}
	g.runes[y][x] = r
	g.layers[y][x] = l
}

// span converts a px box to the inclusive cell range it covers.
func span(r geometry.Rect) (x0, y0, x1, y1 int) {
	x0 = int(math.Floor(r.Left / cellW))
	y0 = int(math.Floor(r.Top / cellH))
	x1 = int(math.Ceil((r.Left+r.Width)/cellW)) - 1
	y1 = int(math.Ceil((r.Top+r.Height)/cellH)) - 1
	return
}

func (g *grid) fill(r geometry.Rect, ch rune, l layer) {
	x0, y0, x1, y1 := span(r)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			g.set(x, y, ch, l)
		}
	}
}

func (g *grid) box(r geometry.Rect, label string) {
	x0, y0, x1, y1 := span(r)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			ch := ' '
			switch {
			case y == y0 && x == x0:
				ch = '┌'
			case y == y0 && x == x1:
				ch = '┐'
			case y == y1 && x == x0:
				ch = '└'
			case y == y1 && x == x1:
				ch = '┘'
			case y == y0 || y == y1:
				ch = '─'
			case x == x0 || x == x1:
				ch = '│'
			}
			g.set(x, y, ch, layerSection)
		}
	}
	for i, ch := range []rune(label) {
		if x0+2+i >= x1 {
			break
		}
		g.set(x0+2+i, y0+1, ch, layerSection)
	}
}

func shift(r geometry.Rect, dx, dy float64) geometry.Rect {
	r.Left += dx
	r.Top += dy
	return r
}

func label(t scene.Target) string {
	return strings.TrimSuffix(strings.TrimPrefix(t.Selector, "."), "-section")
}

func (m PreviewModel) paint() *grid {
	g := newGrid(m.cols, m.rows-headerRows-footerRows)

	if cv := m.page.doc.CanvasFor(m.page.canvas); cv != nil {
		for _, stroke := range cv.Strokes {
			for i, p := range stroke {
				// Every fourth sample keeps the dashes visible.
				if i%4 != 0 {
					continue
				}
				x, y := PxCell(p)
				g.set(x, y-headerRows, '·', layerPath)
			}
		}
	}

	casts := m.ctrl.Shadows()
	for _, cast := range casts {
		r := cast.Target.El.Rect()
		v := cast.Vector
		if cast.Target.Kind == geometry.KindDecorative {
			g.fill(shift(r, v.X, v.Y), '░', layerShadow)
			continue
		}
		g.fill(shift(r, v.X/2, v.Y/2), '░', layerShadow)
	}
	for _, cast := range casts {
		r := cast.Target.El.Rect()
		v := cast.Vector
		if cast.Target.Kind == geometry.KindDecorative {
			g.fill(r, '≈', layerSection)
			continue
		}
		g.box(shift(r, -v.X/2, -v.Y/2), label(cast.Target))
	}

	g.fill(m.LogoRect(), '▓', layerLogo)
	return g
}

func (m PreviewModel) styleOf(l layer) lipgloss.Style {
	switch l {
	case layerPath:
		return m.styles.Path
	case layerShadow:
		return m.styles.Shadow
	case layerSection:
		return m.styles.Section
	case layerLogo:
		return m.styles.Logo
	}
	return lipgloss.NewStyle()
}

// render joins each row's runs of equal layer into styled strings.
func (m PreviewModel) render(g *grid) string {
	var sb strings.Builder
	for y := 0; y < g.rows; y++ {
		start := 0
		for x := 1; x <= g.cols; x++ {
			if x < g.cols && g.layers[y][x] == g.layers[y][start] {
				continue
			}
			sb.WriteString(m.styleOf(g.layers[y][start]).Render(string(g.runes[y][start:x])))
			start = x
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Status is the one-line position summary.
func (m PreviewModel) Status() string {
	x, pos := m.ctrl.Position()
	return fmt.Sprintf("x %.1fpx  y %.2frem  scale %.2f  %s", x, pos.Y, pos.Scale, m.ctrl.State())
}

func (m PreviewModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("Logo preview"))
	sb.WriteString("\n")
	sb.WriteString(m.render(m.paint()))
	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(" " + m.err.Error()))
	} else {
		sb.WriteString(m.styles.Muted.Render(" " + m.Status()))
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return sb.String()
}
