package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"shadowsite/internal/carousel"
	"shadowsite/internal/thoughts"
)

const defaultWrap = 80

// ReaderModel pages through the thoughts one at a time, newest first.
type ReaderModel struct {
	thoughts []thoughts.Thought
	pager    *carousel.Pager
	loc      *time.Location

	styles      Styles
	glamourName string
	renderer    *glamour.TermRenderer
	// rendered caches glamour output per thought for the current width.
	rendered map[int]string

	keys keyMap
	help help.Model

	width  int
	height int
}

// ReaderOption configures a ReaderModel.
type ReaderOption func(*ReaderModel)

// WithStyles replaces DefaultStyles.
func WithStyles(s Styles) ReaderOption { return func(m *ReaderModel) { m.styles = s } }

// WithLocation sets the zone dates are shown in.
func WithLocation(loc *time.Location) ReaderOption {
	return func(m *ReaderModel) { m.loc = loc }
}

// WithGlamourStyle overrides the glamour style derived from the theme,
// e.g. "notty" for plain output.
func WithGlamourStyle(name string) ReaderOption {
	return func(m *ReaderModel) { m.glamourName = name }
}

// NewReader creates a reader over ts, which are expected newest first.
func NewReader(ts []thoughts.Thought, opts ...ReaderOption) ReaderModel {
	m := ReaderModel{
		thoughts: ts,
		pager:    carousel.NewPager(len(ts)),
		loc:      time.Local,
		styles:   DefaultStyles(),
		keys:     newKeyMap(false),
		help:     help.New(),
		width:    defaultWrap,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.glamourName == "" {
		m.glamourName = m.styles.Theme.GlamourStyle()
	}
	m.setWidth(m.width)
	return m
}

func (m *ReaderModel) setWidth(w int) {
	m.width = w
	m.help.Width = w
	m.rendered = make(map[int]string, len(m.thoughts))
	wrap := w - 4
	if wrap < 20 {
		wrap = 20
	}
	// A failed renderer falls back to the raw Markdown.
	m.renderer, _ = glamour.NewTermRenderer(
		glamour.WithStylePath(m.glamourName),
		glamour.WithWordWrap(wrap),
	)
}

// Index is the thought on screen.
func (m ReaderModel) Index() int { return m.pager.Index() }

func (m ReaderModel) Init() tea.Cmd { return nil }

func (m ReaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.setWidth(msg.Width)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			m.pager.Next()
		case key.Matches(msg, m.keys.Prev):
			m.pager.Previous()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m ReaderModel) content(i int) string {
	if s, ok := m.rendered[i]; ok {
		return s
	}
	src := m.thoughts[i].Content
	out := src
	if m.renderer != nil {
		if r, err := m.renderer.Render(src); err == nil {
			out = strings.Trim(r, "\n")
		}
	}
	m.rendered[i] = out
	return out
}

func (m ReaderModel) View() string {
	var sb strings.Builder
	if m.pager.Len() == 0 {
		sb.WriteString(m.styles.Header.Render("Thoughts"))
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.Muted.Render("  No thoughts yet."))
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
		return sb.String()
	}

	i := m.pager.Index()
	t := m.thoughts[i]
	sb.WriteString(m.styles.Header.Render(fmt.Sprintf("Thoughts %d/%d", i+1, m.pager.Len())))
	sb.WriteString("  ")
	sb.WriteString(m.styles.Date.Render(carousel.FormatDate(t.Date.In(m.loc))))
	sb.WriteString("\n")
	sb.WriteString(m.styles.RenderDivider(m.width))
	sb.WriteString("\n")
	sb.WriteString(m.content(i))
	sb.WriteString("\n")
	sb.WriteString(m.styles.RenderDivider(m.width))
	sb.WriteString("\n")

	var nav []string
	if m.pager.CanPrevious() {
		nav = append(nav, "← newer")
	}
	if m.pager.CanNext() {
		nav = append(nav, "older →")
	}
	if len(nav) > 0 {
		sb.WriteString(m.styles.Muted.Render(" " + strings.Join(nav, "   ")))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Footer.Render(m.help.View(m.keys)))
	return sb.String()
}
