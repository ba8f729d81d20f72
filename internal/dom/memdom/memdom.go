// Package memdom is an in-memory dom.Document. It lays out absolutely
// positioned elements from their inline left/top/transform the way a browser
// would, which is enough for the logo widgets, and records canvas drawing.
// Tests and the terminal preview use it instead of a browser.
package memdom

import (
	"regexp"
	"strconv"
	"strings"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// Viewport is a fixed set of window measurements.
type Viewport struct {
	InnerWidth float64
	FontSize   float64
	PixelRatio float64
}

func (v *Viewport) Width() float64            { return v.InnerWidth }
func (v *Viewport) RootFontSize() float64     { return v.FontSize }
func (v *Viewport) DevicePixelRatio() float64 { return v.PixelRatio }

// Document is the root of an in-memory tree.
type Document struct {
	root     *Element
	viewport *Viewport

	elementHandlers  map[*Element]map[string][]dom.Handler
	documentHandlers map[string][]dom.Handler
	windowHandlers   map[string][]dom.Handler
	canvases         map[*Element]*Canvas
}

// New returns an empty document with an <html> root.
func New(vp Viewport) *Document {
	if vp.FontSize == 0 {
		vp.FontSize = 16
	}
	if vp.PixelRatio == 0 {
		vp.PixelRatio = 1
	}
	d := &Document{
		viewport:         &vp,
		elementHandlers:  make(map[*Element]map[string][]dom.Handler),
		documentHandlers: make(map[string][]dom.Handler),
		windowHandlers:   make(map[string][]dom.Handler),
		canvases:         make(map[*Element]*Canvas),
	}
	d.root = &Element{Tag: "html", doc: d}
	return d
}

// Root returns the <html> element.
func (d *Document) Root() *Element { return d.root }

// Viewport implements dom.Document.
func (d *Document) Viewport() dom.Viewport { return d.viewport }

// SetViewport replaces the window measurements, e.g. before a resize event.
func (d *Document) SetViewport(vp Viewport) {
	if vp.FontSize == 0 {
		vp.FontSize = d.viewport.FontSize
	}
	if vp.PixelRatio == 0 {
		vp.PixelRatio = d.viewport.PixelRatio
	}
	*d.viewport = vp
}

// Append adds children to the root and returns the first one.
func (d *Document) Append(children ...*Element) *Element {
	return d.root.Append(children...)
}

func (d *Document) QuerySelector(selector string) (dom.Element, bool) {
	return d.root.QuerySelector(selector)
}

func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	return d.root.QuerySelectorAll(selector)
}

// Find is QuerySelector returning the concrete type; nil if absent.
func (d *Document) Find(selector string) *Element {
	el, ok := d.root.QuerySelector(selector)
	if !ok {
		return nil
	}
	return el.(*Element)
}

// Element is a node of the in-memory tree.
type Element struct {
	Tag     string
	ID      string
	Classes []string

	attrs    map[string]string
	styles   map[string]string
	computed map[string]string
	rect     geometry.Rect
	hidden   bool
	disabled bool
	text     string

	parent   *Element
	children []*Element
	doc      *Document
}

// El builds a detached element from a compound selector like "div.logo#main".
func El(sel string) *Element {
	c := parseCompound(sel)
	tag := c.tag
	if tag == "" {
		tag = "div"
	}
	return &Element{Tag: tag, ID: c.id, Classes: c.classes}
}

// Append attaches children and returns the first one.
func (e *Element) Append(children ...*Element) *Element {
	for _, c := range children {
		c.parent = e
		c.adopt(e.doc)
		e.children = append(e.children, c)
	}
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func (e *Element) adopt(d *Document) {
	e.doc = d
	for _, c := range e.children {
		c.adopt(d)
	}
}

// With adds children and returns e, for building trees inline.
func (e *Element) With(children ...*Element) *Element {
	e.Append(children...)
	return e
}

// WithRect sets the static layout box.
func (e *Element) WithRect(r geometry.Rect) *Element {
	e.rect = r
	return e
}

// WithComputed sets a computed style value.
func (e *Element) WithComputed(prop, value string) *Element {
	if e.computed == nil {
		e.computed = make(map[string]string)
	}
	e.computed[prop] = value
	return e
}

// WithAttr sets an attribute.
func (e *Element) WithAttr(name, value string) *Element {
	e.SetAttr(name, value)
	return e
}

// WithHidden sets the hidden flag.
func (e *Element) WithHidden(hidden bool) *Element {
	e.hidden = hidden
	return e
}

// HasClass reports whether cls is in the class list.
func (e *Element) HasClass(cls string) bool {
	for _, c := range e.Classes {
		if c == cls {
			return true
		}
	}
	return false
}

// Parent returns the parent element, nil for the root.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child elements.
func (e *Element) Children() []*Element { return e.children }

func (e *Element) QuerySelector(selector string) (dom.Element, bool) {
	sels := parseSelectorList(selector)
	var found *Element
	e.walk(func(n *Element) bool {
		for _, s := range sels {
			if s.matches(n) {
				found = n
				return false
			}
		}
		return true
	})
	if found == nil {
		return nil, false
	}
	return found, true
}

func (e *Element) QuerySelectorAll(selector string) []dom.Element {
	sels := parseSelectorList(selector)
	var out []dom.Element
	e.walk(func(n *Element) bool {
		for _, s := range sels {
			if s.matches(n) {
				out = append(out, n)
				break
			}
		}
		return true
	})
	return out
}

// walk visits descendants in document order until fn returns false.
func (e *Element) walk(fn func(*Element) bool) bool {
	for _, c := range e.children {
		if !fn(c) || !c.walk(fn) {
			return false
		}
	}
	return true
}

var scaleRe = regexp.MustCompile(`scale\(\s*([-0-9.eE+]+)\s*\)`)

// Rect lays the element out: the static box, moved by inline left/top
// (px or rem), scaled about its center by an inline transform scale().
func (e *Element) Rect() geometry.Rect {
	r := e.rect
	if v, ok := e.lengthStyle("left"); ok {
		r.Left = v
	}
	if v, ok := e.lengthStyle("top"); ok {
		r.Top = v
	}
	if m := scaleRe.FindStringSubmatch(e.styles["transform"]); m != nil {
		if s, err := strconv.ParseFloat(m[1], 64); err == nil {
			c := r.Center()
			r.Width *= s
			r.Height *= s
			r.Left = c.X - r.Width/2
			r.Top = c.Y - r.Height/2
		}
	}
	return r
}

func (e *Element) lengthStyle(prop string) (float64, bool) {
	v, ok := e.styles[prop]
	if !ok {
		return 0, false
	}
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "rem") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "rem"), 64)
		if err != nil {
			return 0, false
		}
		font := 16.0
		if e.doc != nil {
			font = e.doc.viewport.FontSize
		}
		return f * font, true
	}
	f, err := dom.ParsePx(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ComputedStyle returns the inline value when set, else the seeded computed
// value.
func (e *Element) ComputedStyle(prop string) string {
	if v, ok := e.styles[prop]; ok {
		return v
	}
	return e.computed[prop]
}

func (e *Element) SetStyle(prop, value string) {
	if e.styles == nil {
		e.styles = make(map[string]string)
	}
	e.styles[prop] = value
}

// Style returns the inline style value written for prop.
func (e *Element) Style(prop string) string { return e.styles[prop] }

func (e *Element) Hidden() bool          { return e.hidden }
func (e *Element) SetHidden(hidden bool) { e.hidden = hidden }

// Disabled reports the state set through SetDisabled.
func (e *Element) Disabled() bool            { return e.disabled }
func (e *Element) SetDisabled(disabled bool) { e.disabled = disabled }

// Text returns the text set through SetText.
func (e *Element) Text() string        { return e.text }
func (e *Element) SetText(text string) { e.text = text }

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) SetAttr(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}
