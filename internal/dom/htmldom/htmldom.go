// Package htmldom adapts a parsed static HTML page to dom.Document. There
// is no layout: every Rect is zero and computed styles come from the inline
// style attribute. The builder uses it to check rendered pages against the
// widget contract and to bake the widgets' initial state into the output.
package htmldom

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// Viewport is a fixed set of window measurements.
type Viewport struct {
	InnerWidth float64
	FontSize   float64
	PixelRatio float64
}

func (v Viewport) Width() float64            { return v.InnerWidth }
func (v Viewport) RootFontSize() float64     { return v.FontSize }
func (v Viewport) DevicePixelRatio() float64 { return v.PixelRatio }

// DefaultViewport is a desktop window with browser default font size.
var DefaultViewport = Viewport{InnerWidth: 1024, FontSize: 16, PixelRatio: 1}

// Document wraps a goquery document.
type Document struct {
	doc *goquery.Document
	vp  Viewport
}

// Parse reads an HTML page.
func Parse(r io.Reader, vp Viewport) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("htmldom: %w", err)
	}
	return FromGoquery(doc, vp), nil
}

// FromGoquery wraps an already parsed document.
func FromGoquery(doc *goquery.Document, vp Viewport) *Document {
	return &Document{doc: doc, vp: vp}
}

// Goquery returns the underlying document.
func (d *Document) Goquery() *goquery.Document { return d.doc }

func (d *Document) Viewport() dom.Viewport { return d.vp }

func (d *Document) QuerySelector(selector string) (dom.Element, bool) {
	return first(d.doc.Find(selector))
}

func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	return all(d.doc.Find(selector))
}

// Render serializes the document, doctype included.
func (d *Document) Render(w io.Writer) error {
	for _, n := range d.doc.Nodes {
		if err := html.Render(w, n); err != nil {
			return fmt.Errorf("htmldom: render: %w", err)
		}
	}
	return nil
}

func first(sel *goquery.Selection) (dom.Element, bool) {
	if sel.Length() == 0 {
		return nil, false
	}
	return &Element{sel: sel.First()}, true
}

func all(sel *goquery.Selection) []dom.Element {
	out := make([]dom.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out
}

// Element is a single matched node.
type Element struct {
	sel *goquery.Selection
}

// Selection returns the node as a goquery selection.
func (e *Element) Selection() *goquery.Selection { return e.sel }

func (e *Element) QuerySelector(selector string) (dom.Element, bool) {
	return first(e.sel.Find(selector))
}

func (e *Element) QuerySelectorAll(selector string) []dom.Element {
	return all(e.sel.Find(selector))
}

// Rect is always zero; static HTML has no layout.
func (e *Element) Rect() geometry.Rect { return geometry.Rect{} }

// ComputedStyle returns the inline value of prop, or "".
func (e *Element) ComputedStyle(prop string) string {
	for _, d := range e.declarations() {
		if d.prop == prop {
			return d.value
		}
	}
	return ""
}

func (e *Element) SetStyle(prop, value string) {
	decls := e.declarations()
	replaced := false
	for i := range decls {
		if decls[i].prop == prop {
			decls[i].value = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, declaration{prop: prop, value: value})
	}
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	e.sel.SetAttr("style", strings.Join(parts, "; ")+";")
}

type declaration struct{ prop, value string }

func (e *Element) declarations() []declaration {
	raw, _ := e.sel.Attr("style")
	var out []declaration
	for _, part := range strings.Split(raw, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		if prop == "" {
			continue
		}
		out = append(out, declaration{prop: prop, value: strings.TrimSpace(value)})
	}
	return out
}

func (e *Element) Hidden() bool {
	_, ok := e.sel.Attr("hidden")
	return ok
}

func (e *Element) SetHidden(hidden bool) { e.toggle("hidden", hidden) }

func (e *Element) Attr(name string) (string, bool) { return e.sel.Attr(name) }

func (e *Element) SetAttr(name, value string) { e.sel.SetAttr(name, value) }

func (e *Element) SetText(text string) { e.sel.SetText(text) }

func (e *Element) SetDisabled(disabled bool) { e.toggle("disabled", disabled) }

// Disabled reports whether the disabled attribute is present.
func (e *Element) Disabled() bool {
	_, ok := e.sel.Attr("disabled")
	return ok
}

// Text returns the node's text content.
func (e *Element) Text() string { return e.sel.Text() }

func (e *Element) toggle(attr string, on bool) {
	if on {
		e.sel.SetAttr(attr, "")
		return
	}
	e.sel.RemoveAttr(attr)
}
