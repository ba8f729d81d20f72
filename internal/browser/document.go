package browser

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"go.uber.org/zap"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// refAttr tags elements handed out to Go so later calls can find them.
const refAttr = "data-shadowsite-ref"

var (
	_ dom.Document       = (*Document)(nil)
	_ dom.CanvasProvider = (*Document)(nil)
	_ dom.Element        = (*Element)(nil)
)

// Document is a dom.Document over a live page. Every call is a round trip
// to the browser. Methods of the dom interfaces cannot return errors, so
// the first failure is kept and reported by Err.
type Document struct {
	page *rod.Page
	log  *zap.Logger

	mu  sync.Mutex
	err error
}

// NewDocument wraps page.
func NewDocument(page *rod.Page, log *zap.Logger) *Document {
	if log == nil {
		log = zap.NewNop()
	}
	return &Document{page: page, log: log}
}

// Err returns the first evaluation error.
func (d *Document) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Document) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
	d.log.Debug("page evaluation failed", zap.Error(err))
}

// eval runs a JS function with args and decodes its result into out.
func (d *Document) eval(js string, out any, args ...any) error {
	res, err := d.page.Evaluate(&rod.EvalOptions{
		JS:      js,
		JSArgs:  args,
		ByValue: true,
	})
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}
	if out == nil || res == nil {
		return nil
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// do is eval for calls whose failure is only recorded.
func (d *Document) do(js string, out any, args ...any) bool {
	if err := d.eval(js, out, args...); err != nil {
		d.fail(err)
		return false
	}
	return true
}

const queryJS = `(scope, sel, all) => {
	const root = scope ? document.querySelector('[` + refAttr + `="' + scope + '"]') : document;
	if (!root) return [];
	const nodes = all ? Array.from(root.querySelectorAll(sel)) : [root.querySelector(sel)].filter(Boolean);
	window.__shadowsiteRefs = window.__shadowsiteRefs || 0;
	return nodes.map((n) => {
		if (!n.hasAttribute('` + refAttr + `')) n.setAttribute('` + refAttr + `', String(++window.__shadowsiteRefs));
		return n.getAttribute('` + refAttr + `');
	});
}`

func (d *Document) query(scope, selector string, all bool) []dom.Element {
	var refs []string
	if !d.do(queryJS, &refs, scope, selector, all) {
		return nil
	}
	out := make([]dom.Element, 0, len(refs))
	for _, ref := range refs {
		out = append(out, &Element{doc: d, ref: ref})
	}
	return out
}

func (d *Document) QuerySelector(selector string) (dom.Element, bool) {
	els := d.query("", selector, false)
	if len(els) == 0 {
		return nil, false
	}
	return els[0], true
}

func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	return d.query("", selector, true)
}

func (d *Document) Viewport() dom.Viewport { return viewport{d} }

type viewport struct{ d *Document }

func (v viewport) number(js string) float64 {
	var f float64
	v.d.do(js, &f)
	return f
}

func (v viewport) Width() float64 { return v.number(`() => window.innerWidth`) }

func (v viewport) RootFontSize() float64 {
	return v.number(`() => parseFloat(getComputedStyle(document.documentElement).fontSize)`)
}

func (v viewport) DevicePixelRatio() float64 { return v.number(`() => window.devicePixelRatio`) }

// Canvas returns a batching 2D context for a <canvas> element.
func (d *Document) Canvas(el dom.Element) (dom.Canvas, error) {
	e, ok := el.(*Element)
	if !ok || e.doc != d {
		return nil, fmt.Errorf("browser: foreign element %T", el)
	}
	var isCanvas bool
	if err := d.eval(elementJS(`return el instanceof HTMLCanvasElement;`), &isCanvas, e.ref); err != nil {
		return nil, err
	}
	if !isCanvas {
		return nil, fmt.Errorf("browser: element %s is not a canvas", e.ref)
	}
	return &Canvas{el: e}, nil
}

// elementJS wraps body in a function of (ref, a, b) with el bound to the
// referenced element.
func elementJS(body string) string {
	return `(ref, a, b) => {
	const el = document.querySelector('[` + refAttr + `="' + ref + '"]');
	if (!el) throw new Error('stale element ' + ref);
	` + body + `
}`
}

// Element is a node of the live page.
type Element struct {
	doc *Document
	ref string
}

// Ref is the element's tag value.
func (e *Element) Ref() string { return e.ref }

func (e *Element) QuerySelector(selector string) (dom.Element, bool) {
	els := e.doc.query(e.ref, selector, false)
	if len(els) == 0 {
		return nil, false
	}
	return els[0], true
}

func (e *Element) QuerySelectorAll(selector string) []dom.Element {
	return e.doc.query(e.ref, selector, true)
}

var (
	rectJS     = elementJS(`const r = el.getBoundingClientRect(); return {left: r.left, top: r.top, width: r.width, height: r.height};`)
	computedJS = elementJS(`return getComputedStyle(el).getPropertyValue(a);`)
	inlineJS   = elementJS(`return el.style.getPropertyValue(a);`)
	setStyleJS = elementJS(`el.style.setProperty(a, b);`)
	hiddenJS   = elementJS(`return el.hidden;`)
	setHidJS   = elementJS(`el.hidden = a;`)
	attrJS     = elementJS(`return el.hasAttribute(a) ? [el.getAttribute(a)] : [];`)
	setAttrJS  = elementJS(`el.setAttribute(a, b);`)
	setTextJS  = elementJS(`el.textContent = a;`)
	disableJS  = elementJS(`el.disabled = a;`)
)

func (e *Element) Rect() geometry.Rect {
	var r struct {
		Left, Top, Width, Height float64
	}
	e.doc.do(rectJS, &r, e.ref)
	return geometry.Rect{Left: r.Left, Top: r.Top, Width: r.Width, Height: r.Height}
}

func (e *Element) ComputedStyle(prop string) string {
	var s string
	e.doc.do(computedJS, &s, e.ref, prop)
	return s
}

// InlineStyle returns el.style.getPropertyValue(prop).
func (e *Element) InlineStyle(prop string) string {
	var s string
	e.doc.do(inlineJS, &s, e.ref, prop)
	return s
}

func (e *Element) SetStyle(prop, value string) { e.doc.do(setStyleJS, nil, e.ref, prop, value) }

func (e *Element) Hidden() bool {
	var h bool
	e.doc.do(hiddenJS, &h, e.ref)
	return h
}

func (e *Element) SetHidden(hidden bool) { e.doc.do(setHidJS, nil, e.ref, hidden) }

func (e *Element) Attr(name string) (string, bool) {
	var v []string
	if !e.doc.do(attrJS, &v, e.ref, name) || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (e *Element) SetAttr(name, value string) { e.doc.do(setAttrJS, nil, e.ref, name, value) }

func (e *Element) SetText(text string) { e.doc.do(setTextJS, nil, e.ref, text) }

func (e *Element) SetDisabled(disabled bool) { e.doc.do(disableJS, nil, e.ref, disabled) }

// Canvas collects path commands and sends each stroke in one evaluation.
type Canvas struct {
	el    *Element
	dash  []float64
	color string
	width float64
	path  [][]geometry.Point
}

var (
	resetJS = elementJS(`
	el.width = a[0]; el.height = a[1];
	const ctx = el.getContext('2d');
	ctx.setTransform(a[2], 0, 0, a[2], 0, 0);
	ctx.clearRect(0, 0, el.width, el.height);`)
	strokeJS = elementJS(`
	const ctx = el.getContext('2d');
	ctx.setLineDash(a.dash);
	ctx.strokeStyle = a.color;
	ctx.lineWidth = a.width;
	ctx.beginPath();
	for (const sub of a.path) {
		sub.forEach((p, i) => i === 0 ? ctx.moveTo(p[0], p[1]) : ctx.lineTo(p[0], p[1]));
	}
	ctx.stroke();`)
)

func (c *Canvas) Reset(width, height int, scale float64) {
	c.path = nil
	c.el.doc.do(resetJS, nil, c.el.ref, []float64{float64(width), float64(height), scale})
}

func (c *Canvas) SetLineDash(segments ...float64) {
	c.dash = append([]float64{}, segments...)
}

func (c *Canvas) SetStrokeColor(col dom.RGBA) { c.color = col.CSS() }
func (c *Canvas) SetLineWidth(w float64)      { c.width = w }
func (c *Canvas) BeginPath()                  { c.path = nil }

func (c *Canvas) MoveTo(x, y float64) {
	c.path = append(c.path, []geometry.Point{{X: x, Y: y}})
}

func (c *Canvas) LineTo(x, y float64) {
	if len(c.path) == 0 {
		c.MoveTo(x, y)
		return
	}
	last := len(c.path) - 1
	c.path[last] = append(c.path[last], geometry.Point{X: x, Y: y})
}

func (c *Canvas) Stroke() error {
	path := make([][][2]float64, 0, len(c.path))
	for _, sub := range c.path {
		pts := make([][2]float64, 0, len(sub))
		for _, p := range sub {
			pts = append(pts, [2]float64{p.X, p.Y})
		}
		path = append(path, pts)
	}
	dash := c.dash
	if dash == nil {
		dash = []float64{}
	}
	args := map[string]any{
		"dash":  dash,
		"color": c.color,
		"width": c.width,
		"path":  path,
	}
	if err := c.el.doc.eval(strokeJS, nil, c.el.ref, args); err != nil {
		return fmt.Errorf("browser: stroke: %w", err)
	}
	c.path = nil
	return nil
}
