//go:build js && wasm

package jsdom

import (
	"fmt"
	"strconv"
	"syscall/js"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

var (
	_ dom.Document       = (*Document)(nil)
	_ dom.EventSource    = (*Document)(nil)
	_ dom.CanvasProvider = (*Document)(nil)
	_ dom.Element        = (*Element)(nil)
)

// Document wraps window.document.
type Document struct {
	window js.Value
	doc    js.Value
	// funcs keeps listener callbacks alive; listeners are never removed.
	funcs []js.Func
}

// New binds the global window and document.
func New() *Document {
	w := js.Global()
	return &Document{window: w, doc: w.Get("document")}
}

// Ready calls fn once the DOM is parsed.
func (d *Document) Ready(fn func()) {
	if d.doc.Get("readyState").String() != "loading" {
		fn()
		return
	}
	var cb js.Func
	cb = js.FuncOf(func(js.Value, []js.Value) any {
		cb.Release()
		fn()
		return nil
	})
	d.doc.Call("addEventListener", "DOMContentLoaded", cb)
}

func wrapAll(list js.Value) []dom.Element {
	n := list.Length()
	out := make([]dom.Element, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &Element{v: list.Index(i)})
	}
	return out
}

func queryOne(root js.Value, selector string) (dom.Element, bool) {
	v := root.Call("querySelector", selector)
	if v.IsNull() || v.IsUndefined() {
		return nil, false
	}
	return &Element{v: v}, true
}

func (d *Document) QuerySelector(selector string) (dom.Element, bool) {
	return queryOne(d.doc, selector)
}

func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	return wrapAll(d.doc.Call("querySelectorAll", selector))
}

func (d *Document) Viewport() dom.Viewport { return viewport{d} }

type viewport struct{ d *Document }

func (v viewport) Width() float64 { return v.d.window.Get("innerWidth").Float() }

func (v viewport) RootFontSize() float64 {
	style := v.d.window.Call("getComputedStyle", v.d.doc.Get("documentElement"))
	f, err := dom.ParsePx(style.Get("fontSize").String())
	if err != nil {
		return 0
	}
	return f
}

func (v viewport) DevicePixelRatio() float64 {
	r := v.d.window.Get("devicePixelRatio")
	if r.IsUndefined() {
		return 1
	}
	return r.Float()
}

func (d *Document) listen(target js.Value, typ string, fn dom.Handler) {
	cb := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		raw := args[0]
		ev := translate(typ, raw)
		fn(ev)
		if ev.DefaultPrevented() {
			raw.Call("preventDefault")
		}
		return nil
	})
	d.funcs = append(d.funcs, cb)
	// Touch listeners must not be passive or preventDefault is ignored.
	opts := map[string]any{"passive": false}
	target.Call("addEventListener", typ, cb, opts)
}

// translate copies the fields the widgets read from a DOM event.
func translate(typ string, raw js.Value) *dom.Event {
	ev := &dom.Event{Type: typ}
	if k := raw.Get("key"); k.Type() == js.TypeString {
		ev.Key = k.String()
	}
	if touches := raw.Get("touches"); !touches.IsUndefined() {
		ev.Touch = true
		if touches.Length() > 0 {
			t := touches.Index(0)
			ev.ClientX = t.Get("clientX").Float()
			ev.ClientY = t.Get("clientY").Float()
		}
		return ev
	}
	if typ == dom.EventMouseOut {
		rt := raw.Get("relatedTarget")
		ev.LeftWindow = rt.IsNull() || rt.IsUndefined()
	}
	if x := raw.Get("clientX"); x.Type() == js.TypeNumber {
		ev.ClientX = x.Float()
		ev.ClientY = raw.Get("clientY").Float()
	}
	return ev
}

func (d *Document) OnElement(el dom.Element, typ string, fn dom.Handler) {
	e, ok := el.(*Element)
	if !ok {
		return
	}
	d.listen(e.v, typ, fn)
}

func (d *Document) OnDocument(typ string, fn dom.Handler) { d.listen(d.doc, typ, fn) }

func (d *Document) OnWindow(typ string, fn dom.Handler) { d.listen(d.window, typ, fn) }

// Canvas returns the 2D context of a <canvas> element.
func (d *Document) Canvas(el dom.Element) (dom.Canvas, error) {
	e, ok := el.(*Element)
	if !ok {
		return nil, fmt.Errorf("jsdom: foreign element %T", el)
	}
	if !e.v.InstanceOf(js.Global().Get("HTMLCanvasElement")) {
		return nil, fmt.Errorf("jsdom: <%s> is not a canvas element", e.v.Get("tagName").String())
	}
	ctx := e.v.Call("getContext", "2d")
	if ctx.IsNull() {
		return nil, fmt.Errorf("jsdom: 2d context unavailable")
	}
	return &Canvas{el: e.v, ctx: ctx}, nil
}

// Element wraps a DOM element.
type Element struct {
	v js.Value
}

// Value returns the underlying js.Value.
func (e *Element) Value() js.Value { return e.v }

func (e *Element) QuerySelector(selector string) (dom.Element, bool) {
	return queryOne(e.v, selector)
}

func (e *Element) QuerySelectorAll(selector string) []dom.Element {
	return wrapAll(e.v.Call("querySelectorAll", selector))
}

func (e *Element) Rect() geometry.Rect {
	r := e.v.Call("getBoundingClientRect")
	return geometry.Rect{
		Left:   r.Get("left").Float(),
		Top:    r.Get("top").Float(),
		Width:  r.Get("width").Float(),
		Height: r.Get("height").Float(),
	}
}

func (e *Element) ComputedStyle(prop string) string {
	return js.Global().Call("getComputedStyle", e.v).Call("getPropertyValue", prop).String()
}

func (e *Element) SetStyle(prop, value string) {
	e.v.Get("style").Call("setProperty", prop, value)
}

func (e *Element) Hidden() bool          { return e.v.Get("hidden").Bool() }
func (e *Element) SetHidden(hidden bool) { e.v.Set("hidden", hidden) }

func (e *Element) Attr(name string) (string, bool) {
	if !e.v.Call("hasAttribute", name).Bool() {
		return "", false
	}
	return e.v.Call("getAttribute", name).String(), true
}

func (e *Element) SetAttr(name, value string) { e.v.Call("setAttribute", name, value) }
func (e *Element) SetText(text string)        { e.v.Set("textContent", text) }
func (e *Element) SetDisabled(disabled bool)  { e.v.Set("disabled", disabled) }

// Canvas is a CanvasRenderingContext2D.
type Canvas struct {
	el  js.Value
	ctx js.Value
}

func (c *Canvas) Reset(width, height int, scale float64) {
	c.el.Set("width", width)
	c.el.Set("height", height)
	c.ctx.Call("setTransform", scale, 0, 0, scale, 0, 0)
	c.ctx.Call("clearRect", 0, 0, width, height)
}

func (c *Canvas) SetLineDash(segments ...float64) {
	arr := make([]any, len(segments))
	for i, s := range segments {
		arr[i] = s
	}
	c.ctx.Call("setLineDash", arr)
}

func (c *Canvas) SetStrokeColor(col dom.RGBA) { c.ctx.Set("strokeStyle", col.CSS()) }
func (c *Canvas) SetLineWidth(w float64)      { c.ctx.Set("lineWidth", w) }
func (c *Canvas) BeginPath()                  { c.ctx.Call("beginPath") }
func (c *Canvas) MoveTo(x, y float64)         { c.ctx.Call("moveTo", x, y) }
func (c *Canvas) LineTo(x, y float64)         { c.ctx.Call("lineTo", x, y) }

func (c *Canvas) Stroke() error {
	c.ctx.Call("stroke")
	return nil
}

// FrameScheduler runs callbacks on requestAnimationFrame.
type FrameScheduler struct {
	window js.Value
	next   []func()
	cb     js.Func
	queued bool
}

// NewFrameScheduler binds window.requestAnimationFrame.
func NewFrameScheduler() *FrameScheduler {
	s := &FrameScheduler{window: js.Global()}
	s.cb = js.FuncOf(func(js.Value, []js.Value) any {
		fns := s.next
		s.next = nil
		s.queued = false
		for _, fn := range fns {
			fn()
		}
		return nil
	})
	return s
}

// Schedule queues fn for the next animation frame.
func (s *FrameScheduler) Schedule(fn func()) {
	s.next = append(s.next, fn)
	if s.queued {
		return
	}
	s.queued = true
	s.window.Call("requestAnimationFrame", s.cb)
}

// Log writes to the browser console.
func Log(level string, args ...any) {
	console := js.Global().Get("console")
	if console.IsUndefined() {
		return
	}
	for i, a := range args {
		switch v := a.(type) {
		case error:
			args[i] = v.Error()
		case float64:
			args[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	console.Call(level, args...)
}
