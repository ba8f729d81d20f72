package memdom

import (
	"fmt"

	"shadowsite/internal/dom"
)

func (d *Document) OnElement(el dom.Element, typ string, fn dom.Handler) {
	e, ok := el.(*Element)
	if !ok {
		return
	}
	m := d.elementHandlers[e]
	if m == nil {
		m = make(map[string][]dom.Handler)
		d.elementHandlers[e] = m
	}
	m[typ] = append(m[typ], fn)
}

func (d *Document) OnDocument(typ string, fn dom.Handler) {
	d.documentHandlers[typ] = append(d.documentHandlers[typ], fn)
}

func (d *Document) OnWindow(typ string, fn dom.Handler) {
	d.windowHandlers[typ] = append(d.windowHandlers[typ], fn)
}

// Dispatch delivers ev to target and its ancestors, then to document
// listeners. A nil target dispatches on the document only.
func (d *Document) Dispatch(target *Element, ev *dom.Event) {
	for e := target; e != nil; e = e.parent {
		for _, fn := range d.elementHandlers[e][ev.Type] {
			fn(ev)
		}
	}
	for _, fn := range d.documentHandlers[ev.Type] {
		fn(ev)
	}
}

// DispatchWindow delivers ev to window listeners, e.g. resize.
func (d *Document) DispatchWindow(ev *dom.Event) {
	for _, fn := range d.windowHandlers[ev.Type] {
		fn(ev)
	}
}

// ListenerCount returns the number of listeners registered for typ across
// elements, document and window.
func (d *Document) ListenerCount(typ string) int {
	n := len(d.documentHandlers[typ]) + len(d.windowHandlers[typ])
	for _, m := range d.elementHandlers {
		n += len(m[typ])
	}
	return n
}

// Canvas returns the recording canvas bound to a <canvas> element.
func (d *Document) Canvas(el dom.Element) (dom.Canvas, error) {
	e, ok := el.(*Element)
	if !ok {
		return nil, fmt.Errorf("memdom: foreign element %T", el)
	}
	if e.Tag != "canvas" {
		return nil, fmt.Errorf("memdom: <%s> is not a canvas element", e.Tag)
	}
	c := d.canvases[e]
	if c == nil {
		c = &Canvas{}
		d.canvases[e] = c
	}
	return c, nil
}

// CanvasFor returns the recording canvas of el, nil if none was requested.
func (d *Document) CanvasFor(el *Element) *Canvas { return d.canvases[el] }
