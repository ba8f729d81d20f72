// Package dom is the document contract the logo controller and the thoughts
// carousel are written against. Backends adapt it to a real browser
// (jsdom, browser), to static HTML (htmldom) and to an in-memory tree
// (memdom).
package dom

import (
	"fmt"
	"strconv"
	"strings"

	"shadowsite/internal/geometry"
)

// Viewport provides the window-level measurements the geometry depends on.
type Viewport interface {
	// Width is window.innerWidth, px.
	Width() float64
	// RootFontSize is the computed font size of the root element, px.
	RootFontSize() float64
	// DevicePixelRatio is window.devicePixelRatio.
	DevicePixelRatio() float64
}

// Querier finds elements by CSS selector.
type Querier interface {
	QuerySelector(selector string) (Element, bool)
	QuerySelectorAll(selector string) []Element
}

// Element is the subset of a DOM element the widgets read and write.
type Element interface {
	Querier

	// Rect is getBoundingClientRect.
	Rect() geometry.Rect
	// ComputedStyle returns getComputedStyle(el).getPropertyValue(prop).
	ComputedStyle(prop string) string
	// SetStyle writes an inline style property (CSS name, e.g. "box-shadow").
	SetStyle(prop, value string)

	Hidden() bool
	SetHidden(hidden bool)
	Attr(name string) (string, bool)
	SetAttr(name, value string)
	SetText(text string)
	SetDisabled(disabled bool)
}

// Document is the page root.
type Document interface {
	Querier
	Viewport() Viewport
}

// Handler receives a dispatched event.
type Handler func(ev *Event)

// EventSource is implemented by documents that can deliver input events.
// Listeners live for the lifetime of the document.
type EventSource interface {
	OnElement(el Element, typ string, fn Handler)
	OnDocument(typ string, fn Handler)
	OnWindow(typ string, fn Handler)
}

// Event is a pointer, touch, keyboard or window event.
type Event struct {
	Type    string
	ClientX float64
	ClientY float64
	// Touch is set for touch events; ClientX/Y are then the first touch.
	Touch bool
	Key   string
	// LeftWindow is set on mouseout when the pointer left the window
	// (relatedTarget is null).
	LeftWindow bool

	defaultPrevented bool
}

// PreventDefault asks the backend to suppress the browser default action.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// Event types the widgets listen for.
const (
	EventMouseDown   = "mousedown"
	EventMouseMove   = "mousemove"
	EventMouseUp     = "mouseup"
	EventMouseOut    = "mouseout"
	EventTouchStart  = "touchstart"
	EventTouchMove   = "touchmove"
	EventTouchEnd    = "touchend"
	EventTouchCancel = "touchcancel"
	EventClick       = "click"
	EventKeyDown     = "keydown"
	EventResize      = "resize"
)

// ParsePx parses a computed length such as "80px" or "80".
func ParsePx(v string) (float64, error) {
	s := strings.TrimSpace(v)
	s = strings.TrimSuffix(s, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse length %q: %w", v, err)
	}
	return f, nil
}

// FormatNumber prints v the way a JS template literal would: shortest
// round-trip representation and no negative zero.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
