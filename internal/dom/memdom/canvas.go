package memdom

import (
	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// Canvas records what was drawn on it.
type Canvas struct {
	Width  int
	Height int
	Scale  float64
	Dash   []float64
	Color  dom.RGBA
	Line   float64

	// Resets counts Reset calls; Strokes holds one polyline per Stroke.
	Resets  int
	Strokes [][]geometry.Point

	path []geometry.Point
}

func (c *Canvas) Reset(width, height int, scale float64) {
	c.Width, c.Height, c.Scale = width, height, scale
	c.Strokes = nil
	c.path = nil
	c.Resets++
}

func (c *Canvas) SetLineDash(segments ...float64) {
	c.Dash = append([]float64(nil), segments...)
}

func (c *Canvas) SetStrokeColor(col dom.RGBA) { c.Color = col }
func (c *Canvas) SetLineWidth(w float64)      { c.Line = w }
func (c *Canvas) BeginPath()                  { c.path = nil }

func (c *Canvas) MoveTo(x, y float64) {
	c.path = append(c.path[:0], geometry.Point{X: x, Y: y})
}

func (c *Canvas) LineTo(x, y float64) {
	c.path = append(c.path, geometry.Point{X: x, Y: y})
}

func (c *Canvas) Stroke() error {
	c.Strokes = append(c.Strokes, append([]geometry.Point(nil), c.path...))
	return nil
}
