package dom

import "fmt"

// RGBA is a CSS color; A is in [0, 1].
type RGBA struct {
	R, G, B uint8
	A       float64
}

// CSS renders the color as rgba(r, g, b, a).
func (c RGBA) CSS() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B, FormatNumber(c.A))
}

// Canvas is the 2D drawing surface the logo path is stroked onto.
type Canvas interface {
	// Reset resizes the backing store to width x height device pixels,
	// clears it and sets the transform to a uniform scale.
	Reset(width, height int, scale float64)
	SetLineDash(segments ...float64)
	SetStrokeColor(c RGBA)
	SetLineWidth(w float64)
	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	Stroke() error
}

// CanvasProvider is implemented by documents that can hand out a drawing
// context for a <canvas> element.
type CanvasProvider interface {
	Canvas(el Element) (Canvas, error)
}
