package geometry

import "math"

// Point is a position in CSS px, viewport space.
type Point struct {
	X float64
	Y float64
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Len returns the Euclidean length of p seen as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Rect is a layout box as reported by getBoundingClientRect.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Center returns the middle of the box.
func (r Rect) Center() Point {
	return Point{X: r.Left + r.Width/2, Y: r.Top + r.Height/2}
}

// Half returns half the box size, the offset from its corner to its center.
func (r Rect) Half() Point {
	return Point{X: r.Width / 2, Y: r.Height / 2}
}

// IsZero reports whether the box has no area.
func (r Rect) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}
