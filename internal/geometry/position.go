package geometry

import (
	"math"
	"time"
)

const minutesPerDay = 24 * 60

// Bounds is the horizontal window the logo may travel in for one viewport.
type Bounds struct {
	MinX          float64
	MaxX          float64
	ParabolaWidth float64
	CenterX       float64
	// Amplitude is the responsive vertical offset at the vertex, rem.
	Amplitude float64
}

// HalfWidth returns the distance from the vertex to either end of the path.
func (b Bounds) HalfWidth() float64 { return b.ParabolaWidth / 2 }

// PathPosition is a point on the path: X in px, Y in rem, and the scale the
// logo renders at there.
type PathPosition struct {
	X     float64
	Y     float64
	Scale float64
}

// PositionCalculator maps a horizontal coordinate onto a downward-opening
// parabola whose vertex sits at the viewport center. MaxX > MinX is assumed.
type PositionCalculator struct {
	cfg    Config
	baseY  float64
	width  float64
	bounds Bounds
}

// NewPositionCalculator returns a calculator for a logo resting at baseY rem
// on a viewport viewportWidth px wide.
func NewPositionCalculator(cfg Config, baseY, viewportWidth float64) *PositionCalculator {
	p := &PositionCalculator{cfg: cfg, baseY: baseY}
	p.UpdateDimensions(viewportWidth)
	return p
}

// UpdateDimensions recomputes the cached bounds for a new viewport width.
func (p *PositionCalculator) UpdateDimensions(viewportWidth float64) {
	p.width = viewportWidth
	minX := p.cfg.LeftMargin
	maxX := viewportWidth - p.cfg.RightPadding
	width := maxX - minX
	p.bounds = Bounds{
		MinX:          minX,
		MaxX:          maxX,
		ParabolaWidth: width,
		CenterX:       minX + width/2,
		Amplitude:     math.Min(p.cfg.MaxYOffset, viewportWidth/p.cfg.AmplitudeDivisor),
	}
}

// Bounds returns the bounds for the last viewport width.
func (p *PositionCalculator) Bounds() Bounds { return p.bounds }

// ViewportWidth returns the last viewport width, px.
func (p *PositionCalculator) ViewportWidth() float64 { return p.width }

// BaseY returns the resting vertical position, rem.
func (p *PositionCalculator) BaseY() float64 { return p.baseY }

// SetBaseY moves the resting vertical position, rem.
func (p *PositionCalculator) SetBaseY(baseY float64) { p.baseY = baseY }

// Config returns the parameters the calculator was built with.
func (p *PositionCalculator) Config() Config { return p.cfg }

// ParabolaPosition returns the point of the path above x.
func (p *PositionCalculator) ParabolaPosition(x float64) PathPosition {
	b := p.bounds
	half := b.HalfWidth()
	yOffset := b.Amplitude
	if half > 0 {
		a := b.Amplitude / (half * half)
		d := x - b.CenterX
		yOffset = -a*d*d + b.Amplitude
	}
	return PathPosition{
		X:     x,
		Y:     p.baseY - yOffset,
		Scale: p.Scale(x),
	}
}

// Scale returns the render scale at x: largest at the vertex, decaying
// linearly with the normalized distance from it.
func (p *PositionCalculator) Scale(x float64) float64 {
	half := p.bounds.HalfWidth()
	if half <= 0 {
		return p.cfg.BaseScale + p.cfg.ScaleBoost
	}
	distance := math.Abs(x-p.bounds.CenterX) / half
	return p.cfg.BaseScale + p.cfg.ScaleBoost*(1-distance)
}

// BoundedX clamps x into [MinX, MaxX].
func (p *PositionCalculator) BoundedX(x float64) float64 {
	return math.Max(p.bounds.MinX, math.Min(p.bounds.MaxX, x))
}

// TimePosition maps the time of day of t linearly onto [MinX, MaxX]:
// midnight is MinX, noon the midpoint. The result is clamped like BoundedX,
// so a viewport narrower than its margins yields MinX.
func (p *PositionCalculator) TimePosition(t time.Time) float64 {
	fraction := float64(t.Hour()*60+t.Minute()) / minutesPerDay
	return p.BoundedX(p.bounds.MinX + (p.bounds.MaxX-p.bounds.MinX)*fraction)
}

// SamplePath walks the path from x=0 to the viewport width in steps of step
// px and returns canvas points: y converted from rem with rootFontSize, and
// both axes shifted by offset.
func (p *PositionCalculator) SamplePath(step, rootFontSize float64, offset Point) []Point {
	if step <= 0 {
		step = 2
	}
	n := int(p.width/step) + 1
	if n < 1 {
		n = 1
	}
	points := make([]Point, 0, n)
	for i := 0; ; i++ {
		x := float64(i) * step
		if x > p.width {
			break
		}
		pos := p.ParabolaPosition(x)
		points = append(points, Point{X: x + offset.X, Y: pos.Y*rootFontSize + offset.Y})
	}
	return points
}
