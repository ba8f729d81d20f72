package geometry

import "math"

// TargetKind selects how a shadow target resolves its center and how large
// its shadow may grow.
type TargetKind int

const (
	// KindSection is a plain content box; its center is its own rect center.
	KindSection TargetKind = iota
	// KindCarousel is a container whose center is that of its visible child.
	KindCarousel
	// KindDecorative is an ornament whose shadow shrinks on narrow viewports.
	KindDecorative
)

// String returns the config name of the kind.
func (k TargetKind) String() string {
	switch k {
	case KindSection:
		return "section"
	case KindCarousel:
		return "carousel"
	case KindDecorative:
		return "decorative"
	default:
		return "unknown"
	}
}

// ShadowVector is a shadow offset in px.
type ShadowVector struct {
	X float64
	Y float64
}

// IsZero reports whether the shadow has no offset.
func (v ShadowVector) IsZero() bool { return v.X == 0 && v.Y == 0 }

// ShadowInput is everything one shadow computation depends on.
type ShadowInput struct {
	// Source is the light source center: the logo.
	Source Point
	// Target is the center of the element receiving the shadow.
	Target Point
	Kind   TargetKind
	// CurrentY and BaseY are the logo's current and resting top, rem.
	CurrentY float64
	BaseY    float64
	// ViewportWidth is used by viewport-scaled magnitudes.
	ViewportWidth float64
}

// ShadowCalculator turns the relative position of the logo and a target into
// a directional shadow offset.
type ShadowCalculator struct {
	cfg Config
}

// NewShadowCalculator returns a calculator over cfg.
func NewShadowCalculator(cfg Config) *ShadowCalculator {
	return &ShadowCalculator{cfg: cfg}
}

// Shadow returns the offset of the shadow cast on the target. Coincident
// centers have no direction and yield the zero vector.
func (s *ShadowCalculator) Shadow(in ShadowInput) ShadowVector {
	d := in.Target.Sub(in.Source)
	distance := d.Len()
	if distance == 0 {
		return ShadowVector{}
	}

	maxX, maxY := s.MaxShadow(in.Kind, in.ViewportWidth)
	k := s.Intensity(distance) * s.HeightFactor(in.CurrentY, in.BaseY)
	return ShadowVector{
		X: d.X / distance * maxX * k,
		Y: d.Y / distance * maxY * k,
	}
}

// MaxShadow returns the largest offset kind may receive on a viewport of the
// given width.
func (s *ShadowCalculator) MaxShadow(kind TargetKind, viewportWidth float64) (x, y float64) {
	m := s.cfg.Magnitude(kind)
	if !m.ViewportScaled {
		return m.X, m.Y
	}
	f := s.ViewportFactor(viewportWidth)
	return m.X * f, m.Y * f
}

// ViewportFactor is min(1, viewportWidth/ReferenceWidth).
func (s *ShadowCalculator) ViewportFactor(viewportWidth float64) float64 {
	if s.cfg.ReferenceWidth <= 0 {
		return 1
	}
	return math.Min(1, viewportWidth/s.cfg.ReferenceWidth)
}

// HeightFactor grows linearly as the logo drops from its highest point
// (BaseY-MaxYOffset) down to rest, never going below the floor.
func (s *ShadowCalculator) HeightFactor(currentY, baseY float64) float64 {
	if s.cfg.MaxYOffset <= 0 {
		return 1
	}
	top := baseY - s.cfg.MaxYOffset
	f := s.cfg.HeightFactorFloor + s.cfg.HeightFactorSpan*(currentY-top)/s.cfg.MaxYOffset
	return math.Max(s.cfg.HeightFactorFloor, f)
}

// Intensity falls off with the inverse of distance and is capped at 1.
func (s *ShadowCalculator) Intensity(distance float64) float64 {
	return math.Min(1, s.cfg.IntensityNumerator/(distance+s.cfg.IntensityBias))
}
