// Package geometry holds the pure arithmetic behind the animated logo: the
// parabola it travels along, the scale it renders at, and the drop shadows it
// casts on the page sections around it.
//
// Nothing in this package touches a DOM. Callers feed it viewport widths,
// positions and centers, and write the results wherever they need them.
package geometry

import (
	"errors"
	"fmt"
)

// Magnitude is the largest shadow offset, in px, a target kind can receive.
// ViewportScaled shrinks it linearly on viewports narrower than the
// reference width.
type Magnitude struct {
	X              float64
	Y              float64
	ViewportScaled bool
}

// Config parameterizes the position and shadow engine.
type Config struct {
	// Horizontal bounds of the path, px.
	LeftMargin   float64
	RightPadding float64

	// MaxYOffset caps the parabola amplitude, rem. The responsive amplitude
	// is min(MaxYOffset, viewportWidth/AmplitudeDivisor).
	MaxYOffset       float64
	AmplitudeDivisor float64

	// Scale is BaseScale at the edges and BaseScale+ScaleBoost at the vertex.
	BaseScale  float64
	ScaleBoost float64

	// Height factor = max(HeightFactorFloor, HeightFactorFloor + HeightFactorSpan*t)
	// where t is the logo's vertical offset normalized by MaxYOffset.
	HeightFactorFloor float64
	HeightFactorSpan  float64

	// Intensity = min(1, IntensityNumerator/(distance+IntensityBias)).
	IntensityNumerator float64
	IntensityBias      float64

	// ReferenceWidth is the viewport width at which viewport-scaled
	// magnitudes reach their full size.
	ReferenceWidth float64

	Magnitudes map[TargetKind]Magnitude
}

// DefaultConfig returns the parameters the site ships with.
func DefaultConfig() Config {
	return Config{
		LeftMargin:         16,
		RightPadding:       116,
		MaxYOffset:         5,
		AmplitudeDivisor:   250,
		BaseScale:          0.7,
		ScaleBoost:         0.3,
		HeightFactorFloor:  0.3,
		HeightFactorSpan:   0.9,
		IntensityNumerator: 400,
		IntensityBias:      50,
		ReferenceWidth:     1024,
		Magnitudes: map[TargetKind]Magnitude{
			KindSection:    {X: 60, Y: 25},
			KindCarousel:   {X: 60, Y: 25},
			KindDecorative: {X: 60, Y: 25, ViewportScaled: true},
		},
	}
}

// Option mutates a Config under construction.
type Option func(*Config)

// NewConfig starts from DefaultConfig and applies opts in order.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMargins sets the left margin and right padding of the path.
func WithMargins(left, right float64) Option {
	return func(c *Config) {
		c.LeftMargin = left
		c.RightPadding = right
	}
}

// WithAmplitude sets the amplitude cap (rem) and its responsive divisor.
func WithAmplitude(maxYOffset, divisor float64) Option {
	return func(c *Config) {
		c.MaxYOffset = maxYOffset
		c.AmplitudeDivisor = divisor
	}
}

// WithScale sets the edge scale and the boost reached at the vertex.
func WithScale(base, boost float64) Option {
	return func(c *Config) {
		c.BaseScale = base
		c.ScaleBoost = boost
	}
}

// WithHeightFactor sets the floor and span of the height factor.
func WithHeightFactor(floor, span float64) Option {
	return func(c *Config) {
		c.HeightFactorFloor = floor
		c.HeightFactorSpan = span
	}
}

// WithIntensity sets the inverse-distance intensity constants.
func WithIntensity(numerator, bias float64) Option {
	return func(c *Config) {
		c.IntensityNumerator = numerator
		c.IntensityBias = bias
	}
}

// WithMagnitude overrides the shadow magnitude of one target kind.
func WithMagnitude(kind TargetKind, m Magnitude) Option {
	return func(c *Config) {
		mags := make(map[TargetKind]Magnitude, len(c.Magnitudes)+1)
		for k, v := range c.Magnitudes {
			mags[k] = v
		}
		mags[kind] = m
		c.Magnitudes = mags
	}
}

// Magnitude returns the configured magnitude for kind, falling back to the
// section magnitude for kinds without an entry.
func (c Config) Magnitude(kind TargetKind) Magnitude {
	if m, ok := c.Magnitudes[kind]; ok {
		return m
	}
	return c.Magnitudes[KindSection]
}

// Validate reports every parameter that would make the engine divide by
// zero or produce an inverted path.
func (c Config) Validate() error {
	var errs []error
	if c.LeftMargin < 0 || c.RightPadding < 0 {
		errs = append(errs, fmt.Errorf("margins must be non-negative (left=%g, right=%g)", c.LeftMargin, c.RightPadding))
	}
	if c.MaxYOffset <= 0 {
		errs = append(errs, fmt.Errorf("max_y_offset must be positive, got %g", c.MaxYOffset))
	}
	if c.AmplitudeDivisor <= 0 {
		errs = append(errs, fmt.Errorf("amplitude_divisor must be positive, got %g", c.AmplitudeDivisor))
	}
	if c.BaseScale <= 0 {
		errs = append(errs, fmt.Errorf("base_scale must be positive, got %g", c.BaseScale))
	}
	if c.IntensityNumerator <= 0 || c.IntensityBias <= 0 {
		errs = append(errs, errors.New("intensity constants must be positive"))
	}
	if c.ReferenceWidth <= 0 {
		errs = append(errs, fmt.Errorf("reference_width must be positive, got %g", c.ReferenceWidth))
	}
	if _, ok := c.Magnitudes[KindSection]; !ok {
		errs = append(errs, errors.New("a section shadow magnitude is required"))
	}
	return errors.Join(errs...)
}
