package config

import (
	"errors"
	"fmt"
	"sort"

	"shadowsite/internal/geometry"
)

// ShadowMagnitude is the largest shadow offset for one target kind, px.
type ShadowMagnitude struct {
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	ViewportScaled bool    `yaml:"viewport_scaled"`
}

// LogoConfig parameterizes the logo path and its shadows.
type LogoConfig struct {
	LeftMargin       float64 `yaml:"left_margin"`
	RightPadding     float64 `yaml:"right_padding"`
	MaxYOffset       float64 `yaml:"max_y_offset"` // rem
	AmplitudeDivisor float64 `yaml:"amplitude_divisor"`
	BaseScale        float64 `yaml:"base_scale"`
	ScaleBoost       float64 `yaml:"scale_boost"`

	HeightFactorFloor  float64 `yaml:"height_factor_floor"`
	HeightFactorSpan   float64 `yaml:"height_factor_span"`
	IntensityNumerator float64 `yaml:"intensity_numerator"`
	IntensityBias      float64 `yaml:"intensity_bias"`
	ReferenceWidth     float64 `yaml:"reference_width"`

	// Shadows is keyed by target kind: section, carousel, decorative.
	Shadows map[string]ShadowMagnitude `yaml:"shadows"`

	// Axis is horizontal or auto; auto drags along the vertical pointer
	// delta for touch on viewports narrower than MobileBreakpoint.
	Axis             string  `yaml:"axis"`
	MobileBreakpoint float64 `yaml:"mobile_breakpoint"`
}

// DefaultLogoConfig mirrors geometry.DefaultConfig.
func DefaultLogoConfig() LogoConfig {
	g := geometry.DefaultConfig()
	lc := LogoConfig{
		LeftMargin:         g.LeftMargin,
		RightPadding:       g.RightPadding,
		MaxYOffset:         g.MaxYOffset,
		AmplitudeDivisor:   g.AmplitudeDivisor,
		BaseScale:          g.BaseScale,
		ScaleBoost:         g.ScaleBoost,
		HeightFactorFloor:  g.HeightFactorFloor,
		HeightFactorSpan:   g.HeightFactorSpan,
		IntensityNumerator: g.IntensityNumerator,
		IntensityBias:      g.IntensityBias,
		ReferenceWidth:     g.ReferenceWidth,
		Shadows:            make(map[string]ShadowMagnitude, len(g.Magnitudes)),
		Axis:               "horizontal",
		MobileBreakpoint:   768,
	}
	for kind, m := range g.Magnitudes {
		lc.Shadows[kind.String()] = ShadowMagnitude{X: m.X, Y: m.Y, ViewportScaled: m.ViewportScaled}
	}
	return lc
}

var targetKinds = map[string]geometry.TargetKind{
	geometry.KindSection.String():    geometry.KindSection,
	geometry.KindCarousel.String():   geometry.KindCarousel,
	geometry.KindDecorative.String(): geometry.KindDecorative,
}

// ToGeometry converts the config into engine parameters.
func (l LogoConfig) ToGeometry() (geometry.Config, error) {
	g := geometry.DefaultConfig()
	g.LeftMargin = l.LeftMargin
	g.RightPadding = l.RightPadding
	g.MaxYOffset = l.MaxYOffset
	g.AmplitudeDivisor = l.AmplitudeDivisor
	g.BaseScale = l.BaseScale
	g.ScaleBoost = l.ScaleBoost
	g.HeightFactorFloor = l.HeightFactorFloor
	g.HeightFactorSpan = l.HeightFactorSpan
	g.IntensityNumerator = l.IntensityNumerator
	g.IntensityBias = l.IntensityBias
	g.ReferenceWidth = l.ReferenceWidth

	names := make([]string, 0, len(l.Shadows))
	for name := range l.Shadows {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		kind, ok := targetKinds[name]
		if !ok {
			errs = append(errs, fmt.Errorf("unknown shadow target kind %q", name))
			continue
		}
		m := l.Shadows[name]
		g.Magnitudes[kind] = geometry.Magnitude{X: m.X, Y: m.Y, ViewportScaled: m.ViewportScaled}
	}
	if err := errors.Join(errs...); err != nil {
		return geometry.Config{}, err
	}
	return g, nil
}

// Validate checks the geometry parameters and the drag options.
func (l LogoConfig) Validate() error {
	var errs []error
	g, err := l.ToGeometry()
	if err != nil {
		errs = append(errs, err)
	} else if err := g.Validate(); err != nil {
		errs = append(errs, err)
	}
	if l.Axis != "horizontal" && l.Axis != "auto" {
		errs = append(errs, fmt.Errorf("invalid axis: %s (valid: horizontal, auto)", l.Axis))
	}
	if l.MobileBreakpoint < 0 {
		errs = append(errs, fmt.Errorf("mobile_breakpoint %v must not be negative", l.MobileBreakpoint))
	}
	return errors.Join(errs...)
}

// PathImagesConfig configures PNG renderings of the dashed path.
type PathImagesConfig struct {
	Enabled bool `yaml:"enabled"`
	// Widths are the viewport widths rendered, px.
	Widths []int `yaml:"widths"`
	Height int   `yaml:"height"`
	// Scale is the device pixel ratio of the images.
	Scale float64 `yaml:"scale"`
	// Dir is relative to the output directory.
	Dir string `yaml:"dir"`
	// BaseTop is the logo's resting top, px; RootFontSize converts it to rem.
	BaseTop      float64 `yaml:"base_top"`
	RootFontSize float64 `yaml:"root_font_size"`
	// LogoSize is the rendered logo image edge, px; the path is offset by
	// half of it like on the page.
	LogoSize float64 `yaml:"logo_size"`
}

// DefaultPathImagesConfig returns sensible defaults.
func DefaultPathImagesConfig() PathImagesConfig {
	return PathImagesConfig{
		Widths:       []int{375, 768, 1024, 1440},
		Height:       300,
		Scale:        2,
		Dir:          "assets/path",
		BaseTop:      80,
		RootFontSize: 16,
		LogoSize:     100,
	}
}

// Validate checks sizes when images are enabled.
func (p PathImagesConfig) Validate() error {
	if !p.Enabled {
		return nil
	}
	var errs []error
	if len(p.Widths) == 0 {
		errs = append(errs, errors.New("widths must not be empty"))
	}
	for _, w := range p.Widths {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("width %d must be positive", w))
		}
	}
	if p.Height <= 0 {
		errs = append(errs, fmt.Errorf("height %d must be positive", p.Height))
	}
	if p.Scale <= 0 {
		errs = append(errs, fmt.Errorf("scale %v must be positive", p.Scale))
	}
	if p.RootFontSize <= 0 {
		errs = append(errs, fmt.Errorf("root_font_size %v must be positive", p.RootFontSize))
	}
	return errors.Join(errs...)
}
