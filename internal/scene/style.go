package scene

import (
	"fmt"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// Shadow colors.
var (
	SectionShadowColor    = dom.RGBA{R: 3, G: 3, B: 4, A: 0.8}
	DecorativeShadowColor = dom.RGBA{R: 3, G: 3, B: 4, A: 0.6}
)

func px(v float64) string { return dom.FormatNumber(v) + "px" }

// LogoStyle returns the inline left, top and transform of the logo at x.
func LogoStyle(x float64, pos geometry.PathPosition) (left, top, transform string) {
	return px(x),
		dom.FormatNumber(pos.Y) + "rem",
		"scale(" + dom.FormatNumber(pos.Scale) + ")"
}

// BoxShadow is the box-shadow of a section.
func BoxShadow(v geometry.ShadowVector) string {
	return fmt.Sprintf("%s %s 0px 0px %s", px(v.X), px(v.Y), SectionShadowColor.CSS())
}

// LiftTransform moves a section half its shadow towards the logo so it looks
// lifted off the page.
func LiftTransform(v geometry.ShadowVector) string {
	return fmt.Sprintf("translate(%s, %s)", px(-v.X/2), px(-v.Y/2))
}

// DropShadow is the filter of a decorative element.
func DropShadow(v geometry.ShadowVector) string {
	return fmt.Sprintf("drop-shadow(%s %s 0px %s)", px(v.X), px(v.Y), DecorativeShadowColor.CSS())
}

// applyShadow writes v to the target the way its kind is styled.
func applyShadow(t Target, v geometry.ShadowVector) {
	switch t.Kind {
	case geometry.KindDecorative:
		t.El.SetStyle("filter", DropShadow(v))
	default:
		t.El.SetStyle("box-shadow", BoxShadow(v))
		t.El.SetStyle("transform", LiftTransform(v))
	}
}

// PathStyle is how the dashed path is stroked.
type PathStyle struct {
	Dash  []float64
	Color dom.RGBA
	Width float64
	// Step is the horizontal sampling interval, px.
	Step float64
}

// DefaultPathStyle is the site's dashed path.
func DefaultPathStyle() PathStyle {
	return PathStyle{
		Dash:  []float64{15, 40},
		Color: DecorativeShadowColor,
		Width: 2.5,
		Step:  2,
	}
}

// StrokePath strokes pts as one polyline.
func StrokePath(cv dom.Canvas, pts []geometry.Point, st PathStyle) error {
	cv.SetLineDash(st.Dash...)
	cv.SetStrokeColor(st.Color)
	cv.SetLineWidth(st.Width)
	cv.BeginPath()
	for i, p := range pts {
		if i == 0 {
			cv.MoveTo(p.X, p.Y)
			continue
		}
		cv.LineTo(p.X, p.Y)
	}
	return cv.Stroke()
}
