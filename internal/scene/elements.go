// Package scene drives the logo: it places it on the parabola path, lets the
// user drag it along the path and casts shadows from it onto the page
// sections.
package scene

import (
	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// Component is the name used in errors and logs.
const Component = "shadow controller"

// Selectors of the page elements the controller works with.
const (
	SelectorLogo        = ".logo"
	SelectorLogoImage   = ".logo-image"
	SelectorSnake       = ".snake-separator"
	SelectorPathCanvas  = "#pathCanvas"
	SelectorThoughts    = ".thoughts-section"
	SelectorBreadcrumbs = ".breadcrumbs-section"
	SelectorThought     = ".thought"
)

// sectionKinds maps the shadowed section selectors to their kind, in the
// order their shadows are applied.
var sectionKinds = []struct {
	selector string
	kind     geometry.TargetKind
}{
	{SelectorThoughts, geometry.KindCarousel},
	{SelectorBreadcrumbs, geometry.KindSection},
}

// Target is an element that receives a shadow.
type Target struct {
	El       dom.Element
	Kind     geometry.TargetKind
	Selector string
}

// Center is the point shadows are cast towards. A carousel is measured by
// its visible thought, falling back to the whole section when every thought
// is hidden.
func (t Target) Center() geometry.Point {
	if t.Kind == geometry.KindCarousel {
		for _, el := range t.El.QuerySelectorAll(SelectorThought) {
			if !el.Hidden() {
				return el.Rect().Center()
			}
		}
	}
	return t.El.Rect().Center()
}

// Elements are the resolved page elements.
type Elements struct {
	Logo dom.Element
	// LogoImage and Canvas are nil when the page has no path canvas.
	LogoImage dom.Element
	Canvas    dom.Element
	Targets   []Target
}

// Resolve looks up the elements. The logo and the snake separator are
// required; sections and the path canvas are optional, and the logo image is
// needed only to offset the path on the canvas.
func Resolve(q dom.Querier) (*Elements, error) {
	logo, err := dom.Require(q, Component, SelectorLogo)
	if err != nil {
		return nil, err
	}
	snake, err := dom.Require(q, Component, SelectorSnake)
	if err != nil {
		return nil, err
	}

	els := &Elements{Logo: logo}
	for _, s := range sectionKinds {
		for _, el := range q.QuerySelectorAll(s.selector) {
			els.Targets = append(els.Targets, Target{El: el, Kind: s.kind, Selector: s.selector})
		}
	}
	els.Targets = append(els.Targets, Target{El: snake, Kind: geometry.KindDecorative, Selector: SelectorSnake})

	if canvas, ok := q.QuerySelector(SelectorPathCanvas); ok {
		img, err := dom.Require(logo, Component, SelectorLogoImage)
		if err != nil {
			return nil, err
		}
		els.Canvas = canvas
		els.LogoImage = img
	}
	return els, nil
}
