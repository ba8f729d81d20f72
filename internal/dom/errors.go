package dom

import "fmt"

// MissingElementError is returned when a widget cannot find an element it
// requires. It is fatal at initialization.
type MissingElementError struct {
	Component string
	Selector  string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("%s: required element %q not found", e.Component, e.Selector)
}

// Require returns the first match of selector or a *MissingElementError.
func Require(q Querier, component, selector string) (Element, error) {
	el, ok := q.QuerySelector(selector)
	if !ok || el == nil {
		return nil, &MissingElementError{Component: component, Selector: selector}
	}
	return el, nil
}
