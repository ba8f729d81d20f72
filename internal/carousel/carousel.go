// Package carousel pages through the thoughts on the home page, one visible
// at a time.
package carousel

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"shadowsite/internal/dom"
	"shadowsite/internal/thoughts"
)

// Component is the name used in errors.
const Component = "thoughts carousel"

const (
	SelectorContainer = ".thought-container"
	SelectorThought   = ".thought"
	SelectorPrev      = ".thought-controls .prev"
	SelectorNext      = ".thought-controls .next"
	SelectorHeader    = ".thoughts-header time"

	// AttrDate holds a thought's timestamp on its node.
	AttrDate = "data-date"
)

// DateLayout is how the header shows the current thought's date.
const DateLayout = "January 2, 2006 at 3:04 PM"

// ErrNotMounted is returned when the page has no thought container.
var ErrNotMounted = errors.New("carousel: no thought container on page")

// FormatDate renders t for the header.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Carousel binds a Pager to the thought nodes of a page.
type Carousel struct {
	doc      dom.Querier
	thoughts []dom.Element
	prev     dom.Element
	next     dom.Element
	pager    *Pager
	loc      *time.Location
	log      *zap.Logger
	attached bool
}

// Option configures a Carousel.
type Option func(*Carousel)

// WithLocation sets the zone dates are shown in; the default is local time.
func WithLocation(loc *time.Location) Option { return func(c *Carousel) { c.loc = loc } }

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option { return func(c *Carousel) { c.log = l } }

// Mount finds the carousel on the page and syncs the buttons to the first
// thought. Visibility is left as rendered.
func Mount(doc dom.Querier, opts ...Option) (*Carousel, error) {
	container, ok := doc.QuerySelector(SelectorContainer)
	if !ok {
		return nil, ErrNotMounted
	}
	prev, err := dom.Require(doc, Component, SelectorPrev)
	if err != nil {
		return nil, err
	}
	next, err := dom.Require(doc, Component, SelectorNext)
	if err != nil {
		return nil, err
	}

	nodes := container.QuerySelectorAll(SelectorThought)
	c := &Carousel{
		doc:      doc,
		thoughts: nodes,
		prev:     prev,
		next:     next,
		pager:    NewPager(len(nodes)),
		loc:      time.Local,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.updateButtons()
	c.log.Debug("carousel mounted", zap.Int("thoughts", len(nodes)))
	return c, nil
}

// Index is the current thought.
func (c *Carousel) Index() int { return c.pager.Index() }

// Len is the number of thoughts.
func (c *Carousel) Len() int { return c.pager.Len() }

// ShowNext moves one thought forward; a no-op on the last.
func (c *Carousel) ShowNext() bool {
	if !c.pager.CanNext() {
		return false
	}
	return c.Show(c.pager.Index() + 1)
}

// ShowPrevious moves one thought back; a no-op on the first.
func (c *Carousel) ShowPrevious() bool {
	if !c.pager.CanPrevious() {
		return false
	}
	return c.Show(c.pager.Index() - 1)
}

// Show makes thought i the only visible one and updates the controls and
// the header date.
func (c *Carousel) Show(i int) bool {
	if !c.pager.Set(i) {
		return false
	}
	for _, n := range c.thoughts {
		n.SetHidden(true)
	}
	c.thoughts[i].SetHidden(false)
	c.updateButtons()
	c.updateDate()
	return true
}

func (c *Carousel) updateButtons() {
	c.prev.SetDisabled(!c.pager.CanPrevious())
	c.next.SetDisabled(!c.pager.CanNext())
}

func (c *Carousel) updateDate() {
	raw, ok := c.thoughts[c.pager.Index()].Attr(AttrDate)
	if !ok || raw == "" {
		return
	}
	header, ok := c.doc.QuerySelector(SelectorHeader)
	if !ok {
		return
	}
	t, err := thoughts.ParseDate(raw, c.loc)
	if err != nil {
		c.log.Debug("unreadable thought date", zap.String("date", raw), zap.Error(err))
		return
	}
	header.SetText(FormatDate(t.In(c.loc)))
	header.SetAttr("datetime", raw)
}

// Attach binds the buttons and the arrow keys. Subsequent calls are no-ops.
func (c *Carousel) Attach(es dom.EventSource) {
	if c.attached {
		return
	}
	c.attached = true
	es.OnElement(c.prev, dom.EventClick, func(*dom.Event) { c.ShowPrevious() })
	es.OnElement(c.next, dom.EventClick, func(*dom.Event) { c.ShowNext() })
	es.OnDocument(dom.EventKeyDown, func(ev *dom.Event) {
		switch ev.Key {
		case "ArrowLeft":
			c.ShowPrevious()
		case "ArrowRight":
			c.ShowNext()
		}
	})
}
