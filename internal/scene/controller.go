package scene

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
)

// ErrNoEventSource is returned by Attach when the document cannot deliver
// input events.
var ErrNoEventSource = errors.New("scene: document does not deliver events")

// State is the drag state.
type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	if s == StateDragging {
		return "dragging"
	}
	return "idle"
}

// Axis selects which pointer delta moves the logo.
type Axis int

const (
	// AxisHorizontal follows the horizontal pointer delta.
	AxisHorizontal Axis = iota
	// AxisAuto follows the vertical delta for touch input on narrow
	// viewports, where the path runs down the screen.
	AxisAuto
)

// DefaultMobileBreakpoint is the viewport width below which AxisAuto
// switches touch drags to the vertical axis.
const DefaultMobileBreakpoint = 768

// Scheduler runs fn before the next frame. Schedule is called at most once
// per pending frame.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

func (f SchedulerFunc) Schedule(fn func()) { f(fn) }

// Pointer is the position of a mouse or first touch, client px.
type Pointer struct {
	X, Y  float64
	Touch bool
}

// Cast is the last shadow written to a target.
type Cast struct {
	Target Target
	Vector geometry.ShadowVector
}

type dragSession struct {
	anchorClient geometry.Point
	anchorX      float64
	vertical     bool
}

// Controller is the logo state machine. It is not safe for concurrent use;
// every method is expected to run on the UI thread.
type Controller struct {
	doc    dom.Document
	els    *Elements
	pos    *geometry.PositionCalculator
	shadow *geometry.ShadowCalculator
	log    *zap.Logger

	sched      Scheduler
	axis       Axis
	breakpoint float64
	pathStyle  PathStyle

	rootFont  float64
	baseTopPx float64

	state    State
	drag     dragSession
	currentX float64
	current  geometry.PathPosition
	casts    []Cast

	pendingX    float64
	frameQueued bool
	attached    bool
	started     bool
}

type options struct {
	cfg        geometry.Config
	log        *zap.Logger
	sched      Scheduler
	axis       Axis
	breakpoint float64
	pathStyle  PathStyle
}

// Option configures a Controller.
type Option func(*options)

// WithGeometry replaces the default geometry parameters.
func WithGeometry(cfg geometry.Config) Option { return func(o *options) { o.cfg = cfg } }

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithScheduler coalesces drag moves into frames.
func WithScheduler(s Scheduler) Option { return func(o *options) { o.sched = s } }

// WithAxis selects the drag axis.
func WithAxis(a Axis) Option { return func(o *options) { o.axis = a } }

// WithMobileBreakpoint overrides DefaultMobileBreakpoint.
func WithMobileBreakpoint(px float64) Option { return func(o *options) { o.breakpoint = px } }

// WithPathStyle overrides DefaultPathStyle.
func WithPathStyle(st PathStyle) Option { return func(o *options) { o.pathStyle = st } }

// New resolves the page elements and reads the logo's resting top. It does
// not touch the page; call Start for that.
func New(doc dom.Document, opts ...Option) (*Controller, error) {
	o := options{
		cfg:        geometry.DefaultConfig(),
		log:        zap.NewNop(),
		breakpoint: DefaultMobileBreakpoint,
		pathStyle:  DefaultPathStyle(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scene: %w", err)
	}

	els, err := Resolve(doc)
	if err != nil {
		return nil, err
	}

	vp := doc.Viewport()
	rootFont := rootFontSize(vp)
	top, err := dom.ParsePx(els.Logo.ComputedStyle("top"))
	if err != nil {
		return nil, fmt.Errorf("scene: logo top: %w", err)
	}

	c := &Controller{
		doc:        doc,
		els:        els,
		pos:        geometry.NewPositionCalculator(o.cfg, top/rootFont, vp.Width()),
		shadow:     geometry.NewShadowCalculator(o.cfg),
		log:        o.log,
		sched:      o.sched,
		axis:       o.axis,
		breakpoint: o.breakpoint,
		pathStyle:  o.pathStyle,
		rootFont:   rootFont,
		baseTopPx:  top,
	}
	c.log.Debug("controller resolved",
		zap.Int("targets", len(els.Targets)),
		zap.Bool("canvas", els.Canvas != nil),
		zap.Float64("base_y_rem", c.pos.BaseY()),
		zap.Float64("viewport", vp.Width()))
	return c, nil
}

func rootFontSize(vp dom.Viewport) float64 {
	if f := vp.RootFontSize(); f > 0 {
		return f
	}
	return 16
}

// Start places the logo at the position of now's time of day, casts the
// shadows and draws the path.
func (c *Controller) Start(now time.Time) error {
	c.started = true
	c.apply(c.pos.TimePosition(now))
	return c.DrawPath()
}

// Elements returns the resolved elements.
func (c *Controller) Elements() *Elements { return c.els }

// Calculator returns the position calculator.
func (c *Controller) Calculator() *geometry.PositionCalculator { return c.pos }

// State returns the drag state.
func (c *Controller) State() State { return c.state }

// Position returns the logo's x and its path position.
func (c *Controller) Position() (float64, geometry.PathPosition) { return c.currentX, c.current }

// Shadows returns the shadows written by the last update.
func (c *Controller) Shadows() []Cast { return append([]Cast(nil), c.casts...) }

// targetX is where the logo is headed: the x waiting for the next frame if
// one is queued, otherwise the applied x.
func (c *Controller) targetX() float64 {
	if c.frameQueued {
		return c.pendingX
	}
	return c.currentX
}

// PointerDown starts a drag anchored at the logo's latest position.
func (c *Controller) PointerDown(p Pointer) {
	x := c.targetX()
	c.state = StateDragging
	c.drag = dragSession{
		anchorClient: geometry.Point{X: p.X, Y: p.Y},
		anchorX:      x,
		vertical:     c.axis == AxisAuto && p.Touch && c.doc.Viewport().Width() < c.breakpoint,
	}
	c.log.Debug("drag start", zap.Float64("x", x), zap.Bool("vertical", c.drag.vertical))
}

// PointerMove moves the logo while dragging. It reports whether the move
// was consumed.
func (c *Controller) PointerMove(p Pointer) bool {
	if c.state != StateDragging {
		return false
	}
	delta := p.X - c.drag.anchorClient.X
	if c.drag.vertical {
		delta = p.Y - c.drag.anchorClient.Y
	}
	c.MoveTo(c.drag.anchorX + delta)
	return true
}

// PointerUp ends the drag.
func (c *Controller) PointerUp() {
	if c.state == StateDragging {
		c.log.Debug("drag end", zap.Float64("x", c.currentX))
	}
	c.state = StateIdle
}

// MoveTo places the logo at x, clamped to the path. With a scheduler the
// write is deferred to the next frame and only the last x of a frame is
// applied.
func (c *Controller) MoveTo(x float64) {
	x = c.pos.BoundedX(x)
	if c.sched == nil {
		c.apply(x)
		return
	}
	c.pendingX = x
	if c.frameQueued {
		return
	}
	c.frameQueued = true
	c.sched.Schedule(func() {
		c.frameQueued = false
		c.apply(c.pendingX)
	})
}

// Resize re-reads the viewport, keeps the logo on the recomputed path and
// redraws. The drag state is left alone; a queued frame is re-clamped to
// the new bounds.
func (c *Controller) Resize() error {
	vp := c.doc.Viewport()
	c.rootFont = rootFontSize(vp)
	c.pos.UpdateDimensions(vp.Width())
	c.pos.SetBaseY(c.baseTopPx / c.rootFont)
	c.log.Debug("resize", zap.Float64("viewport", vp.Width()), zap.Float64("root_font", c.rootFont))
	if !c.started {
		return nil
	}
	x := c.pos.BoundedX(c.targetX())
	if c.frameQueued {
		c.pendingX = x
	}
	c.apply(x)
	return c.DrawPath()
}

func (c *Controller) apply(x float64) {
	c.currentX = x
	c.current = c.pos.ParabolaPosition(x)

	left, top, transform := LogoStyle(x, c.current)
	c.els.Logo.SetStyle("left", left)
	c.els.Logo.SetStyle("top", top)
	c.els.Logo.SetStyle("transform", transform)

	c.updateShadows()
}

func (c *Controller) updateShadows() {
	source := c.els.Logo.Rect().Center()
	width := c.pos.ViewportWidth()
	c.casts = c.casts[:0]
	for _, t := range c.els.Targets {
		v := c.shadow.Shadow(geometry.ShadowInput{
			Source:        source,
			Target:        t.Center(),
			Kind:          t.Kind,
			CurrentY:      c.current.Y,
			BaseY:         c.pos.BaseY(),
			ViewportWidth: width,
		})
		applyShadow(t, v)
		c.casts = append(c.casts, Cast{Target: t, Vector: v})
	}
}

// DrawPath strokes the parabola onto the path canvas. It is a no-op when the
// page has no canvas or the document cannot draw.
func (c *Controller) DrawPath() error {
	if c.els.Canvas == nil {
		return nil
	}
	provider, ok := c.doc.(dom.CanvasProvider)
	if !ok {
		c.log.Debug("document has no canvas support, path not drawn")
		return nil
	}
	cv, err := provider.Canvas(c.els.Canvas)
	if err != nil {
		return fmt.Errorf("scene: path canvas: %w", err)
	}

	dpr := c.doc.Viewport().DevicePixelRatio()
	if dpr <= 0 {
		dpr = 1
	}
	r := c.els.Canvas.Rect()
	cv.Reset(int(r.Width*dpr), int(r.Height*dpr), dpr)

	pts := c.pos.SamplePath(c.pathStyle.Step, c.rootFont, c.els.LogoImage.Rect().Half())
	if err := StrokePath(cv, pts, c.pathStyle); err != nil {
		return fmt.Errorf("scene: stroke path: %w", err)
	}
	return nil
}

// Attach registers the input listeners on an event-delivering document.
// Subsequent calls are no-ops.
func (c *Controller) Attach() error {
	es, ok := c.doc.(dom.EventSource)
	if !ok {
		return ErrNoEventSource
	}
	if c.attached {
		return nil
	}
	c.attached = true

	down := func(ev *dom.Event) {
		c.PointerDown(pointerOf(ev))
		ev.PreventDefault()
	}
	move := func(ev *dom.Event) {
		if c.PointerMove(pointerOf(ev)) && ev.Touch {
			ev.PreventDefault()
		}
	}
	up := func(*dom.Event) { c.PointerUp() }

	es.OnElement(c.els.Logo, dom.EventMouseDown, down)
	es.OnElement(c.els.Logo, dom.EventTouchStart, down)
	es.OnDocument(dom.EventMouseMove, move)
	es.OnDocument(dom.EventTouchMove, move)
	for _, typ := range []string{dom.EventMouseUp, dom.EventTouchEnd, dom.EventTouchCancel} {
		es.OnDocument(typ, up)
	}
	// mouseleave does not reach document listeners; a mouseout with no
	// related target is the pointer leaving the window.
	es.OnDocument(dom.EventMouseOut, func(ev *dom.Event) {
		if ev.LeftWindow {
			c.PointerUp()
		}
	})
	es.OnWindow(dom.EventResize, func(*dom.Event) {
		if err := c.Resize(); err != nil {
			c.log.Warn("resize failed", zap.Error(err))
		}
	})
	return nil
}

func pointerOf(ev *dom.Event) Pointer {
	return Pointer{X: ev.ClientX, Y: ev.ClientY, Touch: ev.Touch}
}
