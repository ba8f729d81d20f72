package scene

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shadowsite/internal/dom"
	"shadowsite/internal/dom/memdom"
	"shadowsite/internal/geometry"
)

type page struct {
	doc      *memdom.Document
	logo     *memdom.Element
	thoughts *memdom.Element
	crumbs   *memdom.Element
	snake    *memdom.Element
	canvas   *memdom.Element
}

func newPage(t *testing.T, width float64, withCanvas bool) *page {
	t.Helper()
	doc := memdom.New(memdom.Viewport{InnerWidth: width, FontSize: 16, PixelRatio: 2})
	body := doc.Append(memdom.El("body"))

	p := &page{doc: doc}
	p.logo = body.Append(memdom.El("div.logo").
		WithRect(geometry.Rect{Left: 0, Top: 80, Width: 100, Height: 100}).
		WithComputed("top", "80px"))
	p.logo.Append(memdom.El("img.logo-image").WithRect(geometry.Rect{Width: 100, Height: 60}))

	p.thoughts = body.Append(memdom.El("section.thoughts-section").
		WithRect(geometry.Rect{Left: 100, Top: 400, Width: 600, Height: 300}))
	p.thoughts.Append(memdom.El("div.thought-container")).With(
		memdom.El("article.thought").WithRect(geometry.Rect{Left: 150, Top: 420, Width: 500, Height: 200}),
		memdom.El("article.thought").WithRect(geometry.Rect{Left: 300, Top: 500, Width: 100, Height: 100}).WithHidden(true),
	)
	p.crumbs = body.Append(memdom.El("nav.breadcrumbs-section").
		WithRect(geometry.Rect{Left: 100, Top: 800, Width: 600, Height: 100}))
	p.snake = body.Append(memdom.El("div.snake-separator").
		WithRect(geometry.Rect{Left: 0, Top: 1000, Width: width, Height: 20}))
	if withCanvas {
		p.canvas = body.Append(memdom.El("canvas#pathCanvas").
			WithRect(geometry.Rect{Width: width, Height: 300}))
	}
	return p
}

func at(h, m int) time.Time { return time.Date(2024, 3, 1, h, m, 0, 0, time.UTC) }

func parseLen(t *testing.T, v, unit string) float64 {
	t.Helper()
	require.True(t, strings.HasSuffix(v, unit), "%q has no %s suffix", v, unit)
	f, err := strconv.ParseFloat(strings.TrimSuffix(v, unit), 64)
	require.NoError(t, err)
	return f
}

func TestNew_MissingRequiredElements(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *memdom.Document
		selector string
	}{
		{
			name: "no logo",
			build: func() *memdom.Document {
				d := memdom.New(memdom.Viewport{InnerWidth: 1024})
				d.Append(memdom.El("div.snake-separator"))
				return d
			},
			selector: SelectorLogo,
		},
		{
			name: "no snake",
			build: func() *memdom.Document {
				d := memdom.New(memdom.Viewport{InnerWidth: 1024})
				d.Append(memdom.El("div.logo").WithComputed("top", "80px"))
				return d
			},
			selector: SelectorSnake,
		},
		{
			name: "canvas without logo image",
			build: func() *memdom.Document {
				d := memdom.New(memdom.Viewport{InnerWidth: 1024})
				d.Append(memdom.El("div.logo").WithComputed("top", "80px"))
				d.Append(memdom.El("div.snake-separator"))
				d.Append(memdom.El("canvas#pathCanvas"))
				return d
			},
			selector: SelectorLogoImage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.build())
			var missing *dom.MissingElementError
			require.True(t, errors.As(err, &missing), "got %v", err)
			assert.Equal(t, tt.selector, missing.Selector)
			assert.Equal(t, Component, missing.Component)
		})
	}
}

func TestNew_UnreadableTop(t *testing.T) {
	d := memdom.New(memdom.Viewport{InnerWidth: 1024})
	d.Append(memdom.El("div.logo").WithComputed("top", "auto"))
	d.Append(memdom.El("div.snake-separator"))

	_, err := New(d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logo top")
}

func TestNew_InvalidGeometry(t *testing.T) {
	p := newPage(t, 1024, false)
	cfg := geometry.DefaultConfig()
	cfg.BaseScale = 0

	_, err := New(p.doc, WithGeometry(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_scale")
}

func TestResolve_TargetsAndKinds(t *testing.T) {
	p := newPage(t, 1024, true)

	els, err := Resolve(p.doc)
	require.NoError(t, err)
	require.Len(t, els.Targets, 3)

	assert.Equal(t, geometry.KindCarousel, els.Targets[0].Kind)
	assert.Equal(t, geometry.KindSection, els.Targets[1].Kind)
	assert.Equal(t, geometry.KindDecorative, els.Targets[2].Kind)
	assert.NotNil(t, els.Canvas)
	assert.NotNil(t, els.LogoImage)
}

func TestTarget_CarouselCenterFollowsVisibleThought(t *testing.T) {
	p := newPage(t, 1024, false)
	els, err := Resolve(p.doc)
	require.NoError(t, err)
	carousel := els.Targets[0]

	assert.Equal(t, geometry.Point{X: 400, Y: 520}, carousel.Center())

	nodes := p.thoughts.QuerySelectorAll(SelectorThought)
	nodes[0].SetHidden(true)
	nodes[1].SetHidden(false)
	assert.Equal(t, geometry.Point{X: 350, Y: 550}, carousel.Center())

	nodes[1].SetHidden(true)
	assert.Equal(t, geometry.Point{X: 400, Y: 550}, carousel.Center(), "falls back to the section")
}

func TestStart_PlacesLogoByTimeOfDay(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)

	require.NoError(t, c.Start(at(12, 0)))
	x, pos := c.Position()
	assert.Equal(t, 462.0, x)
	assert.Equal(t, "462px", p.logo.Style("left"))
	assert.InDelta(t, 5-4.096, parseLen(t, p.logo.Style("top"), "rem"), 1e-9)
	assert.Equal(t, "scale(1)", p.logo.Style("transform"))
	assert.InDelta(t, 1.0, pos.Scale, 1e-12)

	require.NoError(t, c.Start(at(0, 0)))
	assert.Equal(t, "16px", p.logo.Style("left"))
	assert.InDelta(t, 5.0, parseLen(t, p.logo.Style("top"), "rem"), 1e-9)
	assert.Equal(t, "scale(0.7)", p.logo.Style("transform"))
}

func TestShadows_WrittenPerKind(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	casts := c.Shadows()
	require.Len(t, casts, 3)

	thoughts, crumbs, snake := casts[0].Vector, casts[1].Vector, casts[2].Vector
	assert.Equal(t, BoxShadow(thoughts), p.thoughts.Style("box-shadow"))
	assert.Equal(t, LiftTransform(thoughts), p.thoughts.Style("transform"))
	assert.Equal(t, BoxShadow(crumbs), p.crumbs.Style("box-shadow"))
	assert.Equal(t, DropShadow(snake), p.snake.Style("filter"))
	assert.Empty(t, p.snake.Style("box-shadow"))

	// The logo sits at the top center: everything is below it, the sections
	// left of it.
	assert.Less(t, thoughts.X, 0.0)
	assert.Greater(t, thoughts.Y, 0.0)
	assert.Greater(t, crumbs.Y, 0.0)
	assert.Greater(t, snake.Y, 0.0)

	assert.Contains(t, p.crumbs.Style("box-shadow"), "0px 0px rgba(3, 3, 4, 0.8)")
	assert.True(t, strings.HasPrefix(p.snake.Style("filter"), "drop-shadow("))
	assert.Contains(t, p.snake.Style("filter"), "0px rgba(3, 3, 4, 0.6))")
}

func TestStyleFormatting(t *testing.T) {
	v := geometry.ShadowVector{X: 12.5, Y: -4}
	assert.Equal(t, "12.5px -4px 0px 0px rgba(3, 3, 4, 0.8)", BoxShadow(v))
	assert.Equal(t, "translate(-6.25px, 2px)", LiftTransform(v))
	assert.Equal(t, "drop-shadow(12.5px -4px 0px rgba(3, 3, 4, 0.6))", DropShadow(v))
	assert.Equal(t, "translate(0px, 0px)", LiftTransform(geometry.ShadowVector{}))

	left, top, transform := LogoStyle(100, geometry.PathPosition{Y: 3.5, Scale: 0.85})
	assert.Equal(t, "100px", left)
	assert.Equal(t, "3.5rem", top)
	assert.Equal(t, "scale(0.85)", transform)
}

func TestDrag_StateMachine(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	assert.False(t, c.PointerMove(Pointer{X: 900, Y: 0}), "moves while idle are ignored")
	x, _ := c.Position()
	assert.Equal(t, 462.0, x)

	c.PointerDown(Pointer{X: 500, Y: 100})
	assert.Equal(t, StateDragging, c.State())
	assert.True(t, c.PointerMove(Pointer{X: 600, Y: 300}))
	x, _ = c.Position()
	assert.Equal(t, 562.0, x)
	assert.Equal(t, "562px", p.logo.Style("left"))

	assert.True(t, c.PointerMove(Pointer{X: 5000, Y: 100}))
	x, _ = c.Position()
	assert.Equal(t, 908.0, x, "clamped to max x")

	assert.True(t, c.PointerMove(Pointer{X: -5000, Y: 100}))
	x, _ = c.Position()
	assert.Equal(t, 16.0, x, "clamped to min x")

	c.PointerUp()
	assert.Equal(t, StateIdle, c.State())
	assert.False(t, c.PointerMove(Pointer{X: 600, Y: 100}))
	x, _ = c.Position()
	assert.Equal(t, 16.0, x)
}

func TestDrag_AnchorsOnPathPosition(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(0, 0)))

	// At the edge the logo is scaled to 0.7, so its box starts right of x.
	require.Greater(t, p.logo.Rect().Left, 16.0)

	c.PointerDown(Pointer{X: 40, Y: 40})
	c.PointerMove(Pointer{X: 40, Y: 40})
	x, _ := c.Position()
	assert.Equal(t, 16.0, x, "no jump on drag start")
}

func TestDrag_AxisAutoOnNarrowTouch(t *testing.T) {
	p := newPage(t, 600, false)
	c, err := New(p.doc, WithAxis(AxisAuto))
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))
	x0, _ := c.Position()
	assert.Equal(t, 250.0, x0)

	c.PointerDown(Pointer{X: 100, Y: 100, Touch: true})
	c.PointerMove(Pointer{X: 100, Y: 150, Touch: true})
	x, _ := c.Position()
	assert.Equal(t, 300.0, x, "touch follows the vertical delta")
	c.PointerUp()

	c.PointerDown(Pointer{X: 100, Y: 100})
	c.PointerMove(Pointer{X: 120, Y: 400})
	x, _ = c.Position()
	assert.Equal(t, 320.0, x, "mouse stays horizontal")
	c.PointerUp()

	q := newPage(t, 1024, false)
	wide, err := New(q.doc, WithAxis(AxisAuto))
	require.NoError(t, err)
	require.NoError(t, wide.Start(at(12, 0)))
	wide.PointerDown(Pointer{X: 100, Y: 100, Touch: true})
	wide.PointerMove(Pointer{X: 130, Y: 400, Touch: true})
	x, _ = wide.Position()
	assert.Equal(t, 492.0, x, "wide viewports stay horizontal")
}

type frameQueue struct {
	frames []func()
}

func (q *frameQueue) Schedule(fn func()) { q.frames = append(q.frames, fn) }

func (q *frameQueue) flush() {
	frames := q.frames
	q.frames = nil
	for _, fn := range frames {
		fn()
	}
}

func TestMoveTo_CoalescedByScheduler(t *testing.T) {
	p := newPage(t, 1024, false)
	q := &frameQueue{}
	c, err := New(p.doc, WithScheduler(q))
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	c.MoveTo(100)
	c.MoveTo(200)
	c.MoveTo(300)
	assert.Len(t, q.frames, 1)
	assert.Equal(t, "462px", p.logo.Style("left"), "nothing written before the frame")

	q.flush()
	x, _ := c.Position()
	assert.Equal(t, 300.0, x)
	assert.Equal(t, "300px", p.logo.Style("left"))

	c.MoveTo(400)
	assert.Len(t, q.frames, 1, "a new frame after the last one ran")
}

func TestPointerDown_AnchorsOnQueuedFrame(t *testing.T) {
	p := newPage(t, 1024, false)
	q := &frameQueue{}
	c, err := New(p.doc, WithScheduler(q))
	require.NoError(t, err)
	require.NoError(t, c.Start(at(0, 0)))

	c.PointerDown(Pointer{X: 0})
	c.PointerMove(Pointer{X: 300})
	c.PointerUp()

	// Grabbed again before the frame ran.
	c.PointerDown(Pointer{X: 300})
	c.PointerMove(Pointer{X: 310})
	q.flush()

	x, _ := c.Position()
	assert.Equal(t, 326.0, x)
	assert.Equal(t, "326px", p.logo.Style("left"))
}

func TestResize_ReclampsQueuedFrame(t *testing.T) {
	p := newPage(t, 1024, false)
	q := &frameQueue{}
	c, err := New(p.doc, WithScheduler(q))
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	c.MoveTo(900)
	require.Len(t, q.frames, 1)

	p.doc.SetViewport(memdom.Viewport{InnerWidth: 600, FontSize: 16})
	require.NoError(t, c.Resize())
	x, _ := c.Position()
	assert.Equal(t, 484.0, x)

	q.flush()
	x, _ = c.Position()
	assert.Equal(t, 484.0, x, "the queued frame honours the new bounds")
	assert.Equal(t, "484px", p.logo.Style("left"))
}

func TestSchedulerFunc(t *testing.T) {
	var ran bool
	SchedulerFunc(func(fn func()) { fn() }).Schedule(func() { ran = true })
	assert.True(t, ran)
}

func TestDrawPath(t *testing.T) {
	p := newPage(t, 1024, true)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	cv := p.doc.CanvasFor(p.canvas)
	require.NotNil(t, cv)
	assert.Equal(t, 2048, cv.Width)
	assert.Equal(t, 600, cv.Height)
	assert.Equal(t, 2.0, cv.Scale)
	assert.Equal(t, []float64{15, 40}, cv.Dash)
	assert.Equal(t, DecorativeShadowColor, cv.Color)
	assert.Equal(t, 2.5, cv.Line)

	require.Len(t, cv.Strokes, 1)
	pts := cv.Strokes[0]
	require.Len(t, pts, 513)

	first := c.Calculator().ParabolaPosition(0)
	assert.Equal(t, 50.0, pts[0].X, "offset by half the logo image")
	assert.InDelta(t, first.Y*16+30, pts[0].Y, 1e-9)
	assert.Equal(t, 1074.0, pts[512].X)
}

func TestDrawPath_WithoutCanvas(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)
	assert.NoError(t, c.DrawPath())
}

func TestResize_ReclampsAndRedraws(t *testing.T) {
	p := newPage(t, 1024, true)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(23, 59)))
	x, _ := c.Position()
	require.Greater(t, x, 900.0)

	p.doc.SetViewport(memdom.Viewport{InnerWidth: 600, FontSize: 20})
	require.NoError(t, c.Resize())

	x, _ = c.Position()
	assert.Equal(t, 484.0, x)
	assert.Equal(t, "484px", p.logo.Style("left"))
	assert.Equal(t, 4.0, c.Calculator().BaseY(), "base y recomputed from the captured px top")
	assert.Equal(t, 2, p.doc.CanvasFor(p.canvas).Resets)

	// Resizing again at the same font size must not drift.
	require.NoError(t, c.Resize())
	assert.Equal(t, 4.0, c.Calculator().BaseY())
}

func TestResize_KeepsDrag(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	c.PointerDown(Pointer{X: 0, Y: 0})
	require.NoError(t, c.Resize())
	assert.Equal(t, StateDragging, c.State())
}

func TestAttach_Events(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(p.doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))
	require.NoError(t, c.Attach())
	require.NoError(t, c.Attach())
	assert.Equal(t, 1, p.doc.ListenerCount(dom.EventMouseDown))

	down := &dom.Event{Type: dom.EventMouseDown, ClientX: 500, ClientY: 50}
	p.doc.Dispatch(p.logo, down)
	assert.True(t, down.DefaultPrevented())
	assert.Equal(t, StateDragging, c.State())

	p.doc.Dispatch(nil, &dom.Event{Type: dom.EventMouseMove, ClientX: 450, ClientY: 50})
	x, _ := c.Position()
	assert.Equal(t, 412.0, x)

	p.doc.Dispatch(p.logo, &dom.Event{Type: dom.EventMouseOut})
	assert.Equal(t, StateDragging, c.State(), "moving between elements keeps the drag")
	p.doc.Dispatch(nil, &dom.Event{Type: dom.EventMouseOut, LeftWindow: true})
	assert.Equal(t, StateIdle, c.State())

	touch := &dom.Event{Type: dom.EventTouchStart, ClientX: 10, ClientY: 10, Touch: true}
	p.doc.Dispatch(p.logo, touch)
	move := &dom.Event{Type: dom.EventTouchMove, ClientX: 20, ClientY: 10, Touch: true}
	p.doc.Dispatch(nil, move)
	assert.True(t, move.DefaultPrevented(), "touch drags suppress scrolling")
	p.doc.Dispatch(nil, &dom.Event{Type: dom.EventTouchCancel, Touch: true})
	assert.Equal(t, StateIdle, c.State())

	p.doc.SetViewport(memdom.Viewport{InnerWidth: 400})
	p.doc.DispatchWindow(&dom.Event{Type: dom.EventResize})
	x, _ = c.Position()
	assert.Equal(t, 284.0, x)
}

type staticDocument struct{ dom.Document }

func TestAttach_NoEventSource(t *testing.T) {
	p := newPage(t, 1024, false)
	c, err := New(staticDocument{p.doc})
	require.NoError(t, err)
	assert.ErrorIs(t, c.Attach(), ErrNoEventSource)
	assert.NoError(t, c.Start(at(9, 30)))
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := newPage(t, 1024, false)
	c, err := New(p.doc, WithLogger(zap.New(core)))
	require.NoError(t, err)
	require.NoError(t, c.Start(at(12, 0)))

	c.PointerDown(Pointer{})
	c.PointerUp()

	assert.Equal(t, 1, logs.FilterMessage("drag start").Len())
	assert.Equal(t, 1, logs.FilterMessage("drag end").Len())
	assert.Equal(t, 1, logs.FilterMessage("controller resolved").Len())
}
