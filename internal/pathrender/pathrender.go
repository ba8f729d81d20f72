// Package pathrender rasterizes the logo's dashed path to PNG, so pages
// without scripting can still show it.
package pathrender

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/gogpu/gg"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
	"shadowsite/internal/scene"
)

var _ dom.Canvas = (*Canvas)(nil)

// Canvas is a dom.Canvas backed by a software gg context.
type Canvas struct {
	ctx *gg.Context
}

// NewCanvas returns a 1x1 canvas; call Reset to size it.
func NewCanvas() *Canvas {
	return &Canvas{ctx: gg.NewContext(1, 1)}
}

func (c *Canvas) Reset(width, height int, scale float64) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	if c.ctx != nil {
		_ = c.ctx.Close()
	}
	c.ctx = gg.NewContext(width, height)
	c.ctx.Clear()
	c.ctx.Scale(scale, scale)
}

func (c *Canvas) SetLineDash(segments ...float64) { c.ctx.SetDash(segments...) }

func (c *Canvas) SetStrokeColor(col dom.RGBA) {
	c.ctx.SetRGBA(float64(col.R)/255, float64(col.G)/255, float64(col.B)/255, col.A)
}

func (c *Canvas) SetLineWidth(w float64) { c.ctx.SetLineWidth(w) }
func (c *Canvas) BeginPath()             { c.ctx.ClearPath() }
func (c *Canvas) MoveTo(x, y float64)    { c.ctx.MoveTo(x, y) }
func (c *Canvas) LineTo(x, y float64)    { c.ctx.LineTo(x, y) }
func (c *Canvas) Stroke() error          { return c.ctx.Stroke() }

// Image returns the rendered pixels.
func (c *Canvas) Image() image.Image { return c.ctx.Image() }

// EncodePNG writes the canvas as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error { return c.ctx.EncodePNG(w) }

// Close releases the context.
func (c *Canvas) Close() error { return c.ctx.Close() }

// Options describe one rendering.
type Options struct {
	// ViewportWidth and Height are CSS px; Scale is the device pixel ratio.
	ViewportWidth int
	Height        int
	Scale         float64

	// BaseTop is the logo's resting top, px.
	BaseTop      float64
	RootFontSize float64
	// LogoSize is the logo image edge, px.
	LogoSize float64

	Geometry geometry.Config
	Style    scene.PathStyle
}

// DefaultOptions renders a 1024px wide viewport the way the site lays it
// out.
func DefaultOptions() Options {
	return Options{
		ViewportWidth: 1024,
		Height:        300,
		Scale:         2,
		BaseTop:       80,
		RootFontSize:  16,
		LogoSize:      100,
		Geometry:      geometry.DefaultConfig(),
		Style:         scene.DefaultPathStyle(),
	}
}

// Draw strokes the path for opts onto cv.
func Draw(cv dom.Canvas, opts Options) error {
	if opts.ViewportWidth <= 0 || opts.Height <= 0 {
		return fmt.Errorf("pathrender: invalid size %dx%d", opts.ViewportWidth, opts.Height)
	}
	if opts.RootFontSize <= 0 {
		return fmt.Errorf("pathrender: invalid root font size %v", opts.RootFontSize)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	width := float64(opts.ViewportWidth)
	pos := geometry.NewPositionCalculator(opts.Geometry, opts.BaseTop/opts.RootFontSize, width)
	half := opts.LogoSize / 2
	pts := pos.SamplePath(opts.Style.Step, opts.RootFontSize, geometry.Point{X: half, Y: half})

	cv.Reset(int(width*scale), int(float64(opts.Height)*scale), scale)
	if err := scene.StrokePath(cv, pts, opts.Style); err != nil {
		return fmt.Errorf("pathrender: stroke: %w", err)
	}
	return nil
}

// Render writes the path for opts as PNG to w.
func Render(w io.Writer, opts Options) error {
	cv := NewCanvas()
	defer cv.Close()

	if err := Draw(cv, opts); err != nil {
		return err
	}
	if err := cv.EncodePNG(w); err != nil {
		return fmt.Errorf("pathrender: encode: %w", err)
	}
	return nil
}

// RenderFile renders into path, creating parent directories.
func RenderFile(path string, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("pathrender: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pathrender: %w", err)
	}
	bw := bufio.NewWriter(f)
	if err := Render(bw, opts); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("pathrender: %w", err)
	}
	return f.Close()
}

// FileName is the image name for a viewport width.
func FileName(width int) string { return fmt.Sprintf("path-%d.png", width) }
