package browser

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"shadowsite/internal/dom"
	"shadowsite/internal/geometry"
	"shadowsite/internal/scene"
)

// InspectOptions selects the page and the logo position to inspect.
type InspectOptions struct {
	URL string
	// Viewport overrides the configured window size.
	Viewport Viewport
	// At places the logo by time of day; zero means now.
	At time.Time
	// X, when set, moves the logo to this horizontal position after start.
	X *float64
	// Geometry parameters; zero means the defaults.
	Geometry *geometry.Config
	// Screenshot, when set, is the PNG file written after styling.
	Screenshot string
	FullPage   bool
}

// LogoReport is the inline style written to the logo.
type LogoReport struct {
	Left      string `json:"left"`
	Top       string `json:"top"`
	Transform string `json:"transform"`
}

// ShadowReport is one target's shadow as computed and as written.
type ShadowReport struct {
	Selector string  `json:"selector"`
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Style    string  `json:"style"`
}

// Report is the outcome of running the controller on a page.
type Report struct {
	Session  Session               `json:"session"`
	Viewport float64               `json:"viewport"`
	X        float64               `json:"x"`
	Position geometry.PathPosition `json:"position"`
	Logo     LogoReport            `json:"logo"`
	Shadows  []ShadowReport        `json:"shadows"`
}

// Inspect opens the page, runs the shadow controller against it and
// reports what was written. The page is closed afterwards.
func (m *Manager) Inspect(ctx context.Context, opts InspectOptions) (*Report, error) {
	sess, err := m.CreateSession(ctx, opts.URL, opts.Viewport)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := m.CloseSession(sess.ID); err != nil {
			m.log.Debug("close session", zap.Error(err))
		}
	}()

	doc, err := m.Document(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	copts := []scene.Option{scene.WithLogger(m.log)}
	if opts.Geometry != nil {
		copts = append(copts, scene.WithGeometry(*opts.Geometry))
	}
	c, err := scene.New(doc, copts...)
	if err != nil {
		return nil, err
	}

	at := opts.At
	if at.IsZero() {
		at = time.Now()
	}
	if err := c.Start(at); err != nil {
		return nil, err
	}
	if opts.X != nil {
		c.MoveTo(*opts.X)
	}
	if err := doc.Err(); err != nil {
		return nil, fmt.Errorf("browser: %s: %w", opts.URL, err)
	}

	rep := buildReport(c)
	rep.Session = *sess
	rep.Viewport = c.Calculator().ViewportWidth()

	if opts.Screenshot != "" {
		png, err := m.Screenshot(ctx, sess.ID, opts.FullPage)
		if err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
		if err := os.WriteFile(opts.Screenshot, png, 0644); err != nil {
			return nil, fmt.Errorf("screenshot: %w", err)
		}
	}
	return rep, nil
}

// inlineStyler is implemented by elements that can read back inline styles.
type inlineStyler interface {
	InlineStyle(prop string) string
}

func styleOf(el dom.Element, prop string) string {
	if s, ok := el.(inlineStyler); ok {
		return s.InlineStyle(prop)
	}
	return el.ComputedStyle(prop)
}

func buildReport(c *scene.Controller) *Report {
	x, pos := c.Position()
	logo := c.Elements().Logo
	rep := &Report{
		X:        x,
		Position: pos,
		Logo: LogoReport{
			Left:      styleOf(logo, "left"),
			Top:       styleOf(logo, "top"),
			Transform: styleOf(logo, "transform"),
		},
	}
	for _, cast := range c.Shadows() {
		prop := "box-shadow"
		if cast.Target.Kind == geometry.KindDecorative {
			prop = "filter"
		}
		rep.Shadows = append(rep.Shadows, ShadowReport{
			Selector: cast.Target.Selector,
			Kind:     cast.Target.Kind.String(),
			X:        cast.Vector.X,
			Y:        cast.Vector.Y,
			Style:    styleOf(cast.Target.El, prop),
		})
	}
	return rep
}

// WriteText prints the report as an aligned table.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "url\t%s\n", r.Session.URL)
	fmt.Fprintf(tw, "viewport\t%spx\n", dom.FormatNumber(r.Viewport))
	fmt.Fprintf(tw, "x\t%spx\n", dom.FormatNumber(r.X))
	fmt.Fprintf(tw, "position\ty=%srem scale=%s\n", dom.FormatNumber(r.Position.Y), dom.FormatNumber(r.Position.Scale))
	fmt.Fprintf(tw, "logo\tleft: %s; top: %s; transform: %s\n", r.Logo.Left, r.Logo.Top, r.Logo.Transform)
	for _, s := range r.Shadows {
		fmt.Fprintf(tw, "%s\t%s\t(%s, %s)\t%s\n", s.Selector, s.Kind, dom.FormatNumber(s.X), dom.FormatNumber(s.Y), s.Style)
	}
	return tw.Flush()
}
