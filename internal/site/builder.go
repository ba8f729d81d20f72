// Package site builds the static site: Markdown and HTML pages rendered
// through layouts, the thoughts file, passthrough assets and the logo path
// images.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shadowsite/internal/config"
	"shadowsite/internal/markdown"
	"shadowsite/internal/pathrender"
	"shadowsite/internal/scene"
	"shadowsite/internal/thoughts"
)

// Result summarizes a build.
type Result struct {
	// Pages are the written pages, relative to the output directory.
	Pages    []string
	Copied   int
	Images   []string
	Thoughts int
	Duration time.Duration
}

// Builder renders a site described by a Config. A Builder can be reused
// across builds; its Markdown cache is kept.
type Builder struct {
	cfg *config.Config
	md  *markdown.Renderer
	log *zap.Logger
	now func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger; the default discards.
func WithLogger(l *zap.Logger) Option { return func(b *Builder) { b.log = l } }

// WithRenderer shares a Markdown renderer, and its cache, with the caller.
func WithRenderer(r *markdown.Renderer) Option { return func(b *Builder) { b.md = r } }

// WithClock sets the build time source.
func WithClock(now func() time.Time) Option { return func(b *Builder) { b.now = now } }

// New validates cfg and returns a Builder.
func New(cfg *config.Config, opts ...Option) (*Builder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("site: invalid config: %w", err)
	}
	b := &Builder{cfg: cfg, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	if b.md == nil {
		md, err := markdown.New(markdown.Options{
			HardWraps: cfg.Markdown.HardWraps,
			Unsafe:    cfg.Markdown.UnsafeHTML,
			CacheSize: cfg.Markdown.CacheSize,
		})
		if err != nil {
			return nil, err
		}
		b.md = md
	}
	return b, nil
}

// Config returns the configuration the builder renders.
func (b *Builder) Config() *config.Config { return b.cfg }

// Markdown returns the builder's renderer.
func (b *Builder) Markdown() *markdown.Renderer { return b.md }

// Build renders the whole site into the output directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := b.now()
	out := b.cfg.OutputDir()

	if b.cfg.Build.Clean {
		if err := os.RemoveAll(out); err != nil {
			return nil, fmt.Errorf("site: clean %s: %w", out, err)
		}
	}
	if err := os.MkdirAll(out, 0755); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	ts, err := b.loadThoughts()
	if err != nil {
		return nil, err
	}
	tmpl, err := b.loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	pages, err := b.discover()
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	if err := checkDuplicates(pages); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	// HTML page templates are parsed before rendering starts; clones cannot
	// be taken from a template set once any of it has executed.
	bodies := make(map[*Page]*template.Template)
	for _, p := range pages {
		if p.IsMarkdown() {
			continue
		}
		t, err := tmpl.page(p)
		if err != nil {
			return nil, fmt.Errorf("site: %s: %w", p.Source, err)
		}
		bodies[p] = t
	}

	pathOpts, err := PathOptions(b.cfg)
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}

	res := &Result{Thoughts: len(ts)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency())

	for _, p := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data := Data{
				Site:     b.cfg.Site,
				Thoughts: ts,
				Built:    start,
				Page: PageData{
					Title:  p.FrontMatter.Title,
					URL:    p.URL,
					Source: p.Source,
					Layout: p.FrontMatter.Layout,
					Params: p.FrontMatter.Params,
				},
			}
			if err := b.renderPage(tmpl, bodies[p], p, data); err != nil {
				return fmt.Errorf("site: %s: %w", p.Source, err)
			}
			mu.Lock()
			res.Pages = append(res.Pages, p.Output)
			mu.Unlock()
			return nil
		})
	}

	for _, src := range b.cfg.PassthroughPaths() {
		g.Go(func() error {
			n, err := b.copyPassthrough(src)
			mu.Lock()
			res.Copied += n
			mu.Unlock()
			return err
		})
	}

	if b.cfg.PathImages.Enabled {
		for _, w := range b.cfg.PathImages.Widths {
			g.Go(func() error {
				o := pathOpts
				o.ViewportWidth = w
				rel := filepath.Join(b.cfg.PathImages.Dir, pathrender.FileName(w))
				if err := pathrender.RenderFile(filepath.Join(out, rel), o); err != nil {
					return fmt.Errorf("site: path image %d: %w", w, err)
				}
				mu.Lock()
				res.Images = append(res.Images, filepath.ToSlash(rel))
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(res.Pages)
	sort.Strings(res.Images)
	res.Duration = b.now().Sub(start)
	b.log.Info("site built",
		zap.Int("pages", len(res.Pages)),
		zap.Int("copied", res.Copied),
		zap.Int("images", len(res.Images)),
		zap.Int("thoughts", res.Thoughts),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (b *Builder) concurrency() int {
	if n := b.cfg.Build.Concurrency; n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// loadThoughts reads and renders the thoughts file. A site without one has
// no thoughts.
func (b *Builder) loadThoughts() ([]thoughts.Thought, error) {
	path := b.cfg.ThoughtsFile()
	ts, err := thoughts.Load(path, b.cfg.GetLocation())
	if errors.Is(err, fs.ErrNotExist) {
		b.log.Debug("no thoughts file", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	render := b.md.Render
	if b.cfg.Markdown.SanitizeThoughts {
		render = b.md.RenderSanitized
	}
	if err := thoughts.Render(ts, render); err != nil {
		return nil, fmt.Errorf("site: %w", err)
	}
	b.log.Debug("thoughts loaded", zap.Int("count", len(ts)))
	return ts, nil
}

// discover lists the pages under the input directory. Includes, output
// and passthrough directories are skipped, as are drafts.
func (b *Builder) discover() ([]*Page, error) {
	input := b.cfg.InputDir()
	skip := []string{b.cfg.IncludesDir(), b.cfg.OutputDir()}
	for _, p := range b.cfg.PassthroughPaths() {
		if within(input, p) && filepath.Clean(p) != filepath.Clean(input) {
			skip = append(skip, p)
		}
	}

	var pages []*Page
	err := filepath.WalkDir(input, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			for _, s := range skip {
				if filepath.Clean(p) == filepath.Clean(s) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext != ".md" && ext != ".html" {
			return nil
		}
		src, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(input, p)
		page, err := newPage(rel, src)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}
		if page.FrontMatter.Draft {
			b.log.Debug("draft skipped", zap.String("page", page.Source))
			return nil
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

func checkDuplicates(pages []*Page) error {
	seen := make(map[string]string, len(pages))
	var errs []error
	for _, p := range pages {
		if other, ok := seen[p.Output]; ok {
			errs = append(errs, fmt.Errorf("%s and %s both render to %s", other, p.Source, p.Output))
			continue
		}
		seen[p.Output] = p.Source
	}
	return errors.Join(errs...)
}

// renderPage renders one page through its layout, post-processes it and
// writes it out.
func (b *Builder) renderPage(tmpl *templates, body *template.Template, p *Page, data Data) error {
	var content template.HTML
	if p.IsMarkdown() {
		html, err := b.md.Render(p.Body)
		if err != nil {
			return err
		}
		content = html
	} else {
		var buf bytes.Buffer
		if err := body.Execute(&buf, data); err != nil {
			return err
		}
		content = template.HTML(buf.String())
	}

	rendered := []byte(content)
	if name := p.FrontMatter.Layout; name != "" {
		layout, ok := tmpl.layout(name)
		if !ok {
			return fmt.Errorf("layout %q not found in %s", name, b.cfg.LayoutsDir())
		}
		data.Content = content
		var buf bytes.Buffer
		if err := layout.Execute(&buf, data); err != nil {
			return err
		}
		rendered = buf.Bytes()
	}

	rendered, err := b.postProcess(p, rendered)
	if err != nil {
		return err
	}

	dst := filepath.Join(b.cfg.OutputDir(), filepath.FromSlash(p.Output))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, rendered, 0644); err != nil {
		return err
	}
	b.log.Debug("page written", zap.String("page", p.Source), zap.String("output", p.Output))
	return nil
}

// PathOptions are the path image settings of cfg, rendered the way the
// build renders them.
func PathOptions(cfg *config.Config) (pathrender.Options, error) {
	g, err := cfg.Logo.ToGeometry()
	if err != nil {
		return pathrender.Options{}, err
	}
	pi := cfg.PathImages
	return pathrender.Options{
		Height:       pi.Height,
		Scale:        pi.Scale,
		BaseTop:      pi.BaseTop,
		RootFontSize: pi.RootFontSize,
		LogoSize:     pi.LogoSize,
		Geometry:     g,
		Style:        scene.DefaultPathStyle(),
	}, nil
}
