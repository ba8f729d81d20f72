// Package markdown renders page and thought Markdown to HTML with GitHub
// flavored extensions and hard line breaks.
package markdown

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultCacheSize is the number of rendered documents kept.
const DefaultCacheSize = 512

// Options configures a Renderer.
type Options struct {
	// HardWraps turns single newlines into <br>.
	HardWraps bool
	// Unsafe passes raw HTML through.
	Unsafe bool
	// CacheSize bounds the render cache; <= 0 uses DefaultCacheSize.
	CacheSize int
}

// DefaultOptions match the site: hard wraps and raw HTML.
func DefaultOptions() Options {
	return Options{HardWraps: true, Unsafe: true, CacheSize: DefaultCacheSize}
}

// Stats reports cache use.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// Renderer converts Markdown to HTML. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, template.HTML]

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a renderer.
func New(opts Options) (*Renderer, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, template.HTML](size)
	if err != nil {
		return nil, fmt.Errorf("markdown: cache: %w", err)
	}

	var htmlOpts []renderer.Option
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(htmlOpts...),
	)

	return &Renderer{
		md:     md,
		policy: bluemonday.UGCPolicy(),
		cache:  cache,
	}, nil
}

// Render converts src. Raw HTML is kept when the renderer is unsafe.
func (r *Renderer) Render(src string) (template.HTML, error) {
	return r.render(src, false)
}

// RenderSanitized converts src and strips everything outside the user
// content policy: scripts, event handlers, unknown elements.
func (r *Renderer) RenderSanitized(src string) (template.HTML, error) {
	return r.render(src, true)
}

func (r *Renderer) render(src string, sanitize bool) (template.HTML, error) {
	key := cacheKey(src, sanitize)
	if out, ok := r.cache.Get(key); ok {
		r.hits.Add(1)
		return out, nil
	}
	r.misses.Add(1)

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("markdown: convert: %w", err)
	}
	b := buf.Bytes()
	if sanitize {
		b = r.policy.SanitizeBytes(b)
	}
	out := template.HTML(b)
	r.cache.Add(key, out)
	return out, nil
}

func cacheKey(src string, sanitize bool) string {
	h := sha256.New()
	if sanitize {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// Stats returns the cache counters.
func (r *Renderer) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load(), Entries: r.cache.Len()}
}

// Purge drops every cached document.
func (r *Renderer) Purge() { r.cache.Purge() }
