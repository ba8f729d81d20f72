package site

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"shadowsite/internal/config"
	"shadowsite/internal/dom"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var buildTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func readOutput(t *testing.T, cfg *config.Config, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir(), filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

func newConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Root = dir
	cfg.Site.Timezone = "UTC"
	cfg.Site.BaseURL = "https://example.org"
	return cfg
}

func build(t *testing.T, cfg *config.Config) (*Result, error) {
	t.Helper()
	b, err := New(cfg, WithClock(func() time.Time { return buildTime }))
	require.NoError(t, err)
	return b.Build(context.Background())
}

const plainLayout = `<!DOCTYPE html><html><head><title>{{.Page.Title}} | {{.Site.Title}}</title></head><body>{{.Content}}</body></html>`

func TestInitAndBuild(t *testing.T) {
	dir := t.TempDir()
	scaffolded, err := Init(dir, false)
	require.NoError(t, err)
	assert.Contains(t, scaffolded.Created, "site.yaml")
	assert.Contains(t, scaffolded.Created, "src/_includes/layouts/base.html")
	assert.Empty(t, scaffolded.Skipped)

	cfg, err := config.Load(filepath.Join(dir, "site.yaml"))
	require.NoError(t, err)
	cfg.Site.Timezone = "UTC"

	res, err := build(t, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{"about/index.html", "index.html"}, res.Pages)
	assert.Equal(t, 2, res.Copied)
	assert.Equal(t, 2, res.Thoughts)
	assert.Equal(t, []string{
		"assets/path/path-1024.png",
		"assets/path/path-1440.png",
		"assets/path/path-375.png",
		"assets/path/path-768.png",
	}, res.Images)

	home := readOutput(t, cfg, "index.html")
	assert.Contains(t, home, `<time datetime="2024-03-01T18:00:00Z">March 1, 2024 at 6:00 PM</time>`)
	assert.Contains(t, home, `data-date="2024-01-05T09:30:00Z" hidden=""`)
	assert.Contains(t, home, "<strong>Markdown</strong>")
	assert.Equal(t, 1, strings.Count(home, `disabled=""`), "only the previous button starts disabled")
	assert.Contains(t, home, `src="/assets/path/path-1024.png"`)

	about := readOutput(t, cfg, "about/index.html")
	assert.Contains(t, about, `<a href="https://go.dev" target="_blank" rel="noopener noreferrer">`)
	assert.NotContains(t, about, "thought-container")

	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "css", "site.css"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "assets", "logo.svg"))
}

func TestInit_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"site.yaml": "site:\n  title: mine\n"})

	res, err := Init(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"site.yaml"}, res.Skipped)

	data, err := os.ReadFile(filepath.Join(dir, "site.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "site:\n  title: mine\n", string(data))

	res, err = Init(dir, true)
	require.NoError(t, err)
	assert.Empty(t, res.Skipped)
}

func TestBuild_MarkdownAndHTMLPages(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/_includes/layouts/plain.html": plainLayout,
		"src/_includes/greeting.html":      `<p class="greeting">hello from {{.Site.Title}}</p>`,
		"src/index.md":                     "---\nlayout: plain\ntitle: Home\n---\nline one\nline two\n",
		"src/notes/todo.md":                "no front matter",
		"src/contact.html":                 "---\npermalink: /contact/\n---\n{{template \"greeting.html\" .}}<a href=\"{{.Page.URL}}\">self</a>",
		"src/draft.md":                     "---\ndraft: true\n---\nsecret",
		"src/_includes/ignored.md":         "partials are not pages",
	})
	cfg := newConfig(dir)
	cfg.Site.Title = "Test Site"

	res, err := build(t, cfg)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"contact/index.html", "index.html", "notes/todo/index.html"}, res.Pages); diff != "" {
		t.Errorf("pages mismatch (-want +got):\n%s", diff)
	}

	home := readOutput(t, cfg, "index.html")
	assert.Contains(t, home, "<title>Home | Test Site</title>")
	assert.Contains(t, home, "<p>line one<br>\nline two</p>")

	assert.Equal(t, "<p>no front matter</p>\n", readOutput(t, cfg, "notes/todo/index.html"))
	assert.Equal(t,
		`<p class="greeting">hello from Test Site</p><a href="/contact/">self</a>`,
		readOutput(t, cfg, "contact/index.html"))
}

func TestBuild_MissingLayout(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/index.md": "---\nlayout: nope\n---\nx",
	})
	_, err := build(t, newConfig(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `layout "nope" not found`)
	assert.Contains(t, err.Error(), "index.md")
}

func TestBuild_DuplicateOutputs(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/about.md":   "a",
		"src/other.html": "---\npermalink: /about/\n---\nb",
	})
	_, err := build(t, newConfig(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both render to about/index.html")
}

func TestBuild_ContractViolation(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/_includes/layouts/plain.html": plainLayout,
		"src/index.md": "---\nlayout: plain\n---\n" +
			`<div class="logo"></div>` + "\n\n" +
			`<div class="thought-container"><div class="thought">x</div></div>`,
	})
	cfg := newConfig(dir)

	_, err := build(t, cfg)
	require.Error(t, err)

	var ce *ContractError
	require.True(t, errors.As(err, &ce), err)
	assert.Equal(t, "index.md", ce.Page)

	var missing *dom.MissingElementError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ".snake-separator", missing.Selector)
	assert.Contains(t, err.Error(), ".thought-controls .prev", "both widgets are reported")

	cfg.Build.CheckContract = false
	_, err = build(t, cfg)
	assert.NoError(t, err)
}

func TestBuild_Clean(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/index.md":     "x",
		"_site/stale.html": "old",
	})
	cfg := newConfig(dir)

	_, err := build(t, cfg)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "stale.html"))

	cfg.Build.Clean = true
	_, err = build(t, cfg)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir(), "stale.html"))
	assert.FileExists(t, filepath.Join(cfg.OutputDir(), "index.html"))
}

func TestBuild_Passthrough(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/css/site.css":        "body{}",
		"src/css/print/p.css":     "@media print{}",
		"src/css/not-a-page.html": "<p>copied, not rendered {{.Site.Title}}</p>",
		"CNAME":                   "example.org",
	})
	cfg := newConfig(dir)

	res, err := build(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Copied)
	assert.Empty(t, res.Pages)

	assert.Equal(t, "example.org", readOutput(t, cfg, "CNAME"))
	assert.Equal(t, "@media print{}", readOutput(t, cfg, "css/print/p.css"))
	assert.Contains(t, readOutput(t, cfg, "css/not-a-page.html"), "{{.Site.Title}}")
}

func TestBuild_SanitizedThoughts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/_includes/thoughts.md":    "2024-01-01\nhi <script>alert(1)</script>\n",
		"src/_includes/layouts/t.html": `{{range .Thoughts}}<div>{{.HTML}}</div>{{end}}`,
		"src/index.md":                 "---\nlayout: t\n---\n",
	})
	cfg := newConfig(dir)
	cfg.Markdown.SanitizeThoughts = true

	res, err := build(t, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Thoughts)
	out := readOutput(t, cfg, "index.html")
	assert.Contains(t, out, "hi")
	assert.NotContains(t, out, "<script>")
}

func TestBuild_BadThoughtsFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/_includes/thoughts.md": "not a date\ncontent\n",
	})
	_, err := build(t, newConfig(dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thoughts.md")
}

func TestBuild_LogsSummary(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"src/index.md": "x"})

	core, logs := observer.New(zapcore.InfoLevel)
	b, err := New(newConfig(dir), WithLogger(zap.New(core)))
	require.NoError(t, err)
	_, err = b.Build(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("site built").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["pages"])
}

func TestBuild_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"src/index.md": "x"})
	b, err := New(newConfig(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Dirs.Output = cfg.Dirs.Input
	_, err := New(cfg)
	assert.Error(t, err)
}
