package markdown

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return r
}

func TestRender_GFMAndBreaks(t *testing.T) {
	r := newRenderer(t, DefaultOptions())

	out, err := r.Render("line one\nline two")
	require.NoError(t, err)
	assert.Contains(t, string(out), "line one<br")

	out, err = r.Render("~~gone~~ and https://example.com")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<del>gone</del>")
	assert.Contains(t, string(out), `<a href="https://example.com">`)

	out, err = r.Render("| a | b |\n|---|---|\n| 1 | 2 |")
	require.NoError(t, err)
	assert.Contains(t, string(out), "<table>")
}

func TestRender_RawHTML(t *testing.T) {
	unsafe := newRenderer(t, DefaultOptions())
	out, err := unsafe.Render(`<div class="note">hi</div>`)
	require.NoError(t, err)
	assert.Contains(t, string(out), `<div class="note">hi</div>`)

	safe := newRenderer(t, Options{})
	out, err = safe.Render(`<div class="note">hi</div>`)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `<div class="note">`)
}

func TestRenderSanitized(t *testing.T) {
	r := newRenderer(t, DefaultOptions())

	out, err := r.RenderSanitized("hello <script>alert(1)</script> <a href=\"https://x.dev\" onclick=\"evil()\">x</a>")
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script")
	assert.NotContains(t, string(out), "onclick")
	assert.Contains(t, string(out), "https://x.dev")

	plain, err := r.Render("hello <script>alert(1)</script>")
	require.NoError(t, err)
	assert.Contains(t, string(plain), "<script>", "pages keep raw HTML")
}

func TestRender_Cache(t *testing.T) {
	r := newRenderer(t, Options{HardWraps: true, CacheSize: 2})

	_, err := r.Render("a")
	require.NoError(t, err)
	_, err = r.Render("a")
	require.NoError(t, err)
	_, err = r.RenderSanitized("a")
	require.NoError(t, err)

	st := r.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(2), st.Misses, "sanitized output is cached separately")
	assert.Equal(t, 2, st.Entries)

	_, err = r.Render("b")
	require.NoError(t, err)
	assert.Equal(t, 2, r.Stats().Entries, "bounded by cache size")

	r.Purge()
	assert.Equal(t, 0, r.Stats().Entries)
}

func TestRender_Concurrent(t *testing.T) {
	r := newRenderer(t, DefaultOptions())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Render("# Title\n\nbody")
			assert.NoError(t, err)
			assert.Contains(t, string(out), "<h1>Title</h1>")
		}()
	}
	wg.Wait()
}
