//go:build integration

package browser_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowsite/internal/browser"
)

const contractPage = `<!DOCTYPE html>
<html><head><style>
  body { margin: 0; }
  .logo { position: absolute; top: 80px; left: 16px; width: 100px; height: 100px; }
  .logo-image { display: block; width: 100px; height: 100px; }
  #pathCanvas { position: absolute; top: 0; left: 0; width: 100%; height: 300px; }
  .breadcrumbs-section { margin-top: 600px; height: 100px; }
  .snake-separator { height: 20px; }
</style></head>
<body>
  <div class="logo"><img class="logo-image" alt=""></div>
  <canvas id="pathCanvas"></canvas>
  <nav class="breadcrumbs-section">crumbs</nav>
  <div class="snake-separator"></div>
</body></html>`

func startManager(t *testing.T) (*browser.Manager, context.Context) {
	t.Helper()
	cfg := browser.DefaultConfig()
	cfg.ViewportWidth = 1024
	cfg.NavigationTimeout = 10 * time.Second

	m := browser.NewManager(cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)
	t.Cleanup(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			t.Logf("Shutdown error: %v", err)
		}
	})
	require.NoError(t, m.Start(ctx), "Failed to start browser")
	return m, ctx
}

func writePage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(contractPage), 0644))
	return "file://" + filepath.ToSlash(path)
}

func TestInspect_Integration(t *testing.T) {
	m, ctx := startManager(t)
	url := writePage(t)
	shot := filepath.Join(t.TempDir(), "shot.png")

	x := 300.0
	rep, err := m.Inspect(ctx, browser.InspectOptions{
		URL:        url,
		X:          &x,
		Screenshot: shot,
	})
	require.NoError(t, err)

	assert.Equal(t, 1024.0, rep.Viewport)
	assert.Equal(t, 300.0, rep.X)
	assert.Equal(t, "300px", rep.Logo.Left)
	assert.True(t, strings.HasPrefix(rep.Logo.Transform, "scale("), rep.Logo.Transform)
	require.Len(t, rep.Shadows, 2)
	assert.NotEmpty(t, rep.Shadows[0].Style)
	assert.Contains(t, rep.Shadows[1].Style, "drop-shadow")
	assert.FileExists(t, shot)
	assert.Empty(t, m.List(), "inspect closes its page")
}

func TestDocument_Integration(t *testing.T) {
	m, ctx := startManager(t)
	sess, err := m.CreateSession(ctx, writePage(t), browser.Viewport{Width: 600})
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)

	doc, err := m.Document(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, doc.Viewport().Width())
	assert.Equal(t, 16.0, doc.Viewport().RootFontSize())

	logo, ok := doc.QuerySelector(".logo")
	require.True(t, ok)
	r := logo.Rect()
	assert.Equal(t, 16.0, r.Left)
	assert.Equal(t, 80.0, r.Top)
	assert.Equal(t, "80px", logo.ComputedStyle("top"))

	logo.SetStyle("left", "40px")
	assert.Equal(t, 40.0, logo.Rect().Left)

	img, ok := logo.QuerySelector(".logo-image")
	require.True(t, ok)
	_, ok = img.Attr("src")
	assert.False(t, ok)
	img.SetAttr("data-x", "1")
	v, ok := img.Attr("data-x")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	assert.Len(t, doc.QuerySelectorAll("div"), 2)
	assert.NoError(t, doc.Err())
}
