package browser

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowsite/internal/config"
	"shadowsite/internal/dom/memdom"
	"shadowsite/internal/geometry"
	"shadowsite/internal/scene"
)

func TestConfigDefaults(t *testing.T) {
	var zero Config
	assert.Equal(t, 1280, zero.GetViewportWidth())
	assert.Equal(t, 800, zero.GetViewportHeight())
	assert.Equal(t, 1.0, zero.GetDeviceScaleFactor())
	assert.Equal(t, 30*time.Second, zero.GetNavigationTimeout())

	assert.True(t, DefaultConfig().Headless)
}

func TestFromSiteConfig(t *testing.T) {
	site := config.DefaultConfig()
	site.Browser.Bin = "/usr/bin/chromium"
	site.Browser.Timeout = "5s"
	site.Browser.ViewportWidth = 375
	site.Browser.DeviceScaleFactor = 3

	cfg := FromSiteConfig(site)
	assert.Equal(t, "/usr/bin/chromium", cfg.Bin)
	assert.Equal(t, 5*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 375, cfg.GetViewportWidth())
	assert.Equal(t, 800, cfg.GetViewportHeight())
	assert.Equal(t, 3.0, cfg.GetDeviceScaleFactor())
}

func TestLaunchFlags(t *testing.T) {
	got := launchFlags([]string{"--no-sandbox", "--window-size=800,600", "", "--"})
	assert.Equal(t, map[flags.Flag][]string{
		"no-sandbox":  nil,
		"window-size": {"800,600"},
	}, got)
}

func TestManager_NotConnected(t *testing.T) {
	m := NewManager(DefaultConfig(), nil)
	assert.False(t, m.IsConnected())
	assert.Empty(t, m.ControlURL())

	_, err := m.CreateSession(context.Background(), "about:blank", Viewport{})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, ok := m.Page("missing")
	assert.False(t, ok)
	_, err = m.Document(context.Background(), "missing")
	assert.Error(t, err)
	assert.Error(t, m.CloseSession("missing"))

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Empty(t, m.List())
}

func reportFixture(t *testing.T) *scene.Controller {
	t.Helper()
	doc := memdom.New(memdom.Viewport{InnerWidth: 1024})
	doc.Append(
		memdom.El("div.logo").
			WithRect(geometry.Rect{Left: 0, Top: 80, Width: 100, Height: 100}).
			WithComputed("top", "80px"),
		memdom.El("section.breadcrumbs-section").
			WithRect(geometry.Rect{Left: 100, Top: 800, Width: 600, Height: 100}),
		memdom.El("div.snake-separator").
			WithRect(geometry.Rect{Left: 0, Top: 1000, Width: 1024, Height: 20}),
	)
	c, err := scene.New(doc)
	require.NoError(t, err)
	require.NoError(t, c.Start(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)))
	return c
}

func TestBuildReport(t *testing.T) {
	rep := buildReport(reportFixture(t))

	assert.Equal(t, 462.0, rep.X)
	assert.Equal(t, "462px", rep.Logo.Left)
	assert.Equal(t, "scale(1)", rep.Logo.Transform)

	require.Len(t, rep.Shadows, 2)
	assert.Equal(t, ".breadcrumbs-section", rep.Shadows[0].Selector)
	assert.Equal(t, "section", rep.Shadows[0].Kind)
	assert.True(t, strings.HasSuffix(rep.Shadows[0].Style, "rgba(3, 3, 4, 0.8)"), rep.Shadows[0].Style)

	assert.Equal(t, "decorative", rep.Shadows[1].Kind)
	assert.True(t, strings.HasPrefix(rep.Shadows[1].Style, "drop-shadow("), rep.Shadows[1].Style)
}

func TestReport_WriteText(t *testing.T) {
	rep := buildReport(reportFixture(t))
	rep.Session.URL = "file:///site/index.html"
	rep.Viewport = 1024

	var sb strings.Builder
	require.NoError(t, rep.WriteText(&sb))
	out := sb.String()
	assert.Contains(t, out, "file:///site/index.html")
	assert.Contains(t, out, "1024px")
	assert.Contains(t, out, "left: 462px;")
	assert.Contains(t, out, ".snake-separator")
}
