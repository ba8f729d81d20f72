package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shadowsite/internal/geometry"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Dirs.Input != "src" {
		t.Errorf("expected Input=src, got %s", cfg.Dirs.Input)
	}
	if cfg.Dirs.Output != "_site" {
		t.Errorf("expected Output=_site, got %s", cfg.Dirs.Output)
	}
	if cfg.Dirs.Layouts != "_includes/layouts" {
		t.Errorf("expected Layouts=_includes/layouts, got %s", cfg.Dirs.Layouts)
	}
	if len(cfg.Passthrough) != 3 {
		t.Errorf("expected 3 passthrough entries, got %v", cfg.Passthrough)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv(EnvOutput, "")
	t.Setenv(EnvBaseURL, "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "site.yaml")

	cfg := DefaultConfig()
	cfg.Site.Title = "Nightshade"
	cfg.Site.BaseURL = "https://example.org"
	cfg.Logo.MaxYOffset = 3
	cfg.Logo.Shadows["decorative"] = ShadowMagnitude{X: 40, Y: 10, ViewportScaled: true}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Site.Title != "Nightshade" {
		t.Errorf("expected Title=Nightshade, got %s", loaded.Site.Title)
	}
	if loaded.Logo.MaxYOffset != 3 {
		t.Errorf("expected MaxYOffset=3, got %v", loaded.Logo.MaxYOffset)
	}
	if m := loaded.Logo.Shadows["decorative"]; m.X != 40 || !m.ViewportScaled {
		t.Errorf("decorative shadow not round-tripped: %+v", m)
	}
	if loaded.Root != tmpDir {
		t.Errorf("expected Root=%s, got %s", tmpDir, loaded.Root)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv(EnvOutput, "")
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "site.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Dirs.Input != "src" {
		t.Errorf("expected defaults, got Input=%s", cfg.Dirs.Input)
	}
	if got, want := cfg.InputDir(), filepath.Join(dir, "src"); got != want {
		t.Errorf("InputDir = %s, want %s", got, want)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	data := "site:\n  title: Partial\nlogo:\n  shadows:\n    section: {x: 10, y: 5}\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Site.Title != "Partial" {
		t.Errorf("expected Title=Partial, got %s", cfg.Site.Title)
	}
	if cfg.Logo.BaseScale != 0.7 {
		t.Errorf("expected default BaseScale, got %v", cfg.Logo.BaseScale)
	}
	if _, ok := cfg.Logo.Shadows["carousel"]; !ok {
		t.Error("carousel shadow default should survive a partial shadows map")
	}
	if cfg.Logo.Shadows["section"].X != 10 {
		t.Errorf("expected section X=10, got %v", cfg.Logo.Shadows["section"].X)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte("site: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dirs.Output = "src"
	cfg.Watch.Debounce = "soon"
	cfg.Logging.Level = "loud"
	cfg.Logo.Axis = "diagonal"
	cfg.Logo.Shadows["ghost"] = ShadowMagnitude{X: 1, Y: 1}
	cfg.PathImages.Enabled = true
	cfg.PathImages.Widths = []int{0}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"dirs.output", "watch.debounce", "invalid level", "invalid axis", `"ghost"`, "width 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetWatchDebounce() != 300*time.Millisecond {
		t.Errorf("unexpected debounce %v", cfg.GetWatchDebounce())
	}
	cfg.Watch.Debounce = "bogus"
	if cfg.GetWatchDebounce() != 300*time.Millisecond {
		t.Error("GetWatchDebounce should fall back on parse errors")
	}
	if cfg.GetBrowserTimeout() != 30*time.Second {
		t.Errorf("unexpected browser timeout %v", cfg.GetBrowserTimeout())
	}

	if cfg.GetLocation() != time.Local {
		t.Error("empty timezone should be local")
	}
	cfg.Site.Timezone = "UTC"
	if cfg.GetLocation().String() != "UTC" {
		t.Errorf("expected UTC, got %s", cfg.GetLocation())
	}

	cfg.Root = "/srv/site"
	if got := cfg.IncludesDir(); got != "/srv/site/src/_includes" {
		t.Errorf("IncludesDir = %s", got)
	}
	if got := cfg.ThoughtsFile(); got != "/srv/site/src/_includes/thoughts.md" {
		t.Errorf("ThoughtsFile = %s", got)
	}
	cfg.Dirs.Output = "/tmp/out"
	if got := cfg.OutputDir(); got != "/tmp/out" {
		t.Errorf("absolute OutputDir = %s", got)
	}
	paths := cfg.PassthroughPaths()
	if paths[2] != "/srv/site/CNAME" {
		t.Errorf("PassthroughPaths = %v", paths)
	}
}

func TestLogo_ToGeometry(t *testing.T) {
	lc := DefaultLogoConfig()
	g, err := lc.ToGeometry()
	if err != nil {
		t.Fatalf("ToGeometry failed: %v", err)
	}
	def := geometry.DefaultConfig()
	if g.LeftMargin != def.LeftMargin || g.MaxYOffset != def.MaxYOffset || g.ReferenceWidth != def.ReferenceWidth {
		t.Errorf("defaults not preserved: %+v", g)
	}
	if m := g.Magnitude(geometry.KindDecorative); !m.ViewportScaled || m.X != 60 {
		t.Errorf("unexpected decorative magnitude %+v", m)
	}

	lc.Shadows["carousel"] = ShadowMagnitude{X: 80, Y: 30}
	g, err = lc.ToGeometry()
	if err != nil {
		t.Fatal(err)
	}
	if m := g.Magnitude(geometry.KindCarousel); m.X != 80 || m.Y != 30 {
		t.Errorf("carousel override lost: %+v", m)
	}
}

func TestLoggingConfig_IsCategoryEnabled(t *testing.T) {
	c := LoggingConfig{}
	if !c.IsCategoryEnabled("build") {
		t.Error("categories default to enabled")
	}
	c.Categories = map[string]bool{"watch": false}
	if c.IsCategoryEnabled("watch") {
		t.Error("watch should be disabled")
	}
	if !c.IsCategoryEnabled("build") {
		t.Error("unlisted categories are enabled")
	}
}
