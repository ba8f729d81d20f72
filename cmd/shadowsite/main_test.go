package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shadowsite/internal/config"
	"shadowsite/internal/logging"
)

// execute runs the root command with args and returns what it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath = config.DefaultPath
	verbose = false
	initForce = false
	pathWidths = nil
	pathOut = "."

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		logging.Reset()
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func initSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := execute(t, "init", dir)
	require.NoError(t, err)
	require.Contains(t, out, "created  site.yaml")
	return dir
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "shadowsite dev ("), out)
}

func TestInitThenBuild(t *testing.T) {
	dir := initSite(t)

	out, err := execute(t, "--config", filepath.Join(dir, "site.yaml"), "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 pages, copied 2 files, 2 thoughts, 4 path images")
	assert.FileExists(t, filepath.Join(dir, "_site", "index.html"))
	assert.FileExists(t, filepath.Join(dir, "_site", "assets", "path", "path-375.png"))

	out, err = execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exists   site.yaml")
	assert.Contains(t, out, "(0 created")
}

func TestBuild_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dirs:\n  input: src\n  output: src\n"), 0644))

	_, err := execute(t, "--config", path, "build")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestPath(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "--config", filepath.Join(dir, "site.yaml"), "path", "-w", "320", "-w", "640", "-o", dir)
	require.NoError(t, err)

	want := []string{filepath.Join(dir, "path-320.png"), filepath.Join(dir, "path-640.png")}
	assert.Equal(t, strings.Join(want, "\n")+"\n", out)
	for _, f := range want {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestWatchRoots(t *testing.T) {
	c := config.DefaultConfig()
	c.Root = "/site"
	c.Passthrough = []string{"src/css", "CNAME", "/etc/extra"}

	got := watchRoots(c, "/site/site.yaml")
	assert.Equal(t, []string{
		filepath.Join("/site", "src"),
		"/site/site.yaml",
		filepath.Join("/site", "CNAME"),
		"/etc/extra",
	}, got)
}

func TestRebuilder_ReloadsConfig(t *testing.T) {
	dir := initSite(t)
	cfgFile := filepath.Join(dir, "site.yaml")
	c, err := config.Load(cfgFile)
	require.NoError(t, err)

	var out bytes.Buffer
	rb, err := newRebuilder(cfgFile, c, &out)
	require.NoError(t, err)

	page := filepath.Join(dir, "src", "about.md")
	require.NoError(t, rb.rebuild(context.Background(), []string{page}))
	assert.Contains(t, out.String(), "Built 2 pages")
	assert.Same(t, c, rb.cfg, "a page change keeps the config")

	data, err := os.ReadFile(cfgFile)
	require.NoError(t, err)
	updated := strings.Replace(string(data), "title: My site", "title: Renamed", 1)
	require.NoError(t, os.WriteFile(cfgFile, []byte(updated), 0644))

	require.NoError(t, rb.rebuild(context.Background(), []string{cfgFile}))
	assert.Equal(t, "Renamed", rb.cfg.Site.Title)
	home, err := os.ReadFile(filepath.Join(dir, "_site", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(home), "Renamed")

	require.NoError(t, os.WriteFile(cfgFile, []byte("dirs:\n  output: src\n"), 0644))
	assert.Error(t, rb.rebuild(context.Background(), []string{cfgFile}))
	assert.Equal(t, "Renamed", rb.cfg.Site.Title, "a bad config keeps the last good one")
}

func TestPageURL(t *testing.T) {
	u, err := pageURL("https://example.org/")
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/", u)

	dir := t.TempDir()
	file := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(file, []byte("<p></p>"), 0644))
	u, err = pageURL(file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "file://"), u)
	assert.True(t, strings.HasSuffix(u, "/index.html"), u)

	_, err = pageURL(filepath.Join(dir, "missing.html"))
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	now := time.Date(2024, 5, 6, 23, 59, 0, 0, time.UTC)
	got, err := parseClock("07:30", time.UTC, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 30, 0, 0, time.UTC), got)

	_, err = parseClock("7pm", time.UTC, now)
	assert.Error(t, err)
}
