package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the project root.
const DefaultPath = "site.yaml"

// Config holds all shadowsite configuration.
type Config struct {
	// Site metadata exposed to templates as .Site
	Site SiteConfig `yaml:"site"`

	// Source and output layout
	Dirs DirsConfig `yaml:"dirs"`

	// Markdown rendering
	Markdown MarkdownConfig `yaml:"markdown"`

	// Passthrough lists files and dirs copied verbatim, relative to the
	// project root.
	Passthrough []string `yaml:"passthrough"`

	// Thoughts content file
	Thoughts ThoughtsConfig `yaml:"thoughts"`

	// Logo geometry and shadows
	Logo LogoConfig `yaml:"logo"`

	// Pre-rendered path images
	PathImages PathImagesConfig `yaml:"path_images"`

	// Link post-processing
	Links LinksConfig `yaml:"links"`

	// Build behavior
	Build BuildConfig `yaml:"build"`

	// Watch mode
	Watch WatchConfig `yaml:"watch"`

	// Headless browser used by inspect
	Browser BrowserConfig `yaml:"browser"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Root is the directory relative paths resolve against: the directory
	// of the loaded file.
	Root string `yaml:"-"`
}

// SiteConfig is site metadata.
type SiteConfig struct {
	Title       string `yaml:"title"`
	BaseURL     string `yaml:"base_url"`
	Author      string `yaml:"author"`
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	// Timezone names the IANA zone thought dates without an offset are
	// read in. Empty means local time.
	Timezone string `yaml:"timezone"`
}

// DirsConfig is the source layout. Includes and Layouts are relative to
// Input; Input and Output to the project root.
type DirsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Includes string `yaml:"includes"`
	Layouts  string `yaml:"layouts"`
}

// MarkdownConfig configures the Markdown renderer.
type MarkdownConfig struct {
	HardWraps        bool `yaml:"hard_wraps"`
	UnsafeHTML       bool `yaml:"unsafe_html"`
	SanitizeThoughts bool `yaml:"sanitize_thoughts"`
	CacheSize        int  `yaml:"cache_size"`
}

// ThoughtsConfig locates the thoughts file.
type ThoughtsConfig struct {
	File string `yaml:"file"`
}

// LinksConfig configures rewriting of external links.
type LinksConfig struct {
	ExternalNewTab bool   `yaml:"external_new_tab"`
	Rel            string `yaml:"rel"`
}

// WatchConfig configures the file watcher.
type WatchConfig struct {
	Debounce string   `yaml:"debounce"`
	Ignore   []string `yaml:"ignore"`
}

// BrowserConfig configures the headless browser.
type BrowserConfig struct {
	Bin               string  `yaml:"bin"`
	Headless          bool    `yaml:"headless"`
	Timeout           string  `yaml:"timeout"`
	ViewportWidth     int     `yaml:"viewport_width"`
	ViewportHeight    int     `yaml:"viewport_height"`
	DeviceScaleFactor float64 `yaml:"device_scale_factor"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Title:    "shadowsite",
			Language: "en",
		},

		Dirs: DirsConfig{
			Input:    "src",
			Output:   "_site",
			Includes: "_includes",
			Layouts:  "_includes/layouts",
		},

		Markdown: MarkdownConfig{
			HardWraps:  true,
			UnsafeHTML: true,
			CacheSize:  512,
		},

		Passthrough: []string{"src/css", "src/assets", "CNAME"},

		Thoughts: ThoughtsConfig{
			File: "src/_includes/thoughts.md",
		},

		Logo:       DefaultLogoConfig(),
		PathImages: DefaultPathImagesConfig(),

		Links: LinksConfig{
			ExternalNewTab: true,
			Rel:            "noopener noreferrer",
		},

		Build: DefaultBuildConfig(),

		Watch: WatchConfig{
			Debounce: "300ms",
			Ignore:   []string{".git", "node_modules"},
		},

		Browser: BrowserConfig{
			Headless:          true,
			Timeout:           "30s",
			ViewportWidth:     1280,
			ViewportHeight:    800,
			DeviceScaleFactor: 1,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},

		Root: ".",
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults rooted at the file's directory.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Root = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Environment variables read by applyEnvOverrides.
const (
	EnvOutput   = "SHADOWSITE_OUTPUT"
	EnvBaseURL  = "SHADOWSITE_BASE_URL"
	EnvLogLevel = "SHADOWSITE_LOG_LEVEL"
)

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if out := os.Getenv(EnvOutput); out != "" {
		c.Dirs.Output = out
	}
	if url := os.Getenv(EnvBaseURL); url != "" {
		c.Site.BaseURL = url
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
}

// resolve joins p to Root unless it is absolute.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	root := c.Root
	if root == "" {
		root = "."
	}
	return filepath.Join(root, p)
}

// InputDir is the absolute or root-relative source directory.
func (c *Config) InputDir() string { return c.resolve(c.Dirs.Input) }

// OutputDir is the build output directory.
func (c *Config) OutputDir() string { return c.resolve(c.Dirs.Output) }

// IncludesDir holds partials and the thoughts file.
func (c *Config) IncludesDir() string { return filepath.Join(c.InputDir(), c.Dirs.Includes) }

// LayoutsDir holds page layouts.
func (c *Config) LayoutsDir() string { return filepath.Join(c.InputDir(), c.Dirs.Layouts) }

// ThoughtsFile is the path of the thoughts file.
func (c *Config) ThoughtsFile() string { return c.resolve(c.Thoughts.File) }

// PassthroughPaths returns the passthrough sources resolved against Root.
func (c *Config) PassthroughPaths() []string {
	out := make([]string, 0, len(c.Passthrough))
	for _, p := range c.Passthrough {
		out = append(out, c.resolve(p))
	}
	return out
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 300 * time.Millisecond
	}
	return d
}

// GetBrowserTimeout returns the browser timeout as a duration.
func (c *Config) GetBrowserTimeout() time.Duration {
	d, err := time.ParseDuration(c.Browser.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetLocation returns the zone for thought dates.
func (c *Config) GetLocation() *time.Location {
	if c.Site.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.Dirs.Input == "" {
		errs = append(errs, errors.New("dirs.input must be set"))
	}
	if c.Dirs.Output == "" {
		errs = append(errs, errors.New("dirs.output must be set"))
	}
	if c.Dirs.Input != "" && filepath.Clean(c.Dirs.Input) == filepath.Clean(c.Dirs.Output) {
		errs = append(errs, fmt.Errorf("dirs.output %q must differ from dirs.input", c.Dirs.Output))
	}
	if c.Site.Timezone != "" {
		if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("site.timezone: %w", err))
		}
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		errs = append(errs, fmt.Errorf("watch.debounce: %w", err))
	}
	if _, err := time.ParseDuration(c.Browser.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("browser.timeout: %w", err))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, fmt.Errorf("browser viewport %dx%d must be positive", c.Browser.ViewportWidth, c.Browser.ViewportHeight))
	}
	if c.Markdown.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("markdown.cache_size %d must not be negative", c.Markdown.CacheSize))
	}
	if c.Build.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("build.concurrency %d must not be negative", c.Build.Concurrency))
	}
	if err := c.Logo.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logo: %w", err))
	}
	if err := c.PathImages.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("path_images: %w", err))
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	return errors.Join(errs...)
}
