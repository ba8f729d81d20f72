// Package logging provides config-driven categorized logging for shadowsite.
// Each subsystem logs through a named zap logger for its category; categories
// can be switched off individually in site.yaml. Until Initialize or
// SetLogger is called every logger discards.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot    Category = "boot"    // CLI startup, config loading
	CategoryBuild   Category = "build"   // Site builds
	CategoryContent Category = "content" // Thoughts and Markdown
	CategoryWatch   Category = "watch"   // File watcher
	CategoryBrowser Category = "browser" // Headless browser sessions
	CategoryRender  Category = "render"  // Path image rendering
	CategoryPreview Category = "preview" // Terminal tools
)

// Categories lists every category.
var Categories = []Category{
	CategoryBoot, CategoryBuild, CategoryContent, CategoryWatch,
	CategoryBrowser, CategoryRender, CategoryPreview,
}

// Options configures the root logger.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	File       string // extra output path, optional
	Categories map[string]bool
	// Verbose forces the debug level.
	Verbose bool
}

var (
	mu       sync.RWMutex
	root     = zap.NewNop()
	disabled = map[Category]bool{}
	named    = map[Category]*zap.Logger{}
)

// Build creates a logger from opts without installing it.
func Build(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	cfg.OutputPaths = []string{"stderr"}
	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Initialize builds the root logger from opts and installs it.
func Initialize(opts Options) error {
	logger, err := Build(opts)
	if err != nil {
		return err
	}
	SetLogger(logger, opts.Categories)
	Get(CategoryBoot).Debugw("logging initialized", "level", logger.Level().String(), "format", opts.Format)
	return nil
}

// SetLogger installs logger as the root. categories switches individual
// categories off when mapped to false.
func SetLogger(logger *zap.Logger, categories map[string]bool) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	root = logger
	disabled = make(map[Category]bool)
	for name, on := range categories {
		if !on {
			disabled[Category(name)] = true
		}
	}
	named = make(map[Category]*zap.Logger)
}

// Reset restores the no-op logger.
func Reset() { SetLogger(nil, nil) }

// IsCategoryEnabled returns whether a category logs.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return !disabled[category]
}

// Logger returns the named logger for category, for injection into
// packages that take a *zap.Logger.
func Logger(category Category) *zap.Logger {
	mu.RLock()
	l, ok := named[category]
	mu.RUnlock()
	if ok {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := named[category]; ok {
		return l
	}
	if disabled[category] {
		l = zap.NewNop()
	} else {
		l = root.Named(string(category))
	}
	named[category] = l
	return l
}

// Get returns the sugared logger for category.
func Get(category Category) *zap.SugaredLogger {
	return Logger(category).Sugar()
}

// Root returns the root logger.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// Sync flushes the root logger. Errors from syncing a terminal are
// ignored.
func Sync() error {
	err := Root().Sync()
	if err != nil && strings.Contains(err.Error(), "inappropriate ioctl") {
		return nil
	}
	if err != nil && strings.Contains(err.Error(), "invalid argument") {
		return nil
	}
	return err
}
