package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shadowsite/internal/config"
	"shadowsite/internal/logging"
	"shadowsite/internal/markdown"
	"shadowsite/internal/site"
	"shadowsite/internal/watch"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Render the site into the output directory",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Build, then rebuild whenever a source file changes",
	Long: `Builds the site once and watches the input directory, site.yaml and the
passthrough paths. Changes are debounced (watch.debounce in site.yaml) and
trigger a full rebuild; a change to site.yaml reloads it first.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigCh)
		select {
		case <-sigCh:
			logging.Get(logging.CategoryBoot).Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

func buildOnce(ctx context.Context, c *config.Config, md *markdown.Renderer, out io.Writer) error {
	opts := []site.Option{site.WithLogger(logging.Logger(logging.CategoryBuild))}
	if md != nil {
		opts = append(opts, site.WithRenderer(md))
	}
	b, err := site.New(c, opts...)
	if err != nil {
		return err
	}
	res, err := b.Build(ctx)
	if err != nil {
		return err
	}
	printResult(out, c, res)
	return nil
}

func printResult(out io.Writer, c *config.Config, res *site.Result) {
	fmt.Fprintf(out, "Built %d pages, copied %d files, %d thoughts", len(res.Pages), res.Copied, res.Thoughts)
	if len(res.Images) > 0 {
		fmt.Fprintf(out, ", %d path images", len(res.Images))
	}
	fmt.Fprintf(out, " into %s in %s\n", c.OutputDir(), res.Duration.Round(time.Millisecond))
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	return buildOnce(ctx, cfg, nil, cmd.OutOrStdout())
}

// watchRoots are the paths a watch session observes: the input directory,
// the config file and passthrough paths outside the input directory.
func watchRoots(c *config.Config, cfgFile string) []string {
	input := c.InputDir()
	roots := []string{input, cfgFile}
	for _, p := range c.PassthroughPaths() {
		if rel, err := filepath.Rel(input, p); err == nil && !strings.HasPrefix(rel, "..") {
			continue
		}
		roots = append(roots, p)
	}
	return roots
}

// rebuilder reloads the config when it changed and rebuilds, keeping the
// Markdown cache across builds.
type rebuilder struct {
	cfgFile string
	cfg     *config.Config
	md      *markdown.Renderer
	out     io.Writer
	log     *zap.Logger
}

func newRebuilder(cfgFile string, c *config.Config, out io.Writer) (*rebuilder, error) {
	md, err := markdown.New(markdown.Options{
		HardWraps: c.Markdown.HardWraps,
		Unsafe:    c.Markdown.UnsafeHTML,
		CacheSize: c.Markdown.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	return &rebuilder{
		cfgFile: cfgFile,
		cfg:     c,
		md:      md,
		out:     out,
		log:     logging.Logger(logging.CategoryWatch),
	}, nil
}

func (r *rebuilder) rebuild(ctx context.Context, changed []string) error {
	cfgAbs, _ := filepath.Abs(r.cfgFile)
	for _, p := range changed {
		if abs, _ := filepath.Abs(p); abs == cfgAbs {
			c, err := config.Load(r.cfgFile)
			if err == nil {
				err = c.Validate()
			}
			if err != nil {
				// Keep serving the last good config.
				r.log.Error("config reload failed", zap.Error(err))
				return err
			}
			r.log.Info("config reloaded")
			r.cfg = c
			break
		}
	}

	r.log.Info("rebuilding", zap.Strings("changed", changed))
	if err := buildOnce(ctx, r.cfg, r.md, r.out); err != nil {
		r.log.Error("build failed", zap.Error(err))
		return err
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	out := cmd.OutOrStdout()

	rb, err := newRebuilder(configPath, cfg, out)
	if err != nil {
		return err
	}
	if err := buildOnce(ctx, cfg, rb.md, out); err != nil {
		// The first build may fail while the author is fixing a page.
		fmt.Fprintf(cmd.ErrOrStderr(), "build failed: %v\n", err)
	}

	w, err := watch.New(watchRoots(cfg, configPath), rb.rebuild,
		watch.WithDebounce(cfg.GetWatchDebounce()),
		watch.WithIgnore(cfg.Watch.Ignore...),
	)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Fprintf(out, "Watching %d directories, press Ctrl+C to stop\n", len(w.WatchedDirs()))
	<-ctx.Done()

	stats := w.GetStats()
	fmt.Fprintf(out, "Stopped after %d rebuilds (%d failed)\n", stats.Rebuilds, stats.Errors)
	return nil
}
