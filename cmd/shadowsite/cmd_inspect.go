package main

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"shadowsite/internal/browser"
	"shadowsite/internal/logging"
)

var (
	inspectWidth      int
	inspectHeight     int
	inspectX          float64
	inspectAt         string
	inspectScreenshot string
	inspectFullPage   bool
	inspectJSON       bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <page>",
	Short: "Run the shadow controller on a page in headless Chrome",
	Long: `Opens a page (a URL, or a file such as _site/index.html) in headless
Chrome, runs the shadow controller against the real layout and prints the
styles it wrote. Chrome is located or downloaded by the launcher unless
browser.bin is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.IntVar(&inspectWidth, "width", 0, "Viewport width (default browser.viewport_width)")
	f.IntVar(&inspectHeight, "height", 0, "Viewport height (default browser.viewport_height)")
	f.Float64Var(&inspectX, "x", 0, "Move the logo to this x after start")
	f.StringVar(&inspectAt, "at", "", "Place the logo by this time of day (15:04)")
	f.StringVar(&inspectScreenshot, "screenshot", "", "Write a PNG screenshot to this file")
	f.BoolVar(&inspectFullPage, "full-page", false, "Screenshot the whole page")
	f.BoolVar(&inspectJSON, "json", false, "Print the report as JSON")
}

// pageURL turns a local path into a file:// URL and leaves URLs alone.
func pageURL(arg string) (string, error) {
	if u, err := url.Parse(arg); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	target, err := pageURL(args[0])
	if err != nil {
		return err
	}
	geo, err := cfg.Logo.ToGeometry()
	if err != nil {
		return err
	}
	opts := browser.InspectOptions{
		URL:        target,
		Viewport:   browser.Viewport{Width: inspectWidth, Height: inspectHeight},
		Geometry:   &geo,
		Screenshot: inspectScreenshot,
		FullPage:   inspectFullPage,
	}
	if cmd.Flags().Changed("x") {
		opts.X = &inspectX
	}
	if inspectAt != "" {
		at, err := parseClock(inspectAt, cfg.GetLocation(), time.Now())
		if err != nil {
			return err
		}
		opts.At = at
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 2*cfg.GetBrowserTimeout())
	defer cancelTimeout()

	mgr := browser.NewManager(browser.FromSiteConfig(cfg), logging.Logger(logging.CategoryBrowser))
	if err := mgr.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := mgr.Shutdown(context.Background()); err != nil {
			logging.Get(logging.CategoryBrowser).Warnf("failed to shutdown browser: %v", err)
		}
	}()

	rep, err := mgr.Inspect(ctx, opts)
	if err != nil {
		return err
	}
	if inspectJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return rep.WriteText(cmd.OutOrStdout())
}
