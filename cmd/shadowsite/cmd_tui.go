package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"shadowsite/internal/logging"
	"shadowsite/internal/thoughts"
	"shadowsite/internal/tui"
)

var thoughtsCmd = &cobra.Command{
	Use:   "thoughts",
	Short: "Read the thoughts in the terminal",
	Args:  cobra.NoArgs,
	RunE:  runThoughts,
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Drag the logo along its path in the terminal",
	Long: `Lays out a page in memory at the terminal's size and runs the shadow
controller on it. Drag the logo with the mouse or move it with the arrow keys;
the shadows of the sections follow.`,
	Args: cobra.NoArgs,
	RunE: runPreview,
}

var previewAt string

func init() {
	previewCmd.Flags().StringVar(&previewAt, "at", "", "Start at this time of day (15:04) instead of now")
}

// parseClock reads "15:04" as today at that time in loc.
func parseClock(s string, loc *time.Location, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation("15:04", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	now = now.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func runThoughts(cmd *cobra.Command, args []string) error {
	path := cfg.ThoughtsFile()
	ts, err := thoughts.Load(path, cfg.GetLocation())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	logging.Get(logging.CategoryPreview).Debugw("thoughts loaded", "path", path, "count", len(ts))

	m := tui.NewReader(ts, tui.WithLocation(cfg.GetLocation()))
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func runPreview(cmd *cobra.Command, args []string) error {
	geo, err := cfg.Logo.ToGeometry()
	if err != nil {
		return err
	}
	now := time.Now
	if previewAt != "" {
		at, err := parseClock(previewAt, cfg.GetLocation(), time.Now())
		if err != nil {
			return err
		}
		now = func() time.Time { return at }
	}

	m, err := tui.NewPreview(tui.PreviewConfig{
		Geometry: geo,
		Now:      now,
		Logger:   logging.Logger(logging.CategoryPreview),
	})
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
