package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"shadowsite/internal/logging"
	"shadowsite/internal/pathrender"
	"shadowsite/internal/site"
)

var (
	pathWidths []int
	pathOut    string
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Render the logo path as PNG images",
	Long: `Renders the dashed parabola the logo travels on, one PNG per viewport
width, with the path_images settings of site.yaml. Widths default to
path_images.widths.`,
	Args: cobra.NoArgs,
	RunE: runPath,
}

func init() {
	pathCmd.Flags().IntSliceVarP(&pathWidths, "width", "w", nil, "Viewport widths to render (repeatable)")
	pathCmd.Flags().StringVarP(&pathOut, "out", "o", ".", "Output directory")
}

func runPath(cmd *cobra.Command, args []string) error {
	opts, err := site.PathOptions(cfg)
	if err != nil {
		return err
	}
	widths := pathWidths
	if len(widths) == 0 {
		widths = cfg.PathImages.Widths
	}
	log := logging.Get(logging.CategoryRender)
	for _, w := range widths {
		if w <= 0 {
			return fmt.Errorf("invalid width %d", w)
		}
		o := opts
		o.ViewportWidth = w
		dst := filepath.Join(pathOut, pathrender.FileName(w))
		if err := pathrender.RenderFile(dst, o); err != nil {
			return err
		}
		log.Debugw("path image written", "path", dst, "width", w)
		fmt.Fprintln(cmd.OutOrStdout(), dst)
	}
	return nil
}
