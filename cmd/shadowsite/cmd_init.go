package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shadowsite/internal/site"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a starter site",
	Long: `Writes site.yaml, a layout with the logo and thoughts partials, two pages
and a thoughts file into dir (default: the current directory). Existing files
are kept unless --force is given.`,
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	res, err := site.Init(dir, initForce)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, f := range res.Created {
		fmt.Fprintf(out, "  created  %s\n", f)
	}
	for _, f := range res.Skipped {
		fmt.Fprintf(out, "  exists   %s\n", f)
	}
	fmt.Fprintf(out, "Initialized site in %s (%d created, %d kept)\n", dir, len(res.Created), len(res.Skipped))
	return nil
}
