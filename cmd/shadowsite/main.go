// Command shadowsite builds and previews the site.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shadowsite/internal/config"
	"shadowsite/internal/logging"
)

var (
	configPath string
	verbose    bool

	// cfg is loaded by the root PersistentPreRunE.
	cfg *config.Config
)

// skipConfig marks commands that run without site.yaml.
const skipConfig = "skip-config"

var rootCmd = &cobra.Command{
	Use:   "shadowsite",
	Short: "Static site builder for a logo that casts shadows",
	Long: `shadowsite renders the site in src/ into _site/ with Markdown pages,
html/template layouts and a dated thoughts feed, and checks that pages using
the logo or the thoughts carousel carry the elements the scripts need.

The logo preview, the thoughts reader and the browser inspector run the same
shadow controller the page runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := logging.Options{Verbose: verbose}
		if cmd.Annotations[skipConfig] == "" {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config %s: %w", configPath, err)
			}
			opts.Level = cfg.Logging.Level
			opts.Format = cfg.Logging.Format
			opts.File = cfg.Logging.File
			opts.Categories = cfg.Logging.Categories
		}
		if err := logging.Initialize(opts); err != nil {
			return err
		}
		logging.Get(logging.CategoryBoot).Debugw("command start", "command", cmd.Name(), "config", configPath)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to site.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(thoughtsCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
