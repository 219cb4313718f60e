package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"tumblrripper/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tumblr-ripper [site1,site2,...]",
	Short: "Download photos and videos from Tumblr sites",
	Long: `Tumblr Ripper downloads the photos and videos posted on Tumblr sites
through the public read API.

Each site is crawled page by page, once for photos and once for videos, and
media is saved to downloads/<site>/. Files already on disk are skipped, so an
interrupted run can simply be started again.

Features:
  - Concurrent downloads with a fixed pool of workers
  - Retries for pages and media that fail in transit
  - Original posts only by default, reblogs on request
  - Optional proxies from proxies.json
  - Optional dumps of raw pages and posts
  - Prometheus metrics endpoint`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.ArbitraryArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetNoColor(noColor)
		if quiet {
			ui.SetOutput(io.Discard)
		}

		// Don't show logo for certain commands
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "show" {
			ui.PrintLogo()
		}
	},
	RunE:          runRip,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .tumblr-ripper.yaml or ~/.config/tumblr-ripper/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress terminal messages, logs are unaffected")

	addRipFlags(rootCmd)

	rootCmd.SetVersionTemplate(`Tumblr Ripper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
