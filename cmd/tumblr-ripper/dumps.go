package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"tumblrripper/pkg/config"
	"tumblrripper/pkg/metadata"
	"tumblrripper/pkg/ui"
)

// dumpsCmd groups the commands that work on --dump-responses and
// --dump-posts output
var dumpsCmd = &cobra.Command{
	Use:   "dumps",
	Short: "Inspect or remove page and post dumps",
}

var dumpsCleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Remove every page and post dump",
	Long: `Remove the *.response.xml and *.post.json files written by
--dump-responses and --dump-posts. Downloaded media is left alone.

The output directory from the configuration is used unless dir is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDumpsClean,
}

var dumpsShowCmd = &cobra.Command{
	Use:   "show <file.post.json>",
	Short: "Pretty-print a post dump",
	Args:  cobra.ExactArgs(1),
	RunE:  runDumpsShow,
}

func init() {
	rootCmd.AddCommand(dumpsCmd)
	dumpsCmd.AddCommand(dumpsCleanCmd)
	dumpsCmd.AddCommand(dumpsShowCmd)
}

func runDumpsClean(cmd *cobra.Command, args []string) error {
	var dir string
	if len(args) == 1 {
		dir = args[0]
	} else {
		cfg, err := config.Load(configFile, nil)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		dir = cfg.Output.BaseDirectory
	}

	removed, err := metadata.CleanDumps(dir)
	if err != nil {
		ui.PrintError("Failed to clean dumps", err.Error())
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Removed %d dump files from %s", removed, dir))
	return nil
}

func runDumpsShow(cmd *cobra.Command, args []string) error {
	post, err := metadata.LoadPost(args[0])
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(post, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format post: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
