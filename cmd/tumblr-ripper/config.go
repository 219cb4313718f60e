package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"tumblrripper/pkg/config"
	"tumblrripper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Tumblr Ripper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (TUMBLR_RIPPER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.tumblr-ripper.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Environment variables
  - Configuration file
  - proxies.json
  - Default values`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - proxies.json syntax
  - Value types and ranges
  - Path accessibility`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# Tumblr Ripper Configuration File
#
# Every option can also be set with an environment variable prefixed with
# TUMBLR_RIPPER_, for example TUMBLR_RIPPER_THREADS or TUMBLR_RIPPER_OUTPUT_DIR.

# Pagination over the read API
crawler:
  # First post index to request
  start_post_index: 0

  # Crawling stops once the start index reaches this value
  end_post_index: 3000

  # Posts requested per page (the API caps this at 50)
  media_num: 50

  # Site URL template, {source} is replaced by the site name
  base_url: "https://{source}.tumblr.com"

  # Timeout for one page request
  request_timeout: 30s

  # Skip reblogged posts
  original_posts_only: true

  # Post types crawled for each site, in order
  media_types: [photo, video]

  # Attempts per page that fails to decode (0 retries until it decodes)
  page_retry_limit: 0

  # Attempts per page that fails to connect or times out
  page_network_retry_limit: 5

  # First delay between page attempts, doubled on each retry
  page_retry_delay: 1s

# Downloads
download:
  # Number of download workers
  threads: 10

  # Attempts per media URL
  retry: 5

  # Timeout for connecting and receiving response headers
  timeout: 10s

  # Copy buffer size in bytes
  chunk_size: 1024

  # Jobs buffered between the crawler and the workers
  queue_size: 100

  # Host that serves normalised video files
  video_host: "https://vt.tumblr.com/"

# Output
output:
  # Media is saved to <base_directory>/<site>/
  base_directory: "downloads"

  # Save every read API page as <site>_<type>_<num>_<start>.response.xml
  dump_responses: false

  # Save every post as <site>_post_id_<id>.post.json
  dump_posts: false

# Proxies
proxy:
  # JSON object mapping URL schemes to proxy URLs, ignored when missing
  file: "proxies.json"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stderr only
  file: ""

# Prometheus metrics
metrics:
  # Listen address for /metrics, empty disables it
  address: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".tumblr-ripper.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("%s already exists", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file")
	fmt.Println("2. Run 'tumblr-ripper config validate' to check the configuration")
	fmt.Println("3. Start downloading with 'tumblr-ripper rip <site>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (" + config.EnvPrefix + "*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (default locations)")
	}
	fmt.Println("4. Default values")
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		ui.PrintInfo("Validating configuration", configFile)
	} else {
		ui.PrintInfo("Validating configuration", "(default locations)")
	}

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	var warnings, problems []string

	if err := os.MkdirAll(cfg.Output.BaseDirectory, 0755); err != nil {
		problems = append(problems, fmt.Sprintf("Cannot create output directory: %v", err))
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			problems = append(problems, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}
	if cfg.Crawler.MediaNum > 50 {
		warnings = append(warnings, "media_num above 50 is capped by the read API")
	}
	if _, err := os.Stat(config.DefaultSourcesFile); err != nil {
		warnings = append(warnings, config.DefaultSourcesFile+" not found, sites must be given as arguments")
	}

	if len(problems) > 0 {
		ui.PrintError("Configuration has errors")
		for _, p := range problems {
			fmt.Printf("  - %s\n", p)
		}
		return fmt.Errorf("configuration has %d errors", len(problems))
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Printf("  Post range: %d-%d, %d per page\n", cfg.Crawler.StartPostIndex, cfg.Crawler.EndPostIndex, cfg.Crawler.MediaNum)
	fmt.Printf("  Media types: %v\n", cfg.Crawler.MediaTypes)
	fmt.Printf("  Threads: %d\n", cfg.Download.Threads)
	fmt.Printf("  Retries: %d\n", cfg.Download.Retry)
	fmt.Printf("  Proxies: %d\n", len(cfg.Proxy.Proxies))
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
