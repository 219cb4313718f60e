package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"tumblrripper/pkg/config"
	"tumblrripper/pkg/logger"
	"tumblrripper/pkg/metrics"
	"tumblrripper/pkg/scraper"
	"tumblrripper/pkg/ui"
)

var (
	// Rip command flags
	sourcesFile   string
	startIndex    int
	endIndex      int
	mediaNum      int
	originalOnly  bool
	mediaTypes    []string
	threads       int
	retries       int
	timeout       time.Duration
	outputDir     string
	dumpResponses bool
	dumpPosts     bool
	proxiesFile   string
	metricsAddr   string
)

// errNoSources is returned when neither arguments nor a sources file name a site
var errNoSources = errors.New("no sources to rip")

// ripCmd represents the rip command
var ripCmd = &cobra.Command{
	Use:   "rip [site1,site2,...]",
	Short: "Download photos and videos from Tumblr sites",
	Long: `Download every photo and video posted on the given Tumblr sites.

Sites are given as arguments, separated by commas or spaces. Without
arguments they are read from tumblr_names.txt, or from --sources-file.

Media is saved to <output>/<site>/. Files already present are skipped.`,
	Example: `  # Rip two sites with default settings
  tumblr-ripper rip staff,engineering

  # Read site names from a file and use 20 workers
  tumblr-ripper rip --sources-file sites.txt --threads 20

  # Include reblogs and only download photos
  tumblr-ripper rip staff --original-only=false --media-types photo

  # Expose Prometheus metrics while ripping
  tumblr-ripper rip staff --metrics-addr :9090`,
	Args: cobra.ArbitraryArgs,
	RunE: runRip,
}

func init() {
	rootCmd.AddCommand(ripCmd)
	addRipFlags(ripCmd)
}

// addRipFlags registers the rip flags on cmd. The root command carries them
// too so that ripping works without the "rip" subcommand.
func addRipFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	fs := cmd.Flags()

	fs.StringVarP(&sourcesFile, "sources-file", "f", config.DefaultSourcesFile, "file listing site names")
	fs.IntVar(&startIndex, "start", defaults.Crawler.StartPostIndex, "index of the first post to crawl")
	fs.IntVar(&endIndex, "end", defaults.Crawler.EndPostIndex, "crawl stops at this post index")
	fs.IntVar(&mediaNum, "num", defaults.Crawler.MediaNum, "posts requested per page")
	fs.BoolVar(&originalOnly, "original-only", defaults.Crawler.OriginalPostsOnly, "skip reblogged posts")
	fs.StringSliceVar(&mediaTypes, "media-types", defaults.Crawler.MediaTypes, "post types to crawl, in order")
	fs.IntVarP(&threads, "threads", "t", defaults.Download.Threads, "number of download workers")
	fs.IntVar(&retries, "retry", defaults.Download.Retry, "attempts per media URL")
	fs.DurationVar(&timeout, "timeout", defaults.Download.Timeout, "media request timeout")
	fs.StringVarP(&outputDir, "output", "o", defaults.Output.BaseDirectory, "output directory")
	fs.BoolVar(&dumpResponses, "dump-responses", false, "save every read API page as XML")
	fs.BoolVar(&dumpPosts, "dump-posts", false, "save every post as JSON")
	fs.StringVar(&proxiesFile, "proxies", defaults.Proxy.File, "JSON file mapping URL schemes to proxies")
	fs.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// flagOverrides collects the flags set on the command line
func flagOverrides(cmd *cobra.Command) map[string]interface{} {
	fs := cmd.Flags()
	flags := make(map[string]interface{})

	set := func(name string, value interface{}) {
		if fs.Changed(name) {
			flags[name] = value
		}
	}
	set("start", startIndex)
	set("end", endIndex)
	set("num", mediaNum)
	set("original-only", originalOnly)
	set("media-types", mediaTypes)
	set("threads", threads)
	set("retry", retries)
	set("timeout", timeout)
	set("output", outputDir)
	set("dump-responses", dumpResponses)
	set("dump-posts", dumpPosts)
	set("proxies", proxiesFile)
	set("metrics-addr", metricsAddr)
	set("log-level", logLevel)

	return flags
}

// resolveSources reads site names from args, or from path when args are empty
func resolveSources(args []string, path string) ([]string, error) {
	if len(args) > 0 {
		return config.ParseSources(strings.Join(args, ",")), nil
	}
	sources, err := config.LoadSourcesFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return sources, nil
}

func runRip(cmd *cobra.Command, args []string) error {
	sources, err := resolveSources(args, sourcesFile)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		ui.PrintUsage()
		return errNoSources
	}

	cfg, err := config.Load(configFile, flagOverrides(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.WithField("version", version)
	log.InfoWithFields("Tumblr Ripper starting", map[string]interface{}{
		"sources": sources,
	})

	if len(cfg.Proxy.Proxies) > 0 {
		log.InfoWithFields("You are using proxies", map[string]interface{}{
			"proxies": cfg.Proxy.Proxies,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := metrics.Serve(ctx, cfg.Metrics.Address, log); err != nil {
			log.WithError(err).Error("metrics listener failed")
		}
	}()

	sched, err := scraper.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize ripper: %w", err)
	}

	ui.PrintInfo("Sources", strings.Join(sources, ", "))
	ui.PrintInfo("Output", cfg.Output.BaseDirectory)
	ui.PrintHighlight("[RIPPING]")

	summary, err := sched.Run(ctx, sources)
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		log.WithError(err).Error("run interrupted")
		return err
	}

	ui.PrintSuccess("[ALL DONE]")
	return nil
}

func printSummary(s *scraper.Summary) {
	ui.PrintInfo("Run", s.RunID)
	ui.PrintInfo("Passes", fmt.Sprintf("%d (%d failed)", s.Passes, s.FailedPasses))
	ui.PrintInfo("Media queued", fmt.Sprint(s.Jobs))
	ui.PrintInfo("Media saved", fmt.Sprint(s.Saved))
	ui.PrintInfo("Elapsed", s.Duration.Round(time.Second).String())
	if len(s.MissingSources) > 0 {
		ui.PrintWarning("Sites not found", strings.Join(s.MissingSources, ", "))
	}
}
