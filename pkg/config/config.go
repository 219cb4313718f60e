package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for every environment variable the ripper reads.
const EnvPrefix = "TUMBLR_RIPPER_"

// Config holds all configuration options for the ripper
type Config struct {
	// Pagination over the read API
	Crawler CrawlerConfig `yaml:"crawler" json:"crawler"`

	// Worker pool and media fetch settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Proxy settings
	Proxy ProxyConfig `yaml:"proxy" json:"proxy"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics listener
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// CrawlerConfig holds the pagination tunables
type CrawlerConfig struct {
	StartPostIndex    int           `yaml:"start_post_index" json:"start_post_index"`
	EndPostIndex      int           `yaml:"end_post_index" json:"end_post_index"`
	MediaNum          int           `yaml:"media_num" json:"media_num"`
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	RequestTimeout    time.Duration `yaml:"request_timeout" json:"request_timeout"`
	OriginalPostsOnly bool          `yaml:"original_posts_only" json:"original_posts_only"`
	MediaTypes        []string      `yaml:"media_types" json:"media_types"`
	PageRetryLimit    int           `yaml:"page_retry_limit" json:"page_retry_limit"`
	// PageNetworkRetryLimit caps attempts on transport failures and timeouts
	PageNetworkRetryLimit int           `yaml:"page_network_retry_limit" json:"page_network_retry_limit"`
	PageRetryDelay        time.Duration `yaml:"page_retry_delay" json:"page_retry_delay"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	Threads   int           `yaml:"threads" json:"threads"`
	Retry     int           `yaml:"retry" json:"retry"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
	ChunkSize int           `yaml:"chunk_size" json:"chunk_size"`
	QueueSize int           `yaml:"queue_size" json:"queue_size"`
	VideoHost string        `yaml:"video_host" json:"video_host"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	DumpResponses bool   `yaml:"dump_responses" json:"dump_responses"`
	DumpPosts     bool   `yaml:"dump_posts" json:"dump_posts"`
}

// ProxyConfig maps URL schemes to proxy URLs. Read-only once loaded.
type ProxyConfig struct {
	File    string            `yaml:"file" json:"file"`
	Proxies map[string]string `yaml:"proxies" json:"proxies"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// MetricsConfig holds the Prometheus listener address. Empty disables it.
type MetricsConfig struct {
	Address string `yaml:"address" json:"address"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Crawler: CrawlerConfig{
			StartPostIndex:        0,
			EndPostIndex:          3000,
			MediaNum:              50,
			BaseURL:               "https://{source}.tumblr.com",
			RequestTimeout:        30 * time.Second,
			OriginalPostsOnly:     true,
			MediaTypes:            []string{"photo", "video"},
			PageRetryLimit:        0,
			PageNetworkRetryLimit: 5,
			PageRetryDelay:        time.Second,
		},
		Download: DownloadConfig{
			Threads:   10,
			Retry:     5,
			Timeout:   10 * time.Second,
			ChunkSize: 1024,
			QueueSize: 100,
			VideoHost: "https://vt.tumblr.com/",
		},
		Output: OutputConfig{
			BaseDirectory: "downloads",
		},
		Proxy: ProxyConfig{
			File:    "proxies.json",
			Proxies: map[string]string{},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	envInt := func(name string, dst *int) {
		raw := os.Getenv(EnvPrefix + name)
		if raw == "" {
			return
		}
		val, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = val
	}
	envDur := func(name string, dst *time.Duration) {
		raw := os.Getenv(EnvPrefix + name)
		if raw == "" {
			return
		}
		val, err := time.ParseDuration(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = val
	}

	envInt("START_POST_INDEX", &c.Crawler.StartPostIndex)
	envInt("END_POST_INDEX", &c.Crawler.EndPostIndex)
	envInt("MEDIA_NUM", &c.Crawler.MediaNum)
	envInt("PAGE_RETRY_LIMIT", &c.Crawler.PageRetryLimit)
	envInt("PAGE_NETWORK_RETRY_LIMIT", &c.Crawler.PageNetworkRetryLimit)
	envInt("THREADS", &c.Download.Threads)
	envInt("RETRY", &c.Download.Retry)
	envDur("TIMEOUT", &c.Download.Timeout)

	if baseURL := os.Getenv(EnvPrefix + "BASE_URL"); baseURL != "" {
		c.Crawler.BaseURL = baseURL
	}
	if original := os.Getenv(EnvPrefix + "ORIGINAL_POSTS_ONLY"); original != "" {
		c.Crawler.OriginalPostsOnly = strings.ToLower(original) == "true"
	}
	if outputDir := os.Getenv(EnvPrefix + "OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if proxyFile := os.Getenv(EnvPrefix + "PROXY_FILE"); proxyFile != "" {
		c.Proxy.File = proxyFile
	}
	if logLevel := os.Getenv(EnvPrefix + "LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if addr := os.Getenv(EnvPrefix + "METRICS_ADDRESS"); addr != "" {
		c.Metrics.Address = addr
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".tumblr-ripper.yaml",
		".tumblr-ripper.yml",
		filepath.Join(home, ".config", "tumblr-ripper", "config.yaml"),
		filepath.Join(home, ".config", "tumblr-ripper", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Crawler.StartPostIndex < 0 {
		errs = append(errs, errors.New("start post index cannot be negative"))
	}
	if c.Crawler.EndPostIndex < c.Crawler.StartPostIndex {
		errs = append(errs, errors.New("end post index must not be before start post index"))
	}
	if c.Crawler.MediaNum <= 0 {
		errs = append(errs, errors.New("media num must be positive"))
	}
	if !strings.Contains(c.Crawler.BaseURL, "{source}") {
		errs = append(errs, errors.New("base url must contain the {source} placeholder"))
	}
	if c.Crawler.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Crawler.PageRetryLimit < 0 {
		errs = append(errs, errors.New("page retry limit cannot be negative"))
	}
	if c.Crawler.PageNetworkRetryLimit <= 0 {
		errs = append(errs, errors.New("page network retry limit must be positive"))
	}
	if len(c.Crawler.MediaTypes) == 0 {
		errs = append(errs, errors.New("at least one media type is required"))
	}

	if c.Download.Threads <= 0 {
		errs = append(errs, errors.New("threads must be positive"))
	}
	if c.Download.Retry <= 0 {
		errs = append(errs, errors.New("retry must be positive"))
	}
	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Download.QueueSize <= 0 {
		errs = append(errs, errors.New("queue size must be positive"))
	}
	if _, err := url.Parse(c.Download.VideoHost); err != nil || c.Download.VideoHost == "" {
		errs = append(errs, errors.New("video host must be a valid URL"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	for scheme, proxy := range c.Proxy.Proxies {
		if _, err := url.Parse(proxy); err != nil {
			errs = append(errs, fmt.Errorf("invalid proxy for scheme %q: %w", scheme, err))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in flags are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["start"].(int); ok {
		c.Crawler.StartPostIndex = v
	}
	if v, ok := flags["end"].(int); ok {
		c.Crawler.EndPostIndex = v
	}
	if v, ok := flags["num"].(int); ok {
		c.Crawler.MediaNum = v
	}
	if v, ok := flags["original-only"].(bool); ok {
		c.Crawler.OriginalPostsOnly = v
	}
	if v, ok := flags["media-types"].([]string); ok && len(v) > 0 {
		c.Crawler.MediaTypes = v
	}
	if v, ok := flags["threads"].(int); ok {
		c.Download.Threads = v
	}
	if v, ok := flags["retry"].(int); ok {
		c.Download.Retry = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok {
		c.Download.Timeout = v
	}
	if v, ok := flags["output"].(string); ok && v != "" {
		c.Output.BaseDirectory = v
	}
	if v, ok := flags["dump-responses"].(bool); ok {
		c.Output.DumpResponses = v
	}
	if v, ok := flags["dump-posts"].(bool); ok {
		c.Output.DumpPosts = v
	}
	if v, ok := flags["proxies"].(string); ok && v != "" {
		c.Proxy.File = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Address = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".tumblr-ripper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.LoadProxies(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
