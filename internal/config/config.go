package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string `yaml:"log_level"`
	JSONLog  bool   `yaml:"json_log"`
	Quiet    bool   `yaml:"quiet"`

	// HTTP
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	UserAgent   string        `yaml:"user_agent"`
	Proxies     []string      `yaml:"proxies"`
	Headers     []string      `yaml:"headers"`

	// Target site
	BaseURL  string `yaml:"base_url"`
	Endpoint string `yaml:"endpoint"`
	MaxPages int    `yaml:"max_pages"`

	// Crawl pacing
	RequestsPerMinute  int           `yaml:"requests_per_minute"`
	MaxConcurrent      int           `yaml:"max_concurrent"`
	BatchSize          int           `yaml:"batch_size"`
	CheckpointInterval int           `yaml:"checkpoint_interval"`
	MaxRetries         int           `yaml:"max_retries"`
	RetryBaseDelay     time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay      time.Duration `yaml:"retry_max_delay"`
	DiscoveryRPS       float64       `yaml:"discovery_rps"`
	DiscoveryBurst     int           `yaml:"discovery_burst"`

	// Output
	OutputDir          string `yaml:"output_dir"`
	OutputFormat       string `yaml:"output_format"`
	IncludeCoordinates bool   `yaml:"include_coordinates"`

	// Rendering
	RenderMode      string        `yaml:"render_mode"`
	BrowserPoolSize int           `yaml:"browser_pool_size"`
	BrowserHeadless bool          `yaml:"browser_headless"`
	ChromePath      string        `yaml:"chrome_path"`
	ScriptTimeout   time.Duration `yaml:"script_timeout"`

	// Caching
	CacheTTL          time.Duration `yaml:"cache_ttl"`
	CacheMaxSizeBytes int64         `yaml:"cache_max_size_bytes"`
}

// Default returns a Config populated with the Default* constants.
func Default() *Config {
	return &Config{
		LogLevel:           DefaultLogLevel,
		JSONLog:            DefaultJSONLog,
		HTTPTimeout:        DefaultHTTPTimeout,
		UserAgent:          DefaultUserAgent,
		BaseURL:            DefaultBaseURL,
		Endpoint:           DefaultEndpoint,
		RequestsPerMinute:  DefaultRequestsPerMinute,
		MaxConcurrent:      DefaultMaxConcurrent,
		BatchSize:          DefaultBatchSize,
		CheckpointInterval: DefaultCheckpointInterval,
		MaxRetries:         DefaultMaxRetries,
		RetryBaseDelay:     DefaultRetryBaseDelay,
		RetryMaxDelay:      DefaultRetryMaxDelay,
		DiscoveryRPS:       DefaultDiscoveryRPS,
		DiscoveryBurst:     DefaultDiscoveryBurst,
		OutputDir:          DefaultOutputDir,
		OutputFormat:       DefaultOutputFormat,
		IncludeCoordinates: DefaultIncludeCoordinates,
		RenderMode:         DefaultRenderMode,
		BrowserPoolSize:    DefaultBrowserPoolSize,
		BrowserHeadless:    DefaultBrowserHeadless,
		ScriptTimeout:      DefaultScriptTimeout,
		CacheTTL:           DefaultCacheTTL,
		CacheMaxSizeBytes:  DefaultCacheMaxSizeBytes,
	}
}

// Load builds a Config by combining defaults, an optional YAML file, a .env
// file, MALLCRAWL_* environment variables, and CLI flags, in that order.
// Caller should pass the executing *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	path := os.Getenv(EnvPrefix + "CONFIG")
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
			path = f.Value.String()
		}
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// .env never overrides variables already set in the process.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, err
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
