package config

import (
	"fmt"
	"net/url"

	"github.com/law-makers/mallcrawl/internal/utils/headers"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog"
)

func validate(c *Config) error {
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base url must be absolute, got %q", c.BaseURL)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("requests per minute must be > 0")
	}
	if c.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent must be >= 0 (0 = auto)")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be > 0")
	}
	if c.CheckpointInterval <= 0 {
		return fmt.Errorf("checkpoint interval must be > 0")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0")
	}
	if c.RetryBaseDelay <= 0 || c.RetryMaxDelay < c.RetryBaseDelay {
		return fmt.Errorf("retry delays must satisfy 0 < base <= max")
	}
	if c.DiscoveryRPS <= 0 || c.DiscoveryBurst <= 0 {
		return fmt.Errorf("discovery rps and burst must be > 0")
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max pages must be >= 0")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must be set")
	}
	if _, ok := models.ParseOutputFormat(c.OutputFormat); !ok {
		return fmt.Errorf("unknown output format %q", c.OutputFormat)
	}
	switch models.RenderMode(c.RenderMode) {
	case models.RenderStatic, models.RenderSPA, models.RenderAuto:
	default:
		return fmt.Errorf("unknown render mode %q", c.RenderMode)
	}
	if c.BrowserPoolSize <= 0 || c.BrowserPoolSize > DefaultMaxBrowserPoolSize {
		return fmt.Errorf("browser pool size must be between 1 and %d", DefaultMaxBrowserPoolSize)
	}
	if c.CacheMaxSizeBytes < 0 {
		return fmt.Errorf("cache max size must be >= 0 (0 disables caching)")
	}
	if _, err := headers.Parse(c.Headers); err != nil {
		return err
	}
	return nil
}
