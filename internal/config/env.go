package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type lookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(cfg *Config, v string) error
}

func str(dst func(*Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func integer(dst func(*Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func boolean(dst func(*Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func duration(dst func(*Config) *time.Duration) func(*Config, string) error {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(c) = d
		return nil
	}
}

func list(dst func(*Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst(c) = out
		return nil
	}
}

var envBindings = []envBinding{
	{"LOG_LEVEL", str(func(c *Config) *string { return &c.LogLevel })},
	{"JSON_LOG", boolean(func(c *Config) *bool { return &c.JSONLog })},
	{"HTTP_TIMEOUT", duration(func(c *Config) *time.Duration { return &c.HTTPTimeout })},
	{"USER_AGENT", str(func(c *Config) *string { return &c.UserAgent })},
	{"PROXIES", list(func(c *Config) *[]string { return &c.Proxies })},
	{"BASE_URL", str(func(c *Config) *string { return &c.BaseURL })},
	{"ENDPOINT", str(func(c *Config) *string { return &c.Endpoint })},
	{"MAX_PAGES", integer(func(c *Config) *int { return &c.MaxPages })},
	{"REQUESTS_PER_MINUTE", integer(func(c *Config) *int { return &c.RequestsPerMinute })},
	{"MAX_CONCURRENT", integer(func(c *Config) *int { return &c.MaxConcurrent })},
	{"BATCH_SIZE", integer(func(c *Config) *int { return &c.BatchSize })},
	{"CHECKPOINT_INTERVAL", integer(func(c *Config) *int { return &c.CheckpointInterval })},
	{"MAX_RETRIES", integer(func(c *Config) *int { return &c.MaxRetries })},
	{"RETRY_BASE_DELAY", duration(func(c *Config) *time.Duration { return &c.RetryBaseDelay })},
	{"RETRY_MAX_DELAY", duration(func(c *Config) *time.Duration { return &c.RetryMaxDelay })},
	{"DISCOVERY_RPS", func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		c.DiscoveryRPS = f
		return nil
	}},
	{"OUTPUT_DIR", str(func(c *Config) *string { return &c.OutputDir })},
	{"OUTPUT_FORMAT", str(func(c *Config) *string { return &c.OutputFormat })},
	{"INCLUDE_COORDINATES", boolean(func(c *Config) *bool { return &c.IncludeCoordinates })},
	{"RENDER_MODE", str(func(c *Config) *string { return &c.RenderMode })},
	{"BROWSER_POOL_SIZE", integer(func(c *Config) *int { return &c.BrowserPoolSize })},
	{"BROWSER_HEADLESS", boolean(func(c *Config) *bool { return &c.BrowserHeadless })},
	{"CHROME_PATH", str(func(c *Config) *string { return &c.ChromePath })},
	{"CACHE_TTL", duration(func(c *Config) *time.Duration { return &c.CacheTTL })},
	{"CACHE_MAX_SIZE_BYTES", func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		c.CacheMaxSizeBytes = n
		return nil
	}},
}

// applyEnv overrides cfg from MALLCRAWL_* variables. Empty values are ignored.
func applyEnv(cfg *Config, lookup lookupFunc) error {
	for _, b := range envBindings {
		v, ok := lookup(EnvPrefix + b.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := b.apply(cfg, strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return nil
}
