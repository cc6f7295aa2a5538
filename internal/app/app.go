// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/law-makers/mallcrawl/internal/cache"
	"github.com/law-makers/mallcrawl/internal/config"
	"github.com/law-makers/mallcrawl/internal/discovery"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/engine/batch"
	"github.com/law-makers/mallcrawl/internal/engine/dynamic"
	"github.com/law-makers/mallcrawl/internal/engine/extract"
	"github.com/law-makers/mallcrawl/internal/engine/hybrid"
	"github.com/law-makers/mallcrawl/internal/engine/process"
	"github.com/law-makers/mallcrawl/internal/engine/static"
	"github.com/law-makers/mallcrawl/internal/proxy"
	"github.com/law-makers/mallcrawl/internal/ratelimit"
	"github.com/law-makers/mallcrawl/internal/retry"
	"github.com/law-makers/mallcrawl/internal/storage"
	"github.com/law-makers/mallcrawl/internal/utils/headers"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command and closed when the command returns, even
// when the command fails.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       *cache.MemoryCache
	HTTPClient  *http.Client
	Proxies     *proxy.ProxyPool
	Limiter     *ratelimit.DomainLimiter
	BrowserPool *dynamic.BrowserPool

	// Static always fetches plain HTTP; listing pages never need rendering.
	Static  *static.Fetcher
	Fetcher engine.Fetcher

	Discoverer *discovery.Discoverer
	Extractor  *extract.Extractor
	Processor  *process.Processor
	Store      *storage.Store
	Crawler    *batch.Crawler

	startTime time.Time
}

// SetupLogger configures the global zerolog logger from cfg and returns it.
func SetupLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = os.Stderr
	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return log.Logger
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the page cache, proxy pool and HTTP client
//   - Creates the fetcher for the configured render mode
//   - Wires discovery, extraction, processing, storage and the crawler
//
// If any step fails, resources allocated so far are released and an error
// is returned.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, engine.ConfigurationError("config is required")
	}

	logger := SetupLogger(cfg)
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	extraHeaders, err := headers.Parse(cfg.Headers)
	if err != nil {
		return nil, engine.ConfigurationError(err.Error())
	}

	a := &Application{Config: cfg, Logger: &logger, startTime: time.Now()}

	a.HTTPClient = static.NewClient()
	transport, _ := a.HTTPClient.Transport.(*http.Transport)
	a.Proxies, err = proxy.NewProxyPool(cfg.Proxies, transport)
	if err != nil {
		return nil, engine.ConfigurationError(err.Error())
	}

	staticOpts := static.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Headers:   extraHeaders,
		Proxies:   a.Proxies,
		CacheTTL:  cfg.CacheTTL,
	}
	if cfg.CacheMaxSizeBytes > 0 {
		a.Cache = cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
		staticOpts.Cache = a.Cache
		logger.Debug().Int64("max_size_bytes", cfg.CacheMaxSizeBytes).Msg("Memory cache initialized")
	}
	a.Static = static.New(a.HTTPClient, staticOpts)

	a.Fetcher, err = a.buildFetcher(models.RenderMode(cfg.RenderMode))
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	a.Limiter = ratelimit.NewDomainLimiter(cfg.DiscoveryRPS, cfg.DiscoveryBurst)
	a.Discoverer = discovery.New(a.Static, a.Limiter, a.retryConfig())
	a.Extractor = extract.New(cfg.BaseURL, cfg.ScriptTimeout)
	a.Processor = process.New(cfg.BaseURL)

	a.Store, err = storage.New(cfg.OutputDir, storage.Options{IncludeCoordinates: cfg.IncludeCoordinates})
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Crawler = batch.New(a.Fetcher, a.Extractor, a.Processor, a.Store, a.Store)

	logger.Debug().
		Str("fetcher", a.Fetcher.Name()).
		Str("output_dir", cfg.OutputDir).
		Int("proxies", a.Proxies.Len()).
		Msg("Application initialized")
	return a, nil
}

// buildFetcher picks the page fetcher. In auto mode a missing browser
// degrades to static fetching; in spa mode it is an error.
func (a *Application) buildFetcher(mode models.RenderMode) (engine.Fetcher, error) {
	if mode == models.RenderStatic || mode == "" {
		return a.Static, nil
	}

	chromePath := a.Config.ChromePath
	if chromePath == "" {
		chromePath = dynamic.FindChrome()
	}
	pool, err := dynamic.NewBrowserPool(dynamic.PoolOptions{
		Size:       a.Config.BrowserPoolSize,
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Proxies.GetNext(),
		ChromePath: chromePath,
	})
	if err != nil {
		if mode == models.RenderAuto {
			a.Logger.Warn().Err(err).Msg("Browser unavailable, falling back to static fetching")
			return a.Static, nil
		}
		return nil, err
	}
	a.BrowserPool = pool
	a.Logger.Info().Int("pool_size", pool.Size()).Msg("Browser pool initialized")

	rendered := dynamic.New(pool, dynamic.Options{Timeout: a.Config.HTTPTimeout})
	if mode == models.RenderSPA {
		return rendered, nil
	}
	return hybrid.New(a.Static, rendered), nil
}

func (a *Application) retryConfig() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = a.Config.MaxRetries + 1
	cfg.InitialBackoff = a.Config.RetryBaseDelay
	cfg.MaxBackoff = a.Config.RetryMaxDelay
	return cfg
}

// Concurrency resolves the admission limit; zero in config means auto.
func (a *Application) Concurrency() int {
	if a.Config.MaxConcurrent > 0 {
		return a.Config.MaxConcurrent
	}
	return batch.OptimalConcurrency(a.BrowserPool != nil)
}

// CrawlOptions builds orchestrator options from config.
func (a *Application) CrawlOptions(format models.OutputFormat) batch.Options {
	return batch.Options{
		Concurrency:       a.Concurrency(),
		RequestsPerMinute: a.Config.RequestsPerMinute,
		BatchSize:         a.Config.BatchSize,
		CheckpointEvery:   a.Config.CheckpointInterval,
		Format:            format,
	}
}

// Close gracefully shuts down the application and all its resources.
//
// It performs the following cleanup steps in order:
//   - Closes the page fetcher (browser pool and idle connections)
//   - Closes the database handle
//   - Stops the cache janitor
//
// Errors are joined; every step runs regardless.
func (a *Application) Close(_ context.Context) error {
	var errs []error

	switch {
	case a.Fetcher != nil:
		if err := a.Fetcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fetcher: %w", err))
		}
		if a.Fetcher != engine.Fetcher(a.Static) && a.Static != nil {
			_ = a.Static.Close()
		}
	case a.Static != nil:
		_ = a.Static.Close()
	}
	if a.Proxies != nil {
		a.Proxies.CloseIdle()
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}

	if a.Cache != nil {
		st := a.Cache.Stats()
		a.Logger.Debug().
			Int("entries", st.Entries).
			Uint64("hits", st.Hits).
			Uint64("misses", st.Misses).
			Float64("hit_rate", st.HitRate).
			Msg("Page cache stats")
		a.Cache.Close()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return errors.Join(errs...)
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
