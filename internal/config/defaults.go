package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel    = "info"
	DefaultJSONLog     = false
	DefaultUserAgent   = "MallCrawl/1.0 (https://github.com/law-makers/mallcrawl)"
	DefaultHTTPTimeout = 30 * time.Second

	DefaultBaseURL  = "https://www.mecsr.org"
	DefaultEndpoint = "/directory-shopping-centres"

	DefaultRequestsPerMinute  = 30
	DefaultMaxConcurrent      = 10
	DefaultBatchSize          = 10
	DefaultCheckpointInterval = 10
	DefaultMaxRetries         = 3
	DefaultRetryBaseDelay     = time.Second
	DefaultRetryMaxDelay      = 30 * time.Second
	DefaultDiscoveryRPS       = 1.0
	DefaultDiscoveryBurst     = 2

	DefaultOutputDir          = "./data"
	DefaultOutputFormat       = "json"
	DefaultIncludeCoordinates = true

	DefaultRenderMode         = "static"
	DefaultBrowserPoolSize    = 3
	DefaultMaxBrowserPoolSize = 10
	DefaultBrowserHeadless    = true
	DefaultScriptTimeout      = 250 * time.Millisecond

	DefaultCacheTTL          = 5 * time.Minute
	DefaultCacheMaxSizeBytes = 100 * 1024 * 1024 // 100MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MALLCRAWL_"
)
