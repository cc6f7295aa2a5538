// internal/engine/static/fetcher.go
package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/law-makers/mallcrawl/internal/cache"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/proxy"
	"github.com/law-makers/mallcrawl/internal/reqctx"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultMaxBodyBytes = 10 * 1024 * 1024
	// DefaultUserAgent identifies the crawler when no agent is configured.
	DefaultUserAgent = "MallCrawl/1.0 (https://github.com/law-makers/mallcrawl)"
)

// Options configure a static Fetcher. Zero values take defaults; Cache and
// Proxies are optional.
type Options struct {
	Timeout      time.Duration
	UserAgent    string
	Headers      map[string]string
	MaxBodyBytes int64
	Cache        cache.Cache
	CacheTTL     time.Duration
	Proxies      *proxy.ProxyPool
}

// Fetcher retrieves raw page markup over plain HTTP. One Fetcher, and its
// connection pool, is shared by every worker of a run.
type Fetcher struct {
	client *http.Client
	opts   Options
}

// NewClient returns an HTTP client tuned for keep-alive reuse against a
// single site.
func NewClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// New creates a Fetcher around client. A nil client gets NewClient().
func New(client *http.Client, opts Options) *Fetcher {
	if client == nil {
		client = NewClient()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Fetcher{client: client, opts: opts}
}

func (f *Fetcher) Name() string {
	return "static"
}

// Fetch performs one GET. Any HTTP response, including 4xx and 5xx, is a
// successful fetch carrying its status and body. Only transport failures,
// timeouts and unreadable bodies produce Success=false.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) models.FetchResult {
	start := time.Now()
	ctx = reqctx.WithRequestContext(ctx, pageURL)
	logger := reqctx.Logger(ctx, log.Logger)

	if f.opts.Cache != nil {
		if res, ok := f.opts.Cache.Get(pageURL); ok {
			logger.Debug().Msg("Serving page from cache")
			return res
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	res := models.FetchResult{URL: pageURL}
	fail := func(err error) models.FetchResult {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", engine.ErrTimeout, f.opts.Timeout)
		}
		ferr := reqctx.NewRequestError(ctx, engine.FetchError(pageURL, err))
		res.Error = ferr.Error()
		res.Elapsed = time.Since(start)
		res.FetchedAt = time.Now()
		logger.Debug().Err(err).Dur("elapsed", res.Elapsed).Msg("Fetch failed")
		return res
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", engine.ErrInvalidURL, err))
	}
	f.setHeaders(req)

	client, proxyURL := f.clientFor()
	resp, err := client.Do(req)
	if err != nil {
		if proxyURL != "" {
			f.opts.Proxies.MarkFailed(proxyURL)
			logger.Warn().Str("proxy", proxyURL).Msg("Proxy marked as failed")
		}
		return fail(err)
	}
	defer resp.Body.Close()
	if proxyURL != "" {
		f.opts.Proxies.MarkHealthy(proxyURL)
	}

	body, err := readBody(resp, f.opts.MaxBodyBytes)
	if err != nil {
		return fail(fmt.Errorf("read body: %w", err))
	}

	res.Success = true
	res.StatusCode = resp.StatusCode
	res.Content = body
	res.Elapsed = time.Since(start)
	res.FetchedAt = time.Now()

	logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", res.Elapsed).
		Msg("Fetch completed")

	if f.opts.Cache != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_ = f.opts.Cache.Set(pageURL, res, f.opts.CacheTTL)
	}
	return res
}

func (f *Fetcher) setHeaders(req *http.Request) {
	ua := f.opts.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for key, value := range f.opts.Headers {
		req.Header.Set(key, value)
	}
}

// clientFor returns the client to use for the next request and the proxy it
// routes through, if any.
func (f *Fetcher) clientFor() (*http.Client, string) {
	if f.opts.Proxies == nil || f.opts.Proxies.Len() == 0 {
		return f.client, ""
	}
	p := f.opts.Proxies.GetNext()
	return &http.Client{
		Transport:     f.opts.Proxies.Transport(p),
		CheckRedirect: f.client.CheckRedirect,
		Jar:           f.client.Jar,
	}, p
}

// readBody decodes the body to UTF-8 using the declared or sniffed charset.
func readBody(resp *http.Response, limit int64) (string, error) {
	limited := io.LimitReader(resp.Body, limit)
	reader, err := charset.NewReader(limited, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close drops idle keep-alive connections.
func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	if f.opts.Proxies != nil {
		f.opts.Proxies.CloseIdle()
	}
	return nil
}
