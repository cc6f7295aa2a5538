// internal/engine/dynamic/fetcher.go
package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/reqctx"
	"github.com/law-makers/mallcrawl/pkg/models"
	"github.com/rs/zerolog/log"
)

const (
	DefaultTimeout = 30 * time.Second
	// DefaultSettle lets late scripts write coordinates into the DOM.
	DefaultSettle = 300 * time.Millisecond
)

// Options configure a rendering Fetcher.
type Options struct {
	Timeout time.Duration
	Settle  time.Duration
}

// Fetcher renders pages in headless Chrome and returns the resulting DOM.
type Fetcher struct {
	pool *BrowserPool
	opts Options
}

func New(pool *BrowserPool, opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Settle < 0 {
		opts.Settle = 0
	}
	return &Fetcher{pool: pool, opts: opts}
}

func (f *Fetcher) Name() string {
	return "dynamic"
}

// Fetch navigates a pooled tab to pageURL. The status code is taken from the
// main document response; the content is the rendered outer HTML.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) models.FetchResult {
	start := time.Now()
	ctx = reqctx.WithRequestContext(ctx, pageURL)
	logger := reqctx.Logger(ctx, log.Logger)
	res := models.FetchResult{URL: pageURL}

	fail := func(err error) models.FetchResult {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %s", engine.ErrTimeout, f.opts.Timeout)
		}
		res.Error = reqctx.NewRequestError(ctx, engine.FetchError(pageURL, err)).Error()
		res.Elapsed = time.Since(start)
		res.FetchedAt = time.Now()
		logger.Debug().Err(err).Msg("Render failed")
		return res
	}

	acquireCtx, cancelAcquire := context.WithTimeout(ctx, f.opts.Timeout)
	tab, err := f.pool.Acquire(acquireCtx)
	cancelAcquire()
	if err != nil {
		return fail(fmt.Errorf("acquire browser tab: %w", err))
	}
	defer f.pool.Release(tab)

	runCtx, cancel := context.WithTimeout(tab.Ctx, f.opts.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var (
		mu     sync.Mutex
		status int64
	)
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			status = e.Response.Status
			mu.Unlock()
		}
	})

	var html string
	err = chromedp.Run(runCtx,
		network.Enable(),
		chromedp.Navigate(pageURL),
		chromedp.Sleep(f.opts.Settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		return fail(err)
	}

	mu.Lock()
	res.StatusCode = int(status)
	mu.Unlock()
	res.Success = true
	res.Content = html
	res.Elapsed = time.Since(start)
	res.FetchedAt = time.Now()

	logger.Debug().
		Int("status", res.StatusCode).
		Int("bytes", len(html)).
		Dur("elapsed", res.Elapsed).
		Msg("Render completed")
	return res
}

// Close shuts down the browser pool.
func (f *Fetcher) Close() error {
	return f.pool.Close()
}
