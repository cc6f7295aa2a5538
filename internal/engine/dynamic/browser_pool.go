// internal/engine/dynamic/browser_pool.go
package dynamic

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPoolSize = 3
	MaxPoolSize     = 10
)

// BrowserPool hands out warmed-up browser tabs sharing one Chrome process.
type BrowserPool struct {
	size        int
	tabs        chan *Tab
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	closed      bool
}

// Tab is one chromedp browser context.
type Tab struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// PoolOptions configures the browser pool
type PoolOptions struct {
	Size       int
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
}

// allocatorOptions are the Chrome flags used for every pooled tab.
func allocatorOptions(opts PoolOptions) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.Flag("window-size", "1366,900"),
		chromedp.Flag("disk-cache-size", "0"),
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	chromePath := opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}

	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	return allocOpts
}

// NewBrowserPool starts Chrome and warms up opts.Size tabs.
func NewBrowserPool(opts PoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = DefaultPoolSize
	}
	if opts.Size > MaxPoolSize {
		opts.Size = MaxPoolSize
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	pool := &BrowserPool{
		size:        opts.Size,
		tabs:        make(chan *Tab, opts.Size),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}

	for i := 0; i < opts.Size; i++ {
		tabCtx, tabCancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(tabCtx, chromedp.Navigate("about:blank")); err != nil {
			tabCancel()
			pool.Close()
			return nil, fmt.Errorf("%w: warm up tab %d: %v", engine.ErrBrowserNotFound, i, err)
		}
		pool.tabs <- &Tab{Ctx: tabCtx, Cancel: tabCancel}
	}

	log.Debug().Int("pool_size", opts.Size).Msg("Browser pool ready")
	return pool, nil
}

// Acquire takes a tab, blocking until one is free or ctx is done.
func (bp *BrowserPool) Acquire(ctx context.Context) (*Tab, error) {
	select {
	case tab, ok := <-bp.tabs:
		if !ok {
			return nil, engine.ErrPoolClosed
		}
		bp.mu.Lock()
		defer bp.mu.Unlock()
		if bp.closed {
			tab.Cancel()
			return nil, engine.ErrPoolClosed
		}
		return tab, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release navigates the tab back to a blank page and returns it to the pool.
func (bp *BrowserPool) Release(tab *Tab) {
	bp.mu.Lock()
	if bp.closed {
		bp.mu.Unlock()
		tab.Cancel()
		return
	}
	bp.mu.Unlock()

	// best effort; a broken tab fails on its next use
	_ = chromedp.Run(tab.Ctx, chromedp.Navigate("about:blank"))

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		tab.Cancel()
		return
	}
	select {
	case bp.tabs <- tab:
	default:
		tab.Cancel()
		log.Warn().Msg("Browser pool full, discarding tab")
	}
}

// Close cancels every idle tab and stops Chrome. Tabs still checked out are
// cancelled when released.
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.tabs)
	for tab := range bp.tabs {
		tab.Cancel()
	}
	bp.allocCancel()

	log.Debug().Msg("Browser pool closed")
	return nil
}

func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of idle tabs.
func (bp *BrowserPool) Available() int {
	return len(bp.tabs)
}
