package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/law-makers/mallcrawl/internal/engine"
	"github.com/law-makers/mallcrawl/internal/ratelimit"
	"github.com/law-makers/mallcrawl/internal/retry"
	"github.com/rs/zerolog/log"
)

// PageLimit caps how many listing pages one discovery walks.
const PageLimit = 100

// Stop reasons reported in Result.StopReason.
const (
	StopNoNewLinks = "no new links"
	StopLastPage   = "no next page"
	StopMaxPages   = "page limit reached"
	StopFetchError = "listing fetch failed"
)

// Options select which listing pages to walk.
type Options struct {
	BaseURL  string
	Endpoint string
	// StartPage resumes discovery from a later listing page.
	StartPage int
	// MaxPages bounds the walk; zero or anything above PageLimit means PageLimit.
	MaxPages int
}

// Result is the outcome of one discovery walk.
type Result struct {
	URLs         []string       `json:"urls"`
	Entries      []ListingEntry `json:"entries"`
	PagesVisited int            `json:"pages_visited"`
	LastPage     int            `json:"last_page"`
	StopReason   string         `json:"stop_reason"`
}

// Discoverer walks the paginated directory and collects detail page URLs.
type Discoverer struct {
	fetcher engine.Fetcher
	limiter ratelimit.RateLimiter
	retry   retry.Config
}

// New creates a Discoverer. limiter may be nil.
func New(f engine.Fetcher, limiter ratelimit.RateLimiter, cfg retry.Config) *Discoverer {
	return &Discoverer{fetcher: f, limiter: limiter, retry: cfg}
}

// Discover walks listing pages from opts.StartPage until a page adds no new
// links, has no next link, or the page limit is reached. A failure on the
// first page is returned as an error; later failures end the walk with what
// was collected. URLs are returned sorted.
func (d *Discoverer) Discover(ctx context.Context, opts Options) (*Result, error) {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.StartPage == 0 {
		opts.StartPage = 1
	}
	if opts.StartPage < 1 {
		return nil, engine.ConfigurationError(fmt.Sprintf("start page must be >= 1, got %d", opts.StartPage))
	}
	if opts.MaxPages <= 0 || opts.MaxPages > PageLimit {
		opts.MaxPages = PageLimit
	}

	res := &Result{}
	seen := make(map[string]bool)
	entrySeen := make(map[string]bool)

	for page := opts.StartPage; ; page++ {
		if res.PagesVisited >= opts.MaxPages {
			res.StopReason = StopMaxPages
			break
		}

		pageURL, err := PageURL(opts.BaseURL, opts.Endpoint, page)
		if err != nil {
			return nil, err
		}

		markup, err := d.fetchListing(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			if res.PagesVisited == 0 {
				return nil, err
			}
			log.Warn().Err(err).Int("page", page).Msg("Listing page failed, stopping discovery")
			res.StopReason = StopFetchError
			break
		}
		res.PagesVisited++
		res.LastPage = page

		links, err := ExtractLinks(markup, opts.BaseURL)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, u := range links {
			if !seen[u] {
				seen[u] = true
				res.URLs = append(res.URLs, u)
				added++
			}
		}

		entries, _ := ExtractEntries(markup, opts.BaseURL)
		for _, e := range entries {
			if !entrySeen[e.URL] {
				entrySeen[e.URL] = true
				res.Entries = append(res.Entries, e)
			}
		}

		log.Info().
			Int("page", page).
			Int("links", len(links)).
			Int("new", added).
			Int("total", len(res.URLs)).
			Msg("Scanned listing page")

		if added == 0 {
			res.StopReason = StopNoNewLinks
			break
		}
		if !HasNextPage(markup) {
			res.StopReason = StopLastPage
			break
		}
	}

	sort.Strings(res.URLs)
	return res, nil
}

// fetchListing fetches one listing page under the limiter and retry policy.
// HTTP error statuses are retried as configured.
func (d *Discoverer) fetchListing(ctx context.Context, pageURL string) (string, error) {
	var markup string
	err := retry.Do(ctx, d.retry, func(ctx context.Context) error {
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx, pageURL); err != nil {
				return err
			}
		}
		res := d.fetcher.Fetch(ctx, pageURL)
		if !res.Success {
			return engine.FetchError(pageURL, errors.New(res.Error))
		}
		if res.StatusCode >= 400 {
			return retry.NewHTTPError(pageURL, res.StatusCode)
		}
		markup = res.Content
		return nil
	})
	return markup, err
}
